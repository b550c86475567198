// SPDX-License-Identifier: MIT

package dumpsource

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

// S3 is the subset of minio.Client used by MirrorCache. Defining our own
// narrow interface keeps this package testable against a fake, following
// the teacher's own s3.go.
type S3 interface {
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MirrorCache is an optional S3-compatible cache of downloaded dump shards,
// so that repeated runs (e.g. in CI) need not re-fetch multi-gigabyte files
// from Wikimedia every time. See SPEC_FULL §6.
type MirrorCache struct {
	S3     S3
	Bucket string
}

// Fetch copies objectName from the mirror into localPath, downloading to a
// temporary file first to decouple network I/O from the destination write
// (mirrors NewS3Reader's rationale in the teacher's s3.go). It reports
// whether the object was found.
func (m MirrorCache) Fetch(ctx context.Context, objectName, localPath string) (bool, error) {
	temp, err := os.CreateTemp("", "dumpsource-mirror-*")
	if err != nil {
		return false, err
	}
	tempPath := temp.Name()
	temp.Close()
	defer os.Remove(tempPath)

	if err := m.S3.FGetObject(ctx, m.Bucket, objectName, tempPath, minio.GetObjectOptions{}); err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("dumpsource: fetching %s from mirror: %w", objectName, err)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return false, err
	}
	if err := copyFile(tempPath, localPath); err != nil {
		return false, err
	}
	return true, nil
}

// Push uploads localPath to the mirror under objectName.
func (m MirrorCache) Push(ctx context.Context, localPath, objectName string) error {
	_, err := m.S3.FPutObject(ctx, m.Bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("dumpsource: pushing %s to mirror: %w", objectName, err)
	}
	return nil
}

// ListObjects returns the object keys currently stored under prefix.
func (m MirrorCache) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	opts := minio.ListObjectsOptions{Prefix: prefix}
	for obj := range m.S3.ListObjects(ctx, m.Bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
