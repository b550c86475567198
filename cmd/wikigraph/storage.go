// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/zeramorphic/wikipedia/internal/dumpsource"
)

// NewMirrorCache sets up the optional S3-compatible mirror cache for
// downloaded dump shards, following the teacher's own NewStorageClient
// (cmd/qrank-builder/main.go). Credentials come from keypath if given,
// otherwise from the S3_ENDPOINT/S3_KEY/S3_SECRET/S3_BUCKET environment
// variables. If no endpoint is configured either way, NewMirrorCache
// returns a nil cache: the mirror is optional, and download falls back to
// fetching every file from Wikimedia directly.
func NewMirrorCache(keypath string) (*dumpsource.MirrorCache, error) {
	var config struct{ Endpoint, Key, Secret, Bucket string }

	if keypath == "" {
		config.Endpoint = os.Getenv("S3_ENDPOINT")
		config.Key = os.Getenv("S3_KEY")
		config.Secret = os.Getenv("S3_SECRET")
		config.Bucket = os.Getenv("S3_BUCKET")
	} else {
		data, err := os.ReadFile(keypath)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}

	if config.Endpoint == "" {
		return nil, nil
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.Key, config.Secret, ""),
		Secure: true,
	})
	if err != nil {
		return nil, err
	}
	client.SetAppInfo("wikigraph", "0.1")

	bucket := config.Bucket
	if bucket == "" {
		bucket = "wikigraph-dumps"
	}
	return &dumpsource.MirrorCache{S3: client, Bucket: bucket}, nil
}
