// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeramorphic/wikipedia/internal/dumpsource"
)

const dumpBaseURL = "https://dumps.wikimedia.org/enwiki/"

func runDownload(ctx context.Context, dumpsDir, version, storageKeyPath string) error {
	client := &http.Client{Timeout: 30 * time.Second}

	fmt.Println("Downloading dumps list")
	foundVersion, manifest, err := dumpsource.FetchLatest(ctx, client, dumpBaseURL, version)
	if err != nil {
		return fmt.Errorf("fetching dump manifest: %w", err)
	}
	fmt.Printf("Using version %s\n", foundVersion)

	if err := dumpsource.SaveManifest(dumpsDir, manifest); err != nil {
		return fmt.Errorf("saving dump manifest: %w", err)
	}

	mirror, err := NewMirrorCache(storageKeyPath)
	if err != nil {
		return fmt.Errorf("configuring mirror cache: %w", err)
	}
	if mirror != nil {
		logger.Printf("mirror cache enabled, bucket=%s", mirror.Bucket)
	}

	files := manifest.Files()
	i, total := 0, len(files)
	for name, status := range files {
		i++
		localPath := filepath.Join(dumpsDir, strings.TrimPrefix(status.URL, "/"))
		objectName := strings.TrimPrefix(status.URL, "/")

		if _, err := os.Stat(localPath); err == nil {
			continue
		}

		if mirror != nil {
			fmt.Printf("[%d/%d] Checking mirror for %s\n", i, total, name)
			found, err := mirror.Fetch(ctx, objectName, localPath)
			if err != nil {
				return fmt.Errorf("fetching %s from mirror: %w", name, err)
			}
			if found {
				continue
			}
		}

		fmt.Printf("[%d/%d] Downloading %s\n", i, total, name)
		downloadClient := &http.Client{Timeout: 0}
		if err := dumpsource.DownloadFile(ctx, downloadClient, "https://dumps.wikimedia.org", dumpsDir, status); err != nil {
			return fmt.Errorf("downloading %s: %w", name, err)
		}

		if mirror != nil {
			if err := mirror.Push(ctx, localPath, objectName); err != nil {
				return fmt.Errorf("pushing %s to mirror: %w", name, err)
			}
		}
	}
	return nil
}
