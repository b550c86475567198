// SPDX-License-Identifier: MIT

package dumpsource

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeramorphic/wikipedia/internal/dumpxml"
)

// ErrNoDumpFound is returned by FetchLatest when no completed dump version
// could be located in the directory listing.
var ErrNoDumpFound = errors.New("dumpsource: no completed dump found")

// ErrChecksumMismatch is returned by DownloadFile when a downloaded file's
// MD5 does not match the checksum declared in its manifest entry.
var ErrChecksumMismatch = errors.New("dumpsource: checksum mismatch")

// FetchLatest locates a usable dump manifest under baseURL (a directory such
// as "https://dumps.wikimedia.org/enwiki/"). If version is non-empty, only
// that version is consulted; otherwise the directory listing is walked
// newest-first (skipping the "latest" symlink entry) until a completed dump
// is found, matching original_source/src/commands/download.rs.
func FetchLatest(ctx context.Context, client *http.Client, baseURL, version string) (string, Manifest, error) {
	if version != "" {
		manifest, err := fetchManifest(ctx, client, baseURL, version)
		if err != nil {
			return "", Manifest{}, err
		}
		if !manifest.Done() {
			return "", Manifest{}, fmt.Errorf("dumpsource: dump version %s is not complete", version)
		}
		return version, manifest, nil
	}

	versions, err := fetchDirectoryVersions(ctx, client, baseURL)
	if err != nil {
		return "", Manifest{}, err
	}

	for i := len(versions) - 1; i >= 0; i-- {
		manifest, err := fetchManifest(ctx, client, baseURL, versions[i])
		if err != nil {
			return "", Manifest{}, err
		}
		if manifest.Done() {
			return versions[i], manifest, nil
		}
	}
	return "", Manifest{}, ErrNoDumpFound
}

// fetchDirectoryVersions downloads and parses the HTML directory index,
// returning dump version directories (e.g. "20240301") in listing order,
// with the "latest" alias and parent-directory entries removed.
func fetchDirectoryVersions(ctx context.Context, client *http.Client, baseURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dumpsource: fetching directory index: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dumpsource: directory index returned status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	names, err := parseDirectoryIndex(string(body))
	if err != nil {
		return nil, err
	}

	var versions []string
	for _, name := range names {
		dir := strings.TrimSuffix(name, "/")
		if dir == "" || dir == ".." || strings.Contains(dir, "latest") {
			continue
		}
		versions = append(versions, dir)
	}
	return versions, nil
}

// parseDirectoryIndex extracts every href from the <pre> listing of an
// Apache-style autoindex page, except the "../" and "./" links, using the same hand-written XML micro-parser
// as internal/dumpxml (Wikimedia's directory listing is tag soup too, per
// SPEC_FULL §7).
func parseDirectoryIndex(html string) ([]string, error) {
	root, _, err := dumpxml.ParseElement(html)
	if err != nil {
		return nil, fmt.Errorf("dumpsource: parsing directory index: %w", err)
	}
	body, ok := root.Find("body")
	if !ok {
		return nil, fmt.Errorf("dumpsource: directory index has no <body>")
	}
	pre, ok := body.Find("pre")
	if !ok {
		return nil, fmt.Errorf("dumpsource: directory index has no <pre>")
	}

	var hrefs []string
	for _, child := range pre.Children {
		href, ok := child.Attr("href")
		if !ok {
			continue
		}
		if href == "../" || href == "./" {
			continue
		}
		hrefs = append(hrefs, href)
	}
	return hrefs, nil
}

func fetchManifest(ctx context.Context, client *http.Client, baseURL, version string) (Manifest, error) {
	url := strings.TrimSuffix(baseURL, "/") + "/" + version + "/dumpstatus.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Manifest{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Manifest{}, fmt.Errorf("dumpsource: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Manifest{}, fmt.Errorf("dumpsource: %s returned status %s", url, resp.Status)
	}

	var manifest Manifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return Manifest{}, fmt.Errorf("dumpsource: parsing %s: %w", url, err)
	}
	return manifest, nil
}

// SaveManifest writes the selected dump manifest to data/current_dump.json,
// matching spec §6's filesystem layout.
func SaveManifest(dataDir string, manifest Manifest) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dataDir, "current_dump.json"), data, 0644)
}

// DownloadFile downloads one declared file into dataDir, mirroring its
// upstream path, and verifies its MD5 against status.MD5. If the file
// already exists locally, DownloadFile returns immediately without
// re-fetching it (matching download.rs's early-exit behavior).
func DownloadFile(ctx context.Context, client *http.Client, dumpsBaseURL, dataDir string, status FileStatus) error {
	localPath := filepath.Join(dataDir, strings.TrimPrefix(status.URL, "/"))
	if info, err := os.Stat(localPath); err == nil && info.Mode().IsRegular() {
		return nil
	}

	url := strings.TrimSuffix(dumpsBaseURL, "/") + "/" + strings.TrimPrefix(status.URL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("dumpsource: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dumpsource: %s returned status %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return err
	}
	out, err := os.Create(localPath)
	if err != nil {
		return err
	}

	hash := md5.New()
	_, copyErr := io.Copy(out, io.TeeReader(resp.Body, hash))
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(localPath)
		return fmt.Errorf("dumpsource: downloading %s: %w", url, copyErr)
	}
	if closeErr != nil {
		os.Remove(localPath)
		return closeErr
	}

	digest := hex.EncodeToString(hash.Sum(nil))
	if digest != status.MD5 {
		os.Remove(localPath)
		return fmt.Errorf("%w: %s: got %s, want %s", ErrChecksumMismatch, status.URL, digest, status.MD5)
	}
	return nil
}
