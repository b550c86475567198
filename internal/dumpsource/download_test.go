// SPDX-License-Identifier: MIT

package dumpsource

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParseDirectoryIndex(t *testing.T) {
	html := `<html><head><title>Index</title></head><body><h1>Index of /enwiki/</h1>` +
		`<pre><a href="../">../</a>` +
		`<a href="20240301/">20240301/</a>` +
		`<a href="latest/">latest/</a>` +
		`</pre></body></html>`

	names, err := parseDirectoryIndex(html)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"20240301/", "latest/"}
	if len(names) != len(want) {
		t.Fatalf("parseDirectoryIndex = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestFetchLatestSkipsIncompleteAndLatest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/enwiki/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><pre>` +
			`<a href="../">../</a>` +
			`<a href="20240201/">20240201/</a>` +
			`<a href="20240301/">20240301/</a>` +
			`<a href="latest/">latest/</a>` +
			`</pre></body></html>`))
	})
	mux.HandleFunc("/enwiki/20240301/dumpstatus.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version":"1.11","jobs":{"sitestatstable":{"status":"waiting"},"articlesmultistreamdump":{"status":"waiting"}}}`))
	})
	mux.HandleFunc("/enwiki/20240201/dumpstatus.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleManifest))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	version, manifest, err := FetchLatest(context.Background(), server.Client(), server.URL+"/enwiki/", "")
	if err != nil {
		t.Fatal(err)
	}
	if version != "20240201" {
		t.Errorf("version = %q, want %q", version, "20240201")
	}
	if !manifest.Done() {
		t.Error("expected a done manifest")
	}
}

func TestFetchLatestNoneComplete(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/enwiki/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><pre><a href="20240301/">20240301/</a></pre></body></html>`))
	})
	mux.HandleFunc("/enwiki/20240301/dumpstatus.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version":"1.11","jobs":{"sitestatstable":{"status":"waiting"},"articlesmultistreamdump":{"status":"waiting"}}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, _, err := FetchLatest(context.Background(), server.Client(), server.URL+"/enwiki/", "")
	if !errors.Is(err, ErrNoDumpFound) {
		t.Fatalf("err = %v, want ErrNoDumpFound", err)
	}
}

func TestDownloadFileVerifiesChecksum(t *testing.T) {
	content := []byte("pretend dump contents")
	sum := md5.Sum(content)
	digest := hex.EncodeToString(sum[:])

	mux := http.NewServeMux()
	mux.HandleFunc("/enwiki/20240301/file.bz2", func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	status := FileStatus{Size: uint64(len(content)), URL: "/enwiki/20240301/file.bz2", MD5: digest}
	if err := DownloadFile(context.Background(), server.Client(), server.URL, dir, status); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "enwiki", "20240301", "file.bz2"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(content) {
		t.Errorf("downloaded content = %q, want %q", data, content)
	}

	// Second call should be a no-op (file already present) even if the
	// checksum were to mismatch, since it never re-fetches.
	if err := DownloadFile(context.Background(), server.Client(), server.URL, dir, status); err != nil {
		t.Fatal(err)
	}
}

func TestDownloadFileChecksumMismatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/enwiki/20240301/bad.bz2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("actual contents"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	status := FileStatus{Size: 5, URL: "/enwiki/20240301/bad.bz2", MD5: "0000000000000000000000000000000"}
	err := DownloadFile(context.Background(), server.Client(), server.URL, dir, status)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("err = %v, want ErrChecksumMismatch", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "enwiki", "20240301", "bad.bz2")); !os.IsNotExist(statErr) {
		t.Error("expected corrupt download to be removed")
	}
}
