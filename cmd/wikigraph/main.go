// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

var logger *log.Logger

func main() {
	ctx := context.Background()

	var dumps = flag.String("dumps", "data", "path under which dump files are stored")
	var data = flag.String("data", "data", "path under which indices and caches are stored")
	var workers = flag.Int("workers", 16, "number of sampler threads for long-paths")
	var version = flag.String("d", "", "explicit dump version (YYYYMMDD) to download, instead of the latest complete one")
	storagekey := flag.String("storagekey", "", "path to key with S3-compatible mirror-cache credentials, for download")
	metricsAddr := flag.String("metrics", "", "if set, serve Prometheus metrics on this address (e.g. :9090) during long-paths")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: wikigraph <download|random|links|path|long-paths> [args]")
		os.Exit(1)
	}

	if err := os.MkdirAll("logs", 0755); err != nil {
		fmt.Fprintf(os.Stderr, "creating logs directory: %v\n", err)
		os.Exit(1)
	}
	logPath := filepath.Join("logs", "wikigraph.log")
	logfile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}
	defer logfile.Close()
	logger = log.New(logfile, "", log.Ldate|log.Ltime|log.LUTC|log.Lshortfile)
	logger.Printf("wikigraph starting up: %s", flag.Arg(0))

	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	var cmdErr error
	switch cmd {
	case "download":
		cmdErr = runDownload(ctx, *dumps, *version, *storagekey)
	case "random":
		cmdErr = runRandom(*dumps, *data)
	case "links":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "usage: wikigraph links <article>")
			os.Exit(1)
		}
		cmdErr = runLinks(*dumps, *data, args[0])
	case "path":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: wikigraph path <start> <end>")
			os.Exit(1)
		}
		cmdErr = runPath(*dumps, *data, args[0], args[1])
	case "long-paths":
		cmdErr = runLongPaths(*dumps, *data, *workers, *metricsAddr)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		os.Exit(1)
	}

	if cmdErr != nil {
		logger.Printf("%s failed: %v", cmd, cmdErr)
		fmt.Fprintln(os.Stderr, cmdErr)
		os.Exit(1)
	}
	logger.Printf("%s finished", cmd)
}
