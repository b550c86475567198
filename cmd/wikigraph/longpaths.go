// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/zeramorphic/wikipedia/internal/metrics"
	"github.com/zeramorphic/wikipedia/internal/pathsolver"
	"github.com/zeramorphic/wikipedia/internal/pmap"
	"github.com/zeramorphic/wikipedia/internal/titlemap"
)

// runLongPaths launches workers sampler threads that each repeatedly pick
// two random non-redirect, main-namespace articles, solve the shortest path
// between them, and print it whenever it is at least as long as the best
// found so far. See spec §4.9 and §5 ("Path-sampler progress"). If
// metricsAddr is non-empty, a "/metrics" endpoint is also served on it for
// the duration of the run, matching the teacher's own
// cmd/qrank-webserver use of client_golang's promhttp handler.
func runLongPaths(dumpsDir, dataDir string, workers int, metricsAddr string) error {
	titles, err := loadTitleMap(dataDir, dumpsDir, true)
	if err != nil {
		return err
	}
	outgoing, err := loadOutgoing(dataDir, dumpsDir, titles, true)
	if err != nil {
		return err
	}
	incoming, err := loadIncoming(dataDir, outgoing, true)
	if err != nil {
		return err
	}
	fmt.Println("All data loaded.")

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Printf("metrics server on %s exited: %v", metricsAddr, err)
			}
		}()
		logger.Printf("serving metrics on %s", metricsAddr)
	}

	var longest int64
	var pathsTried int64
	var stdout sync.Mutex

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return sampleLongPaths(titles, outgoing, incoming, &longest, &pathsTried, &stdout)
		})
	}
	return g.Wait()
}

func sampleLongPaths(titles *titlemap.TitleMap, outgoing, incoming *pmap.Map[uint32, []uint32], longest, pathsTried *int64, stdout *sync.Mutex) error {
	for {
		start, _, ok, err := randomArticle(titles)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no eligible article found")
		}
		end, _, ok, err := randomArticle(titles)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no eligible article found")
		}

		path, found, err := pathsolver.Solve(start, end, outgoing, incoming)
		if err != nil {
			return err
		}

		tried := atomic.AddInt64(pathsTried, 1)
		if tried%100 == 0 {
			stdout.Lock()
			fmt.Printf("Tried %d paths\n", tried)
			stdout.Unlock()
		}

		if !found {
			continue
		}
		degree := int64(len(path))
		if degree < atomic.LoadInt64(longest) {
			continue
		}
		atomicMax(longest, degree)

		stdout.Lock()
		err = printPath(titles, path, true)
		stdout.Unlock()
		if err != nil {
			return err
		}
	}
}

func atomicMax(addr *int64, value int64) {
	for {
		old := atomic.LoadInt64(addr)
		if value <= old {
			return
		}
		if atomic.CompareAndSwapInt64(addr, old, value) {
			return
		}
	}
}
