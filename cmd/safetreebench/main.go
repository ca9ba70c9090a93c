// Command safetreebench drives maps/bst or maps/avl with a configurable
// goroutine pool and a mixed insert/remove/lookup workload, reporting
// throughput alongside the structural invariants a correct run must
// preserve (key-sum conservation, sortedness, and, for the AVL tree,
// height balance).
package main

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BazookaMusic/safetree/safetree"
	"github.com/BazookaMusic/safetree/maps/avl"
	"github.com/BazookaMusic/safetree/maps/bst"
	"github.com/voxelbrain/goptions"
)

var getopts = func(o interface{}) {
	if err := goptions.Parse(o); err != nil {
		usage()
	}
}

var usage = func() {
	goptions.PrintHelp()
	os.Exit(1)
}

type options struct {
	Tree       string        `goptions:"--tree, description='Map under test: bst or avl (default bst)'"`
	Threads    int           `goptions:"--threads, description='Number of concurrent worker goroutines'"`
	Seed       int64         `goptions:"--seed, description='Seed for the initial key population and per-worker workloads'"`
	SeedKeys   int           `goptions:"--seed-keys, description='Distinct keys inserted before the timed run begins'"`
	KeyRange   int           `goptions:"--key-range, description='Keys are drawn uniformly from [0, key-range)'"`
	Duration   time.Duration `goptions:"--duration, description='How long to run the mixed workload'"`
	RetryKind  string        `goptions:"--retry, description='Retry policy: stubborn or half'"`
	MaxRetries int           `goptions:"--max-retries, description='Transactional retries before falling back to the global lock'"`
	Help       bool          `goptions:"--help, -h"`
}

func defaultOptions() options {
	return options{
		Tree:       "bst",
		Threads:    4,
		Seed:       1,
		SeedKeys:   50000,
		KeyRange:   100000,
		Duration:   5 * time.Second,
		RetryKind:  "stubborn",
		MaxRetries: 30,
	}
}

// orderedMap is the narrow surface both maps/bst.Map and maps/avl.Map
// satisfy, letting the mixed workload run identically regardless of which
// one the --tree flag selected.
type orderedMap interface {
	Insert(key int, val int) (bool, error)
	Remove(key int) (bool, error)
	Lookup(key int) (int, bool)
	Size() int
	KeySum() int
	IsSorted() bool
	Stats() safetree.Stats
}

// balancedMap is the additional capability maps/avl.Map has, checked at
// report time only.
type balancedMap interface {
	IsBalanced() bool
}

func main() {
	opts := defaultOptions()
	getopts(&opts)
	if opts.Help {
		usage()
		return
	}

	var retryKind safetree.RetryPolicyKind
	switch opts.RetryKind {
	case "half":
		retryKind = safetree.Half
	case "stubborn", "":
		retryKind = safetree.Stubborn
	default:
		fmt.Fprintf(os.Stderr, "safetreebench: unknown --retry %q (want stubborn or half)\n", opts.RetryKind)
		os.Exit(1)
	}
	engineOpts := []safetree.Option{safetree.WithRetryPolicy(retryKind, opts.MaxRetries)}

	var m orderedMap
	switch opts.Tree {
	case "avl":
		m = avl.New[int](engineOpts...)
	case "bst", "":
		m = bst.New[int](engineOpts...)
	default:
		fmt.Fprintf(os.Stderr, "safetreebench: unknown --tree %q (want bst or avl)\n", opts.Tree)
		os.Exit(1)
	}

	seedRand := rand.New(rand.NewSource(opts.Seed))
	startSum := 0
	seeded := make(map[int]struct{}, opts.SeedKeys)
	for len(seeded) < opts.SeedKeys {
		k := seedRand.Intn(opts.KeyRange)
		if _, dup := seeded[k]; dup {
			continue
		}
		seeded[k] = struct{}{}
		if ok, err := m.Insert(k, k); err != nil || !ok {
			fmt.Fprintf(os.Stderr, "safetreebench: seed insert of %d failed: %v\n", k, err)
			os.Exit(1)
		}
		startSum += k
	}
	fmt.Printf("seeded %d keys, start_sum=%d\n", len(seeded), startSum)

	var (
		insertedSum int64
		removedSum  int64
		ops         int64
		inserts     int64
		removes     int64
		lookups     int64
	)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < opts.Threads; w++ {
		wg.Add(1)
		go func(workerSeed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(workerSeed))
			for {
				select {
				case <-stop:
					return
				default:
				}
				k := r.Intn(opts.KeyRange)
				switch roll := r.Intn(100); {
				case roll < 33:
					if ok, _ := m.Insert(k, k); ok {
						atomic.AddInt64(&insertedSum, int64(k))
					}
					atomic.AddInt64(&inserts, 1)
				case roll < 66:
					if ok, _ := m.Remove(k); ok {
						atomic.AddInt64(&removedSum, int64(k))
					}
					atomic.AddInt64(&removes, 1)
				default:
					m.Lookup(k)
					atomic.AddInt64(&lookups, 1)
				}
				atomic.AddInt64(&ops, 1)
			}
		}(opts.Seed + int64(w) + 1)
	}

	start := time.Now()
	time.Sleep(opts.Duration)
	close(stop)
	wg.Wait()
	elapsed := time.Since(start)

	totalOps := atomic.LoadInt64(&ops)
	fmt.Printf("ran %s: %d ops (%d insert, %d remove, %d lookup), %.0f ops/sec\n",
		elapsed, totalOps, inserts, removes, lookups, float64(totalOps)/elapsed.Seconds())

	wantSum := startSum + int(atomic.LoadInt64(&insertedSum)) - int(atomic.LoadInt64(&removedSum))
	gotSum := m.KeySum()
	fmt.Printf("key_sum: want=%d got=%d match=%v\n", wantSum, gotSum, wantSum == gotSum)
	fmt.Printf("sorted: %v\n", m.IsSorted())
	if bm, ok := m.(balancedMap); ok {
		fmt.Printf("balanced: %v\n", bm.IsBalanced())
	}
	fmt.Printf("size: %d\n", m.Size())

	stats := m.Stats()
	fmt.Printf("stats: commits=%d fallback_commits=%d conflict_aborts=%d capacity_aborts=%d "+
		"validation_failed=%d retries_exhausted=%d lock_taken_aborts=%d other_aborts=%d\n",
		stats.Commits, stats.FallbackCommits, stats.ConflictAborts, stats.CapacityAborts,
		stats.ValidationFailed, stats.RetriesExhausted, stats.LockTakenAborts, stats.OtherAborts)
}
