package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/delaneyj/digestparty/internal/logging"
	"github.com/delaneyj/digestparty/scope"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

func main() {
	log.Print("Starting watcher benchmark, please wait...")
	defer log.Print("Finished watcher benchmark")

	testCfgs := []watcherTestConfig{
		{
			name:           "first of 100",
			scopes:         1,
			perScope:       100,
			dirtyIndex:     0,
			repeats:        1000,
			expectedFirst:  200,
			expectedSecond: 101,
		},
		{
			name:           "last of 100",
			scopes:         1,
			perScope:       100,
			dirtyIndex:     99,
			repeats:        1000,
			expectedFirst:  200,
			expectedSecond: 200,
		},
		{
			name:           "middle of 1000",
			scopes:         1,
			perScope:       1000,
			dirtyIndex:     499,
			repeats:        200,
			expectedFirst:  2000,
			expectedSecond: 1500,
		},
		{
			name:           "first child of 10",
			scopes:         10,
			perScope:       100,
			dirtyIndex:     100,
			repeats:        200,
			expectedFirst:  2000,
			expectedSecond: 1101,
		},
		{
			name:           "structural first of 100",
			scopes:         1,
			perScope:       100,
			dirtyIndex:     0,
			structural:     true,
			repeats:        1000,
			expectedFirst:  200,
			expectedSecond: 101,
		},
		{
			name:           "structural across 50 scopes",
			scopes:         50,
			perScope:       20,
			dirtyIndex:     10,
			structural:     true,
			repeats:        200,
			expectedFirst:  2000,
			expectedSecond: 1011,
		},
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"test", "scopes", "watchers", "dirty", "mode",
		"first", "second", "full scan", "saved", "time",
	})

	logger := logging.NewNop()
	for _, cfg := range testCfgs {
		log.Printf("Running '%s' config", cfg.name)
		res, err := runWatcherTest(cfg, logger)
		if err != nil {
			log.Fatalf("%s: %v", cfg.name, err)
		}
		if res.first != cfg.expectedFirst || res.second != cfg.expectedSecond {
			log.Printf("'%s' evaluated %d/%d watchers, expected %d/%d",
				cfg.name, res.first, res.second, cfg.expectedFirst, cfg.expectedSecond)
		}

		mode := "identity"
		if cfg.structural {
			mode = "structural"
		}
		fullScan := 2 * cfg.total()
		saved := 100 * float64(fullScan-res.second) / float64(fullScan)

		table.Append([]string{
			cfg.name,                       // test
			humanize.Comma(cfg.scopes),     // scopes
			humanize.Comma(cfg.total()),    // watchers
			humanize.Comma(cfg.dirtyIndex), // dirty
			mode,                           // mode
			humanize.Comma(res.first),      // first
			humanize.Comma(res.second),     // second
			humanize.Comma(fullScan),       // full scan
			fmt.Sprintf("%0.1f%%", saved),  // saved
			fmt.Sprint(res.best),           // time
		})
	}
	table.Render()
}

type watcherTestConfig struct {
	name           string // friendly name for the test, should be unique
	scopes         int64  // scopes holding watchers, the root included
	perScope       int64  // watchers registered on each scope
	dirtyIndex     int64  // registration index of the watcher to dirty
	structural     bool   // compare a fresh slice per evaluation structurally
	repeats        int    // timed digests
	expectedFirst  int64  // evaluations of the settling digest
	expectedSecond int64  // evaluations after dirtying one watcher
}

func (c watcherTestConfig) total() int64 {
	return c.scopes * c.perScope
}

type watcherResult struct {
	first, second int64
	best          time.Duration
}

type lastStats struct {
	stats scope.DigestStats
}

func (l *lastStats) DigestStarted(*scope.Scope) {}

func (l *lastStats) DigestFinished(_ *scope.Scope, stats scope.DigestStats, _ error) {
	l.stats = stats
}

// runWatcherTest registers one watcher per value, in order, spread over the
// root and its children, settles the tree, then repeatedly changes the single
// value at dirtyIndex and digests.
func runWatcherTest(cfg watcherTestConfig, logger *slog.Logger) (watcherResult, error) {
	last := &lastStats{}
	root := scope.NewRoot(scope.WithLogger(logger), scope.WithObserver(last))

	values := make([]int, cfg.total())
	root.Set("values", values)

	holders := []*scope.Scope{root}
	for int64(len(holders)) < cfg.scopes {
		holders = append(holders, root.SpawnChild(false))
	}

	for h, s := range holders {
		for j := range cfg.perScope {
			i := int64(h)*cfg.perScope + j
			s.Watch(func(s *scope.Scope) (any, error) {
				v, _ := scope.Value[[]int](s, "values")
				if cfg.structural {
					return []int{v[i]}, nil
				}
				return v[i], nil
			}, nil, cfg.structural)
		}
	}

	if err := root.Digest(); err != nil {
		return watcherResult{}, err
	}
	res := watcherResult{
		first: int64(last.stats.Evaluations),
		best:  time.Hour,
	}

	for range cfg.repeats {
		values[cfg.dirtyIndex]++
		start := time.Now()
		if err := root.Digest(); err != nil {
			return watcherResult{}, err
		}
		if d := time.Since(start); d < res.best {
			res.best = d
		}
		res.second = int64(last.stats.Evaluations)
	}
	return res, nil
}
