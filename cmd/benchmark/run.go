package main

import (
	"encoding/binary"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/digestparty/scope"
	"github.com/jamiealquiza/tachymeter"
)

const counterKey = "counter"

type result struct {
	scenario    scenario
	calc        *tachymeter.Metrics
	passes      int
	evaluations int
	dirty       int
	checksum    uint64
}

func (r result) evaluationsPerDigest() float64 {
	return float64(r.evaluations) / float64(r.scenario.Iterations)
}

// statsCounter sums digest stats over a whole scenario.
type statsCounter struct {
	digests     int
	passes      int
	evaluations int
	dirty       int
}

func (c *statsCounter) DigestStarted(*scope.Scope) {}

func (c *statsCounter) DigestFinished(_ *scope.Scope, stats scope.DigestStats, _ error) {
	c.digests++
	c.passes += stats.Passes
	c.evaluations += stats.Evaluations
	c.dirty += stats.DirtyWatchers
}

// buildTree spawns the scenario's scopes. Every watcher observes the root
// counter, through delegation, and writes a derived value to its own scope.
// Isolated scenarios copy the counter down explicitly instead.
func buildTree(sc scenario, opts ...scope.Option) (*scope.Scope, []*scope.Scope) {
	root := scope.NewRoot(opts...)
	root.Set(counterKey, 0)

	all := []*scope.Scope{root}
	for range sc.Width {
		parent := root
		for range sc.Depth {
			child := parent.SpawnChild(sc.Isolated)
			if sc.Isolated {
				src := parent
				child.Watch(func(*scope.Scope) (any, error) {
					v, _ := src.Get(counterKey)
					return v, nil
				}, func(newValue, _ any, s *scope.Scope) error {
					s.Set(counterKey, newValue)
					return nil
				}, false)
			}
			all = append(all, child)
			parent = child
		}
	}

	for _, s := range all {
		for i := range sc.Watchers {
			key := derivedKey(i)
			s.Watch(func(s *scope.Scope) (any, error) {
				n, _ := scope.Value[int](s, counterKey)
				return n + i, nil
			}, func(newValue, _ any, s *scope.Scope) error {
				s.Set(key, newValue)
				return nil
			}, false)
		}
	}
	return root, all
}

func derivedKey(i int) string {
	return "derived" + strconv.Itoa(i)
}

// checksum hashes every derived value in tree order so runs of the same
// scenario can be compared.
func checksum(scopes []*scope.Scope, watchers int) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, s := range scopes {
		for i := range watchers {
			v, _ := scope.Value[int](s, derivedKey(i))
			binary.LittleEndian.PutUint64(buf[:], uint64(v))
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}

func runScenario(sc scenario, logger *slog.Logger) (result, error) {
	counter := &statsCounter{}
	root, scopes := buildTree(sc, scope.WithLogger(logger), scope.WithObserver(counter))

	// settle the initial values outside of the measurement
	if err := root.Digest(); err != nil {
		return result{}, err
	}
	*counter = statsCounter{}

	tach := tachymeter.New(&tachymeter.Config{Size: sc.Iterations})
	for range sc.Iterations {
		start := time.Now()
		_, err := root.ApplyAndDigest(func(s *scope.Scope, _ any) (any, error) {
			n, _ := scope.Value[int](s, counterKey)
			s.Set(counterKey, n+1)
			return nil, nil
		})
		tach.AddTime(time.Since(start))
		if err != nil {
			return result{}, err
		}
	}

	return result{
		scenario:    sc,
		calc:        tach.Calc(),
		passes:      counter.passes,
		evaluations: counter.evaluations,
		dirty:       counter.dirty,
		checksum:    checksum(scopes, sc.Watchers),
	}, nil
}
