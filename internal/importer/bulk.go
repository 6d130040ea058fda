package importer

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency      = 5
	DefaultProgressInterval = 120 * time.Millisecond
)

// Progress is reported while a batch runs.
type Progress struct {
	Done      int `json:"done"`
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type Failure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

type Result struct {
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`
}

type Options struct {
	Concurrency      int
	ProgressInterval time.Duration
	// OnProgress is called at most once per ProgressInterval and once more
	// when the batch finishes. Calls never overlap.
	OnProgress func(Progress)
	// Name labels an item in failure reports.
	Name func(index int) string
}

// Run saves every item with a fixed number of workers. Each worker pulls the
// next index from a shared counter; a failed save is recorded and the batch
// carries on. Items not reached before ctx is cancelled are recorded as
// failures, so Succeeded+Failed always equals len(items).
//
// The returned error is ctx.Err() if ctx was done before the workers
// finished, else nil.
func Run[T any](ctx context.Context, items []T, opts Options, save func(ctx context.Context, item T) error) (Result, error) {
	total := len(items)
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency > total && total > 0 {
		concurrency = total
	}
	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	var (
		next      int64 = -1
		succeeded int64
		failed    int64
		mu        sync.Mutex
		failures  []Failure
	)
	reporter := newThrottle(interval, opts.OnProgress)
	snapshot := func() Progress {
		s, f := int(atomic.LoadInt64(&succeeded)), int(atomic.LoadInt64(&failed))
		return Progress{Done: s + f, Total: total, Succeeded: s, Failed: f}
	}
	name := func(i int) string {
		if opts.Name == nil {
			return ""
		}
		return opts.Name(i)
	}

	// Save failures are collected per item, so the group only carries
	// cancellation.
	var g errgroup.Group
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for {
				i := int(atomic.AddInt64(&next, 1))
				if i >= total {
					return ctx.Err()
				}
				err := ctx.Err()
				if err == nil {
					err = save(ctx, items[i])
				}
				if err != nil {
					atomic.AddInt64(&failed, 1)
					mu.Lock()
					failures = append(failures, Failure{Index: i, Name: name(i), Error: err.Error()})
					mu.Unlock()
				} else {
					atomic.AddInt64(&succeeded, 1)
				}
				reporter.maybe(snapshot)
			}
		})
	}
	err := g.Wait()
	reporter.final(snapshot())

	sort.Slice(failures, func(a, b int) bool { return failures[a].Index < failures[b].Index })
	return Result{
		Total:     total,
		Succeeded: int(succeeded),
		Failed:    int(failed),
		Failures:  failures,
	}, err
}

// throttle forwards progress at most once per interval.
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	fn       func(Progress)
	now      func() time.Time
}

func newThrottle(interval time.Duration, fn func(Progress)) *throttle {
	return &throttle{interval: interval, fn: fn, now: time.Now}
}

func (t *throttle) maybe(snapshot func() Progress) {
	if t.fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return
	}
	t.last = now
	t.fn(snapshot())
}

func (t *throttle) final(p Progress) {
	if t.fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = t.now()
	t.fn(p)
}
