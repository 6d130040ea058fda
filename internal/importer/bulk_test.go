package importer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunRecordsEveryItem(t *testing.T) {
	for _, tc := range []struct {
		n, concurrency int
	}{
		{0, 5}, {1, 5}, {7, 5}, {100, 5}, {33, 1}, {10, 50},
	} {
		items := make([]int, tc.n)
		for i := range items {
			items[i] = i
		}
		var calls int64
		res, err := Run(context.Background(), items, Options{Concurrency: tc.concurrency}, func(ctx context.Context, item int) error {
			atomic.AddInt64(&calls, 1)
			if item%3 == 0 {
				return errors.New("boom")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("n=%d: item failures must not fail the batch, got %v", tc.n, err)
		}
		if res.Succeeded+res.Failed != tc.n || res.Total != tc.n {
			t.Fatalf("n=%d: succeeded+failed=%d want %d", tc.n, res.Succeeded+res.Failed, tc.n)
		}
		if int(calls) != tc.n {
			t.Fatalf("n=%d: save called %d times", tc.n, calls)
		}
		wantFailed := (tc.n + 2) / 3
		if res.Failed != wantFailed || len(res.Failures) != wantFailed {
			t.Fatalf("n=%d: failed want=%d got=%d (%d reports)", tc.n, wantFailed, res.Failed, len(res.Failures))
		}
		for i := 1; i < len(res.Failures); i++ {
			if res.Failures[i-1].Index > res.Failures[i].Index {
				t.Fatalf("failures should be ordered by index")
			}
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	items := make([]int, 40)
	var inFlight, peak int64
	_, _ = Run(context.Background(), items, Options{Concurrency: 5}, func(ctx context.Context, _ int) error {
		cur := atomic.AddInt64(&inFlight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if cur <= p || atomic.CompareAndSwapInt64(&peak, p, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return nil
	})
	if peak > 5 {
		t.Fatalf("peak concurrency %d exceeds 5", peak)
	}
}

func TestRunCancelledContextCountsRemainingAsFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	items := make([]int, 20)
	var once sync.Once
	res, err := Run(ctx, items, Options{Concurrency: 1}, func(ctx context.Context, _ int) error {
		once.Do(cancel)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want=%v got=%v", context.Canceled, err)
	}
	if res.Succeeded != 1 || res.Failed != 19 {
		t.Fatalf("want 1 succeeded and 19 failed, got %+v", res)
	}
}

func TestRunThrottlesProgress(t *testing.T) {
	items := make([]int, 50)
	var mu sync.Mutex
	var reports []Progress
	_, _ = Run(context.Background(), items, Options{
		Concurrency:      5,
		ProgressInterval: time.Hour,
		OnProgress: func(p Progress) {
			mu.Lock()
			reports = append(reports, p)
			mu.Unlock()
		},
	}, func(ctx context.Context, _ int) error { return nil })

	if len(reports) != 2 {
		t.Fatalf("want first and final report only, got %d", len(reports))
	}
	last := reports[len(reports)-1]
	if last.Done != 50 || last.Succeeded != 50 || last.Total != 50 {
		t.Fatalf("final report: %+v", last)
	}
}

func TestRunNamesFailures(t *testing.T) {
	names := []string{"flour", "sugar"}
	res, _ := Run(context.Background(), names, Options{Name: func(i int) string { return names[i] }}, func(ctx context.Context, n string) error {
		if n == "sugar" {
			return errors.New("duplicate")
		}
		return nil
	})
	if len(res.Failures) != 1 || res.Failures[0].Name != "sugar" || res.Failures[0].Error != "duplicate" {
		t.Fatalf("unexpected failures %+v", res.Failures)
	}
}
