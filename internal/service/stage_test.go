package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/price-search/internal/domain"
)

func TestRunOrdered_PreservesOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}

	for _, limit := range []int{0, 1, 2, 5} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			out, err := runOrdered(context.Background(), items, limit, func(_ context.Context, _ int, n int) (int, error) {
				time.Sleep(time.Duration(n) * time.Millisecond)
				return n * 10, nil
			})
			if err != nil {
				t.Fatalf("runOrdered() error = %v", err)
			}
			for i, n := range items {
				if out[i] != n*10 {
					t.Errorf("out[%d] = %d, want %d", i, out[i], n*10)
				}
			}
		})
	}
}

func TestRunOrdered_RespectsLimit(t *testing.T) {
	var current, peak atomic.Int32

	_, err := runOrdered(context.Background(), make([]int, 8), 2, func(_ context.Context, _ int, _ int) (struct{}, error) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		current.Add(-1)
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("runOrdered() error = %v", err)
	}
	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestRunOrdered_FirstErrorStopsRest(t *testing.T) {
	boom := errors.New("boom")
	var ran atomic.Int32

	_, err := runOrdered(context.Background(), []int{0, 1, 2, 3}, 1, func(_ context.Context, i int, _ int) (int, error) {
		ran.Add(1)
		if i == 1 {
			return 0, boom
		}
		return i, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("runOrdered() error = %v, want boom", err)
	}
	if ran.Load() != 2 {
		t.Errorf("ran %d items, want 2", ran.Load())
	}
}

func TestRunOrdered_Empty(t *testing.T) {
	out, err := runOrdered(context.Background(), []string(nil), 1, func(context.Context, int, string) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	})
	if err != nil || out == nil || len(out) != 0 {
		t.Errorf("runOrdered(nil) = %#v, %v", out, err)
	}
}

func TestHandleStageError(t *testing.T) {
	s := NewSearchService(QueryServiceDeps{Logger: zap.NewNop()})
	model := errors.New("model down")

	tests := []struct {
		name    string
		stage   stage
		err     error
		wantErr error
	}{
		{"nil error", stageSummarize, nil, nil},
		{"links deadline aborts", stageLinks, context.DeadlineExceeded, domain.ErrRequestTimeout},
		{"links provider error continues", stageLinks, domain.ErrSearchProvider, nil},
		{"summarize deadline aborts", stageSummarize, fmt.Errorf("wrap: %w", context.DeadlineExceeded), domain.ErrRequestTimeout},
		{"summarize model error aborts", stageSummarize, model, model},
		{"fetch error continues", stageFetch, domain.ErrFetch, nil},
		{"fetch deadline continues", stageFetch, context.DeadlineExceeded, nil},
		{"filter error continues", stageFilter, domain.ErrFilterItem, nil},
		{"image error continues", stageImages, context.DeadlineExceeded, nil},
		{"cache error aborts", stageCache, domain.ErrCacheUnavailable, domain.ErrCacheUnavailable},
		{"links cancel aborts", stageLinks, fmt.Errorf("%w: search", context.Canceled), context.Canceled},
		{"images cancel aborts", stageImages, context.Canceled, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.handleStageError(tt.stage, tt.err)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("handleStageError() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("handleStageError() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStagePoliciesCoverEveryStage(t *testing.T) {
	for _, st := range []stage{stageCache, stageLinks, stageFetch, stageSummarize, stageFilter, stageImages} {
		if _, ok := stagePolicies[st]; !ok {
			t.Errorf("stage %q has no policy", st)
		}
	}
}
