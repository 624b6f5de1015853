package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestRunBatch(t *testing.T) {
	log := zap.NewNop().Sugar()
	items := []batchItem[int]{{id: 1, item: 10}, {id: 2, item: 20}, {id: 3, item: 30}, {id: 4, item: 40}}

	t.Run("computes_every_item", func(t *testing.T) {
		got := runBatch(context.Background(), log, 2, "double", items,
			func(_ context.Context, v int) (int, error) { return v * 2, nil },
			func(int) int { return -1 },
		)

		want := map[uint]int{1: 20, 2: 40, 3: 60, 4: 80}
		for id, v := range want {
			if got[id] != v {
				t.Errorf("item %d: expected %d, got %d", id, v, got[id])
			}
		}
	})

	t.Run("failure_and_panic_use_fallback", func(t *testing.T) {
		got := runBatch(context.Background(), log, 0, "mixed", items,
			func(_ context.Context, v int) (int, error) {
				switch v {
				case 20:
					return 0, errors.New("boom")
				case 30:
					panic("nil pointer")
				}
				return v, nil
			},
			func(v int) int { return -v },
		)

		if got[1] != 10 || got[4] != 40 {
			t.Errorf("expected healthy items untouched, got %v", got)
		}
		if got[2] != -20 || got[3] != -30 {
			t.Errorf("expected fallbacks for failing items, got %v", got)
		}
	})

	t.Run("respects_limit", func(t *testing.T) {
		var running, peak int32
		runBatch(context.Background(), log, 1, "serial", items,
			func(_ context.Context, v int) (int, error) {
				n := atomic.AddInt32(&running, 1)
				if n > atomic.LoadInt32(&peak) {
					atomic.StoreInt32(&peak, n)
				}
				atomic.AddInt32(&running, -1)
				return v, nil
			},
			func(int) int { return 0 },
		)

		if peak != 1 {
			t.Errorf("expected at most 1 concurrent item, got %d", peak)
		}
	})

	t.Run("cancelled_context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		got := runBatch(cancelled, log, 2, "cancelled", items,
			func(_ context.Context, v int) (int, error) { return v, nil },
			func(int) int { return 0 },
		)

		if len(got) != len(items) {
			t.Fatalf("expected an entry per item, got %d", len(got))
		}
		for id, v := range got {
			if v != 0 {
				t.Errorf("item %d: expected fallback, got %d", id, v)
			}
		}
	})
}
