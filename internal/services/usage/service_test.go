package usage

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hfrankel/cursor-usage-tui/internal/models"
)

// fakeAggregator implements Aggregator with a swappable build function.
type fakeAggregator struct {
	calls atomic.Int64
	build func() (*models.UsageDisplayData, error)
}

func (f *fakeAggregator) BuildDisplayData(_ context.Context) (*models.UsageDisplayData, error) {
	f.calls.Add(1)
	return f.build()
}

func displayData(spend float64) *models.UsageDisplayData {
	return &models.UsageDisplayData{
		TotalSpendDollars: spend,
		Today:             models.PeriodSummary{Label: "Today", SpendDollars: spend},
	}
}

// waitForEvent receives the next event of the given type or fails the test.
func waitForEvent(t *testing.T, svc *Service, want EventType) Event {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-svc.Events():
			if ev.Type == want {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event type %d", want)
		}
	}
}

func TestServiceInitialRefresh(t *testing.T) {
	agg := &fakeAggregator{
		build: func() (*models.UsageDisplayData, error) {
			return displayData(1.25), nil
		},
	}

	svc := New(agg, Config{PollInterval: time.Hour})
	defer func() { _ = svc.Close() }()

	ev := waitForEvent(t, svc, EventDataUpdated)
	if ev.Data == nil || ev.Data.TotalSpendDollars != 1.25 {
		t.Errorf("event data = %+v", ev.Data)
	}

	snap := svc.Snapshot()
	if snap.Loading {
		t.Error("Loading should be false after first success")
	}
	if snap.Err != "" {
		t.Errorf("Err = %q, want empty", snap.Err)
	}
	if snap.Data == nil || snap.Data.TotalSpendDollars != 1.25 {
		t.Errorf("snapshot data = %+v", snap.Data)
	}
	if snap.LastUpdated.IsZero() {
		t.Error("LastUpdated not set")
	}
}

func TestServiceFailureBeforeFirstSuccess(t *testing.T) {
	agg := &fakeAggregator{
		build: func() (*models.UsageDisplayData, error) {
			return nil, errors.New("api down")
		},
	}

	svc := New(agg, Config{PollInterval: time.Hour})
	defer func() { _ = svc.Close() }()

	ev := waitForEvent(t, svc, EventRefreshError)
	if ev.Err == nil {
		t.Fatal("expected error in event")
	}

	snap := svc.Snapshot()
	if !snap.Loading {
		t.Error("Loading should stay true before any success")
	}
	if snap.Data != nil {
		t.Errorf("Data = %+v, want nil", snap.Data)
	}
	if snap.Err != "api down" {
		t.Errorf("Err = %q", snap.Err)
	}
}

func TestServiceFailureRetainsLastGoodData(t *testing.T) {
	var fail atomic.Bool
	agg := &fakeAggregator{
		build: func() (*models.UsageDisplayData, error) {
			if fail.Load() {
				return nil, errors.New("transient")
			}
			return displayData(3.00), nil
		},
	}

	svc := New(agg, Config{PollInterval: time.Hour})
	defer func() { _ = svc.Close() }()

	waitForEvent(t, svc, EventDataUpdated)

	fail.Store(true)
	svc.RequestRefresh()
	waitForEvent(t, svc, EventRefreshError)

	snap := svc.Snapshot()
	if snap.Data == nil || snap.Data.TotalSpendDollars != 3.00 {
		t.Errorf("stale data not retained: %+v", snap.Data)
	}
	if snap.Err != "transient" {
		t.Errorf("Err = %q", snap.Err)
	}
	if snap.Loading {
		t.Error("Loading should be false once data exists")
	}
}

func TestServiceCoalescesManualRefreshes(t *testing.T) {
	gate := make(chan struct{})
	agg := &fakeAggregator{
		build: func() (*models.UsageDisplayData, error) {
			<-gate
			return displayData(1), nil
		},
	}

	svc := New(agg, Config{PollInterval: time.Hour})
	defer func() { _ = svc.Close() }()

	// The initial refresh is blocked on the gate; these must coalesce to
	// a single pending follow-up.
	for i := 0; i < 5; i++ {
		svc.RequestRefresh()
	}

	gate <- struct{}{} // release initial refresh
	waitForEvent(t, svc, EventDataUpdated)
	gate <- struct{}{} // release the single coalesced follow-up
	waitForEvent(t, svc, EventDataUpdated)

	// No third refresh may be pending; the call count settles at two.
	time.Sleep(100 * time.Millisecond)
	if got := agg.calls.Load(); got != 2 {
		t.Errorf("refresh count = %d, want 2", got)
	}
}

func TestServiceSpendHistory(t *testing.T) {
	var spend atomic.Int64
	agg := &fakeAggregator{
		build: func() (*models.UsageDisplayData, error) {
			return displayData(float64(spend.Add(1))), nil
		},
	}

	svc := New(agg, Config{PollInterval: time.Hour})
	defer func() { _ = svc.Close() }()

	waitForEvent(t, svc, EventDataUpdated)
	svc.RequestRefresh()
	waitForEvent(t, svc, EventDataUpdated)

	history := svc.SpendHistory()
	if len(history) != 2 || history[0] != 1 || history[1] != 2 {
		t.Errorf("SpendHistory = %v, want [1 2]", history)
	}
}
