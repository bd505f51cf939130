package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/market-terminal/internal/market"
	"github.com/rickgao/market-terminal/internal/model"
)

// fakeSource serves fixed data and tracks watchlist concurrency.
type fakeSource struct {
	groupErr error
	failing  map[string]bool
	delay    time.Duration

	groupCalls  atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeSource) GetGroupedMarkets(ctx context.Context, opts market.ListOptions) (*market.GroupedPage, error) {
	f.groupCalls.Add(1)
	if f.groupErr != nil {
		return nil, f.groupErr
	}
	return &market.GroupedPage{
		Events: []model.GroupedEvent{{EventTicker: "KXFED-26DEC", Title: "Fed decision"}},
	}, nil
}

func (f *fakeSource) GetMarket(ctx context.Context, ticker string) (*model.Market, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failing[ticker] {
		return nil, errors.New("upstream unavailable")
	}
	return &model.Market{Ticker: ticker}, nil
}

// recorder collects snapshots handed to it.
type recorder struct {
	mu        sync.Mutex
	snapshots []model.Snapshot
}

func (r *recorder) HandleSnapshot(s model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func TestPoller_Poll(t *testing.T) {
	source := &fakeSource{failing: map[string]bool{"BAD-1": true}}
	cfg := Config{
		Interval:    time.Hour,
		Concurrency: 4,
		Timeout:     time.Second,
		Watchlist:   []string{"MKT-C", "BAD-1", "MKT-A", "MKT-B"},
	}
	p := New(cfg, source, nil)

	snapshot, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	if snapshot.CycleID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("CycleID is zero")
	}
	if snapshot.TakenAt.IsZero() {
		t.Error("TakenAt is zero")
	}
	if len(snapshot.Events) != 1 || snapshot.Events[0].EventTicker != "KXFED-26DEC" {
		t.Errorf("Events = %+v, want KXFED-26DEC", snapshot.Events)
	}

	want := []string{"MKT-C", "MKT-A", "MKT-B"}
	if len(snapshot.Markets) != len(want) {
		t.Fatalf("len(Markets) = %d, want %d", len(snapshot.Markets), len(want))
	}
	for i, m := range snapshot.Markets {
		if m.Ticker != want[i] {
			t.Errorf("Markets[%d] = %s, want %s", i, m.Ticker, want[i])
		}
	}
}

func TestPoller_Poll_FreshCycleIDs(t *testing.T) {
	p := New(Config{}, &fakeSource{}, nil)

	a, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	b, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if a.CycleID == b.CycleID {
		t.Errorf("cycle IDs repeated: %s", a.CycleID)
	}
}

func TestPoller_Poll_GroupedFailure(t *testing.T) {
	groupErr := errors.New("upstream 502")

	t.Run("no watchlist", func(t *testing.T) {
		p := New(Config{}, &fakeSource{groupErr: groupErr}, nil)
		if _, err := p.Poll(context.Background()); !errors.Is(err, groupErr) {
			t.Errorf("Poll() error = %v, want %v", err, groupErr)
		}
	})

	t.Run("watchlist survives", func(t *testing.T) {
		p := New(Config{Watchlist: []string{"MKT-A"}}, &fakeSource{groupErr: groupErr}, nil)
		snapshot, err := p.Poll(context.Background())
		if err != nil {
			t.Fatalf("Poll() error = %v", err)
		}
		if len(snapshot.Events) != 0 {
			t.Errorf("len(Events) = %d, want 0", len(snapshot.Events))
		}
		if len(snapshot.Markets) != 1 {
			t.Errorf("len(Markets) = %d, want 1", len(snapshot.Markets))
		}
	})
}

func TestPoller_Concurrency(t *testing.T) {
	watchlist := make([]string, 20)
	for i := range watchlist {
		watchlist[i] = "MKT-" + string(rune('A'+i))
	}
	source := &fakeSource{delay: 10 * time.Millisecond}
	p := New(Config{Concurrency: 3, Timeout: time.Second, Watchlist: watchlist}, source, nil)

	snapshot, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if len(snapshot.Markets) != 20 {
		t.Errorf("len(Markets) = %d, want 20", len(snapshot.Markets))
	}
	if got := source.maxInFlight.Load(); got > 3 {
		t.Errorf("max in flight = %d, want <= 3", got)
	}
}

func TestPoller_StartStop(t *testing.T) {
	source := &fakeSource{}
	rec := &recorder{}
	failing := SnapshotHandlerFunc(func(model.Snapshot) error {
		return errors.New("handler down")
	})

	p := New(Config{Interval: 20 * time.Millisecond}, source, nil, failing, rec)

	if _, ok := p.Latest(); ok {
		t.Error("Latest() ok before any cycle")
	}

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for rec.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("snapshots = %d, want >= 2", rec.count())
		}
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	latest, ok := p.Latest()
	if !ok {
		t.Fatal("Latest() ok = false after cycles")
	}
	rec.mu.Lock()
	last := rec.snapshots[len(rec.snapshots)-1]
	rec.mu.Unlock()
	if latest.CycleID != last.CycleID {
		t.Errorf("Latest().CycleID = %s, want %s", latest.CycleID, last.CycleID)
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(Config{}, &fakeSource{}, nil)
	def := DefaultConfig()
	if p.cfg.Interval != def.Interval || p.cfg.Concurrency != def.Concurrency || p.cfg.Timeout != def.Timeout {
		t.Errorf("cfg = %+v, want defaults %+v", p.cfg, def)
	}
}
