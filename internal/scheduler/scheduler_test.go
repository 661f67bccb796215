package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"MarketWatch/internal/config"

	"go.uber.org/zap"
)

type fakeTarget struct {
	ticks     atomic.Int32
	refreshes atomic.Int32
	fail      atomic.Bool
	block     chan struct{}
}

func (f *fakeTarget) Tick(context.Context) error {
	f.ticks.Add(1)
	return nil
}

func (f *fakeTarget) Refresh(context.Context) error {
	f.refreshes.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.fail.Load() {
		return errors.New("upstream down")
	}
	return nil
}

func testConfig() config.ScheduleConfig {
	return config.ScheduleConfig{
		TickInterval:    time.Second,
		RefreshInterval: time.Second,
		MaxBackoff:      5 * time.Second,
		MaxRetries:      3,
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := New(testConfig(), &fakeTarget{}, zap.NewNop())
	s.Stop()
	s.Stop()
	s.Start()
	s.Start()
	if got := s.Status().State; got != StateEnabled {
		t.Fatalf("state = %s, want enabled", got)
	}
	s.Stop()
	s.Stop()
	if got := s.Status().State; got != StateDisabled {
		t.Fatalf("state = %s, want disabled", got)
	}
}

func TestHaltAtMaxRetries(t *testing.T) {
	s := New(testConfig(), &fakeTarget{}, zap.NewNop())
	halted := make(chan error, 1)
	s.OnHalt = func(err error) { halted <- err }
	s.Start()
	defer s.Stop()

	s.OnFetchFailure(errors.New("boom"))
	s.OnFetchFailure(errors.New("boom"))
	if st := s.Status(); st.Halted || st.RetryCount != 2 {
		t.Fatalf("status after 2 failures = %+v", st)
	}
	s.OnFetchFailure(errors.New("boom"))

	st := s.Status()
	if !st.Halted || st.Connected || st.RetryCount != 3 || st.LastError != "boom" {
		t.Fatalf("status after max retries = %+v", st)
	}
	select {
	case <-halted:
	case <-time.After(time.Second):
		t.Fatal("OnHalt not called")
	}
	s.mu.Lock()
	armed := s.cron != nil
	s.mu.Unlock()
	if armed {
		t.Error("cron should be stopped once halted")
	}
}

func TestManualRefreshResetsAndResumes(t *testing.T) {
	target := &fakeTarget{}
	s := New(testConfig(), target, zap.NewNop())
	s.Start()
	defer s.Stop()
	for i := 0; i < 3; i++ {
		s.OnFetchFailure(errors.New("boom"))
	}

	if err := s.ManualRefresh(context.Background()); err != nil {
		t.Fatalf("ManualRefresh: %v", err)
	}
	st := s.Status()
	if st.Halted || st.RetryCount != 0 || !st.Connected || st.LastUpdate.IsZero() {
		t.Fatalf("status after manual refresh = %+v", st)
	}
	s.mu.Lock()
	armed := s.cron != nil
	s.mu.Unlock()
	if !armed {
		t.Error("polling should resume after manual refresh")
	}
}

func TestManualRefreshWhileDisabled(t *testing.T) {
	target := &fakeTarget{}
	target.fail.Store(true)
	s := New(testConfig(), target, zap.NewNop())
	if err := s.ManualRefresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	st := s.Status()
	if st.State != StateDisabled || st.RetryCount != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestFailuresWhileDisabledDoNotHalt(t *testing.T) {
	s := New(testConfig(), &fakeTarget{}, zap.NewNop())
	var halts atomic.Int32
	s.OnHalt = func(error) { halts.Add(1) }
	for i := 0; i < 3; i++ {
		s.OnFetchFailure(errors.New("boom"))
	}
	if st := s.Status(); st.Halted || st.RetryCount != 3 {
		t.Fatalf("disabled status = %+v", st)
	}

	s.Start()
	defer s.Stop()
	if st := s.Status(); st.Halted || st.RetryCount != 0 {
		t.Fatalf("status after start = %+v", st)
	}
	for i := 0; i < 3; i++ {
		s.OnFetchFailure(errors.New("boom"))
	}
	st := s.Status()
	if st.State != StateEnabled || !st.Halted || st.RetryCount != 3 {
		t.Fatalf("status after max retries = %+v", st)
	}
	s.mu.Lock()
	armed := s.cron != nil
	s.mu.Unlock()
	if armed {
		t.Error("cron should be stopped once halted")
	}
	deadline := time.Now().Add(time.Second)
	for halts.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := halts.Load(); n != 1 {
		t.Errorf("OnHalt calls = %d, want 1", n)
	}
}

func TestManualRefreshWhileDisabledSingleRetry(t *testing.T) {
	target := &fakeTarget{}
	target.fail.Store(true)
	cfg := testConfig()
	cfg.MaxRetries = 1
	s := New(cfg, target, zap.NewNop())
	if err := s.ManualRefresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if st := s.Status(); st.Halted {
		t.Fatalf("disabled scheduler halted: %+v", st)
	}
	s.Start()
	defer s.Stop()
	s.OnFetchFailure(errors.New("boom"))
	if st := s.Status(); !st.Halted {
		t.Errorf("enabled scheduler did not halt: %+v", st)
	}
}

func TestStaleRefreshDiscarded(t *testing.T) {
	target := &fakeTarget{block: make(chan struct{})}
	target.fail.Store(true)
	s := New(testConfig(), target, zap.NewNop())
	s.Start()

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.runRefresh(context.Background(), epoch)
		close(done)
	}()
	for target.refreshes.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	s.Stop()
	close(target.block)
	<-done

	st := s.Status()
	if st.RetryCount != 0 || st.State != StateDisabled {
		t.Errorf("stale failure leaked into status: %+v", st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		t.Error("stale result re-armed the runner")
	}
}

func TestBackoff(t *testing.T) {
	cfg := config.ScheduleConfig{RefreshInterval: 30 * time.Second, MaxBackoff: 5 * time.Minute, MaxRetries: 10}
	s := New(cfg, &fakeTarget{}, zap.NewNop())
	want := []time.Duration{30 * time.Second, time.Minute, 2 * time.Minute, 4 * time.Minute, 5 * time.Minute, 5 * time.Minute}
	for i, w := range want {
		s.retryCount = i + 1
		if got := s.backoff(); got != w {
			t.Errorf("retry %d: backoff = %v, want %v", i+1, got, w)
		}
	}
}

func TestRefreshSkippedDuringBackoff(t *testing.T) {
	target := &fakeTarget{}
	cfg := config.ScheduleConfig{RefreshInterval: 30 * time.Second, MaxBackoff: 5 * time.Minute, MaxRetries: 10}
	s := New(cfg, target, zap.NewNop())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.retryCount = 2
	s.lastAttempt = now.Add(-30 * time.Second)
	s.runRefresh(context.Background(), s.epoch)
	if target.refreshes.Load() != 0 {
		t.Fatal("refresh ran inside the backoff window")
	}

	s.lastAttempt = now.Add(-time.Minute)
	s.runRefresh(context.Background(), s.epoch)
	if target.refreshes.Load() != 1 {
		t.Fatal("refresh should run once the backoff elapsed")
	}
	if s.Status().RetryCount != 0 {
		t.Error("success should clear retries")
	}
}

func TestPollingStopsDeterministically(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	target := &fakeTarget{}
	s := New(testConfig(), target, zap.NewNop())
	s.Start()

	deadline := time.Now().Add(3 * time.Second)
	for (target.ticks.Load() == 0 || target.refreshes.Load() == 0) && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if target.ticks.Load() == 0 || target.refreshes.Load() == 0 {
		t.Fatalf("jobs did not fire: ticks=%d refreshes=%d", target.ticks.Load(), target.refreshes.Load())
	}

	s.Stop()
	time.Sleep(100 * time.Millisecond)
	ticks, refreshes := target.ticks.Load(), target.refreshes.Load()
	time.Sleep(1500 * time.Millisecond)
	if target.ticks.Load() != ticks || target.refreshes.Load() != refreshes {
		t.Errorf("jobs fired after Stop: ticks %d->%d refreshes %d->%d",
			ticks, target.ticks.Load(), refreshes, target.refreshes.Load())
	}
}
