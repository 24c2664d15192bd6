package probe

import (
	"context"
	"testing"
	"time"

	"quizhub/aggregator/pkg/catalog"
)

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{name: "every 30 minutes", schedule: "*/30 * * * *", wantRunning: true},
		{name: "hourly", schedule: "0 * * * *", wantRunning: true},
		{name: "empty schedule", schedule: "", wantRunning: false},
		{name: "invalid schedule", schedule: "invalid cron", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProber(stubSource{}, catalog.SeriesListerFunc(
				func(context.Context, string) ([]catalog.TestSeriesSummary, error) { return nil, nil },
			), nil)
			s := NewScheduler(p, tt.schedule)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := s.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Errorf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if s.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", s.IsRunning(), tt.wantRunning)
			}

			if tt.wantRunning {
				next := s.NextRun()
				if next == nil || !next.After(time.Now()) {
					t.Errorf("NextRun() = %v, want a future time", next)
				}
				s.Stop()
				if s.IsRunning() {
					t.Error("scheduler still running after Stop()")
				}
			} else if s.NextRun() != nil {
				t.Error("NextRun() should be nil when idle")
			}
		})
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	p := testProber(stubSource{}, catalog.SeriesListerFunc(
		func(context.Context, string) ([]catalog.TestSeriesSummary, error) { return nil, nil },
	), nil)
	s := NewScheduler(p, "0 3 * * *")

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Error("scheduler still running after context cancellation")
	}
}
