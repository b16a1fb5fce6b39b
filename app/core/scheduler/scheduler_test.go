package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRegisterValidation(t *testing.T) {
	s := New()
	if err := s.Register(JobSpec{}); err == nil {
		t.Fatal("expected validation error")
	}

	valid := JobSpec{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Run:      func(context.Context) error { return nil },
	}
	if err := s.Register(valid); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := s.Register(valid); !errors.Is(err, ErrJobExists) {
		t.Fatalf("expected ErrJobExists, got: %v", err)
	}
}

func TestStartAndStop(t *testing.T) {
	s := New()
	var runs atomic.Int32

	err := s.Register(JobSpec{
		Name:       "counter",
		Interval:   10 * time.Millisecond,
		RunOnStart: true,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if runs.Load() == 0 {
		t.Fatal("expected job to run immediately when RunOnStart is true")
	}

	if err := s.Stop(200 * time.Millisecond); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestPauseSkipsRuns(t *testing.T) {
	s := New()
	var runs atomic.Int32

	err := s.Register(JobSpec{
		Name:     "pausable",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := s.Pause("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got: %v", err)
	}
	if err := s.Pause("pausable"); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Stop(200 * time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	if got := runs.Load(); got != 0 {
		t.Fatalf("expected no runs while paused, got %d", got)
	}

	if err := s.Resume("pausable"); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	deadline := time.After(500 * time.Millisecond)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected runs after resume")
		case <-time.After(5 * time.Millisecond):
		}
	}

	for _, st := range s.Snapshot() {
		if st.Name == "pausable" && st.Skipped == 0 {
			t.Fatal("expected skipped runs to be counted while paused")
		}
	}
}

func TestJobTimeout(t *testing.T) {
	s := New()
	finished := make(chan struct{}, 1)

	err := s.Register(JobSpec{
		Name:     "timeout",
		Interval: 10 * time.Millisecond,
		Timeout:  20 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			finished <- struct{}{}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Stop(200 * time.Millisecond)

	select {
	case <-finished:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected job to be cancelled by its timeout")
	}
}

func TestUnregisterStopsJob(t *testing.T) {
	s := New()
	var runs atomic.Int32

	err := s.Register(JobSpec{
		Name:     "short-lived",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Stop(200 * time.Millisecond)

	if err := s.Unregister("short-lived"); err != nil {
		t.Fatalf("unregister failed: %v", err)
	}
	settled := runs.Load()
	time.Sleep(50 * time.Millisecond)
	if got := runs.Load(); got != settled {
		t.Fatalf("expected no runs after unregister, had %d then %d", settled, got)
	}
}
