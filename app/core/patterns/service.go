package patterns

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	config "vigil0/app/configs"
	"vigil0/app/core/journal"
	"vigil0/app/pkg/logger"
)

type eventSource interface {
	Events(ctx context.Context, from, to time.Time) ([]journal.Event, error)
}

// Service runs periodic analysis over the journal and keeps the latest
// routine set in memory for trigger evaluation. Distribution statistics read
// a short recency window; routine detection reads a longer one, since a
// weekly (weekday, hour) slot needs several weeks to accumulate occurrences.
type Service struct {
	source          eventSource
	analyzer        *Analyzer
	lookback        time.Duration
	routineLookback time.Duration
	path            string
	nowFn           func() time.Time

	mu       sync.RWMutex
	summary  Summary
	routines map[slot]Routine
}

func NewService(source eventSource, cfg config.PatternsConfig, dataDir string) *Service {
	lookback := time.Duration(cfg.LookbackDays) * 24 * time.Hour
	if lookback <= 0 {
		lookback = 7 * 24 * time.Hour
	}
	routineLookback := time.Duration(cfg.RoutineLookbackDays) * 24 * time.Hour
	if routineLookback <= 0 {
		routineLookback = 28 * 24 * time.Hour
	}
	if routineLookback < lookback {
		routineLookback = lookback
	}
	return &Service{
		source:          source,
		analyzer:        NewAnalyzer(cfg.RoutineMinOccurrences, cfg.RoutineConfidence),
		lookback:        lookback,
		routineLookback: routineLookback,
		path:            filepath.Join(dataDir, "routines.json"),
		nowFn:           time.Now,
		routines:        make(map[slot]Routine),
	}
}

// Run analyzes both lookback windows, rewrites the routines artifact and
// refreshes the in-memory routine set. Suitable as a scheduler job.
func (s *Service) Run(ctx context.Context) error {
	now := s.nowFn()
	events, err := s.source.Events(ctx, now.Add(-s.lookback), now)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	summary := s.analyzer.Analyze(events)

	if s.routineLookback > s.lookback {
		longEvents, err := s.source.Events(ctx, now.Add(-s.routineLookback), now)
		if err != nil {
			return fmt.Errorf("load routine events: %w", err)
		}
		summary.Routines = s.analyzer.detectRoutines(longEvents)
	}

	s.mu.Lock()
	s.summary = summary
	s.routines = make(map[slot]Routine, len(summary.Routines))
	for _, r := range summary.Routines {
		s.routines[slot{weekday: r.Weekday, hour: r.Hour}] = r
	}
	s.mu.Unlock()

	if err := s.writeArtifact(summary.Routines); err != nil {
		return fmt.Errorf("write routines: %w", err)
	}
	logger.Info("pattern analysis done, %d events, %d routines", summary.Total, len(summary.Routines))
	return nil
}

// Summary returns the result of the most recent analysis pass.
func (s *Service) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Preemptive reports the dominant request type when the given slot matches a
// known routine. It backs the routine trigger.
func (s *Service) Preemptive(weekday time.Weekday, hour int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.routines[slot{weekday: weekday, hour: hour}]
	if !ok {
		return "", false
	}
	return r.RequestType, true
}

func (s *Service) writeArtifact(routines []Routine) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if routines == nil {
		routines = []Routine{}
	}
	data, err := json.MarshalIndent(routines, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
