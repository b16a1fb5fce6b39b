// Package coach computes working-habit metrics over the interaction journal
// and renders them into a periodic feedback report.
package coach

import (
	"sort"

	"vigil0/app/core/journal"
	"vigil0/app/pkg/types"
)

type Metrics struct {
	Total           int
	AvgDurationMS   int64
	ContextSwitches int
	DebugRatio      float64
	PeakHour        int
	TypeCounts      map[string]int
	StateCounts     map[types.ContextState]int
}

// Compute aggregates one report window. PeakHour is -1 when the window is
// empty. A context switch is a state change between consecutive events.
func Compute(events []journal.Event) Metrics {
	m := Metrics{
		PeakHour:    -1,
		TypeCounts:  make(map[string]int),
		StateCounts: make(map[types.ContextState]int),
	}
	if len(events) == 0 {
		return m
	}
	sorted := make([]journal.Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	hourCounts := make(map[int]int)
	var totalDuration int64
	for i, ev := range sorted {
		m.TypeCounts[ev.RequestType]++
		m.StateCounts[ev.State]++
		hourCounts[ev.Hour]++
		totalDuration += ev.DurationMS
		if i > 0 && sorted[i-1].State != ev.State {
			m.ContextSwitches++
		}
	}
	m.Total = len(sorted)
	m.AvgDurationMS = totalDuration / int64(len(sorted))
	m.DebugRatio = float64(m.TypeCounts["debug"]) / float64(m.Total)

	bestCount := -1
	for hour := 0; hour < 24; hour++ {
		if c := hourCounts[hour]; c > bestCount {
			m.PeakHour, bestCount = hour, c
		}
	}
	return m
}

// Score condenses a window into a 1..10 productivity figure. The formula is
// fixed so identical input always yields the identical score.
func Score(m Metrics) int {
	if m.Total == 0 {
		return 5
	}
	score := 5
	switch {
	case m.DebugRatio <= 0.25:
		score += 2
	case m.DebugRatio <= 0.4:
		score++
	case m.DebugRatio > 0.6:
		score -= 2
	}
	switchRate := float64(m.ContextSwitches) / float64(m.Total)
	switch {
	case switchRate < 0.2:
		score += 2
	case switchRate < 0.4:
		score++
	case switchRate > 0.7:
		score--
	}
	if m.StateCounts[types.StateDeepWork] > 0 {
		score++
	}
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score
}

func dominantState(counts map[types.ContextState]int) types.ContextState {
	best := types.StateAway
	bestCount := -1
	for _, state := range types.All() {
		if c := counts[state]; c > bestCount {
			best, bestCount = state, c
		}
	}
	return best
}

func dominantRequestType(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best, bestCount := "", -1
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}
