// Package patterns turns the interaction journal into usage statistics and
// recurring-routine candidates. Analysis is deterministic aggregation, not
// model training.
package patterns

import (
	"math"
	"sort"
	"time"

	"vigil0/app/core/journal"
)

// Routine is a recurring-pattern candidate at one (weekday, hour) slot.
// Routines are derived, rewritten in full on each pass and never hand-edited.
type Routine struct {
	Weekday     time.Weekday `json:"weekday"`
	Hour        int          `json:"hour"`
	RequestType string       `json:"request_type"`
	Occurrences int          `json:"occurrences"`
	Confidence  float64      `json:"confidence"`
}

type Summary struct {
	Total         int            `json:"total"`
	HourCounts    map[int]int    `json:"hour_counts"`
	PeakHours     []int          `json:"peak_hours"`
	TypeCounts    map[string]int `json:"type_counts"`
	AvgDurationMS int64          `json:"avg_duration_ms"`
	Routines      []Routine      `json:"routines"`
}

type Analyzer struct {
	minOccurrences int
	threshold      float64
}

func NewAnalyzer(minOccurrences int, threshold float64) *Analyzer {
	if minOccurrences <= 0 {
		minOccurrences = 3
	}
	if threshold <= 0 || threshold > 1 {
		threshold = 0.7
	}
	return &Analyzer{minOccurrences: minOccurrences, threshold: threshold}
}

// Analyze aggregates a window of events. Given identical input it always
// produces identical output.
func (a *Analyzer) Analyze(events []journal.Event) Summary {
	summary := Summary{
		HourCounts: make(map[int]int),
		TypeCounts: make(map[string]int),
	}
	if len(events) == 0 {
		return summary
	}

	var totalDuration int64
	for _, ev := range events {
		summary.HourCounts[ev.Hour]++
		summary.TypeCounts[ev.RequestType]++
		totalDuration += ev.DurationMS
	}
	summary.Total = len(events)
	summary.AvgDurationMS = totalDuration / int64(len(events))
	summary.PeakHours = peakHours(summary.HourCounts, 4)
	summary.Routines = a.detectRoutines(events)
	return summary
}

func peakHours(counts map[int]int, limit int) []int {
	type hourCount struct {
		hour  int
		count int
	}
	items := make([]hourCount, 0, len(counts))
	for h, c := range counts {
		items = append(items, hourCount{hour: h, count: c})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].count != items[j].count {
			return items[i].count > items[j].count
		}
		return items[i].hour < items[j].hour
	})
	if len(items) > limit {
		items = items[:limit]
	}
	hours := make([]int, len(items))
	for i, it := range items {
		hours[i] = it.hour
	}
	return hours
}

type slot struct {
	weekday time.Weekday
	hour    int
}

// detectRoutines groups events by (weekday, hour) and scores each slot.
// An occurrence is a distinct day with at least one event in the slot.
//
// Confidence is occ/(occ+1) damped by the coefficient of variation of the
// gaps between occurrences: monotonically increasing in occurrence count and
// decreasing in irregularity. Three perfectly regular weekly occurrences
// score 0.75; four score 0.8.
func (a *Analyzer) detectRoutines(events []journal.Event) []Routine {
	byDay := make(map[slot]map[string][]journal.Event)
	for _, ev := range events {
		key := slot{weekday: ev.Weekday, hour: ev.Hour}
		dayKey := ev.Timestamp.Format("2006-01-02")
		if byDay[key] == nil {
			byDay[key] = make(map[string][]journal.Event)
		}
		byDay[key][dayKey] = append(byDay[key][dayKey], ev)
	}

	var routines []Routine
	for key, days := range byDay {
		occ := len(days)
		if occ < a.minOccurrences {
			continue
		}

		firsts := make([]time.Time, 0, occ)
		typeCounts := make(map[string]int)
		for _, dayEvents := range days {
			first := dayEvents[0].Timestamp
			for _, ev := range dayEvents {
				if ev.Timestamp.Before(first) {
					first = ev.Timestamp
				}
				typeCounts[ev.RequestType]++
			}
			firsts = append(firsts, first)
		}
		sort.Slice(firsts, func(i, j int) bool { return firsts[i].Before(firsts[j]) })

		conf := confidence(occ, gapVariation(firsts))
		if conf < a.threshold {
			continue
		}
		routines = append(routines, Routine{
			Weekday:     key.weekday,
			Hour:        key.hour,
			RequestType: dominantType(typeCounts),
			Occurrences: occ,
			Confidence:  conf,
		})
	}

	sort.Slice(routines, func(i, j int) bool {
		if routines[i].Confidence != routines[j].Confidence {
			return routines[i].Confidence > routines[j].Confidence
		}
		if routines[i].Weekday != routines[j].Weekday {
			return routines[i].Weekday < routines[j].Weekday
		}
		return routines[i].Hour < routines[j].Hour
	})
	return routines
}

func confidence(occ int, cv float64) float64 {
	base := float64(occ) / float64(occ+1)
	return base / (1 + cv)
}

// gapVariation is the coefficient of variation of inter-occurrence gaps;
// zero for perfectly regular recurrence.
func gapVariation(occurrences []time.Time) float64 {
	if len(occurrences) < 2 {
		return 0
	}
	gaps := make([]float64, 0, len(occurrences)-1)
	for i := 1; i < len(occurrences); i++ {
		gaps = append(gaps, occurrences[i].Sub(occurrences[i-1]).Hours())
	}
	var sum float64
	for _, g := range gaps {
		sum += g
	}
	mean := sum / float64(len(gaps))
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, g := range gaps {
		variance += (g - mean) * (g - mean)
	}
	variance /= float64(len(gaps))
	return math.Sqrt(variance) / mean
}

func dominantType(counts map[string]int) string {
	best, bestCount := "", -1
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}
