package coach

import (
	"context"
	"fmt"
	"time"

	config "vigil0/app/configs"
	"vigil0/app/core/compose"
	"vigil0/app/core/dispatch"
	"vigil0/app/core/journal"
	"vigil0/app/core/persona"
	"vigil0/app/pkg/logger"
)

type eventSource interface {
	Events(ctx context.Context, from, to time.Time) ([]journal.Event, error)
}

type Report struct {
	From     time.Time
	To       time.Time
	Current  Metrics
	Previous Metrics
	Score    int
	Facts    []string
	Text     string
}

// Generator builds periodic coaching reports. Every statement in a report is
// backed by a computed statistic; the composer only rewords, never invents.
type Generator struct {
	source     eventSource
	composer   compose.Composer
	selector   *persona.Selector
	dispatcher dispatch.Dispatcher
	targets    []string
	period     time.Duration
	nowFn      func() time.Time
}

func NewGenerator(source eventSource, composer compose.Composer, selector *persona.Selector, cfg config.CoachConfig) *Generator {
	period := time.Duration(cfg.PeriodHours) * time.Hour
	if period <= 0 {
		period = 24 * time.Hour
	}
	return &Generator{
		source:   source,
		composer: composer,
		selector: selector,
		period:   period,
		nowFn:    time.Now,
	}
}

// SetDelivery makes scheduled runs push the report text out. Without it,
// reports only reach the log.
func (g *Generator) SetDelivery(dispatcher dispatch.Dispatcher, targets []string) {
	g.dispatcher = dispatcher
	g.targets = targets
}

// Build assembles a report for the most recent period, compared against the
// period immediately before it. A compose failure fails the build.
func (g *Generator) Build(ctx context.Context) (Report, error) {
	now := g.nowFn()
	from := now.Add(-g.period)

	current, err := g.source.Events(ctx, from, now)
	if err != nil {
		return Report{}, fmt.Errorf("load events: %w", err)
	}
	previous, err := g.source.Events(ctx, from.Add(-g.period), from)
	if err != nil {
		return Report{}, fmt.Errorf("load previous events: %w", err)
	}

	report := Report{
		From:     from,
		To:       now,
		Current:  Compute(current),
		Previous: Compute(previous),
	}
	report.Score = Score(report.Current)
	report.Facts = buildFacts(report)

	style := g.selector.StyleFor(dominantState(report.Current.StateCounts), now.Hour(), false)
	text, err := g.composer.Compose(ctx, report.Facts, style)
	if err != nil {
		return report, fmt.Errorf("compose report: %w", err)
	}
	report.Text = text
	return report, nil
}

// Run is the scheduled entry point. Failures are logged, never fatal to the
// scheduler.
func (g *Generator) Run(ctx context.Context) error {
	report, err := g.Build(ctx)
	if err != nil {
		logger.Error("coach report failed: %v", err)
		return nil
	}
	if report.Current.Total == 0 {
		logger.Info("coach report skipped, no activity in window")
		return nil
	}
	logger.Info("coach report score=%d: %s", report.Score, report.Text)

	if g.dispatcher == nil {
		return nil
	}
	style := persona.Style{Name: "coach", Muted: true}
	for _, target := range g.targets {
		if err := g.dispatcher.Send(ctx, target, report.Text, style); err != nil {
			logger.Warn("coach report delivery to %s failed: %v", target, err)
		}
	}
	return nil
}

func buildFacts(r Report) []string {
	facts := []string{
		fmt.Sprintf("%d assistant interactions since %s.", r.Current.Total, r.From.Format("Jan 2 15:04")),
	}
	if r.Current.Total == 0 {
		return facts
	}
	facts = append(facts,
		fmt.Sprintf("Busiest hour: %02d:00.", r.Current.PeakHour),
		fmt.Sprintf("Most common request type: %s.", dominantRequestType(r.Current.TypeCounts)),
		fmt.Sprintf("Debugging made up %.0f%% of requests%s.",
			r.Current.DebugRatio*100, ratioDelta(r.Current.DebugRatio, r.Previous)),
		fmt.Sprintf("%d context switches during the period%s.",
			r.Current.ContextSwitches, switchDelta(r.Current.ContextSwitches, r.Previous)),
	)
	if r.Previous.Total > 0 {
		prevScore := Score(r.Previous)
		facts = append(facts,
			fmt.Sprintf("Productivity score: %d out of 10, %+d against the previous period's %d.",
				r.Score, r.Score-prevScore, prevScore),
			trendFact(r, prevScore),
		)
	} else {
		facts = append(facts, fmt.Sprintf("Productivity score: %d out of 10.", r.Score))
	}
	if r.Current.DebugRatio > 0.5 {
		facts = append(facts, "Suggestion: a heavy debugging share often points at missing tests in the areas touched most.")
	}
	if r.Current.Total > 0 && float64(r.Current.ContextSwitches)/float64(r.Current.Total) > 0.5 {
		facts = append(facts, "Suggestion: batching similar tasks would cut the switching overhead.")
	}
	return facts
}

func trendFact(r Report, prevScore int) string {
	var direction string
	switch {
	case r.Score > prevScore:
		direction = "trending up"
	case r.Score < prevScore:
		direction = "trending down"
	default:
		direction = "holding steady"
	}
	return fmt.Sprintf("Trend: %s, with %d interactions this period against %d in the one before.",
		direction, r.Current.Total, r.Previous.Total)
}

func ratioDelta(current float64, previous Metrics) string {
	if previous.Total == 0 {
		return ""
	}
	diff := (current - previous.DebugRatio) * 100
	switch {
	case diff >= 5:
		return fmt.Sprintf(", up %.0f points from the previous period", diff)
	case diff <= -5:
		return fmt.Sprintf(", down %.0f points from the previous period", -diff)
	default:
		return ", about the same as the previous period"
	}
}

func switchDelta(current int, previous Metrics) string {
	if previous.Total == 0 {
		return ""
	}
	diff := current - previous.ContextSwitches
	switch {
	case diff > 0:
		return fmt.Sprintf(", %d more than the previous period", diff)
	case diff < 0:
		return fmt.Sprintf(", %d fewer than the previous period", -diff)
	default:
		return ", unchanged from the previous period"
	}
}
