package contextengine

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	config "vigil0/app/configs"
	"vigil0/app/pkg/types"
)

// truncateSignal caps an error signal at max bytes without splitting a rune.
func truncateSignal(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

type Tier int

const (
	TierNormal Tier = iota
	TierCritical
)

func (t Tier) String() string {
	if t == TierCritical {
		return "critical"
	}
	return "normal"
}

// EvalContext is everything a trigger predicate may look at. Predicates are
// pure; the engine owns all side effects.
type EvalContext struct {
	Now              time.Time
	Snapshot         Snapshot
	History          []Snapshot
	State            types.ContextState
	StateFor         time.Duration
	ReturnedFromAway bool

	// Routine reports a surfaced recurring routine for the given slot, when
	// a pattern source is wired in.
	Routine func(dow time.Weekday, hour int) (string, bool)
}

// SwitchesWithin sums foreground-window switches recorded across the trailing
// window of history.
func (ec EvalContext) SwitchesWithin(window time.Duration) int {
	cutoff := ec.Now.Add(-window)
	total := 0
	for _, s := range ec.History {
		if s.Timestamp.Before(cutoff) {
			continue
		}
		total += s.WindowSwitches
	}
	return total
}

// Rule is a single trigger: a pure predicate plus dispatch policy. When the
// predicate holds it returns the facts the outbound message is built from.
type Rule struct {
	ID       string
	Tier     Tier
	Cooldown time.Duration
	When     func(EvalContext) (bool, []string)
}

// DefaultRules builds the static rule set from trigger thresholds. Cooldowns
// come from the per-rule table with a shared fallback.
func DefaultRules(cfg config.TriggersConfig) []Rule {
	cooldown := func(id string) time.Duration {
		if sec, ok := cfg.CooldownSec[id]; ok {
			return time.Duration(sec) * time.Second
		}
		return time.Duration(cfg.DefaultCooldownSec) * time.Second
	}
	switchWindow := time.Duration(cfg.SwitchWindowMin) * time.Minute
	longCoding := time.Duration(cfg.LongCodingMin) * time.Minute
	stuckAfter := time.Duration(cfg.StuckMin) * time.Minute

	return []Rule{
		{
			ID:       "battery_warning",
			Tier:     TierCritical,
			Cooldown: cooldown("battery_warning"),
			When: func(ec EvalContext) (bool, []string) {
				s := ec.Snapshot
				if !s.Battery.OK || !s.Charging.OK {
					return false, nil
				}
				if s.Battery.Value >= cfg.BatteryThresholdPct || s.Charging.Value {
					return false, nil
				}
				return true, []string{
					fmt.Sprintf("battery at %d%%, not charging", s.Battery.Value),
					"suggest plugging in or saving work",
				}
			},
		},
		{
			ID:       "long_coding_session",
			Tier:     TierNormal,
			Cooldown: cooldown("long_coding_session"),
			When: func(ec EvalContext) (bool, []string) {
				if ec.State != types.StateCoding && ec.State != types.StateDeepWork {
					return false, nil
				}
				if ec.StateFor < longCoding {
					return false, nil
				}
				return true, []string{
					fmt.Sprintf("coding for %d minutes without a break", int(ec.StateFor.Minutes())),
					"suggest a short break",
				}
			},
		},
		{
			ID:       "context_switch_overload",
			Tier:     TierNormal,
			Cooldown: cooldown("context_switch_overload"),
			When: func(ec EvalContext) (bool, []string) {
				switches := ec.SwitchesWithin(switchWindow)
				if switches < cfg.SwitchOverloadCount {
					return false, nil
				}
				return true, []string{
					fmt.Sprintf("%d window switches in the last %d minutes", switches, cfg.SwitchWindowMin),
					"suggest settling on one task",
				}
			},
		},
		{
			ID:       "stuck_detection",
			Tier:     TierNormal,
			Cooldown: cooldown("stuck_detection"),
			When: func(ec EvalContext) (bool, []string) {
				s := ec.Snapshot
				if ec.State != types.StateCoding || ec.StateFor < stuckAfter {
					return false, nil
				}
				if s.GitBranch == "" || !s.GitDirty.OK || !s.GitDirty.Value {
					return false, nil
				}
				cutoff := ec.Now.Add(-stuckAfter)
				for _, old := range ec.History {
					if old.Timestamp.After(cutoff) {
						continue
					}
					if old.GitBranch == s.GitBranch && old.GitDirty.OK && old.GitDirty.Value {
						return true, []string{
							fmt.Sprintf("on branch %s with uncommitted changes for %d+ minutes", s.GitBranch, cfg.StuckMin),
							"ask whether they are stuck",
						}
					}
				}
				return false, nil
			},
		},
		{
			ID:       "terminal_error",
			Tier:     TierNormal,
			Cooldown: cooldown("terminal_error"),
			When: func(ec EvalContext) (bool, []string) {
				sig := strings.TrimSpace(ec.Snapshot.TerminalError)
				if sig == "" {
					return false, nil
				}
				sig = truncateSignal(sig, 200)
				return true, []string{
					fmt.Sprintf("terminal error detected: %s", sig),
					"offer help with the error",
				}
			},
		},
		{
			ID:       "return_from_away",
			Tier:     TierNormal,
			Cooldown: cooldown("return_from_away"),
			When: func(ec EvalContext) (bool, []string) {
				if !ec.ReturnedFromAway {
					return false, nil
				}
				facts := []string{"user is back after being away"}
				if ec.Snapshot.GitBranch != "" {
					last := fmt.Sprintf("last work: branch %s", ec.Snapshot.GitBranch)
					if ec.Snapshot.GitDirty.OK && ec.Snapshot.GitDirty.Value {
						last += " (uncommitted changes)"
					}
					facts = append(facts, last)
				}
				return true, facts
			},
		},
		{
			ID:       "preemptive_routine",
			Tier:     TierNormal,
			Cooldown: cooldown("preemptive_routine"),
			When: func(ec EvalContext) (bool, []string) {
				if ec.Routine == nil {
					return false, nil
				}
				rtype, ok := ec.Routine(ec.Now.Weekday(), ec.Now.Hour())
				if !ok {
					return false, nil
				}
				return true, []string{
					fmt.Sprintf("user usually does %q work around this time", rtype),
					"offer to prepare for it",
				}
			},
		},
	}
}
