package contextengine

import (
	"context"
	"sync"
	"time"

	"vigil0/app/pkg/logger"
	"vigil0/app/pkg/types"
)

// Alert is a dispatch intent produced by a satisfied trigger rule.
type Alert struct {
	RuleID string
	Tier   Tier
	Facts  []string
	State  types.ContextState
}

// Sampler builds one best-effort snapshot per tick.
type Sampler interface {
	Collect(ctx context.Context) Snapshot
}

// Notifier phrases and delivers an alert. A returned error means the alert is
// dropped for this occurrence; the engine never retries within a tick.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Loop lets the engine pause its own tick job when toggled off.
type Loop interface {
	Pause(name string) error
	Resume(name string) error
}

type Options struct {
	Sampler    Sampler
	Classifier *Classifier
	Rules      []Rule
	Notifier   Notifier

	HistorySize        int
	MaxDispatchPerHour int

	// SkipTick is an optional host-supplied guard; when it returns true the
	// tick is skipped entirely.
	SkipTick func() bool

	// Routine exposes surfaced recurring routines to the preemptive trigger.
	Routine func(dow time.Weekday, hour int) (string, bool)

	Now func() time.Time
}

// Engine is the always-on core: sample, classify, evaluate triggers, dispatch.
// One explicit instance with an explicit lifecycle; collaborators are injected.
type Engine struct {
	sampler    Sampler
	classifier *Classifier
	rules      []Rule
	notifier   Notifier
	skipTick   func() bool
	routine    func(time.Weekday, int) (string, bool)
	nowFn      func() time.Time
	maxPerHour int

	mu               sync.Mutex
	enabled          bool
	history          *History
	state            types.ContextState
	stateSince       time.Time
	ledger           map[string]time.Time
	returnedFromAway bool
	hourStart        time.Time
	dispatchedInHour int
	suppressed       int64

	loop    Loop
	tickJob string
}

type intent struct {
	rule  Rule
	facts []string
}

func New(opts Options) *Engine {
	size := opts.HistorySize
	if size <= 0 {
		size = 12
	}
	maxPerHour := opts.MaxDispatchPerHour
	if maxPerHour <= 0 {
		maxPerHour = 10
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn()
	return &Engine{
		sampler:    opts.Sampler,
		classifier: opts.Classifier,
		rules:      opts.Rules,
		notifier:   opts.Notifier,
		skipTick:   opts.SkipTick,
		routine:    opts.Routine,
		nowFn:      nowFn,
		maxPerHour: maxPerHour,
		enabled:    true,
		history:    NewHistory(size),
		state:      types.StateAway,
		stateSince: now,
		ledger:     make(map[string]time.Time),
		hourStart:  now,
	}
}

// SetLoop wires the scheduler job the engine should pause when toggled off.
func (e *Engine) SetLoop(loop Loop, jobName string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loop = loop
	e.tickJob = jobName
}

// Toggle flips the engine on or off and returns the new state. Toggling off
// suppresses future ticks; an in-flight tick completes.
func (e *Engine) Toggle() bool {
	e.mu.Lock()
	e.enabled = !e.enabled
	enabled := e.enabled
	loop, job := e.loop, e.tickJob
	e.mu.Unlock()

	if loop != nil && job != "" {
		var err error
		if enabled {
			err = loop.Resume(job)
		} else {
			err = loop.Pause(job)
		}
		if err != nil {
			logger.Error("engine toggle: %v", err)
		}
	}
	if enabled {
		logger.Info("context engine enabled")
	} else {
		logger.Info("context engine disabled")
	}
	return enabled
}

func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

func (e *Engine) State() types.ContextState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) StateDuration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nowFn().Sub(e.stateSince)
}

// SuppressedCount reports how many trigger firings the deep-work mask has
// swallowed since start.
func (e *Engine) SuppressedCount() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.suppressed
}

// Tick runs one full cycle: sample, classify, evaluate rules, dispatch.
// Dispatch happens after the engine lock is released; the ledger is only
// updated for alerts that were actually delivered.
func (e *Engine) Tick(ctx context.Context) error {
	if !e.Enabled() {
		return nil
	}
	if e.skipTick != nil && e.skipTick() {
		return nil
	}

	snap := e.sampler.Collect(ctx)
	now := e.nowFn()
	if snap.Timestamp.IsZero() {
		snap.Timestamp = now
	}

	e.mu.Lock()
	if now.Sub(e.hourStart) >= time.Hour {
		e.hourStart = now
		e.dispatchedInHour = 0
	}

	e.history.Append(snap)
	hist := e.history.Snapshots()

	stateFor := now.Sub(e.stateSince)
	newState := e.classifier.Classify(hist, e.state, stateFor)
	if newState != e.state {
		if e.state == types.StateAway {
			e.returnedFromAway = true
		}
		logger.Info("state transition %s -> %s (app=%q)", e.state, newState, snap.ActiveApp)
		e.state = newState
		e.stateSince = now
	}

	ec := EvalContext{
		Now:              now,
		Snapshot:         snap,
		History:          hist,
		State:            e.state,
		StateFor:         now.Sub(e.stateSince),
		ReturnedFromAway: e.returnedFromAway,
		Routine:          e.routine,
	}

	var intents []intent
	for _, rule := range e.rules {
		if notBefore, ok := e.ledger[rule.ID]; ok && now.Before(notBefore) {
			continue
		}
		satisfied, facts := rule.When(ec)
		if !satisfied {
			continue
		}
		if e.state == types.StateDeepWork && rule.Tier != TierCritical {
			e.suppressed++
			logger.Info("trigger %s suppressed by deep-work mask", rule.ID)
			continue
		}
		if e.dispatchedInHour+len(intents) >= e.maxPerHour {
			logger.Warn("hourly dispatch budget reached, skipping trigger %s", rule.ID)
			continue
		}
		intents = append(intents, intent{rule: rule, facts: facts})
	}
	// The away-return signal is consumed whether or not anything fired.
	e.returnedFromAway = false
	state := e.state
	e.mu.Unlock()

	for _, it := range intents {
		alert := Alert{RuleID: it.rule.ID, Tier: it.rule.Tier, Facts: it.facts, State: state}
		if err := e.notifier.Notify(ctx, alert); err != nil {
			logger.Error("trigger %s dispatch failed, dropping: %v", it.rule.ID, err)
			continue
		}
		e.mu.Lock()
		e.ledger[it.rule.ID] = now.Add(it.rule.Cooldown)
		e.dispatchedInHour++
		e.mu.Unlock()
		logger.Info("trigger %s dispatched", it.rule.ID)
	}
	return nil
}
