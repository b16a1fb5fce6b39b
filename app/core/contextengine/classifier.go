package contextengine

import (
	"strings"
	"time"

	config "vigil0/app/configs"
	"vigil0/app/pkg/types"
)

// Classifier maps a window of snapshots to a context state. Classification is
// a pure function of the window, the previous state, and the time spent in it;
// it never touches the outside world.
type Classifier struct {
	appStates   map[string]types.ContextState
	idleApps    map[string]struct{}
	idleSamples int
	deepAfter   time.Duration
}

func NewClassifier(cfg config.ContextConfig) *Classifier {
	states := make(map[string]types.ContextState, len(cfg.AppStates))
	for app, raw := range cfg.AppStates {
		state, ok := types.Parse(raw)
		if !ok {
			continue
		}
		states[strings.ToLower(app)] = state
	}
	idle := make(map[string]struct{}, len(cfg.IdleApps))
	for _, app := range cfg.IdleApps {
		idle[strings.ToLower(app)] = struct{}{}
	}
	idleSamples := cfg.IdleSamples
	if idleSamples <= 0 {
		idleSamples = 2
	}
	return &Classifier{
		appStates:   states,
		idleApps:    idle,
		idleSamples: idleSamples,
		deepAfter:   time.Duration(cfg.DeepWorkAfterMin) * time.Minute,
	}
}

// Classify returns the state for the newest snapshot in hist. stateFor is how
// long the previous state has been held; it feeds the deep-work promotion.
func (c *Classifier) Classify(hist []Snapshot, prev types.ContextState, stateFor time.Duration) types.ContextState {
	n := len(hist)
	if n == 0 {
		return prev
	}
	cur := hist[n-1]

	// Leaving deep work takes two consecutive out-of-pattern samples.
	if prev == types.StateDeepWork {
		if n >= 2 && c.outOfPattern(hist, n-1) && c.outOfPattern(hist, n-2) {
			return c.mapOrHold(cur, prev)
		}
		return types.StateDeepWork
	}

	// Entering away takes idleSamples consecutive idle samples.
	if c.isIdle(cur) {
		if prev == types.StateAway {
			return types.StateAway
		}
		if n >= c.idleSamples {
			allIdle := true
			for i := n - c.idleSamples; i < n; i++ {
				if !c.isIdle(hist[i]) {
					allIdle = false
					break
				}
			}
			if allIdle {
				return types.StateAway
			}
		}
		return prev
	}

	// Sustained single-app focus with no window switches promotes to deep
	// work regardless of what the mapping table says.
	if stateFor >= c.deepAfter && c.deepAfter > 0 && sustainedFocus(hist) {
		return types.StateDeepWork
	}

	return c.mapOrHold(cur, prev)
}

func (c *Classifier) mapOrHold(s Snapshot, prev types.ContextState) types.ContextState {
	if state, ok := c.mapApp(s.ActiveApp); ok {
		return state
	}
	if c.isIdle(s) {
		return types.StateAway
	}
	return prev
}

func (c *Classifier) mapApp(app string) (types.ContextState, bool) {
	lower := strings.ToLower(strings.TrimSpace(app))
	if lower == "" {
		return "", false
	}
	for key, state := range c.appStates {
		if strings.Contains(lower, key) {
			return state, true
		}
	}
	return "", false
}

func (c *Classifier) isIdle(s Snapshot) bool {
	lower := strings.ToLower(strings.TrimSpace(s.ActiveApp))
	if lower == "" {
		return true
	}
	_, ok := c.idleApps[lower]
	return ok
}

// outOfPattern reports whether sample i diverges from the dominant app of the
// window, which anchors an established focus streak.
func (c *Classifier) outOfPattern(hist []Snapshot, i int) bool {
	if hist[i].WindowSwitches > 0 {
		return true
	}
	anchor := dominantApp(hist)
	if anchor == "" {
		return false
	}
	return !strings.EqualFold(hist[i].ActiveApp, anchor)
}

func dominantApp(hist []Snapshot) string {
	counts := make(map[string]int)
	best, bestCount := "", 0
	for _, s := range hist {
		app := strings.ToLower(strings.TrimSpace(s.ActiveApp))
		if app == "" {
			continue
		}
		counts[app]++
		if counts[app] >= bestCount {
			best, bestCount = app, counts[app]
		}
	}
	return best
}

// sustainedFocus requires the trailing samples to share one app with no
// foreground-window switches between them.
func sustainedFocus(hist []Snapshot) bool {
	n := len(hist)
	if n < 2 {
		return false
	}
	app := strings.TrimSpace(hist[n-1].ActiveApp)
	if app == "" || hist[n-1].WindowSwitches > 0 {
		return false
	}
	run := 1
	for i := n - 2; i >= 0; i-- {
		if !strings.EqualFold(strings.TrimSpace(hist[i].ActiveApp), app) {
			break
		}
		run++
		// A switch on this sample marks the start of the focus run.
		if hist[i].WindowSwitches > 0 {
			break
		}
	}
	return run >= 2
}
