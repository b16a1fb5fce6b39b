package contextengine

import (
	"testing"
	"time"

	config "vigil0/app/configs"
	"vigil0/app/pkg/types"
)

func testClassifier() *Classifier {
	return NewClassifier(config.ContextConfig{
		AppStates:        config.DefaultAppStates(),
		IdleApps:         []string{"loginwindow", "screensaver"},
		IdleSamples:      2,
		DeepWorkAfterMin: 120,
	})
}

func window(apps ...string) []Snapshot {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	out := make([]Snapshot, len(apps))
	for i, app := range apps {
		out[i] = Snapshot{Timestamp: base.Add(time.Duration(i) * 5 * time.Minute), ActiveApp: app}
	}
	return out
}

func TestClassifyByAppMapping(t *testing.T) {
	c := testClassifier()

	cases := []struct {
		app  string
		want types.ContextState
	}{
		{"Visual Studio Code", types.StateCoding},
		{"iTerm2", types.StateCoding},
		{"Google Chrome", types.StateBrowsing},
		{"zoom.us", types.StateMeeting},
		{"Slack", types.StateCommunicating},
	}
	for _, tc := range cases {
		got := c.Classify(window(tc.app), types.StateAway, 0)
		if got != tc.want {
			t.Fatalf("app %q: expected %s, got %s", tc.app, tc.want, got)
		}
	}
}

func TestUnmappedAppKeepsPreviousState(t *testing.T) {
	c := testClassifier()
	got := c.Classify(window("Blender"), types.StateCoding, 10*time.Minute)
	if got != types.StateCoding {
		t.Fatalf("expected unmapped app to hold previous state, got %s", got)
	}
}

func TestAwayRequiresTwoIdleSamples(t *testing.T) {
	c := testClassifier()

	oneIdle := window("Visual Studio Code", "loginwindow")
	if got := c.Classify(oneIdle, types.StateCoding, 30*time.Minute); got != types.StateCoding {
		t.Fatalf("single idle sample must not transition, got %s", got)
	}

	twoIdle := window("Visual Studio Code", "loginwindow", "loginwindow")
	if got := c.Classify(twoIdle, types.StateCoding, 30*time.Minute); got != types.StateAway {
		t.Fatalf("two idle samples must transition to away, got %s", got)
	}
}

func TestDeepWorkPromotion(t *testing.T) {
	c := testClassifier()

	hist := window("Visual Studio Code", "Visual Studio Code", "Visual Studio Code")
	got := c.Classify(hist, types.StateCoding, 130*time.Minute)
	if got != types.StateDeepWork {
		t.Fatalf("expected deep-work promotion after sustained focus, got %s", got)
	}

	// Not yet past the focus threshold.
	got = c.Classify(hist, types.StateCoding, 60*time.Minute)
	if got != types.StateCoding {
		t.Fatalf("expected coding before the focus threshold, got %s", got)
	}
}

func TestDeepWorkPromotionNeedsFocus(t *testing.T) {
	c := testClassifier()

	hist := window("Visual Studio Code", "Google Chrome", "Visual Studio Code")
	got := c.Classify(hist, types.StateCoding, 130*time.Minute)
	if got == types.StateDeepWork {
		t.Fatal("expected no promotion when focus keeps breaking")
	}
}

func TestDeepWorkExitHysteresis(t *testing.T) {
	c := testClassifier()

	// One out-of-pattern sample inside an established streak: stay put.
	hist := window("code", "code", "code", "code", "code", "Google Chrome")
	if got := c.Classify(hist, types.StateDeepWork, 3*time.Hour); got != types.StateDeepWork {
		t.Fatalf("single divergent sample must not exit deep work, got %s", got)
	}

	// Two consecutive out-of-pattern samples: exit takes effect.
	hist = window("code", "code", "code", "code", "Google Chrome", "Google Chrome")
	if got := c.Classify(hist, types.StateDeepWork, 3*time.Hour); got != types.StateBrowsing {
		t.Fatalf("two divergent samples must exit deep work to browsing, got %s", got)
	}
}

func TestWindowSwitchBreaksDeepWork(t *testing.T) {
	c := testClassifier()

	hist := window("code", "code", "code", "code", "code", "code")
	hist[4].WindowSwitches = 2
	hist[5].WindowSwitches = 3
	got := c.Classify(hist, types.StateDeepWork, 3*time.Hour)
	if got == types.StateDeepWork {
		t.Fatal("expected consecutive window switching to exit deep work")
	}
}

func TestEmptyWindowHoldsState(t *testing.T) {
	c := testClassifier()
	if got := c.Classify(nil, types.StateBrowsing, time.Minute); got != types.StateBrowsing {
		t.Fatalf("expected empty window to hold state, got %s", got)
	}
}
