package config

import (
	"os"
	"path/filepath"
	"testing"

	"vigil0/app/pkg/types"
)

func TestNewManagerWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cfg := mgr.Get()
	if cfg.Engine.SampleIntervalSec != 300 {
		t.Fatalf("expected default sample interval 300, got %d", cfg.Engine.SampleIntervalSec)
	}
	if cfg.Triggers.CooldownSec["battery_warning"] != 1800 {
		t.Fatalf("expected battery_warning cooldown 1800, got %d", cfg.Triggers.CooldownSec["battery_warning"])
	}
	if cfg.Patterns.RoutineConfidence != 0.7 {
		t.Fatalf("expected routine confidence 0.7, got %v", cfg.Patterns.RoutineConfidence)
	}
	// The routine window must span enough weeks for a weekly slot to reach
	// the minimum occurrence count.
	if cfg.Patterns.RoutineLookbackDays < cfg.Patterns.RoutineMinOccurrences*7 {
		t.Fatalf("routine lookback %d days cannot reach %d weekly occurrences",
			cfg.Patterns.RoutineLookbackDays, cfg.Patterns.RoutineMinOccurrences)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
}

func TestRoutineLookbackNeverShorterThanDistributionWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	partial := `{"patterns": {"lookback_days": 60, "routine_lookback_days": 14}}`
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	cfg := mgr.Get()
	if cfg.Patterns.RoutineLookbackDays != 60 {
		t.Fatalf("expected routine lookback raised to 60, got %d", cfg.Patterns.RoutineLookbackDays)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	partial := `{"engine": {"sample_interval_sec": 60}, "persona": {"late_hour": 23}}`
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	cfg := mgr.Get()

	if cfg.Engine.SampleIntervalSec != 60 {
		t.Fatalf("expected explicit interval 60, got %d", cfg.Engine.SampleIntervalSec)
	}
	if cfg.Persona.LateHour != 23 {
		t.Fatalf("expected late hour 23, got %d", cfg.Persona.LateHour)
	}
	if len(cfg.Context.AppStates) == 0 {
		t.Fatal("expected default app state map")
	}
	if cfg.Triggers.SwitchOverloadCount != 5 {
		t.Fatalf("expected default switch overload count 5, got %d", cfg.Triggers.SwitchOverloadCount)
	}
}

func TestInvalidAppStateRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	bad := `{"context": {"app_states": {"emacs": "HACKING"}}}`
	if err := os.WriteFile(path, []byte(bad), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := NewManager(path); err == nil {
		t.Fatal("expected error for unknown state in app_states")
	}
}

func TestAppStateKeysLowercased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{"context": {"app_states": {"Emacs": "CODING"}}}`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	cfg := mgr.Get()
	if cfg.Context.AppStates["emacs"] != string(types.StateCoding) {
		t.Fatalf("expected lowercase key, got map %v", cfg.Context.AppStates)
	}
}

func TestUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := mgr.Update(func(c *Config) {
		c.Dispatch.ChatIDs = []string{"42"}
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	reloaded, err := NewManager(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	got := reloaded.Get()
	if len(got.Dispatch.ChatIDs) != 1 || got.Dispatch.ChatIDs[0] != "42" {
		t.Fatalf("expected persisted chat ids, got %v", got.Dispatch.ChatIDs)
	}
}
