package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"vigil0/app/pkg/types"
)

type Config struct {
	Engine   EngineConfig   `json:"engine"`
	Context  ContextConfig  `json:"context"`
	Triggers TriggersConfig `json:"triggers"`
	Persona  PersonaConfig  `json:"persona"`
	Patterns PatternsConfig `json:"patterns"`
	Coach    CoachConfig    `json:"coach"`
	Composer ComposerConfig `json:"composer"`
	Dispatch DispatchConfig `json:"dispatch"`
}

type EngineConfig struct {
	SampleIntervalSec  int    `json:"sample_interval_sec"`
	ProbeTimeoutSec    int    `json:"probe_timeout_sec"`
	WorkingDirectory   string `json:"working_directory"`
	MaxDispatchPerHour int    `json:"max_dispatch_per_hour"`
	ErrorProbeCommand  string `json:"error_probe_command"`
}

type ContextConfig struct {
	// AppStates maps a lowercase active-app substring to a context state.
	AppStates        map[string]string `json:"app_states"`
	IdleApps         []string          `json:"idle_apps"`
	IdleSamples      int               `json:"idle_samples"`
	DeepWorkAfterMin int               `json:"deep_work_after_min"`
}

type TriggersConfig struct {
	// CooldownSec maps a rule id to its cooldown. Unknown rules fall back
	// to DefaultCooldownSec.
	CooldownSec         map[string]int `json:"cooldown_sec"`
	DefaultCooldownSec  int            `json:"default_cooldown_sec"`
	BatteryThresholdPct int            `json:"battery_threshold_pct"`
	LongCodingMin       int            `json:"long_coding_min"`
	SwitchOverloadCount int            `json:"switch_overload_count"`
	SwitchWindowMin     int            `json:"switch_window_min"`
	StuckMin            int            `json:"stuck_min"`
}

type PersonaConfig struct {
	LateHour int `json:"late_hour"`
}

type PatternsConfig struct {
	// LookbackDays bounds the distribution statistics; routine detection
	// reads the longer RoutineLookbackDays window so a weekly slot can
	// accumulate enough occurrences.
	LookbackDays          int     `json:"lookback_days"`
	RoutineLookbackDays   int     `json:"routine_lookback_days"`
	RoutineConfidence     float64 `json:"routine_confidence"`
	RoutineMinOccurrences int     `json:"routine_min_occurrences"`
}

type CoachConfig struct {
	PeriodHours int `json:"period_hours"`
}

type ComposerConfig struct {
	Model      string `json:"model"`
	BaseURL    string `json:"base_url"`
	APIKeyEnv  string `json:"api_key_env"`
	TimeoutSec int    `json:"timeout_sec"`
}

type DispatchConfig struct {
	BotToken   string   `json:"bot_token"`
	ChatIDs    []string `json:"chat_ids"`
	APIRoot    string   `json:"api_root"`
	TimeoutSec int      `json:"timeout_sec"`
}

type Manager struct {
	path string
	mu   sync.RWMutex
	cfg  Config
}

func DefaultPath() string {
	return filepath.Join("config", "config.json")
}

func NewManager(path string) (*Manager, error) {
	cfg := defaultConfig()
	mgr := &Manager{
		path: path,
		cfg:  cfg,
	}
	if err := mgr.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	if err := mgr.save(); err != nil {
		return nil, err
	}
	return mgr, nil
}

func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) Update(apply func(*Config)) (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	apply(&m.cfg)
	if err := applyDefaults(&m.cfg); err != nil {
		return Config{}, err
	}
	if err := m.saveLocked(); err != nil {
		return Config{}, err
	}
	return m.cfg, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return err
	}
	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return err
	}
	m.cfg = fileCfg
	return applyDefaults(&m.cfg)
}

func (m *Manager) save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m.cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0644)
}

func defaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			SampleIntervalSec:  300,
			ProbeTimeoutSec:    5,
			MaxDispatchPerHour: 10,
		},
		Context: ContextConfig{
			AppStates:        DefaultAppStates(),
			IdleApps:         []string{"loginwindow", "screensaver", "lockscreen"},
			IdleSamples:      2,
			DeepWorkAfterMin: 120,
		},
		Triggers: TriggersConfig{
			CooldownSec: map[string]int{
				"battery_warning":         1800,
				"return_from_away":        1800,
				"long_coding_session":     3600,
				"context_switch_overload": 1800,
				"terminal_error":          600,
				"stuck_detection":         3600,
				"preemptive_routine":      7200,
			},
			DefaultCooldownSec:  600,
			BatteryThresholdPct: 20,
			LongCodingMin:       180,
			SwitchOverloadCount: 5,
			SwitchWindowMin:     10,
			StuckMin:            30,
		},
		Persona: PersonaConfig{
			LateHour: 22,
		},
		Patterns: PatternsConfig{
			LookbackDays:          7,
			RoutineLookbackDays:   28,
			RoutineConfidence:     0.7,
			RoutineMinOccurrences: 3,
		},
		Coach: CoachConfig{
			PeriodHours: 24,
		},
		Composer: ComposerConfig{
			Model:      "gpt-4o-mini",
			APIKeyEnv:  "OPENAI_API_KEY",
			TimeoutSec: 60,
		},
		Dispatch: DispatchConfig{
			TimeoutSec: 30,
		},
	}
}

// DefaultAppStates is the built-in active-app classification table.
func DefaultAppStates() map[string]string {
	return map[string]string{
		"code":     string(types.StateCoding),
		"terminal": string(types.StateCoding),
		"iterm":    string(types.StateCoding),
		"warp":     string(types.StateCoding),
		"xcode":    string(types.StateCoding),
		"cursor":   string(types.StateCoding),
		"chrome":   string(types.StateBrowsing),
		"safari":   string(types.StateBrowsing),
		"firefox":  string(types.StateBrowsing),
		"arc":      string(types.StateBrowsing),
		"zoom":     string(types.StateMeeting),
		"meet":     string(types.StateMeeting),
		"teams":    string(types.StateMeeting),
		"facetime": string(types.StateMeeting),
		"slack":    string(types.StateCommunicating),
		"discord":  string(types.StateCommunicating),
		"messages": string(types.StateCommunicating),
		"telegram": string(types.StateCommunicating),
		"mail":     string(types.StateCommunicating),
	}
}

func applyDefaults(cfg *Config) error {
	def := defaultConfig()

	if cfg.Engine.SampleIntervalSec <= 0 {
		cfg.Engine.SampleIntervalSec = def.Engine.SampleIntervalSec
	}
	if cfg.Engine.ProbeTimeoutSec <= 0 {
		cfg.Engine.ProbeTimeoutSec = def.Engine.ProbeTimeoutSec
	}
	if cfg.Engine.MaxDispatchPerHour <= 0 {
		cfg.Engine.MaxDispatchPerHour = def.Engine.MaxDispatchPerHour
	}

	if len(cfg.Context.AppStates) == 0 {
		cfg.Context.AppStates = DefaultAppStates()
	}
	for app, state := range cfg.Context.AppStates {
		if _, ok := types.Parse(state); !ok {
			return fmt.Errorf("config: app_states[%q]: unknown state %q", app, state)
		}
		lower := strings.ToLower(strings.TrimSpace(app))
		if lower != app {
			delete(cfg.Context.AppStates, app)
			cfg.Context.AppStates[lower] = state
		}
	}
	if len(cfg.Context.IdleApps) == 0 {
		cfg.Context.IdleApps = def.Context.IdleApps
	}
	if cfg.Context.IdleSamples <= 0 {
		cfg.Context.IdleSamples = def.Context.IdleSamples
	}
	if cfg.Context.DeepWorkAfterMin <= 0 {
		cfg.Context.DeepWorkAfterMin = def.Context.DeepWorkAfterMin
	}

	if len(cfg.Triggers.CooldownSec) == 0 {
		cfg.Triggers.CooldownSec = def.Triggers.CooldownSec
	}
	for rule, sec := range cfg.Triggers.CooldownSec {
		if sec < 0 {
			return fmt.Errorf("config: cooldown_sec[%q] must not be negative", rule)
		}
	}
	if cfg.Triggers.DefaultCooldownSec <= 0 {
		cfg.Triggers.DefaultCooldownSec = def.Triggers.DefaultCooldownSec
	}
	if cfg.Triggers.BatteryThresholdPct <= 0 || cfg.Triggers.BatteryThresholdPct > 100 {
		cfg.Triggers.BatteryThresholdPct = def.Triggers.BatteryThresholdPct
	}
	if cfg.Triggers.LongCodingMin <= 0 {
		cfg.Triggers.LongCodingMin = def.Triggers.LongCodingMin
	}
	if cfg.Triggers.SwitchOverloadCount <= 0 {
		cfg.Triggers.SwitchOverloadCount = def.Triggers.SwitchOverloadCount
	}
	if cfg.Triggers.SwitchWindowMin <= 0 {
		cfg.Triggers.SwitchWindowMin = def.Triggers.SwitchWindowMin
	}
	if cfg.Triggers.StuckMin <= 0 {
		cfg.Triggers.StuckMin = def.Triggers.StuckMin
	}

	if cfg.Persona.LateHour <= 0 || cfg.Persona.LateHour > 23 {
		cfg.Persona.LateHour = def.Persona.LateHour
	}

	if cfg.Patterns.LookbackDays <= 0 {
		cfg.Patterns.LookbackDays = def.Patterns.LookbackDays
	}
	if cfg.Patterns.RoutineLookbackDays <= 0 {
		cfg.Patterns.RoutineLookbackDays = def.Patterns.RoutineLookbackDays
	}
	if cfg.Patterns.RoutineLookbackDays < cfg.Patterns.LookbackDays {
		cfg.Patterns.RoutineLookbackDays = cfg.Patterns.LookbackDays
	}
	if cfg.Patterns.RoutineConfidence <= 0 || cfg.Patterns.RoutineConfidence > 1 {
		cfg.Patterns.RoutineConfidence = def.Patterns.RoutineConfidence
	}
	if cfg.Patterns.RoutineMinOccurrences <= 0 {
		cfg.Patterns.RoutineMinOccurrences = def.Patterns.RoutineMinOccurrences
	}

	if cfg.Coach.PeriodHours <= 0 {
		cfg.Coach.PeriodHours = def.Coach.PeriodHours
	}

	if strings.TrimSpace(cfg.Composer.Model) == "" {
		cfg.Composer.Model = def.Composer.Model
	}
	if strings.TrimSpace(cfg.Composer.APIKeyEnv) == "" {
		cfg.Composer.APIKeyEnv = def.Composer.APIKeyEnv
	}
	if cfg.Composer.TimeoutSec <= 0 {
		cfg.Composer.TimeoutSec = def.Composer.TimeoutSec
	}

	if cfg.Dispatch.TimeoutSec <= 0 {
		cfg.Dispatch.TimeoutSec = def.Dispatch.TimeoutSec
	}

	return nil
}
