package probe

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	config "vigil0/app/configs"
	"vigil0/app/core/contextengine"
	"vigil0/app/pkg/cmdutil"
	"vigil0/app/pkg/logger"
)

// Sampler runs the probe set concurrently and assembles a best-effort
// snapshot. Probe failures are logged and leave their fields absent.
type Sampler struct {
	activeApp Probe
	battery   Probe
	cpuLoad   Probe
	gitBranch Probe
	gitStatus Probe
	termError Probe

	mu      sync.Mutex
	lastApp string
}

func NewSampler(cfg config.EngineConfig) *Sampler {
	timeout := time.Duration(cfg.ProbeTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := &Sampler{
		activeApp: activeAppProbe(timeout),
		battery:   batteryProbe(timeout),
		cpuLoad:   cpuLoadProbe(timeout),
	}
	if workdir := strings.TrimSpace(cfg.WorkingDirectory); workdir != "" {
		s.gitBranch = gitBranchProbe(workdir, timeout)
		s.gitStatus = gitStatusProbe(workdir, timeout)
	}
	if script := strings.TrimSpace(cfg.ErrorProbeCommand); script != "" {
		s.termError = Shell("terminal_error", script, timeout)
	}
	if tool := activeAppTool(); !cmdutil.Exists(tool) {
		logger.Warn("%s not found in PATH, active app detection will be blank", tool)
	}
	return s
}

type probeResult struct {
	out string
	ok  bool
}

// Collect never returns an error: each probe failure only blanks its field.
func (s *Sampler) Collect(ctx context.Context) contextengine.Snapshot {
	snap := contextengine.Snapshot{Timestamp: time.Now()}

	var app, batt, load, branch, status, termErr probeResult
	run := func(g *errgroup.Group, p Probe, dst *probeResult) {
		if p == nil {
			return
		}
		g.Go(func() error {
			out, err := p.Collect(ctx)
			if err != nil {
				logger.Warn("probe %s failed: %v", p.Name(), err)
				return nil
			}
			*dst = probeResult{out: out, ok: true}
			return nil
		})
	}

	var g errgroup.Group
	run(&g, s.activeApp, &app)
	run(&g, s.battery, &batt)
	run(&g, s.cpuLoad, &load)
	run(&g, s.gitBranch, &branch)
	run(&g, s.gitStatus, &status)
	run(&g, s.termError, &termErr)
	_ = g.Wait()

	snap.ActiveApp = strings.TrimSpace(app.out)
	if batt.ok {
		pct, pctOK, charging, chargingOK := parseBattery(batt.out)
		if pctOK {
			snap.Battery = contextengine.SomeInt(pct)
		}
		if chargingOK {
			snap.Charging = contextengine.SomeBool(charging)
		}
	}
	if load.ok {
		if v, ok := parseLoad(load.out); ok {
			snap.CPULoad = contextengine.SomeFloat(v)
		}
	}
	snap.GitBranch = strings.TrimSpace(branch.out)
	if status.ok && snap.GitBranch != "" {
		snap.GitDirty = contextengine.SomeBool(strings.TrimSpace(status.out) != "")
	}
	snap.TerminalError = strings.TrimSpace(termErr.out)

	s.mu.Lock()
	if s.lastApp != "" && snap.ActiveApp != "" && !strings.EqualFold(s.lastApp, snap.ActiveApp) {
		snap.WindowSwitches = 1
	}
	if snap.ActiveApp != "" {
		s.lastApp = snap.ActiveApp
	}
	s.mu.Unlock()

	return snap
}
