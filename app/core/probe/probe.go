// Package probe collects machine-state signals from the host. Every probe is
// independently time-boxed; a failing probe yields an absent snapshot field,
// never a failed snapshot.
package probe

import (
	"context"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"vigil0/app/pkg/cmdutil"
)

type Probe interface {
	Name() string
	Collect(ctx context.Context) (string, error)
}

type commandProbe struct {
	name    string
	cmd     string
	args    []string
	timeout time.Duration
}

// Command wraps an external command as a probe.
func Command(name string, timeout time.Duration, cmd string, args ...string) Probe {
	return &commandProbe{name: name, cmd: cmd, args: args, timeout: timeout}
}

func (p *commandProbe) Name() string { return p.name }

func (p *commandProbe) Collect(ctx context.Context) (string, error) {
	return cmdutil.Run(ctx, p.cmd, p.args, p.timeout)
}

// shellProbe runs a host-configured shell snippet, used for the optional
// terminal-error detector.
type shellProbe struct {
	name    string
	script  string
	timeout time.Duration
}

func Shell(name, script string, timeout time.Duration) Probe {
	return &shellProbe{name: name, script: script, timeout: timeout}
}

func (p *shellProbe) Name() string { return p.name }

func (p *shellProbe) Collect(ctx context.Context) (string, error) {
	return cmdutil.Run(ctx, "sh", []string{"-c", p.script}, p.timeout)
}

func activeAppProbe(timeout time.Duration) Probe {
	if runtime.GOOS == "darwin" {
		return Command("active_app", timeout, "osascript", "-e",
			`tell app "System Events" to get name of first process whose frontmost is true`)
	}
	return Command("active_app", timeout, "xdotool", "getactivewindow", "getwindowname")
}

func activeAppTool() string {
	if runtime.GOOS == "darwin" {
		return "osascript"
	}
	return "xdotool"
}

func batteryProbe(timeout time.Duration) Probe {
	if runtime.GOOS == "darwin" {
		return Command("battery", timeout, "pmset", "-g", "batt")
	}
	return Shell("battery",
		`cat /sys/class/power_supply/BAT*/capacity /sys/class/power_supply/BAT*/status 2>/dev/null`,
		timeout)
}

func cpuLoadProbe(timeout time.Duration) Probe {
	if runtime.GOOS == "darwin" {
		return Command("cpu_load", timeout, "sysctl", "-n", "vm.loadavg")
	}
	return Shell("cpu_load", `cat /proc/loadavg`, timeout)
}

func gitBranchProbe(workdir string, timeout time.Duration) Probe {
	return Command("git_branch", timeout, "git", "-C", workdir, "branch", "--show-current")
}

func gitStatusProbe(workdir string, timeout time.Duration) Probe {
	return Command("git_status", timeout, "git", "-C", workdir, "status", "--short")
}

var (
	percentRe = regexp.MustCompile(`(\d+)%`)
	floatRe   = regexp.MustCompile(`[\d.]+`)
)

// parseBattery understands both pmset text output and JSON battery dumps
// (system_profiler style) so hosts can swap in their own probe command.
func parseBattery(out string) (pct int, pctOK bool, charging bool, chargingOK bool) {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return 0, false, false, false
	}
	if gjson.Valid(trimmed) {
		doc := gjson.Parse(trimmed)
		if v := doc.Get("SPPowerDataType.0.sppower_battery_charge_info.sppower_battery_state_of_charge"); v.Exists() {
			pct, pctOK = int(v.Int()), true
		}
		if v := doc.Get("SPPowerDataType.0.sppower_battery_charge_info.sppower_battery_is_charging"); v.Exists() {
			charging, chargingOK = v.Bool() || v.String() == "TRUE", true
		}
		return pct, pctOK, charging, chargingOK
	}

	if m := percentRe.FindStringSubmatch(trimmed); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			pct, pctOK = v, true
		}
	}
	lower := strings.ToLower(trimmed)
	chargingOK = pctOK
	charging = strings.Contains(lower, "charging") || strings.Contains(lower, "charged") ||
		strings.Contains(lower, "ac power")
	if strings.Contains(lower, "discharging") {
		charging = false
	}
	return pct, pctOK, charging, chargingOK
}

func parseLoad(out string) (float64, bool) {
	m := floatRe.FindString(out)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
