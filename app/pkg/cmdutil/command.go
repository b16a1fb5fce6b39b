package cmdutil

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

func Exists(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

// Run executes name with args and returns trimmed combined output.
// The command is killed when the timeout or the parent context expires.
func Run(ctx context.Context, name string, args []string, timeout time.Duration) (string, error) {
	return RunWithInput(ctx, name, args, "", timeout)
}

func RunWithInput(ctx context.Context, name string, args []string, input string, timeout time.Duration) (string, error) {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(execCtx, name, args...)
	if strings.TrimSpace(input) != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	output, err := cmd.CombinedOutput()
	outStr := strings.TrimSpace(string(output))
	if err != nil {
		return "", formatCommandError(err, outStr)
	}
	return outStr, nil
}

func formatCommandError(err error, output string) error {
	if err == nil {
		return nil
	}
	exitCode := -1
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	}
	if strings.TrimSpace(output) != "" {
		trimmed, truncated := limitOutputLines(output, 8)
		if truncated {
			return fmt.Errorf("exit code %d: %s (output truncated)", exitCode, trimmed)
		}
		return fmt.Errorf("exit code %d: %s", exitCode, trimmed)
	}
	return fmt.Errorf("exit code %d: %v", exitCode, err)
}

func limitOutputLines(output string, maxLines int) (string, bool) {
	normalized := strings.ReplaceAll(output, "\r\n", "\n")
	normalized = strings.TrimRight(normalized, "\n")
	if normalized == "" {
		return "", false
	}
	lines := strings.Split(normalized, "\n")
	if len(lines) <= maxLines {
		return normalized, false
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n"), true
}
