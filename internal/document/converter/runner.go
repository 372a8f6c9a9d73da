package converter

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"quotation-service/internal/common/process"
)

const maxStderr = 2048

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec. Each command runs in
// its own process group, which is killed when ctx ends.
type ExecRunner struct {
	// WaitDelay bounds how long Run waits for output pipes after the kill.
	WaitDelay time.Duration
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	process.Isolate(cmd)
	cmd.Cancel = func() error {
		process.KillProcessGroup(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = 2 * time.Second
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stdout.String(), stderr.String(), ctxErr
	}
	return stdout.String(), stderr.String(), err
}

// classify maps a runner error to the package error kinds.
func classify(tool string, stderr string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrConversionTimeout
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	stderr = strings.TrimSpace(stderr)
	if len(stderr) > maxStderr {
		stderr = stderr[len(stderr)-maxStderr:]
	}
	if stderr == "" && code == -1 {
		stderr = err.Error()
	}
	return &ToolError{Tool: tool, ExitCode: code, Stderr: stderr}
}
