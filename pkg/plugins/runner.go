package plugins

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Command is one subprocess invocation.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

// Result is the outcome of a finished subprocess.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner starts a command and waits for it. A non-zero exit is reported in
// Result.ExitCode, not as an error. When ctx is done the process is asked to
// stop and killed after the runner's grace period.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec in their own process group so the
// JVM forked by the mvn launcher script is signalled too.
type ExecRunner struct {
	// Grace is how long a process gets between SIGTERM and SIGKILL.
	Grace time.Duration
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return terminate(cmd) }
	cmd.WaitDelay = r.Grace

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if ctxErr := ctx.Err(); ctxErr != nil {
		killGroup(cmd)
		return res, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}
