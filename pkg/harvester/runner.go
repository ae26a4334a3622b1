package harvester

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/mainajackson95/gau-tools/pkg/logger"
)

// Runner executes an external tool and returns its stdout. The seam exists so
// tests can stand in for the real binary.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs the tool as a child process. The context kills the process
// on cancellation or deadline.
type ExecRunner struct {
	logger *logger.Logger
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{logger: logger.NewLogger(logrus.InfoLevel)}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.WithFields(logger.Fields{
		"command": name,
		"args":    args,
	}).Debug("Executing command")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return stdout.Bytes(), ctx.Err()
		}
		if stderr.Len() > 0 {
			return stdout.Bytes(), fmt.Errorf("execution failed: %w\nstderr: %s", err, stderr.String())
		}
		return stdout.Bytes(), fmt.Errorf("execution failed: %w", err)
	}

	return stdout.Bytes(), nil
}
