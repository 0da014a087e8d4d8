package steprun

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/specialistvlad/shipgrid/internal/ctxlog"
)

// outputTailLimit bounds how much captured process output is attached to a
// failure message.
const outputTailLimit = 2048

// CommandRunner executes a step's argv vector as an external process. The
// process inherits the invocation environment and working directory; its
// combined output is captured and surfaced on failure.
type CommandRunner struct{}

// Run implements the Runner interface.
func (r *CommandRunner) Run(ctx context.Context, inv Invocation) error {
	logger := ctxlog.FromContext(ctx)

	argv := inv.Step.Run
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = inv.WorkDir
	cmd.Env = inv.Env

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	logger.Debug("Executing command step.", "command", argv[0], "args", argv[1:])

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("command %q interrupted: %w", argv[0], ctxErr)
		}
		return fmt.Errorf("command %q failed: %w: %s", argv[0], err, tail(output.Bytes()))
	}

	logger.Debug("Command step finished.", "command", argv[0])
	return nil
}

// tail returns the last portion of captured output, trimmed to the limit.
func tail(b []byte) string {
	if len(b) > outputTailLimit {
		b = b[len(b)-outputTailLimit:]
	}
	return string(bytes.TrimSpace(b))
}
