package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Local runs commands on the operator machine and captures their output.
type Local struct {
	log zerolog.Logger
}

// NewLocal creates a local command runner
func NewLocal(log zerolog.Logger) *Local {
	return &Local{log: log}
}

// Output runs name with args and returns stdout and stderr.
// A non-zero exit is returned as *CommandError with stderr attached.
func (l *Local) Output(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error) {
	line := name + " " + strings.Join(args, " ")
	l.log.Info().Msgf("executing %s", line)

	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return outBuf.Bytes(), errBuf.Bytes(), &CommandError{
				Command:    line,
				ExitStatus: exitErr.ExitCode(),
				Err:        fmt.Errorf("%w: %s", err, strings.TrimSpace(errBuf.String())),
			}
		}
		return nil, nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	return outBuf.Bytes(), errBuf.Bytes(), nil
}
