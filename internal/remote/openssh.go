package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// OpenSSH runs scripts through the system ssh client, so ~/.ssh/config,
// jump hosts and agent forwarding behave exactly as in an operator shell.
type OpenSSH struct {
	binary string
	port   int
	log    zerolog.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewOpenSSH creates an executor that shells out to ssh.
// port is passed with -p when non-zero and not the default.
func NewOpenSSH(port int, log zerolog.Logger) *OpenSSH {
	return &OpenSSH{
		binary: "ssh",
		port:   port,
		log:    log,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// Close implements io.Closer; ssh processes end with each call.
func (o *OpenSSH) Close() error {
	return nil
}

// Run implements Executor
func (o *OpenSSH) Run(ctx context.Context, host, script string, elevated bool) error {
	logScript(o.log, host, script, elevated)
	return o.run(ctx, host, shellCommand(elevated), strings.NewReader(script), o.stdout)
}

// Upload implements Executor
func (o *OpenSSH) Upload(ctx context.Context, host, remotePath string, data []byte) error {
	o.log.Info().Str("host", host).Str("path", remotePath).Int("bytes", len(data)).Msg("copy file to host")
	return o.run(ctx, host, uploadCommand(remotePath), bytes.NewReader(data), io.Discard)
}

func (o *OpenSSH) args(host, command string) []string {
	args := []string{"-o", "BatchMode=yes"}
	if o.port != 0 && o.port != 22 {
		args = append(args, "-p", strconv.Itoa(o.port))
	}
	return append(args, host, command)
}

func (o *OpenSSH) run(ctx context.Context, host, command string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, o.binary, o.args(host, command)...) // #nosec G204
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = o.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &CommandError{Host: host, Command: command, ExitStatus: exitErr.ExitCode(), Err: err}
		}
		return fmt.Errorf("failed to start ssh: %w", err)
	}
	return nil
}
