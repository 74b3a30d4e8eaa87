// Package remote runs shell scripts on deployment hosts and commands on the operator machine.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Executor runs scripts on remote hosts.
//
// Run pipes script to "bash -e" on host, or "sudo bash -e" when elevated is set,
// and blocks until the remote shell exits. Any non-zero exit is returned as *CommandError.
//
// Upload writes data to remotePath with umask 077. The content never appears on a
// command line or in the log.
type Executor interface {
	Run(ctx context.Context, host, script string, elevated bool) error
	Upload(ctx context.Context, host, remotePath string, data []byte) error
}

// CommandError is returned when a local or remote command exits with a non-zero status
type CommandError struct {
	Host       string
	Command    string
	ExitStatus int
	Err        error
}

func (e *CommandError) Error() string {
	where := e.Host
	if where == "" {
		where = "localhost"
	}
	return fmt.Sprintf("command %q on %s exited with status %d: %v", e.Command, where, e.ExitStatus, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitStatus extracts the exit status of a failed command, if err carries one
func ExitStatus(err error) (int, bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitStatus > 0 {
		return cmdErr.ExitStatus, true
	}
	return 0, false
}

func shellCommand(elevated bool) string {
	if elevated {
		return "sudo bash -e"
	}
	return "bash -e"
}

// uploadCommand writes stdin to path readable by the login user only.
func uploadCommand(path string) string {
	return "umask 077 && cat > '" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

// logScript emits the full script so operators can audit what ran where.
func logScript(log zerolog.Logger, host, script string, elevated bool) {
	log.Info().
		Str("host", host).
		Bool("sudo", elevated).
		Msgf("run command on host\n%s\n", script)
}

// Endpoint is a parsed [user@]host[:port] address.
type Endpoint struct {
	User string
	Host string
	Port int
}

// Addr returns host:port for dialing
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// ParseEndpoint parses [user@]host[:port], filling user and port from the defaults
func ParseEndpoint(target, defaultUser string, defaultPort int) (Endpoint, error) {
	ep := Endpoint{User: defaultUser, Port: defaultPort}
	if i := strings.LastIndex(target, "@"); i >= 0 {
		ep.User = target[:i]
		target = target[i+1:]
	}

	host, port, err := net.SplitHostPort(target)
	if err != nil {
		// no port given
		host = strings.Trim(target, "[]")
	} else {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return Endpoint{}, fmt.Errorf("invalid port in %q", target)
		}
		ep.Port = p
	}

	if host == "" {
		return Endpoint{}, fmt.Errorf("empty host in %q", target)
	}
	if ep.User == "" {
		return Endpoint{}, fmt.Errorf("no ssh user for %q", target)
	}
	ep.Host = host
	return ep, nil
}
