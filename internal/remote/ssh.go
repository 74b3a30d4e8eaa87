package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

const sshDialTimeout = 15 * time.Second

// SSHConfig configures the native SSH executor
type SSHConfig struct {
	User           string
	Port           int
	KeyPath        string
	KnownHostsPath string
	// Passphrase is asked for when the private key is encrypted.
	Passphrase func(keyPath string) ([]byte, error)
}

// SSH runs scripts through golang.org/x/crypto/ssh sessions.
// One connection is opened per call; nothing is kept between steps.
type SSH struct {
	cfg     SSHConfig
	log     zerolog.Logger
	auth    []ssh.AuthMethod
	hostKey ssh.HostKeyCallback
	stdout  io.Writer
	stderr  io.Writer

	agentConn net.Conn
	agent     agent.ExtendedAgent

	signersOnce sync.Once
	signers     []ssh.Signer
	signersErr  error
}

// NewSSH creates a native SSH executor.
// ssh-agent keys are offered first when SSH_AUTH_SOCK is set, then the key file.
// Close releases the agent connection.
func NewSSH(cfg SSHConfig, log zerolog.Logger) (*SSH, error) {
	hostKey, err := knownhosts.New(cfg.KnownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts %s: %w", cfg.KnownHostsPath, err)
	}

	s := &SSH{
		cfg:     cfg,
		log:     log,
		hostKey: hostKey,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		conn, err := net.Dial("unix", sock)
		if err != nil {
			log.Warn().Err(err).Msg("ssh-agent unavailable, using key file")
		} else {
			s.agentConn = conn
			s.agent = agent.NewClient(conn)
		}
	}

	// all keys share one publickey method: the client tries each method name once
	s.auth = []ssh.AuthMethod{ssh.PublicKeysCallback(s.loadSigners)}

	// without an agent the key file is the only credential: fail (or prompt) now
	if s.agent == nil {
		if _, err := s.loadSigners(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Close implements io.Closer
func (s *SSH) Close() error {
	if s.agentConn == nil {
		return nil
	}
	err := s.agentConn.Close()
	s.agentConn = nil
	return err
}

// loadSigners returns agent keys followed by the key file, resolved once.
func (s *SSH) loadSigners() ([]ssh.Signer, error) {
	s.signersOnce.Do(func() {
		var signers []ssh.Signer
		if s.agent != nil {
			agentSigners, err := s.agent.Signers()
			if err != nil {
				s.log.Warn().Err(err).Msg("failed to list ssh-agent keys")
			}
			signers = append(signers, agentSigners...)
		}

		// an encrypted key file is only unlocked when the agent has nothing to offer
		keySigner, err := keyFileSigner(s.cfg, len(signers) == 0)
		switch {
		case err != nil && len(signers) == 0:
			s.signersErr = err
			return
		case err != nil:
			s.log.Debug().Err(err).Msg("key file skipped")
		case keySigner != nil:
			signers = append(signers, keySigner)
		}
		s.signers = signers
	})
	return s.signers, s.signersErr
}

// keyFileSigner parses cfg.KeyPath, asking for the passphrase when allowed.
// It returns a nil signer for an encrypted key when prompting is not allowed.
func keyFileSigner(cfg SSHConfig, prompt bool) (ssh.Signer, error) {
	pemBytes, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ssh key: %w", err)
	}
	defer clear(pemBytes)

	signer, err := ssh.ParsePrivateKey(pemBytes)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		if !prompt || cfg.Passphrase == nil {
			if prompt {
				return nil, fmt.Errorf("ssh key %s is encrypted: %w", cfg.KeyPath, err)
			}
			return nil, nil
		}
		passphrase, perr := cfg.Passphrase(cfg.KeyPath)
		if perr != nil {
			return nil, perr
		}
		defer clear(passphrase)
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pemBytes, passphrase)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh key %s: %w", cfg.KeyPath, err)
	}
	return signer, nil
}

// Run implements Executor
func (s *SSH) Run(ctx context.Context, host, script string, elevated bool) error {
	logScript(s.log, host, script, elevated)
	return s.session(ctx, host, shellCommand(elevated), strings.NewReader(script), s.stdout)
}

// Upload implements Executor
func (s *SSH) Upload(ctx context.Context, host, remotePath string, data []byte) error {
	s.log.Info().Str("host", host).Str("path", remotePath).Int("bytes", len(data)).Msg("copy file to host")
	return s.session(ctx, host, uploadCommand(remotePath), bytes.NewReader(data), io.Discard)
}

func (s *SSH) session(ctx context.Context, host, command string, stdin io.Reader, stdout io.Writer) error {
	ep, err := ParseEndpoint(host, s.cfg.User, s.cfg.Port)
	if err != nil {
		return err
	}

	client, err := s.dial(ctx, ep)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", host, err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to open session on %s: %w", host, err)
	}
	defer session.Close()

	session.Stdin = stdin
	session.Stdout = stdout
	session.Stderr = s.stderr

	if err := session.Run(command); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return &CommandError{Host: host, Command: command, ExitStatus: exitErr.ExitStatus(), Err: err}
		}
		return fmt.Errorf("failed to run %q on %s: %w", command, host, err)
	}
	return nil
}

func (s *SSH) dial(ctx context.Context, ep Endpoint) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User:            ep.User,
		Auth:            s.auth,
		HostKeyCallback: s.hostKey,
		Timeout:         sshDialTimeout,
	}

	dialer := net.Dialer{Timeout: sshDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", ep.Addr())
	if err != nil {
		return nil, err
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, ep.Addr(), config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}
