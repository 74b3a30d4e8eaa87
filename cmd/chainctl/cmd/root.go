package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/coldstack/privatechain-deploy/internal/config"
	"github.com/coldstack/privatechain-deploy/internal/remote"
	"github.com/coldstack/privatechain-deploy/network"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagLogLevel string
	log          zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "chainctl",
	Short:         "Deploy and operate a private chain",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(flagLogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log = log.Level(level)
		return config.Init()
	},
}

// Execute runs the command line and exits with the status of the failed step
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(exitCode(err))
	}
}

// exitCode propagates the exit status of a failed command when one is known.
func exitCode(err error) int {
	if errors.Is(err, network.ErrNoNewBlock) {
		return 1
	}
	if status, ok := remote.ExitStatus(err); ok {
		return status
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	log = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger()
}

// executor is a remote.Executor holding resources until closed
type executor interface {
	remote.Executor
	io.Closer
}

// newExecutor returns the remote executor selected by CHAINCTL_SSH_TRANSPORT
func newExecutor(cfg *config.Config) (executor, error) {
	if cfg.SSHTransport == "openssh" {
		return remote.NewOpenSSH(cfg.SSHPort, log), nil
	}
	native, err := remote.NewSSH(remote.SSHConfig{
		User:           cfg.SSHUser,
		Port:           cfg.SSHPort,
		KeyPath:        cfg.SSHKey,
		KnownHostsPath: cfg.SSHKnownHosts,
		Passphrase:     config.PromptForPassphrase,
	}, log)
	if err != nil {
		return nil, err
	}
	return native, nil
}
