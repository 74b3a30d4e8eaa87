package network

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/coldstack/privatechain-deploy/internal/common"
	"github.com/coldstack/privatechain-deploy/internal/node"
	"github.com/coldstack/privatechain-deploy/internal/remote"

	"github.com/rs/zerolog"
)

// CleanupOptions configures Cleanup
type CleanupOptions struct {
	Image        string
	DataDir      string
	PreserveData bool
}

// Cleanup stops and removes node containers on every host and, unless
// PreserveData is set, deletes the node data directory.
// Hosts are processed in order; the first failure stops the run.
func Cleanup(ctx context.Context, exec remote.Executor, hosts []string, opts CleanupOptions, log zerolog.Logger) error {
	if len(hosts) == 0 {
		return errors.New("at least one node is required")
	}
	if opts.Image == "" {
		return errors.New("image is required")
	}
	if !opts.PreserveData {
		if dir := path.Clean(opts.DataDir); !path.IsAbs(dir) || dir == "/" {
			return fmt.Errorf("refusing to remove data directory %q", opts.DataDir)
		}
	}

	for _, host := range hosts {
		log.Info().Str("host", host).Msg("removing node containers")
		if err := exec.Run(ctx, host, node.RemoveCommand(opts.Image), false); err != nil {
			return fmt.Errorf("failed to remove containers on %s: %w", host, err)
		}

		if opts.PreserveData {
			continue
		}
		log.Info().Str("host", host).Str("dir", opts.DataDir).Msg("removing node data")
		if err := exec.Run(ctx, host, "rm -rf "+common.ShellQuote(opts.DataDir), true); err != nil {
			return fmt.Errorf("failed to remove data on %s: %w", host, err)
		}
	}
	return nil
}
