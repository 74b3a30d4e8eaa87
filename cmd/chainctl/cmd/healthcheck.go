package cmd

import (
	"errors"
	"time"

	"github.com/coldstack/privatechain-deploy/internal/client"
	"github.com/coldstack/privatechain-deploy/internal/config"
	"github.com/coldstack/privatechain-deploy/network"

	"github.com/spf13/cobra"
)

var (
	flagNodeURL string
	flagTimeout time.Duration
)

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the network produces blocks",
	Long:  `Exits with status 0 when a new block is produced within the timeout, and non-zero otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		nodeURL := flagNodeURL
		if nodeURL == "" {
			nodeURL = cfg.NodeURL
		}
		if nodeURL == "" {
			return errors.New("--node-url or CHAINCTL_NODE_URL is required")
		}
		timeout := flagTimeout
		if timeout <= 0 {
			timeout = cfg.HealthTimeout
		}

		nodeClient, err := client.New(nodeURL)
		if err != nil {
			return err
		}
		defer nodeClient.Close()

		monitor := network.NewHealthMonitor(nodeClient, timeout, cfg.HealthInterval, log)
		height, err := monitor.Check(cmd.Context())
		if err != nil {
			return err
		}

		log.Info().Uint64("height", height).Msg("network is healthy")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)

	healthcheckCmd.Flags().StringVar(&flagNodeURL, "node-url", "", "node URL (http, https, ws or wss)")
	healthcheckCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "time to wait for a new block (default CHAINCTL_HEALTH_TIMEOUT)")
}
