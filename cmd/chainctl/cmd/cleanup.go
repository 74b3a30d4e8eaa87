package cmd

import (
	"github.com/coldstack/privatechain-deploy/internal/config"
	"github.com/coldstack/privatechain-deploy/network"

	"github.com/spf13/cobra"
)

var (
	flagCleanupNodes []string
	flagPreserveData bool
	flagCleanupTag   string
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Cleanup after unsuccessful deployment",
	Long:  `Stop and remove node containers on every host and delete the node data directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}
		defer exec.Close()

		return network.Cleanup(cmd.Context(), exec, flagCleanupNodes, network.CleanupOptions{
			Image:        cfg.ImageRef(flagCleanupTag),
			DataDir:      cfg.DataDir,
			PreserveData: flagPreserveData,
		}, log)
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().StringSliceVar(&flagCleanupNodes, "node", nil, "node to cleanup")
	_ = cleanupCmd.MarkFlagRequired("node")
	cleanupCmd.Flags().BoolVar(&flagPreserveData, "preserve-data", false, "keep the node data directory")
	cleanupCmd.Flags().StringVar(&flagCleanupTag, "tag", "", "only remove containers of this image tag")
}
