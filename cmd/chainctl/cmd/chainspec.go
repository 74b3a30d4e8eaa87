package cmd

import (
	"github.com/coldstack/privatechain-deploy/internal/config"
	"github.com/coldstack/privatechain-deploy/internal/crypto"
	"github.com/coldstack/privatechain-deploy/internal/node"
	"github.com/coldstack/privatechain-deploy/internal/remote"
	"github.com/coldstack/privatechain-deploy/network"

	"github.com/spf13/cobra"
)

var (
	flagChainspec    string
	flagRawChainspec string
	flagSecrets      string
	flagNetworkName  string
	flagNetworkID    string
)

var chainspecCmd = &cobra.Command{
	Use:   "chainspec",
	Short: "Populate chainspec",
	Long:  `Build the network chainspec from the node's local template and the secrets file, then convert it to raw form.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		secrets, err := crypto.ReadSecrets(flagSecrets)
		if err != nil {
			return err
		}

		bin := node.NewBinary(remote.NewLocal(log), cfg.Image)
		rawPath, err := network.BuildChainspec(cmd.Context(), bin, secrets, network.ChainspecOptions{
			TemplatePath: flagChainspec,
			RawPath:      flagRawChainspec,
			Name:         flagNetworkName,
			ID:           flagNetworkID,
			SS58Format:   cfg.SS58Format,
		}, log)
		if err != nil {
			return err
		}

		log.Info().Msgf("chainspec ready: %s", rawPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chainspecCmd)

	chainspecCmd.Flags().StringVar(&flagChainspec, "chainspec", "", "chainspec file name")
	_ = chainspecCmd.MarkFlagRequired("chainspec")
	chainspecCmd.Flags().StringVar(&flagRawChainspec, "rawchainspec", "", "raw chainspec file name")
	_ = chainspecCmd.MarkFlagRequired("rawchainspec")
	chainspecCmd.Flags().StringVar(&flagSecrets, "secrets", "", "secrets file")
	_ = chainspecCmd.MarkFlagRequired("secrets")
	chainspecCmd.Flags().StringVar(&flagNetworkName, "name", "", "network name")
	_ = chainspecCmd.MarkFlagRequired("name")
	chainspecCmd.Flags().StringVar(&flagNetworkID, "id", "", "network id")
	_ = chainspecCmd.MarkFlagRequired("id")
}
