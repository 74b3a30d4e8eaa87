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
	flagSecretsFile string
	flagAuthorities int
)

var genSecretsCmd = &cobra.Command{
	Use:   "gen-secrets",
	Short: "Generate blockchain secrets",
	Long: `Generate authority, sudo and admin mnemonics and the boot node network identity.
The secrets file is written with mode 0600 and is never overwritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		bin := node.NewBinary(remote.NewLocal(log), cfg.Image)

		secrets, err := network.GenerateSecrets(cmd.Context(), bin, flagAuthorities)
		if err != nil {
			return err
		}
		if err := crypto.WriteSecrets(flagSecretsFile, secrets); err != nil {
			return err
		}

		log.Info().Int("authorities", len(secrets.Authorities)).Msgf("wrote file %s", flagSecretsFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(genSecretsCmd)

	genSecretsCmd.Flags().StringVar(&flagSecretsFile, "file", "", "secrets file")
	_ = genSecretsCmd.MarkFlagRequired("file")
	genSecretsCmd.Flags().IntVar(&flagAuthorities, "authorities", 1, "number of authority mnemonics")
}
