package cmd

import (
	"github.com/coldstack/privatechain-deploy/internal/config"
	"github.com/coldstack/privatechain-deploy/internal/crypto"
	"github.com/coldstack/privatechain-deploy/internal/model"
	"github.com/coldstack/privatechain-deploy/internal/node"
	"github.com/coldstack/privatechain-deploy/network"

	"github.com/spf13/cobra"
)

var (
	flagValidatorNodes []string
	flagAPINodes       []string
	flagBootNodeAddr   string
	flagDeploySecrets  string
	flagEnv            string
	flagTag            string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy blockchain",
	Long: `Provision validator and API nodes one host at a time. The first validator is the boot node;
every other node dials it at --boot-node-addr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		env := model.Environment(flagEnv)
		if err := env.Validate(); err != nil {
			return err
		}
		secrets, err := crypto.ReadSecrets(flagDeploySecrets)
		if err != nil {
			return err
		}
		targets, err := network.PlanTargets(flagValidatorNodes, flagAPINodes)
		if err != nil {
			return err
		}

		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}
		defer exec.Close()
		container := node.Container{Image: cfg.ImageRef(flagTag), DataDir: cfg.DataDir}
		provisioner := network.NewProvisioner(exec, container, cfg.RuntimeUID, log)

		if err := provisioner.Deploy(cmd.Context(), targets, network.DeployOptions{
			Env:        env,
			Secrets:    secrets,
			BootAddr:   flagBootNodeAddr,
			NamePrefix: cfg.NodeNamePrefix,
			P2PPort:    cfg.P2PPort,
			RPCPort:    cfg.RPCPort,
			WSPort:     cfg.WSPort,
			RuntimeUID: cfg.RuntimeUID,
		}); err != nil {
			return err
		}

		log.Info().Int("hosts", len(targets)).Msg("deployment finished")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().StringSliceVar(&flagValidatorNodes, "validator-node", nil, "validator node ssh address, the first one is the boot node")
	_ = deployCmd.MarkFlagRequired("validator-node")
	deployCmd.Flags().StringSliceVar(&flagAPINodes, "api-node", nil, "api node ssh address")
	deployCmd.Flags().StringVar(&flagBootNodeAddr, "boot-node-addr", "", "first (boot) node ip address")
	_ = deployCmd.MarkFlagRequired("boot-node-addr")
	deployCmd.Flags().StringVar(&flagDeploySecrets, "secrets", "", "secrets file")
	_ = deployCmd.MarkFlagRequired("secrets")
	deployCmd.Flags().StringVar(&flagEnv, "env", "", "production or staging")
	_ = deployCmd.MarkFlagRequired("env")
	deployCmd.Flags().StringVar(&flagTag, "tag", "", "tag of docker image")
	_ = deployCmd.MarkFlagRequired("tag")
}
