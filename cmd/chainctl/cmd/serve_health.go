package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coldstack/privatechain-deploy/internal/api"
	"github.com/coldstack/privatechain-deploy/internal/client"
	"github.com/coldstack/privatechain-deploy/internal/config"

	"github.com/spf13/cobra"
)

var serveHealthCmd = &cobra.Command{
	Use:   "serve-health",
	Short: "Serve the node health over HTTP",
	Long:  `Serve GET /healthcheck with the block height of CHAINCTL_NODE_URL. Swagger UI is at /swagger/.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if cfg.NodeURL == "" {
			return errors.New("CHAINCTL_NODE_URL is required")
		}

		nodeClient, err := client.New(cfg.NodeURL)
		if err != nil {
			return err
		}
		defer nodeClient.Close()

		router, err := api.SetupRouter(nodeClient, log)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		log.Info().Msgf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveHealthCmd)
}
