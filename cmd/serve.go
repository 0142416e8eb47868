package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/klokku/gcalbridge/internal/app"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		envFile    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.NewApplication(configPath, envFile)
			if err != nil {
				log.Errorf("failed to initialize application: %v", err)
				return err
			}
			return application.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "./config/application.yaml", "Path to the YAML configuration file")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to a dotenv file loaded before reading the environment")

	return cmd
}
