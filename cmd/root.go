package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	version  = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "gcalbridge",
	Short: "HTTP gateway for listing and creating Google Calendar events",
	Long: `gcalbridge serves a handful of HTTP routes that authenticate against the
Google Calendar API and list upcoming events or insert a sample event.

Two credential strategies are available:
  - an interactive OAuth2 authorization-code flow (/oauth2)
  - a non-interactive service account (/with-service/...)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return configureLogging(logLevel)
	},
}

// SetVersion sets the version reported by the version command and --version.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute runs the root command. Without a subcommand the server is started.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gcalbridge version %s\n" .Version}}`)

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func configureLogging(level string) error {
	if level == "" {
		log.SetLevel(log.InfoLevel)
		return nil
	}
	logrusLevel, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(logrusLevel)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gcalbridge version %s\n", version)
		},
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", os.Getenv("LOG_LEVEL"), "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
