package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Flags holds the command line configuration
type Flags struct {
	ConfigFile string
	LogLevel   string
}

func newRootCommand() *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:   "zentalk-client",
		Short: "Directory client for end-to-end encrypted messaging",
		Long: `zentalk-client registers an identity with a directory server, discovers
peers, exchanges symmetric keys and sends encrypted text and files.

The server address is read from server.info (host:port or a multiaddr such as
/ip4/127.0.0.1/tcp/1357). The identity is kept in me.info once registered.`,
		Example: `  # Interactive menu with defaults
  zentalk-client

  # Interactive menu with a config file
  zentalk-client menu -c client.toml

  # Local HTTP API
  zentalk-client serve -c client.toml`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd.Context(), flags, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", "", "configuration file")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(&cobra.Command{
		Use:   "menu",
		Short: "Run the interactive menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd.Context(), flags, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the client actions on a loopback HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	})

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
