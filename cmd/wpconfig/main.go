// Command wpconfig resolves and validates WordPress configuration from the
// environment.
//
// Usage:
//
//	wpconfig check [--db]                 - validate; exit 1 when invalid
//	wpconfig print [--format yaml|json]   - show every field and its origin
//	wpconfig serve [--addr :9102]         - /healthz, /metrics, hot reload
//
// Every command reads an optional .env file (see --env-file) beneath the
// process environment.  Values written as vault:<mount>/<path>#<key> are
// fetched from Vault when VAULT_ADDR or --vault-addr is set.
//
// Exit codes: 0 valid, 1 invalid configuration, 2 anything else.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AdeptTravel/wpenv/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	_ = zap.S().Sync()
	switch {
	case err == nil:
	case errors.Is(err, config.ErrInvalidConfig):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "wpconfig: %v\n", err)
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "wpconfig",
		Short: "Resolve and validate WordPress configuration from the environment",
		Long: `wpconfig turns WORDPRESS_* environment variables into a validated
configuration.  Every problem is reported at once; production mode
(APP_ENV=production) additionally rejects placeholder and short keys/salts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&g.envFile, "env-file", ".env", "optional dotenv file read beneath the process environment")
	f.StringVar(&g.mode, "mode", "", "force production or development instead of reading APP_ENV")
	f.StringVar(&g.logDir, "log-dir", "", "also write JSON logs to this directory")
	f.StringVar(&g.logLevel, "log-level", "info", "debug, info, warn, or error")
	f.StringVar(&g.vaultAddr, "vault-addr", "", "Vault address for vault: references (default $VAULT_ADDR)")

	root.AddCommand(newCheckCmd(g), newPrintCmd(g), newServeCmd(g))
	return root
}
