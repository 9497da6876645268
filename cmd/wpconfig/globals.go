package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AdeptTravel/wpenv/internal/config"
	"github.com/AdeptTravel/wpenv/internal/logger"
	"github.com/AdeptTravel/wpenv/internal/vault"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	envFile   string
	mode      string
	logDir    string
	logLevel  string
	vaultAddr string

	log *zap.SugaredLogger
}

func (g *globals) setup(cmd *cobra.Command) error {
	log, err := logger.New(logger.Options{
		Dir:     g.logDir,
		Level:   g.logLevel,
		Console: cmd.ErrOrStderr(),
		Color:   logger.IsTTY(os.Stderr),
	})
	if err != nil {
		return err
	}
	g.log = log
	return nil
}

// loader builds a config.Loader from the flags.  renew starts Vault token
// renewal, which only long-running commands want.
func (g *globals) loader(ctx context.Context, renew bool) (*config.Loader, error) {
	l := &config.Loader{EnvFile: g.envFile}

	if g.mode != "" {
		switch g.mode {
		case "production", "prod", "development", "dev":
		default:
			return nil, fmt.Errorf("--mode %q: want production or development", g.mode)
		}
		l.Options = append(l.Options, config.WithMode(config.ParseMode(g.mode)))
	}

	addr := g.vaultAddr
	if addr == "" {
		addr = os.Getenv("VAULT_ADDR")
	}
	if addr != "" {
		cli, err := vault.New(ctx, vault.Options{Address: addr, CacheTTL: time.Minute, Renew: renew})
		if err != nil {
			return nil, err
		}
		l.Secrets = cli
		g.log.Debugw("vault secret source enabled", "addr", addr)
	}
	return l, nil
}
