package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/AdeptTravel/wpenv/internal/config"
	"github.com/AdeptTravel/wpenv/internal/database"
)

func newCheckCmd(g *globals) *cobra.Command {
	var withDB bool
	var dbTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and report every issue",
		Long: `Resolve every WORDPRESS_* variable, validate it, and print each issue
found.  Exits 1 when the configuration would be rejected.

With --db the database is also contacted and the table prefix is probed
for an existing WordPress install.`,
		Example: "APP_ENV=production wpconfig check --db",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := g.loader(cmd.Context(), false)
			if err != nil {
				return err
			}
			res, err := l.Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printIssues(out, res)
			if res.Err != nil {
				return res.Err
			}
			if !withDB {
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), dbTimeout)
			defer cancel()
			return checkDatabase(ctx, out, res.Config)
		},
	}

	cmd.Flags().BoolVar(&withDB, "db", false, "connect to the database and probe the install")
	cmd.Flags().DurationVar(&dbTimeout, "db-timeout", 10*time.Second, "time limit for --db")
	return cmd
}

func printIssues(w io.Writer, res config.Result) {
	fmt.Fprintf(w, "mode: %s\n", res.Mode)

	var errs, warns int
	for _, is := range res.Issues {
		if is.Fatal() {
			errs++
		} else {
			warns++
		}
		fmt.Fprintf(w, "%-8s %s\n", is.Severity, is)
	}

	if res.Err != nil {
		fmt.Fprintf(w, "configuration invalid: %d error(s), %d warning(s)\n", errs, warns)
		return
	}
	fmt.Fprintf(w, "configuration valid: %d warning(s)\n", warns)
}

func checkDatabase(ctx context.Context, w io.Writer, cfg *config.Config) error {
	dsn, err := database.DSN(cfg)
	if err != nil {
		return err
	}
	db, err := database.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.DBHost, err)
	}
	defer db.Close()

	inst, err := database.Probe(ctx, db, cfg.DBName, cfg.TablePrefix)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "database: %s reachable, %d table(s) with prefix %s\n", cfg.DBHost, inst.Tables, cfg.TablePrefix)
	if inst.Found {
		fmt.Fprintf(w, "wordpress: installed, siteurl %s\n", inst.SiteURL)
	} else {
		fmt.Fprintln(w, "wordpress: not installed under this prefix")
	}
	return nil
}
