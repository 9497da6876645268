package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AdeptTravel/wpenv/internal/config"
	"github.com/AdeptTravel/wpenv/internal/server"
)

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /healthz and /metrics, reloading on SIGHUP or .env changes",
		Long: `Load the configuration, then serve its status over HTTP:

  GET  /healthz   200 when valid, 503 with every issue otherwise
  POST /reload    re-read the environment and .env now
  GET  /metrics   Prometheus metrics

SIGHUP and (with --watch) writes to the .env file trigger a reload.  A
reload that fails keeps the previous configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			l, err := g.loader(ctx, true)
			if err != nil {
				return err
			}
			if _, err := l.Load(ctx); err != nil {
				return err
			}

			srv := server.New(addr, server.Router(l))
			grp, ctx := errgroup.WithContext(ctx)

			grp.Go(func() error {
				g.log.Infow("status server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			grp.Go(func() error {
				<-ctx.Done()
				shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutCtx)
			})
			grp.Go(func() error {
				hup := make(chan os.Signal, 1)
				signal.Notify(hup, syscall.SIGHUP)
				defer signal.Stop(hup)
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-hup:
						reload(ctx, g, l, "sighup")
					}
				}
			})
			if watch && g.envFile != "" {
				grp.Go(func() error {
					return watchFile(ctx, g.envFile, func() { reload(ctx, g, l, "env file changed") })
				})
			}
			return grp.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9102", "listen address")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload when the .env file changes")
	return cmd
}

func reload(ctx context.Context, g *globals, l *config.Loader, why string) {
	if err := l.Reload(ctx); err != nil {
		g.log.Warnw("reload rejected, keeping previous configuration", "trigger", why, "err", err)
		return
	}
	g.log.Infow("configuration reloaded", "trigger", why)
}
