package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	docfetch "github.com/porticus-lab/go-docfetch"
	"github.com/porticus-lab/go-docfetch/internal/cli/config"
	"github.com/porticus-lab/go-docfetch/internal/scratch"
	"github.com/porticus-lab/go-docfetch/internal/server"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg  config.Server
		browserCfg config.Browser
	)

	flags := append(serverCfg.Flags(), browserCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := zerolog.Ctx(ctx)

			store, err := serverCfg.Scratch(scratch.WithLogger(*logger))
			if err != nil {
				return err
			}
			if err := store.Start(); err != nil {
				return err
			}
			defer store.Stop()

			fetcher, err := browserCfg.Fetcher(*logger, docfetch.WithScratch(store))
			if err != nil {
				return err
			}

			srv := server.NewServer(fetcher,
				server.WithAddr(serverCfg.Addr),
				server.WithFetchTimeout(serverCfg.FetchTimeout),
				server.WithMaxConcurrent(serverCfg.MaxConcurrent),
				server.WithLogger(*logger),
			)

			errCh := make(chan error, 1)
			go func() {
				logger.Info().
					Str("addr", serverCfg.Addr).
					Str("scratch", store.Root()).
					Int("max_concurrent", serverCfg.MaxConcurrent).
					Msg("HTTP server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case <-ctx.Done():
				logger.Info().Msg("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info().Stringer("signal", sig).Msg("Signal received, shutting down...")
			case err := <-errCh:
				return goerr.Wrap(err, "HTTP server failed", goerr.V("addr", serverCfg.Addr))
			}

			grace := serverCfg.ShutdownGrace()
			logger.Info().Dur("grace", grace).Msg("Waiting for in-flight fetches")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info().Msg("Server shutdown complete")
			return nil
		},
	}
}
