// Package cli implements the docfetch command line.
package cli

import (
	"context"
	"os"

	docfetch "github.com/porticus-lab/go-docfetch"
	"github.com/porticus-lab/go-docfetch/internal/cli/config"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var loggerCfg config.Logger
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	app := &cli.Command{
		Name:    "docfetch",
		Usage:   "Download documents from SlideShare, Scribd and web pages",
		Version: docfetch.Version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}
			return logger.WithContext(ctx), nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdFetch(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logger.Error().Err(err).Msg("CLI execution failed")
		return err
	}
	return nil
}
