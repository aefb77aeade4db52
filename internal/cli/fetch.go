package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	docfetch "github.com/porticus-lab/go-docfetch"
	"github.com/porticus-lab/go-docfetch/internal/cli/config"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

func cmdFetch() *cli.Command {
	var (
		browserCfg config.Browser
		output     string
		mode       string
	)

	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Directory to write the document to",
			Value:       ".",
			Destination: &output,
		},
		&cli.StringFlag{
			Name:        "type",
			Usage:       "Download type (default, image)",
			Value:       "default",
			Destination: &mode,
		},
	}, browserCfg.Flags()...)

	return &cli.Command{
		Name:      "fetch",
		Aliases:   []string{"f"},
		Usage:     "Download one document",
		ArgsUsage: "<url>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := zerolog.Ctx(ctx)

			if c.Args().Len() != 1 {
				return goerr.Wrap(docfetch.ErrInvalidInput, "fetch takes exactly one url")
			}
			m, err := docfetch.ParseMode(mode)
			if err != nil {
				return err
			}

			fetcher, err := browserCfg.Fetcher(*logger)
			if err != nil {
				return err
			}

			res, err := fetcher.Fetch(ctx, docfetch.Request{URL: c.Args().First(), Mode: m})
			if err != nil {
				return err
			}
			defer res.Close()

			if err := os.MkdirAll(output, 0o755); err != nil {
				return goerr.Wrap(err, "creating output directory", goerr.V("dir", output))
			}
			dst := filepath.Join(output, res.Filename)
			if err := res.SaveAs(dst); err != nil {
				return err
			}

			logger.Info().
				Str("path", dst).
				Str("technique", res.Technique).
				Int64("size", res.Size).
				Msg("document saved")
			fmt.Fprintln(c.Root().Writer, dst)
			return nil
		},
	}
}
