package config

import (
	"time"

	"github.com/porticus-lab/go-docfetch/internal/scratch"
	"github.com/urfave/cli/v3"
)

// Server holds server configuration
type Server struct {
	Addr          string
	FetchTimeout  time.Duration
	MaxConcurrent int
	ScratchDir    string
	ScratchTTL    time.Duration
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("DOCFETCH_ADDR"),
		},
		&cli.DurationFlag{
			Name:        "fetch-timeout",
			Usage:       "Maximum duration of one download request",
			Value:       5 * time.Minute,
			Destination: &c.FetchTimeout,
			Sources:     cli.EnvVars("DOCFETCH_FETCH_TIMEOUT"),
		},
		&cli.IntFlag{
			Name:        "max-concurrent",
			Usage:       "Maximum number of fetches (browser processes) at once",
			Value:       4,
			Destination: &c.MaxConcurrent,
			Sources:     cli.EnvVars("DOCFETCH_MAX_CONCURRENT"),
		},
		&cli.StringFlag{
			Name:        "scratch-dir",
			Usage:       "Directory for in-flight downloads (default: system temp dir)",
			Destination: &c.ScratchDir,
			Sources:     cli.EnvVars("DOCFETCH_SCRATCH_DIR"),
		},
		&cli.DurationFlag{
			Name:        "scratch-ttl",
			Usage:       "Age after which abandoned scratch directories are removed",
			Value:       10 * time.Minute,
			Destination: &c.ScratchTTL,
			Sources:     cli.EnvVars("DOCFETCH_SCRATCH_TTL"),
		},
	}
}

// Scratch creates the scratch manager for the server.
func (c *Server) Scratch(opts ...scratch.Option) (*scratch.Manager, error) {
	return scratch.New(c.ScratchDir, append([]scratch.Option{scratch.WithTTL(c.ScratchTTL)}, opts...)...)
}

// ShutdownGrace is how long shutdown waits for in-flight fetches: one full
// fetch timeout plus time to stream the file, or 30s without a timeout.
func (c *Server) ShutdownGrace() time.Duration {
	if c.FetchTimeout <= 0 {
		return 30 * time.Second
	}
	return c.FetchTimeout + 30*time.Second
}
