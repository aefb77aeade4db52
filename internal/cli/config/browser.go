package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	docfetch "github.com/porticus-lab/go-docfetch"
	"github.com/porticus-lab/go-docfetch/internal/httpx"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

// Browser holds browser and fetcher configuration shared by serve and fetch.
type Browser struct {
	ChromePath        string
	NoSandbox         bool
	AutoDownload      bool
	ProfilesPath      string
	CloudflareBypass  bool
	NavigationTimeout time.Duration
	HTTPTimeout       time.Duration
}

// Flags returns CLI flags for browser configuration
func (c *Browser) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "chrome-path",
			Usage:       "Path to the Chrome or Chromium executable",
			Destination: &c.ChromePath,
			Sources:     cli.EnvVars("DOCFETCH_CHROME_PATH"),
		},
		&cli.BoolFlag{
			Name:        "no-sandbox",
			Usage:       "Disable the Chrome sandbox (required when running as root)",
			Destination: &c.NoSandbox,
			Sources:     cli.EnvVars("DOCFETCH_NO_SANDBOX"),
		},
		&cli.BoolFlag{
			Name:        "auto-download",
			Usage:       "Download Chromium when no Chrome path is given",
			Destination: &c.AutoDownload,
			Sources:     cli.EnvVars("DOCFETCH_AUTO_DOWNLOAD"),
		},
		&cli.StringFlag{
			Name:        "profiles",
			Usage:       "YAML file overriding the built-in site profiles",
			Destination: &c.ProfilesPath,
			Sources:     cli.EnvVars("DOCFETCH_PROFILES"),
		},
		&cli.BoolFlag{
			Name:        "cloudflare-bypass",
			Usage:       "Send HTTP requests through the Cloudflare bypass transport",
			Destination: &c.CloudflareBypass,
			Sources:     cli.EnvVars("DOCFETCH_CLOUDFLARE_BYPASS"),
		},
		&cli.DurationFlag{
			Name:        "navigation-timeout",
			Usage:       "Maximum time to load the target page",
			Value:       30 * time.Second,
			Destination: &c.NavigationTimeout,
			Sources:     cli.EnvVars("DOCFETCH_NAVIGATION_TIMEOUT"),
		},
		&cli.DurationFlag{
			Name:        "http-timeout",
			Usage:       "Timeout of a single candidate download",
			Value:       60 * time.Second,
			Destination: &c.HTTPTimeout,
			Sources:     cli.EnvVars("DOCFETCH_HTTP_TIMEOUT"),
		},
	}
}

// Profiles loads the profile override file, or the built-in profiles when
// none is set.
func (c *Browser) Profiles() (docfetch.Profiles, error) {
	if c.ProfilesPath == "" {
		return docfetch.DefaultProfiles(), nil
	}
	f, err := os.Open(c.ProfilesPath)
	if err != nil {
		return nil, goerr.Wrap(err, "opening profiles", goerr.V("path", c.ProfilesPath))
	}
	defer f.Close()
	p, err := docfetch.LoadProfiles(f)
	if err != nil {
		return nil, goerr.Wrap(err, "loading profiles", goerr.V("path", c.ProfilesPath))
	}
	return p, nil
}

// Fetcher builds a Chrome-backed fetcher from the configuration.
func (c *Browser) Fetcher(log zerolog.Logger, opts ...docfetch.Option) (*docfetch.Fetcher, error) {
	var chromeOpts []docfetch.ChromeOption
	if c.ChromePath != "" {
		chromeOpts = append(chromeOpts, docfetch.WithChromePath(c.ChromePath))
	}
	if c.NoSandbox {
		chromeOpts = append(chromeOpts, docfetch.WithNoSandbox())
	}
	if c.AutoDownload {
		chromeOpts = append(chromeOpts, docfetch.WithAutoDownload())
	}
	engine, err := docfetch.NewChromeEngine(chromeOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "creating browser engine")
	}

	profiles, err := c.Profiles()
	if err != nil {
		return nil, err
	}

	client := httpx.NewClient(httpx.Options{
		Timeout:          c.HTTPTimeout,
		UserAgent:        docfetch.DefaultUserAgent,
		CloudflareBypass: c.CloudflareBypass,
		Logger:           &log,
	})

	base := []docfetch.Option{
		docfetch.WithProfiles(profiles),
		docfetch.WithHTTPClient(client),
		docfetch.WithLogger(log),
		docfetch.WithNavigationTimeout(c.NavigationTimeout),
	}
	return docfetch.NewFetcher(engine, append(base, opts...)...), nil
}
