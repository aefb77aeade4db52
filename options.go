package docfetch

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// DefaultUserAgent is the desktop Chrome user agent sent by the browser
// and the HTTP client.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ScratchSpace hands out one private directory per fetch.
type ScratchSpace interface {
	Acquire() (string, error)
	Release(dir string) error
}

// tempScratch places scratch directories under the system temp dir.
type tempScratch struct{}

func (tempScratch) Acquire() (string, error) { return os.MkdirTemp("", "docfetch-*") }
func (tempScratch) Release(dir string) error { return os.RemoveAll(dir) }

// fetcherConfig holds internal configuration for a Fetcher.
type fetcherConfig struct {
	client     *http.Client
	profiles   Profiles
	scratch    ScratchSpace
	log        zerolog.Logger
	print      *PrintConfig
	navTimeout time.Duration
	userAgent  string
	clock      func() time.Time
}

func defaultFetcherConfig() fetcherConfig {
	return fetcherConfig{
		scratch:    tempScratch{},
		log:        zerolog.Nop(),
		navTimeout: 30 * time.Second,
		userAgent:  DefaultUserAgent,
		clock:      time.Now,
	}
}

// Option configures a [Fetcher].
type Option func(*fetcherConfig)

// WithHTTPClient sets the client used for candidate downloads, page images
// and the conversion API.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *fetcherConfig) {
		cfg.client = c
	}
}

// WithProfiles replaces the built-in site profiles.
func WithProfiles(p Profiles) Option {
	return func(cfg *fetcherConfig) {
		cfg.profiles = p
	}
}

// WithScratch sets where fetched files are staged.
func WithScratch(s ScratchSpace) Option {
	return func(cfg *fetcherConfig) {
		cfg.scratch = s
	}
}

// WithLogger sets the logger for technique attempts and outcomes.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *fetcherConfig) {
		cfg.log = l
	}
}

// WithPrintConfig sets the paper settings for the print fallback.
func WithPrintConfig(p PrintConfig) Option {
	return func(cfg *fetcherConfig) {
		cfg.print = &p
	}
}

// WithNavigationTimeout bounds the initial page load including the wait
// for network idle. Defaults to 30 seconds.
func WithNavigationTimeout(d time.Duration) Option {
	return func(cfg *fetcherConfig) {
		cfg.navTimeout = d
	}
}

// WithClock overrides the time source used for suggested filenames.
func WithClock(now func() time.Time) Option {
	return func(cfg *fetcherConfig) {
		cfg.clock = now
	}
}

// chromeConfig holds internal configuration for a ChromeEngine.
type chromeConfig struct {
	chromePath   string
	timeout      time.Duration
	idleTimeout  time.Duration
	noSandbox    bool
	headless     string
	autoDownload bool
	userAgent    string
	width        int
	height       int
}

func defaultChromeConfig() chromeConfig {
	return chromeConfig{
		timeout:     60 * time.Second,
		idleTimeout: 15 * time.Second,
		headless:    "new",
		userAgent:   DefaultUserAgent,
		width:       1200,
		height:      800,
	}
}

// ChromeOption configures a [ChromeEngine].
type ChromeOption func(*chromeConfig)

// WithChromePath sets the path to the Chrome or Chromium executable.
// By default the library searches standard locations automatically.
func WithChromePath(path string) ChromeOption {
	return func(c *chromeConfig) {
		c.chromePath = path
	}
}

// WithTimeout sets the maximum duration of a single browser action.
// Defaults to 60 seconds. A zero or negative value disables the timeout.
func WithTimeout(d time.Duration) ChromeOption {
	return func(c *chromeConfig) {
		c.timeout = d
	}
}

// WithIdleTimeout bounds the wait for network idle after a navigation.
// Reaching it is not an error.
func WithIdleTimeout(d time.Duration) ChromeOption {
	return func(c *chromeConfig) {
		c.idleTimeout = d
	}
}

// WithNoSandbox disables the Chrome sandbox. This is required when
// running as root, for example inside Docker containers.
func WithNoSandbox() ChromeOption {
	return func(c *chromeConfig) {
		c.noSandbox = true
	}
}

// WithAutoDownload fetches a compatible Chromium build when no Chrome path
// is set and caches it for later runs.
func WithAutoDownload() ChromeOption {
	return func(c *chromeConfig) {
		c.autoDownload = true
	}
}

// WithUserAgent overrides [DefaultUserAgent] in the browser.
func WithUserAgent(ua string) ChromeOption {
	return func(c *chromeConfig) {
		c.userAgent = ua
	}
}
