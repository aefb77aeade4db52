// Package httpx builds the HTTP client used for candidate downloads, page
// images and the conversion API.
package httpx

import (
	"net/http"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/rs/zerolog"
)

// Options configures [NewClient].
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// CloudflareBypass wraps the transport so Cloudflare-fronted mirrors
	// accept the requests.
	CloudflareBypass bool
	// Transport replaces the default transport, mainly for tests.
	Transport http.RoundTripper
	Logger    *zerolog.Logger
}

// NewClient returns a client with a cookie jar and a fixed user agent.
func NewClient(opts Options) *http.Client {
	jar, _ := cookiejar.New(nil)

	base := opts.Transport
	if base == nil {
		base = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		}
	}
	if opts.CloudflareBypass {
		base = cloudflarebp.AddCloudFlareByPass(base)
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	log.Debug().
		Dur("timeout", opts.Timeout).
		Str("user_agent", opts.UserAgent).
		Bool("cloudflare_bypass", opts.CloudflareBypass).
		Msg("http client initialized")

	return &http.Client{
		Timeout: opts.Timeout,
		Jar:     jar,
		Transport: roundTripper{
			base: base,
			ua:   opts.UserAgent,
			log:  log,
		},
	}
}

type roundTripper struct {
	base http.RoundTripper
	ua   string
	log  zerolog.Logger
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if rt.ua != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", rt.ua)
	}

	start := time.Now()
	resp, err := rt.base.RoundTrip(req)
	ev := rt.log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Dur("elapsed", time.Since(start))
	if err != nil {
		ev.Err(err).Msg("http request failed")
		return nil, err
	}
	ev.Int("status", resp.StatusCode).Msg("http request")
	return resp, nil
}
