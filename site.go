package docfetch

import (
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// SiteHint identifies which site profile handles a URL.
type SiteHint int

const (
	// Generic is any page that is neither SlideShare nor Scribd.
	Generic SiteHint = iota
	// SlideShare covers slideshare.net presentations.
	SlideShare
	// Scribd covers scribd.com documents and presentations.
	Scribd
)

// String returns the lowercase site name, which is also its profile key.
func (s SiteHint) String() string {
	switch s {
	case SlideShare:
		return "slideshare"
	case Scribd:
		return "scribd"
	default:
		return "generic"
	}
}

// ParseSiteHint is the inverse of [SiteHint.String].
func ParseSiteHint(name string) (SiteHint, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "slideshare":
		return SlideShare, true
	case "scribd":
		return Scribd, true
	case "generic":
		return Generic, true
	}
	return Generic, false
}

// Classify picks the site for rawURL by a case-insensitive substring test.
// SlideShare is checked before Scribd.
func Classify(rawURL string) SiteHint {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, "slideshare"):
		return SlideShare
	case strings.Contains(lower, "scribd"):
		return Scribd
	default:
		return Generic
	}
}

// Mode selects the technique chain for a request.
type Mode int

const (
	// ModeDefault runs the site's configured chain.
	ModeDefault Mode = iota
	// ModeImage reconstructs the document from page images, falling back
	// to printing the page.
	ModeImage
)

// ParseMode maps the wire value of the "type" field to a Mode. An empty
// string is ModeDefault.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return ModeDefault, nil
	case "image":
		return ModeImage, nil
	}
	return ModeDefault, goerr.Wrap(ErrInvalidInput, "unknown download type", goerr.V("type", s))
}

// String returns the wire value of m.
func (m Mode) String() string {
	if m == ModeImage {
		return "image"
	}
	return "default"
}

// Request describes one fetch.
type Request struct {
	URL  string
	Mode Mode
}

// Site returns the site hint derived from the request URL.
func (r Request) Site() SiteHint {
	return Classify(r.URL)
}

// validateURL requires an absolute http(s) URL with a host.
func validateURL(rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "url is required")
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, classify(ErrInvalidInput, err, "malformed url", goerr.V("url", rawURL))
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "url must have scheme and host", goerr.V("url", rawURL))
	}
	if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
		return nil, goerr.Wrap(ErrInvalidInput, "unsupported url scheme", goerr.V("url", rawURL))
	}
	return u, nil
}
