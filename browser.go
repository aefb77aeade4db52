package docfetch

import (
	"context"
	"fmt"

	"github.com/go-rod/rod/lib/launcher"
)

// Engine launches isolated browser sessions. Every fetch gets its own
// session and nothing is shared between them.
type Engine interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is a single browser tab in its own browser process. It is the
// only surface the fetch logic uses to drive the browser.
type Session interface {
	// Navigate loads rawURL and returns once the network has settled or
	// the navigation timeout elapsed.
	Navigate(ctx context.Context, rawURL string) error

	// URL returns the address of the current document.
	URL(ctx context.Context) (string, error)

	// HTML returns the serialized, rendered DOM of the current document.
	HTML(ctx context.Context) (string, error)

	// Count returns the number of elements matching target.
	Count(ctx context.Context, target ClickTarget) (int, error)

	// Click clicks the nth element (0-indexed) matching target. It reports
	// false when there is no such element.
	Click(ctx context.Context, target ClickTarget, n int) (bool, error)

	// Scroll scrolls the first present container, or the window when none
	// of them exist, until no more content loads.
	Scroll(ctx context.Context, containers []string) error

	// Screenshot captures a PNG of every element matching css, in document
	// order. No match yields an empty slice.
	Screenshot(ctx context.Context, css string) ([][]byte, error)

	// PrintPDF renders the current document to PDF.
	PrintPDF(ctx context.Context, cfg *PrintConfig) ([]byte, error)

	// Close tears down the tab and its browser process.
	Close() error
}

// ClickTarget selects clickable elements by CSS selector, optionally
// narrowed to those whose visible text contains Text (case-insensitive).
type ClickTarget struct {
	CSS  string `yaml:"css"`
	Text string `yaml:"text,omitempty"`
}

func (t ClickTarget) String() string {
	if t.Text == "" {
		return t.CSS
	}
	return fmt.Sprintf("%s[text~=%q]", t.CSS, t.Text)
}

// resolveBrowser downloads a compatible Chromium binary if one is not
// already cached and returns the path to the executable. The binary is
// stored in ~/.cache/rod/browser (Unix) or %APPDATA%\rod\browser (Windows).
func resolveBrowser() (string, error) {
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("docfetch: downloading browser: %w", err)
	}
	return path, nil
}
