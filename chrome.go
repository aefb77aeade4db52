package docfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/m-mizutani/goerr/v2"
)

// ChromeEngine launches one headless Chrome process per session.
type ChromeEngine struct {
	cfg chromeConfig
}

// NewChromeEngine creates a ChromeEngine with the given options. With
// [WithAutoDownload] and no Chrome path, a Chromium build is fetched here
// so the first fetch does not pay for it.
func NewChromeEngine(opts ...ChromeOption) (*ChromeEngine, error) {
	cfg := defaultChromeConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.autoDownload && cfg.chromePath == "" {
		p, err := resolveBrowser()
		if err != nil {
			return nil, err
		}
		cfg.chromePath = p
	}
	return &ChromeEngine{cfg: cfg}, nil
}

// Launch starts a new browser process with a single tab.
func (e *ChromeEngine) Launch(ctx context.Context) (Session, error) {
	cfg := e.cfg
	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("headless", cfg.headless),
		chromedp.UserAgent(cfg.userAgent),
		chromedp.WindowSize(cfg.width, cfg.height),
	)
	if cfg.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.chromePath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tab, tabCancel := chromedp.NewContext(allocCtx)
	s := &chromeSession{
		tab:         tab,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		timeout:     cfg.timeout,
		idleTimeout: cfg.idleTimeout,
	}

	// The first Run allocates the browser and must use the tab context
	// itself, otherwise the browser dies with the derived context.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tab) }()
	select {
	case err := <-started:
		if err != nil {
			s.Close()
			return nil, goerr.Wrap(err, "starting browser")
		}
	case <-ctx.Done():
		s.Close()
		return nil, goerr.Wrap(ctx.Err(), "starting browser")
	}

	chromedp.ListenTarget(tab, func(ev any) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
			s.idle.mark(e.LoaderID)
		}
	})
	if err := s.run(ctx, page.SetLifecycleEventsEnabled(true)); err != nil {
		s.Close()
		return nil, goerr.Wrap(err, "enabling lifecycle events")
	}
	return s, nil
}

type chromeSession struct {
	tab         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
	idleTimeout time.Duration

	idle idleTracker

	closeOnce sync.Once
}

// run executes actions on the tab, bounded by the action timeout and by
// ctx.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if s.timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.tab, s.timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.tab)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// idleTracker records which document loaders reached network idle. A
// late event from a previous document carries its own loader ID and never
// satisfies a wait for the current one.
type idleTracker struct {
	mu      sync.Mutex
	seen    map[cdp.LoaderID]bool
	changed chan struct{}
}

func (t *idleTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen = map[cdp.LoaderID]bool{}
}

func (t *idleTracker) mark(loader cdp.LoaderID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.seen == nil {
		t.seen = map[cdp.LoaderID]bool{}
	}
	t.seen[loader] = true
	if t.changed != nil {
		close(t.changed)
		t.changed = nil
	}
}

// wait blocks until loader reached network idle, timeout passes or ctx is
// done. It reports whether idle was seen.
func (t *idleTracker) wait(ctx context.Context, loader cdp.LoaderID, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		t.mu.Lock()
		if t.seen[loader] {
			t.mu.Unlock()
			return true
		}
		if t.changed == nil {
			t.changed = make(chan struct{})
		}
		ch := t.changed
		t.mu.Unlock()

		select {
		case <-ch:
		case <-timer.C:
			return false
		case <-ctx.Done():
			return false
		}
	}
}

func (s *chromeSession) Navigate(ctx context.Context, rawURL string) error {
	s.idle.reset()
	var loader cdp.LoaderID
	if err := s.run(ctx,
		chromedp.Navigate(rawURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			loader = tree.Frame.LoaderID
			return nil
		}),
	); err != nil {
		return goerr.Wrap(err, "navigating", goerr.V("url", rawURL))
	}

	if s.idleTimeout > 0 {
		s.idle.wait(ctx, loader, s.idleTimeout)
	}
	return nil
}

func (s *chromeSession) URL(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", goerr.Wrap(err, "reading location")
	}
	return loc, nil
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", goerr.Wrap(err, "reading document")
	}
	return html, nil
}

// matchScript returns a JS expression evaluating to the array of elements
// matching t. An invalid selector yields an empty array.
func matchScript(t ClickTarget) string {
	css, _ := json.Marshal(t.CSS)
	text, _ := json.Marshal(strings.ToLower(t.Text))
	return fmt.Sprintf(`(() => {
	let els;
	try { els = Array.from(document.querySelectorAll(%s)); } catch (e) { return []; }
	const want = %s;
	if (!want) return els;
	return els.filter(el => (el.innerText || el.textContent || "").toLowerCase().includes(want));
})()`, css, text)
}

func (s *chromeSession) Count(ctx context.Context, target ClickTarget) (int, error) {
	var n int
	if err := s.run(ctx, chromedp.Evaluate(matchScript(target)+".length", &n)); err != nil {
		return 0, goerr.Wrap(err, "counting elements", goerr.V("target", target.String()))
	}
	return n, nil
}

func (s *chromeSession) Click(ctx context.Context, target ClickTarget, n int) (bool, error) {
	js := fmt.Sprintf(`(() => {
	const el = %s[%d];
	if (!el) return false;
	el.scrollIntoView({block: "center"});
	el.click();
	return true;
})()`, matchScript(target), n)

	var ok bool
	if err := s.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return false, goerr.Wrap(err, "clicking element", goerr.V("target", target.String()), goerr.V("index", n))
	}
	return ok, nil
}

const (
	containerScrollWait  = 2 * time.Second
	containerScrollLimit = 50
	windowScrollWait     = time.Second
	windowScrollSteps    = 10
)

// Scroll scrolls the first container present to its bottom until its
// height stops growing. Without a container the window is paged down.
func (s *chromeSession) Scroll(ctx context.Context, containers []string) error {
	for _, c := range containers {
		sel, _ := json.Marshal(c)
		var found bool
		probe := fmt.Sprintf(`(() => { try { return document.querySelector(%s) !== null; } catch (e) { return false; } })()`, sel)
		if err := s.run(ctx, chromedp.Evaluate(probe, &found)); err != nil {
			return goerr.Wrap(err, "probing scroll container", goerr.V("container", c))
		}
		if !found {
			continue
		}
		step := fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) return -1;
	el.scrollTop = el.scrollHeight;
	return el.scrollHeight;
})()`, sel)
		prev := -1
		for range containerScrollLimit {
			var h int
			if err := s.run(ctx, chromedp.Evaluate(step, &h)); err != nil {
				return goerr.Wrap(err, "scrolling container", goerr.V("container", c))
			}
			if h == prev || h < 0 {
				break
			}
			prev = h
			if err := sleepCtx(ctx, containerScrollWait); err != nil {
				return err
			}
		}
		return nil
	}

	for range windowScrollSteps {
		var done bool
		if err := s.run(ctx, chromedp.Evaluate(`(window.scrollBy(0, window.innerHeight), true)`, &done)); err != nil {
			return goerr.Wrap(err, "scrolling window")
		}
		if err := sleepCtx(ctx, windowScrollWait); err != nil {
			return err
		}
	}
	var done bool
	return s.run(ctx, chromedp.Evaluate(`(window.scrollTo(0, 0), true)`, &done))
}

func (s *chromeSession) Screenshot(ctx context.Context, css string) ([][]byte, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(css, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, goerr.Wrap(err, "finding elements", goerr.V("selector", css))
	}

	shots := make([][]byte, 0, len(nodes))
	for i, n := range nodes {
		var buf []byte
		if err := s.run(ctx, chromedp.Screenshot([]cdp.NodeID{n.NodeID}, &buf, chromedp.ByNodeID)); err != nil {
			return nil, goerr.Wrap(err, "capturing element", goerr.V("selector", css), goerr.V("index", i))
		}
		shots = append(shots, buf)
	}
	return shots, nil
}

func (s *chromeSession) PrintPDF(ctx context.Context, cfg *PrintConfig) ([]byte, error) {
	resolved := cfg.resolved()
	width, height := cfg.paperInches()
	margin := cfg.marginInches()

	var buf []byte
	if err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, _, err = page.PrintToPDF().
			WithPaperWidth(width).
			WithPaperHeight(height).
			WithMarginTop(margin).
			WithMarginRight(margin).
			WithMarginBottom(margin).
			WithMarginLeft(margin).
			WithScale(resolved.Scale).
			WithPrintBackground(!resolved.SkipBackground).
			Do(ctx)
		return err
	})); err != nil {
		return nil, goerr.Wrap(err, "printing to PDF")
	}
	return buf, nil
}

// Close shuts the browser down. Close is idempotent.
func (s *chromeSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = chromedp.Cancel(s.tab)
		s.tabCancel()
		s.allocCancel()
	})
	return err
}
