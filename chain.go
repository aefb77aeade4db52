package docfetch

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rs/zerolog"
)

// artifact is the file a technique produced inside the scratch directory.
type artifact struct {
	path     string
	filename string
	size     int64
}

// attempt is the per-fetch state shared by the techniques of one chain.
type attempt struct {
	req       Request
	source    *url.URL
	site      SiteHint
	profile   *Profile
	session   Session
	client    *http.Client
	userAgent string
	print     *PrintConfig
	dir       string
	docID     string
	log       zerolog.Logger
	clock     func() time.Time
}

func (a *attempt) now() time.Time {
	if a.clock == nil {
		return time.Now()
	}
	return a.clock()
}

// pageURL returns the address of the current document, or the source URL
// when the session cannot report one.
func (a *attempt) pageURL(ctx context.Context) *url.URL {
	raw, err := a.session.URL(ctx)
	if err != nil || raw == "" {
		return a.source
	}
	u, err := url.Parse(raw)
	if err != nil {
		return a.source
	}
	return u
}

// scroll loads lazy content in the first present container. Failures are
// not fatal to the technique that asked for it.
func (a *attempt) scroll(ctx context.Context, containers []string) {
	if len(containers) == 0 {
		return
	}
	if err := a.session.Scroll(ctx, containers); err != nil {
		a.log.Debug().Err(err).Msg("scrolling page")
	}
}

type technique func(ctx context.Context, a *attempt) (*artifact, error)

var techniques = map[string]technique{
	TechniqueHarvest:  harvestPage,
	TechniqueTrigger:  triggerDownload,
	TechniqueEmbedded: embeddedData,
	TechniqueMirror:   mirrorHosts,
	TechniqueAPI:      convertViaAPI,
	TechniqueImages:   imagesToPDF,
	TechniqueShots:    screenshotsToPDF,
	TechniquePrint:    printPage,
}

// runChain runs the named techniques in order and returns the first
// artifact produced together with the technique that produced it.
func runChain(ctx context.Context, a *attempt, names []string) (*artifact, string, error) {
	var last error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, "", goerr.Wrap(err, "fetch cancelled", goerr.V("technique", name))
		}
		run, ok := techniques[name]
		if !ok {
			last = goerr.Wrap(ErrTechniqueFailed, "unknown technique", goerr.V("technique", name))
			continue
		}

		a.log.Debug().Str("technique", name).Msg("trying technique")
		art, err := run(ctx, a)
		if err == nil {
			return art, name, nil
		}
		last = err

		ev := a.log.Debug()
		if !errors.Is(err, ErrTechniqueFailed) && !errors.Is(err, ErrUpstream) {
			ev = a.log.Warn()
		}
		ev.Err(err).Str("technique", name).Msg("technique failed")
	}
	return nil, "", classify(ErrChainExhausted, last, "every technique failed", goerr.V("url", a.source.String()))
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
