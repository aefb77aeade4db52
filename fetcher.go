package docfetch

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/porticus-lab/go-docfetch/internal/httpx"
)

// Fetcher downloads documents by running each site's technique chain in a
// fresh browser session.
//
// A Fetcher holds no per-fetch state and is safe for concurrent use.
type Fetcher struct {
	engine Engine
	cfg    fetcherConfig
}

// NewFetcher creates a Fetcher that launches browsers through engine.
func NewFetcher(engine Engine, opts ...Option) *Fetcher {
	cfg := defaultFetcherConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.profiles == nil {
		cfg.profiles = DefaultProfiles()
	}
	if cfg.client == nil {
		l := cfg.log
		cfg.client = httpx.NewClient(httpx.Options{
			Timeout:   60 * time.Second,
			UserAgent: cfg.userAgent,
			Logger:    &l,
		})
	}
	return &Fetcher{engine: engine, cfg: cfg}
}

func (f *Fetcher) profile(site SiteHint) *Profile {
	if p, ok := f.cfg.profiles[site]; ok && p != nil {
		return p
	}
	if p, ok := f.cfg.profiles[Generic]; ok && p != nil {
		return p
	}
	return DefaultProfiles()[site]
}

// Fetch downloads the document at req.URL.
//
// The returned Result owns a scratch directory; the caller must Close it.
// An invalid URL fails with [ErrInvalidInput] before any browser starts.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*Result, error) {
	source, err := validateURL(req.URL)
	if err != nil {
		return nil, err
	}
	site := Classify(source.String())
	profile := f.profile(site)
	log := f.cfg.log.With().
		Str("url", source.String()).
		Str("site", site.String()).
		Str("mode", req.Mode.String()).
		Logger()

	dir, err := f.cfg.scratch.Acquire()
	if err != nil {
		return nil, goerr.Wrap(err, "acquiring scratch directory")
	}
	keep := false
	defer func() {
		if !keep {
			if err := f.cfg.scratch.Release(dir); err != nil {
				log.Warn().Err(err).Str("dir", dir).Msg("releasing scratch directory")
			}
		}
	}()

	sess, err := f.engine.Launch(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "launching browser", goerr.V("url", source.String()))
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Debug().Err(err).Msg("closing browser session")
		}
	}()

	if err := f.navigate(ctx, sess, source.String()); err != nil {
		return nil, err
	}
	if err := sleepCtx(ctx, profile.Settle); err != nil {
		return nil, goerr.Wrap(err, "waiting for page to settle")
	}

	a := &attempt{
		req:       req,
		source:    source,
		site:      site,
		profile:   profile,
		session:   sess,
		client:    f.cfg.client,
		userAgent: f.cfg.userAgent,
		print:     f.cfg.print,
		dir:       dir,
		docID:     profile.documentID(source.String()),
		log:       log,
		clock:     f.cfg.clock,
	}

	start := time.Now()
	art, technique, err := runChain(ctx, a, profile.chain(req.Mode))
	if err != nil {
		log.Info().Err(err).Dur("elapsed", time.Since(start)).Msg("fetch failed")
		return nil, err
	}

	log.Info().
		Str("technique", technique).
		Str("filename", art.filename).
		Int64("size", art.size).
		Dur("elapsed", time.Since(start)).
		Msg("fetched document")

	keep = true
	return &Result{
		Path:       art.path,
		Filename:   art.filename,
		Site:       site,
		Technique:  technique,
		DocumentID: a.docID,
		Size:       art.size,
		dir:        dir,
		release:    f.cfg.scratch.Release,
	}, nil
}

func (f *Fetcher) navigate(ctx context.Context, sess Session, rawURL string) error {
	navCtx := ctx
	if f.cfg.navTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, f.cfg.navTimeout)
		defer cancel()
	}
	if err := sess.Navigate(navCtx, rawURL); err != nil {
		return classify(ErrNavigation, err, "loading page", goerr.V("url", rawURL))
	}
	return nil
}
