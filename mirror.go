package docfetch

import (
	"context"
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// rewriteHost swaps the host of u for host when u belongs to domain.
func rewriteHost(u *url.URL, domain, host string) (string, bool) {
	h := strings.ToLower(u.Hostname())
	domain = strings.ToLower(domain)
	if domain == "" || (h != domain && !strings.HasSuffix(h, "."+domain)) {
		return "", false
	}
	c := *u
	c.Host = host
	return c.String(), true
}

// mirrorHosts opens the document on each mirror and harvests its download
// links. The session is returned to the source page when every mirror
// fails so later techniques see the original document.
func mirrorHosts(ctx context.Context, a *attempt) (*artifact, error) {
	if a.docID == "" {
		return nil, goerr.Wrap(ErrTechniqueFailed, "mirrors need a document id")
	}
	cfg := a.profile.Mirror

	navigated := false
	var last error
	for _, host := range cfg.Hosts {
		target, ok := rewriteHost(a.source, cfg.Domain, host)
		if !ok {
			continue
		}
		navigated = true
		log := a.log.With().Str("mirror", host).Logger()

		if err := a.session.Navigate(ctx, target); err != nil {
			log.Debug().Err(err).Msg("mirror unreachable")
			last = classify(ErrUpstream, err, "opening mirror", goerr.V("mirror", host))
			continue
		}
		if err := sleepCtx(ctx, cfg.Settle); err != nil {
			return nil, goerr.Wrap(err, "waiting for mirror")
		}
		art, err := a.harvest(ctx, cfg.Harvest)
		if err == nil {
			return art, nil
		}
		log.Debug().Err(err).Msg("mirror had no download")
		last = classify(ErrUpstream, err, "mirror had no download", goerr.V("mirror", host))
	}

	if navigated {
		if err := a.session.Navigate(ctx, a.source.String()); err != nil {
			a.log.Warn().Err(err).Msg("returning to source page")
		}
	}
	if last == nil {
		return nil, goerr.Wrap(ErrTechniqueFailed, "no mirror applies", goerr.V("domain", cfg.Domain))
	}
	return nil, last
}
