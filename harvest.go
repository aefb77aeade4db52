package docfetch

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/m-mizutani/goerr/v2"
)

var linkAttrs = []string{"href", "src", "data"}

// harvestCandidates collects absolute download URLs from html in selector
// order. A link qualifies when its lowercase value contains any match
// token; an empty token list accepts every link.
func harvestCandidates(html string, base *url.URL, cfg HarvestConfig) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []string
	seen := map[string]bool{}
	for _, sel := range cfg.Selectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			for _, attr := range linkAttrs {
				v, ok := s.Attr(attr)
				if !ok || strings.TrimSpace(v) == "" {
					continue
				}
				if !containsAny(strings.ToLower(v), cfg.Match) {
					continue
				}
				abs, ok := resolveLink(base, v)
				if !ok || seen[abs] {
					continue
				}
				seen[abs] = true
				out = append(out, abs)
			}
		})
	}
	return out
}

// resolveLink resolves ref against base and keeps only http(s) results.
func resolveLink(base *url.URL, ref string) (string, bool) {
	u, err := base.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

func containsAny(s string, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	for _, t := range tokens {
		if strings.Contains(s, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func harvestPage(ctx context.Context, a *attempt) (*artifact, error) {
	return a.harvest(ctx, a.profile.Harvest)
}

// harvest runs cfg against the session's current DOM.
func (a *attempt) harvest(ctx context.Context, cfg HarvestConfig) (*artifact, error) {
	html, err := a.session.HTML(ctx)
	if err != nil {
		return nil, classify(ErrTechniqueFailed, err, "reading page HTML")
	}
	candidates := harvestCandidates(html, a.pageURL(ctx), cfg)
	a.log.Debug().Int("candidates", len(candidates)).Msg("harvested links")
	if len(candidates) == 0 {
		return nil, goerr.Wrap(ErrTechniqueFailed, "no links matched", goerr.V("selectors", cfg.Selectors))
	}
	return a.tryCandidates(ctx, candidates, cfg.RequirePDF)
}
