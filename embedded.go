package docfetch

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/m-mizutani/goerr/v2"
)

// flatObject matches JSON objects without nested braces.
var flatObject = regexp.MustCompile(`\{[^{}]*\}`)

// embeddedCandidates scans inline scripts that mention every marker for
// flat JSON objects carrying a string under key.
func embeddedCandidates(html string, base *url.URL, cfg EmbeddedConfig) []string {
	if cfg.Key == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	quoted := `"` + cfg.Key + `"`
	var out []string
	seen := map[string]bool{}
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if !containsAll(strings.ToLower(text), cfg.Markers) {
			return
		}
		for _, obj := range flatObject.FindAllString(text, -1) {
			if !strings.Contains(obj, quoted) {
				continue
			}
			var fields map[string]any
			if err := json.Unmarshal([]byte(obj), &fields); err != nil {
				continue
			}
			v, ok := fields[cfg.Key].(string)
			if !ok || v == "" {
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
	return out
}

func containsAll(s string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(s, strings.ToLower(t)) {
			return false
		}
	}
	return true
}

func embeddedData(ctx context.Context, a *attempt) (*artifact, error) {
	html, err := a.session.HTML(ctx)
	if err != nil {
		return nil, classify(ErrTechniqueFailed, err, "reading page HTML")
	}
	candidates := embeddedCandidates(html, a.pageURL(ctx), a.profile.Embedded)
	if len(candidates) == 0 {
		return nil, goerr.Wrap(ErrTechniqueFailed, "no embedded download data")
	}
	return a.tryCandidates(ctx, candidates, false)
}
