package docfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/m-mizutani/goerr/v2"
)

type apiResponse struct {
	DownloadURL string `json:"download_url"`
}

// convertViaAPI asks the external conversion service for a download URL
// and fetches it.
func convertViaAPI(ctx context.Context, a *attempt) (*artifact, error) {
	if a.docID == "" {
		return nil, goerr.Wrap(ErrTechniqueFailed, "conversion API needs a document id")
	}
	cfg := a.profile.API
	if cfg.Endpoint == "" {
		return nil, goerr.Wrap(ErrTechniqueFailed, "no conversion API configured")
	}
	field := cfg.URLField
	if field == "" {
		field = "url"
	}

	body, err := json.Marshal(map[string]string{
		field:    a.source.String(),
		"format": cfg.Format,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "encoding API request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, classify(ErrUpstream, err, "building API request", goerr.V("endpoint", cfg.Endpoint))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, classify(ErrUpstream, err, "calling conversion API", goerr.V("endpoint", cfg.Endpoint))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.Wrap(ErrUpstream, "conversion API refused",
			goerr.V("endpoint", cfg.Endpoint), goerr.V("status", resp.StatusCode))
	}
	var out apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, classify(ErrUpstream, err, "decoding API response", goerr.V("endpoint", cfg.Endpoint))
	}
	if out.DownloadURL == "" {
		return nil, goerr.Wrap(ErrUpstream, "API response has no download_url", goerr.V("endpoint", cfg.Endpoint))
	}

	base, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, classify(ErrUpstream, err, "parsing API endpoint")
	}
	link, ok := resolveLink(base, out.DownloadURL)
	if !ok {
		return nil, goerr.Wrap(ErrUpstream, "API returned an unusable URL", goerr.V("download_url", out.DownloadURL))
	}
	return a.tryCandidates(ctx, []string{link}, false)
}
