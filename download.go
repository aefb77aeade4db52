package docfetch

import (
	"context"
	"io"
	"mime"
	"net/http"
	"os"

	"github.com/m-mizutani/goerr/v2"
)

// download fetches rawURL into the scratch directory. With requirePDF the
// response must declare application/pdf.
func (a *attempt) download(ctx context.Context, rawURL string, requirePDF bool) (*artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, classify(ErrTechniqueFailed, err, "building request", goerr.V("url", rawURL))
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Referer", a.source.String())

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, classify(ErrTechniqueFailed, err, "requesting candidate", goerr.V("url", rawURL))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.Wrap(ErrTechniqueFailed, "unexpected status",
			goerr.V("url", rawURL), goerr.V("status", resp.StatusCode))
	}
	if requirePDF {
		mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
		if mt != "application/pdf" {
			return nil, goerr.Wrap(ErrTechniqueFailed, "candidate is not a PDF",
				goerr.V("url", rawURL), goerr.V("content_type", resp.Header.Get("Content-Type")))
		}
	}

	f, err := os.CreateTemp(a.dir, "download-*.pdf")
	if err != nil {
		return nil, goerr.Wrap(err, "creating scratch file")
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return nil, classify(ErrTechniqueFailed, err, "reading candidate body", goerr.V("url", rawURL))
	}
	if n == 0 {
		os.Remove(f.Name())
		return nil, goerr.Wrap(ErrTechniqueFailed, "candidate body is empty", goerr.V("url", rawURL))
	}

	name := dispositionFilename(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = suggestedName(a.profile.Naming.Prefix, a.docID, a.now())
	}
	a.log.Debug().Str("candidate", rawURL).Int64("size", n).Msg("downloaded candidate")
	return &artifact{path: f.Name(), filename: name, size: n}, nil
}

// tryCandidates downloads each URL in turn and returns the first success.
func (a *attempt) tryCandidates(ctx context.Context, urls []string, requirePDF bool) (*artifact, error) {
	if len(urls) == 0 {
		return nil, goerr.Wrap(ErrTechniqueFailed, "no candidate links found")
	}
	var last error
	for _, u := range urls {
		art, err := a.download(ctx, u, requirePDF)
		if err == nil {
			return art, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		a.log.Debug().Err(err).Str("candidate", u).Msg("candidate rejected")
		last = err
	}
	return nil, last
}
