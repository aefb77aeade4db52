package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	docfetch "github.com/porticus-lab/go-docfetch"
	"github.com/rs/zerolog/hlog"
)

type downloadRequest struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

type downloadHandler struct {
	fetcher Fetcher
	timeout time.Duration
	slots   chan struct{}
}

func (h *downloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	var body downloadRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body); err != nil {
		writeError(w, r, goerr.Wrap(docfetch.ErrInvalidInput, "request body must be JSON"))
		return
	}
	if body.URL == "" {
		writeError(w, r, goerr.Wrap(docfetch.ErrInvalidInput, "url is required"))
		return
	}
	mode, err := docfetch.ParseMode(body.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}

	select {
	case h.slots <- struct{}{}:
		defer func() { <-h.slots }()
	case <-r.Context().Done():
		log.Debug().Msg("client left while waiting for a fetch slot")
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := h.fetcher.Fetch(ctx, docfetch.Request{URL: body.URL, Mode: mode})
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() {
		if err := res.Close(); err != nil {
			log.Warn().Err(err).Msg("releasing fetch result")
		}
	}()

	f, err := res.Open()
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
	w.Header().Set("X-Docfetch-Technique", res.Technique)
	w.Header().Set("X-Docfetch-Site", res.Site.String())
	w.Header().Set("Content-Length", strconv.FormatInt(res.Size, 10))
	http.ServeContent(w, r, res.Filename, time.Time{}, f)
}

func statusFor(err error) int {
	if errors.Is(err, docfetch.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError writes an error response
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := hlog.FromRequest(r)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("download failed")
	} else {
		log.Debug().Err(err).Msg("rejected download request")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
	}); err != nil {
		log.Error().Err(err).Msg("encoding error response")
	}
}
