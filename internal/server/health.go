package server

import (
	"encoding/json"
	"net/http"

	docfetch "github.com/porticus-lab/go-docfetch"
	"github.com/rs/zerolog/hlog"
)

const serviceName = "docfetch"

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// ServiceStatus is the body of GET /status.
type ServiceStatus struct {
	Status   string   `json:"status"`
	Service  string   `json:"service"`
	Version  string   `json:"version"`
	Features []string `json:"features"`
	Sites    []string `json:"sites"`
}

var features = []string{
	"direct download of original SlideShare PDFs",
	"original Scribd documents through mirrors and download buttons",
	"PDF link extraction from generic web pages",
	"document reconstruction from page images",
	"document reconstruction from page screenshots",
	"page printed to PDF as a fallback",
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, &HealthStatus{
		Status:  "healthy",
		Service: serviceName,
		Version: docfetch.Version,
	})
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, &ServiceStatus{
		Status:   "online",
		Service:  serviceName,
		Version:  docfetch.Version,
		Features: features,
		Sites: []string{
			docfetch.SlideShare.String(),
			docfetch.Scribd.String(),
			docfetch.Generic.String(),
		},
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("encoding response")
	}
}
