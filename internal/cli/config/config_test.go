package config_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	docfetch "github.com/porticus-lab/go-docfetch"
	"github.com/porticus-lab/go-docfetch/internal/cli/config"
)

func TestLogger_New(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "debug console", level: "debug", format: "console"},
		{name: "INFO json", level: "INFO", format: "json"},
		{name: "warn default format", level: "warn", format: ""},
		{name: "error", level: "error", format: "json"},
		{name: "invalid level", level: "loud", format: "json", wantErr: true},
		{name: "empty level", level: "", format: "json", wantErr: true},
		{name: "invalid format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Logger{Level: tt.level, Format: tt.format}
			_, err := cfg.New(&bytes.Buffer{})
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Logger{Level: "info", Format: "json"}
	log, err := cfg.New(&buf)
	gt.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Str("site", "scribd").Msg("fetched document")

	var entry map[string]any
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	gt.Equal(t, entry["message"], any("fetched document"))
	gt.Equal(t, entry["site"], any("scribd"))
}

func TestBrowser_Profiles(t *testing.T) {
	t.Run("built-in", func(t *testing.T) {
		var cfg config.Browser
		p, err := cfg.Profiles()
		gt.NoError(t, err)
		gt.V(t, p[docfetch.Scribd]).NotNil()
	})

	t.Run("override file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profiles.yaml")
		gt.NoError(t, os.WriteFile(path, []byte("profiles:\n  generic:\n    techniques: [print]\n"), 0o644))

		cfg := config.Browser{ProfilesPath: path}
		p, err := cfg.Profiles()
		gt.NoError(t, err)
		gt.Equal(t, p[docfetch.Generic].Techniques, []string{"print"})
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := config.Browser{ProfilesPath: filepath.Join(t.TempDir(), "nope.yaml")}
		_, err := cfg.Profiles()
		gt.Error(t, err)
	})

	t.Run("unknown technique", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profiles.yaml")
		gt.NoError(t, os.WriteFile(path, []byte("profiles:\n  generic:\n    techniques: [teleport]\n"), 0o644))

		cfg := config.Browser{ProfilesPath: path}
		_, err := cfg.Profiles()
		gt.Error(t, err)
	})
}

func TestServer_ShutdownGrace(t *testing.T) {
	cfg := config.Server{FetchTimeout: 5 * time.Minute}
	gt.Equal(t, cfg.ShutdownGrace(), 5*time.Minute+30*time.Second)
	gt.True(t, cfg.ShutdownGrace() > cfg.FetchTimeout)

	cfg = config.Server{}
	gt.Equal(t, cfg.ShutdownGrace(), 30*time.Second)
}
