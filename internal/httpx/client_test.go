package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/porticus-lab/go-docfetch/internal/httpx"
)

func TestNewClientSetsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c := httpx.NewClient(httpx.Options{Timeout: 5 * time.Second, UserAgent: "docfetch-test"})
	resp, err := c.Get(srv.URL)
	gt.NoError(t, err)
	resp.Body.Close()
	gt.Equal(t, got, "docfetch-test")
}

func TestNewClientKeepsExplicitUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c := httpx.NewClient(httpx.Options{UserAgent: "default"})
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	gt.NoError(t, err)
	req.Header.Set("User-Agent", "explicit")
	resp, err := c.Do(req)
	gt.NoError(t, err)
	resp.Body.Close()
	gt.Equal(t, got, "explicit")
}

func TestNewClientKeepsCookies(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			return
		}
		c, err := r.Cookie("session")
		if err != nil || c.Value != "abc" {
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	c := httpx.NewClient(httpx.Options{})
	for range 2 {
		resp, err := c.Get(srv.URL)
		gt.NoError(t, err)
		resp.Body.Close()
		gt.Equal(t, resp.StatusCode, http.StatusOK)
	}
}
