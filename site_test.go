package docfetch_test

import (
	"errors"
	"testing"

	docfetch "github.com/porticus-lab/go-docfetch"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want docfetch.SiteHint
	}{
		{"https://www.slideshare.net/slideshow/x/1", docfetch.SlideShare},
		{"https://WWW.SLIDESHARE.NET/user/deck-2", docfetch.SlideShare},
		{"https://www.scribd.com/document/1/x", docfetch.Scribd},
		{"https://es.Scribd.com/doc/2", docfetch.Scribd},
		{"https://example.com/file.pdf", docfetch.Generic},
		// Substring match on the whole URL, SlideShare first.
		{"https://example.com/?ref=slideshare", docfetch.SlideShare},
		{"https://www.scribd.com/search?q=slideshare", docfetch.SlideShare},
	}
	for _, tt := range tests {
		if got := docfetch.Classify(tt.url); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestParseSiteHint(t *testing.T) {
	for _, site := range []docfetch.SiteHint{docfetch.Generic, docfetch.SlideShare, docfetch.Scribd} {
		got, ok := docfetch.ParseSiteHint(site.String())
		if !ok || got != site {
			t.Errorf("ParseSiteHint(%q) = %v, %v", site.String(), got, ok)
		}
	}
	if _, ok := docfetch.ParseSiteHint("dropbox"); ok {
		t.Error("ParseSiteHint accepted an unknown site")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want docfetch.Mode
	}{
		{"", docfetch.ModeDefault},
		{"default", docfetch.ModeDefault},
		{"image", docfetch.ModeImage},
		{" IMAGE ", docfetch.ModeImage},
	}
	for _, tt := range tests {
		got, err := docfetch.ParseMode(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}

	if _, err := docfetch.ParseMode("video"); !errors.Is(err, docfetch.ErrInvalidInput) {
		t.Errorf("ParseMode(video) error = %v, want ErrInvalidInput", err)
	}
}

func TestRequestSite(t *testing.T) {
	req := docfetch.Request{URL: "https://www.scribd.com/document/1/x"}
	if req.Site() != docfetch.Scribd {
		t.Errorf("Site() = %v, want scribd", req.Site())
	}
}
