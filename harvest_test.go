package docfetch

import (
	"net/url"
	"slices"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestHarvestCandidates(t *testing.T) {
	base := mustParse(t, "https://example.com/papers/index.html")
	html := `<html><body>
		<a href="/files/a.pdf">A</a>
		<a href="b.PDF#page=2">B</a>
		<a href="https://cdn.example.net/c.pdf?x=1">C</a>
		<a href="/files/a.pdf">A again</a>
		<a href="/about">About</a>
		<a href="javascript:download('x.pdf')">JS</a>
		<embed src="/embedded/d.pdf">
		<object data="/objects/e.pdf"></object>
	</body></html>`

	cfg := HarvestConfig{
		Selectors: []string{`object[data$=".pdf"]`, `a[href]`, `embed[src$=".pdf"]`},
		Match:     []string{".pdf"},
	}
	got := harvestCandidates(html, base, cfg)
	want := []string{
		"https://example.com/objects/e.pdf",
		"https://example.com/files/a.pdf",
		"https://example.com/papers/b.PDF",
		"https://cdn.example.net/c.pdf?x=1",
		"https://example.com/embedded/d.pdf",
	}
	if !slices.Equal(got, want) {
		t.Errorf("harvestCandidates =\n%v\nwant\n%v", got, want)
	}
}

func TestHarvestCandidates_MatchTokens(t *testing.T) {
	base := mustParse(t, "https://www.slideshare.net/deck")
	html := `<a href="/download/123">Download</a><a href="/share">Share</a>`

	got := harvestCandidates(html, base, HarvestConfig{Selectors: []string{"a"}, Match: []string{".pdf", "download"}})
	if !slices.Equal(got, []string{"https://www.slideshare.net/download/123"}) {
		t.Errorf("got %v", got)
	}

	got = harvestCandidates(html, base, HarvestConfig{Selectors: []string{"a"}})
	if len(got) != 2 {
		t.Errorf("empty match list should accept every link, got %v", got)
	}
}

func TestHarvestCandidates_InvalidSelector(t *testing.T) {
	base := mustParse(t, "https://example.com/")
	got := harvestCandidates(`<a href="x.pdf">x</a>`, base, HarvestConfig{
		Selectors: []string{"a[href*=", "a"},
		Match:     []string{".pdf"},
	})
	if !slices.Equal(got, []string{"https://example.com/x.pdf"}) {
		t.Errorf("got %v", got)
	}
}

func TestEmbeddedCandidates(t *testing.T) {
	base := mustParse(t, "https://www.slideshare.net/slideshow/deck/1")
	html := `<html><head>
		<script>var config = {"download": "/ignored.pdf"};</script>
		<script>
			window.SLIDESHOW = {"id": 1, "meta": {"nested": true}};
			var slideshowDownload = {"download": "https://files.example.com/deck.pdf", "size": 10};
			var other = {"download": ""};
			var broken = {"download": "/x.pdf",};
			var dup = {"download": "https://files.example.com/deck.pdf"};
		</script>
	</head></html>`

	got := embeddedCandidates(html, base, EmbeddedConfig{Markers: []string{"slideshow", "download"}, Key: "download"})
	if !slices.Equal(got, []string{"https://files.example.com/deck.pdf"}) {
		t.Errorf("embeddedCandidates = %v", got)
	}
}

func TestImageCandidates(t *testing.T) {
	base := mustParse(t, "https://www.scribd.com/document/1/x")
	html := `<div>
		<img src="/pages/page-1.jpg"><img src="/pages/page-2.jpg">
		<img src="/pages/page-1.jpg"><img src="/pages/page-3.jpg">
		<img src="/logo.png"><img data-src="/pages/page-4.jpg">
	</div>`

	got := imageCandidates(html, base, ImageConfig{Selectors: []string{`img[src*="page"]`}, Limit: 2})
	want := []string{"https://www.scribd.com/pages/page-1.jpg", "https://www.scribd.com/pages/page-2.jpg"}
	if !slices.Equal(got, want) {
		t.Errorf("imageCandidates = %v, want %v", got, want)
	}

	got = imageCandidates(html, base, ImageConfig{Selectors: []string{`img[src*="page"]`}, Limit: 50})
	if len(got) != 3 {
		t.Errorf("imageCandidates without limit = %v, want 3 unique pages", got)
	}
}

func TestRewriteHost(t *testing.T) {
	tests := []struct {
		src, domain, host string
		want              string
		ok                bool
	}{
		{"https://www.scribd.com/document/1/x", "scribd.com", "scribd.vdownloaders.com", "https://scribd.vdownloaders.com/document/1/x", true},
		{"https://scribd.com/doc/2", "scribd.com", "m.test", "https://m.test/doc/2", true},
		{"https://notscribd.com/doc/2", "scribd.com", "m.test", "", false},
		{"https://example.com/doc/2", "scribd.com", "m.test", "", false},
		{"https://www.scribd.com/doc/2", "", "m.test", "", false},
	}
	for _, tt := range tests {
		got, ok := rewriteHost(mustParse(t, tt.src), tt.domain, tt.host)
		if got != tt.want || ok != tt.ok {
			t.Errorf("rewriteHost(%q, %q, %q) = %q, %v; want %q, %v", tt.src, tt.domain, tt.host, got, ok, tt.want, tt.ok)
		}
	}
}
