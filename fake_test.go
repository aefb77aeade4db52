package docfetch_test

import (
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	docfetch "github.com/porticus-lab/go-docfetch"
)

var printedPDF = []byte("%PDF-1.4\n% printed page\n%%EOF\n")

// fakeEngine serves static HTML keyed by URL instead of driving Chrome.
type fakeEngine struct {
	pages      map[string]string
	afterClick map[string]string
	navErr     error
	printed    []byte
	printErr   error
	// shots maps a page URL to the screenshots of its page elements.
	shots      map[string][][]byte

	mu       sync.Mutex
	sessions []*fakeSession
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		pages:      map[string]string{},
		afterClick: map[string]string{},
		printed:    printedPDF,
		shots:      map[string][][]byte{},
	}
}

func (e *fakeEngine) Launch(context.Context) (docfetch.Session, error) {
	s := &fakeSession{engine: e}
	e.mu.Lock()
	e.sessions = append(e.sessions, s)
	e.mu.Unlock()
	return s, nil
}

func (e *fakeEngine) launches() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

type fakeSession struct {
	engine *fakeEngine

	mu       sync.Mutex
	url      string
	clicked  bool
	history  []string
	scrolled [][]string
	captured []string
	closed   bool
}

func (s *fakeSession) Navigate(_ context.Context, rawURL string) error {
	if s.engine.navErr != nil {
		return s.engine.navErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = rawURL
	s.clicked = false
	s.history = append(s.history, rawURL)
	return nil
}

func (s *fakeSession) URL(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url, nil
}

func (s *fakeSession) HTML(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.html(), nil
}

func (s *fakeSession) html() string {
	if s.clicked {
		if h, ok := s.engine.afterClick[s.url]; ok {
			return h
		}
	}
	if h, ok := s.engine.pages[s.url]; ok {
		return h
	}
	return "<html><body></body></html>"
}

func (s *fakeSession) matches(target docfetch.ClickTarget) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.html()))
	if err != nil {
		return 0
	}
	n := 0
	doc.Find(target.CSS).Each(func(_ int, sel *goquery.Selection) {
		if target.Text == "" || strings.Contains(strings.ToLower(sel.Text()), strings.ToLower(target.Text)) {
			n++
		}
	})
	return n
}

func (s *fakeSession) Count(_ context.Context, target docfetch.ClickTarget) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches(target), nil
}

func (s *fakeSession) Click(_ context.Context, target docfetch.ClickTarget, n int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n >= s.matches(target) {
		return false, nil
	}
	s.clicked = true
	return true, nil
}

func (s *fakeSession) Scroll(_ context.Context, containers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolled = append(s.scrolled, containers)
	return nil
}

func (s *fakeSession) Screenshot(_ context.Context, css string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captured = append(s.captured, css)
	return s.engine.shots[s.url], nil
}

func (s *fakeSession) PrintPDF(context.Context, *docfetch.PrintConfig) ([]byte, error) {
	return s.engine.printed, s.engine.printErr
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
