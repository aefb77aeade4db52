// Package scratch manages per-fetch working directories.
//
// Every fetch leases one uuid-named directory under a root. Releasing a
// lease removes the directory. A janitor periodically deletes directories
// that are older than a TTL and no longer leased, which only happens when
// a process died before releasing them.
package scratch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Manager leases scratch directories. It is safe for concurrent use.
type Manager struct {
	root     string
	ttl      time.Duration
	schedule string
	log      zerolog.Logger
	now      func() time.Time

	mu     sync.Mutex
	leases map[string]struct{}
	cron   *cron.Cron
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the age after which an unleased directory is swept.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		m.ttl = d
	}
}

// WithSchedule sets the janitor's cron spec. Defaults to "@every 1m".
func WithSchedule(spec string) Option {
	return func(m *Manager) {
		m.schedule = spec
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithClock overrides the time source used to age directories.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// New creates a Manager rooted at root. An empty root uses a docfetch
// directory under the system temp dir.
func New(root string, opts ...Option) (*Manager, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "docfetch")
	}
	m := &Manager{
		root:     root,
		ttl:      10 * time.Minute,
		schedule: "@every 1m",
		log:      zerolog.Nop(),
		now:      time.Now,
		leases:   map[string]struct{}{},
	}
	for _, o := range opts {
		o(m)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, goerr.Wrap(err, "creating scratch root", goerr.V("root", root))
	}
	return m, nil
}

// Root returns the directory holding all scratch directories.
func (m *Manager) Root() string { return m.root }

// Acquire creates and leases a new directory.
func (m *Manager) Acquire() (string, error) {
	dir := filepath.Join(m.root, uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", goerr.Wrap(err, "creating scratch directory", goerr.V("dir", dir))
	}

	m.mu.Lock()
	m.leases[dir] = struct{}{}
	m.mu.Unlock()
	return dir, nil
}

// Release ends the lease on dir and removes it.
func (m *Manager) Release(dir string) error {
	if !m.owns(dir) {
		return goerr.New("directory is not under scratch root", goerr.V("dir", dir), goerr.V("root", m.root))
	}
	m.mu.Lock()
	delete(m.leases, dir)
	m.mu.Unlock()

	if err := os.RemoveAll(dir); err != nil {
		return goerr.Wrap(err, "removing scratch directory", goerr.V("dir", dir))
	}
	return nil
}

// Leased reports whether dir is currently leased.
func (m *Manager) Leased(dir string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.leases[dir]
	return ok
}

func (m *Manager) owns(dir string) bool {
	rel, err := filepath.Rel(m.root, dir)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..") && !strings.ContainsRune(rel, filepath.Separator)
}

// Sweep removes unleased directories older than the TTL and returns how
// many were removed.
func (m *Manager) Sweep() (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return 0, goerr.Wrap(err, "listing scratch root", goerr.V("root", m.root))
	}

	cutoff := m.now().Add(-m.ttl)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(m.root, e.Name())
		if m.Leased(dir) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			m.log.Warn().Err(err).Str("dir", dir).Msg("sweeping stale scratch directory")
			continue
		}
		removed++
	}
	return removed, nil
}

// Start runs the janitor on its schedule until Stop is called.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(m.schedule, func() {
		n, err := m.Sweep()
		if err != nil {
			m.log.Warn().Err(err).Msg("scratch janitor")
			return
		}
		if n > 0 {
			m.log.Info().Int("removed", n).Msg("swept stale scratch directories")
		}
	}); err != nil {
		return goerr.Wrap(err, "scheduling scratch janitor", goerr.V("schedule", m.schedule))
	}
	c.Start()
	m.cron = c
	return nil
}

// Stop halts the janitor and waits for a running sweep to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
