package store

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/daedaleanai/pgantt/internal/domain"
)

// Current is the snapshot the renderer shows, together with the project it
// belongs to and a version that increases on every replacement.
type Current struct {
	ProjectID string
	Snapshot  domain.Snapshot
	Version   uint64
	AppliedAt time.Time

	// Pending is set between a project switch and the first Replace for it.
	Pending bool
}

// Store holds the single current planning snapshot. Writers swap in a whole
// new value, so readers observe either the previous or the next snapshot and
// never a partially updated one.
type Store struct {
	cur      atomic.Pointer[Current]
	selected atomic.Pointer[string]

	// mu serializes writers so Version stays monotonic.
	mu  sync.Mutex
	now func() time.Time
}

// New creates an empty Store.
func New() *Store {
	s := &Store{now: time.Now}
	s.cur.Store(&Current{})
	empty := ""
	s.selected.Store(&empty)
	return s
}

// Current returns the stored snapshot. The returned value must be treated
// as read-only.
func (s *Store) Current() Current {
	return *s.cur.Load()
}

// Selected returns the project the user is looking at.
func (s *Store) Selected() string {
	return *s.selected.Load()
}

// Select switches the selected project. When the project changes, the
// stored snapshot is cleared and marked pending so the next fetch is applied
// even if it is empty. It reports whether the selection changed.
func (s *Store) Select(projectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Selected() == projectID {
		return false
	}
	id := projectID
	s.selected.Store(&id)
	prev := s.cur.Load()
	s.cur.Store(&Current{
		ProjectID: projectID,
		Version:   prev.Version + 1,
		AppliedAt: s.now(),
		Pending:   true,
	})
	return true
}

// Replace stores snapshot as the current value for projectID and returns the
// new version. It clears Pending.
func (s *Store) Replace(projectID string, snapshot domain.Snapshot) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cur.Load()
	next := &Current{
		ProjectID: projectID,
		Snapshot:  snapshot,
		Version:   prev.Version + 1,
		AppliedAt: s.now(),
	}
	s.cur.Store(next)
	return next.Version
}
