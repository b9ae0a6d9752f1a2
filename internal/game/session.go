package game

import (
	"slices"
	"sync"
	"time"

	"guessart/internal/types"
)

// Session holds one player's current artwork title. A start request takes a
// generation with Begin and may only store its result with Commit while that
// generation is still the newest, so overlapping loads resolve to the last
// one started rather than the last one to finish.
type Session struct {
	mu             sync.Mutex
	title          []string
	generation     uint64
	lastAccessTime time.Time
}

func NewSession() *Session {
	return &Session{lastAccessTime: time.Now()}
}

// Begin starts a new load and returns its generation.
func (s *Session) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.lastAccessTime = time.Now()
	return s.generation
}

// Commit stores tokens if gen is still current. It reports whether the tokens
// were stored.
func (s *Session) Commit(gen uint64, tokens []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.title = slices.Clone(tokens)
	s.lastAccessTime = time.Now()
	return true
}

// Title returns a copy of the current title tokens.
func (s *Session) Title() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.title)
}

func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.title) > 0
}

// Touch marks the session as used now.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastAccessTime = time.Now()
	s.mu.Unlock()
}

func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessTime
}

func (s *Session) Snapshot() types.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.SessionSnapshot{
		Title:          slices.Clone(s.title),
		Generation:     s.generation,
		LastAccessTime: s.lastAccessTime,
	}
}

// Restore rebuilds a session from a snapshot.
func Restore(snap types.SessionSnapshot) *Session {
	return &Session{
		title:          slices.Clone(snap.Title),
		generation:     snap.Generation,
		lastAccessTime: time.Now(),
	}
}
