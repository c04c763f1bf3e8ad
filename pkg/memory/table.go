package memory

import (
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MaxSessions bounds concurrent in-memory sessions.
const MaxSessions = 500

// SessionTTL evicts a session after this long without activity.
const SessionTTL = 1 * time.Hour

// Table is the process-wide registry of per-session Managers, bounded to
// MaxSessions with LRU eviction on overflow and a TTL-based background
// reaper. Unlike pkg/extraction's Cache (whose eviction rule is an
// insertion-order batch policy the library doesn't model), the spec's
// session table genuinely wants "LRU-evict oldest on overflow", so this
// is built directly on github.com/hashicorp/golang-lru/v2/expirable
// rather than hand-rolled.
type Table struct {
	cache      *expirable.LRU[string, *Manager]
	newSession func() Summarizer
}

// NewTable constructs a session table. newSummarizer is invoked once per
// new session to obtain the Summarizer (typically a closure capturing the
// shared provider chain).
func NewTable(newSummarizer func() Summarizer) *Table {
	t := &Table{newSession: newSummarizer}
	t.cache = expirable.NewLRU[string, *Manager](MaxSessions, func(sessionID string, _ *Manager) {
		slog.Info("memory table: evicted session", "session_id", sessionID)
	}, SessionTTL)
	return t
}

// GetOrCreate returns the Manager for sessionID, creating one if absent.
// Touches the entry's recency for LRU purposes and renews its TTL.
func (t *Table) GetOrCreate(sessionID string) *Manager {
	if mgr, ok := t.cache.Get(sessionID); ok {
		t.cache.Add(sessionID, mgr) // renews the entry's TTL
		return mgr
	}
	mgr := NewManager(t.newSession())
	t.cache.Add(sessionID, mgr)
	return mgr
}

// Remove evicts sessionID immediately (e.g. on TenantPackageStore.NukeTenant).
func (t *Table) Remove(sessionID string) {
	t.cache.Remove(sessionID)
}

// Len reports the current session count.
func (t *Table) Len() int {
	return t.cache.Len()
}
