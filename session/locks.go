package session

import "sync"

// sessionLocks hands out one mutex per session id so vote processing for a
// session is serialized while unrelated sessions stay parallel. Entries are
// reference counted and reclaimed when the last holder releases.
type sessionLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{entries: make(map[string]*lockEntry)}
}

// acquire blocks until the session's lock is held and returns the release
// function. Callers must release on every path.
func (l *sessionLocks) acquire(sessionID string) func() {
	l.mu.Lock()
	entry, ok := l.entries[sessionID]
	if !ok {
		entry = &lockEntry{}
		l.entries[sessionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()

			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.entries, sessionID)
			}
			l.mu.Unlock()
		})
	}
}
