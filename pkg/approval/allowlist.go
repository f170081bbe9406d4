package approval

import (
	"sync"

	"github.com/rs/zerolog/log"
)

type allowlistKey struct {
	action string
	path   string
}

// Allowlist records (action, resolved path) pairs the user approved with
// proceed-always. It lives for the session only: no persistence across runs
// and no expiry. Mutation happens from confirmation callbacks on the single
// cooperative execution thread; the lock guards concurrent batch reads.
type Allowlist struct {
	entries map[allowlistKey]struct{}
	mu      sync.RWMutex
}

// NewAllowlist creates an empty allowlist.
func NewAllowlist() *Allowlist {
	return &Allowlist{
		entries: make(map[allowlistKey]struct{}),
	}
}

// Add records that action on path no longer needs confirmation.
func (a *Allowlist) Add(action, path string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries[allowlistKey{action: action, path: path}] = struct{}{}

	log.Info().Str("action", action).Str("path", path).Msg("Added to session allowlist")
}

// IsAllowed reports whether the exact (action, path) pair was approved.
func (a *Allowlist) IsAllowed(action, path string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	_, ok := a.entries[allowlistKey{action: action, path: path}]
	return ok
}

// Count returns the number of recorded entries.
func (a *Allowlist) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.entries)
}

// Clear removes all entries.
func (a *Allowlist) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = make(map[allowlistKey]struct{})

	log.Debug().Msg("Session allowlist cleared")
}

// Session scopes approval state to one agent session. Passing it by reference
// into the gate keeps approvals from leaking between independent sessions or
// test runs.
type Session struct {
	Mode      Mode
	Allowlist *Allowlist
}

// NewSession creates a session with the given approval mode and an empty
// allowlist.
func NewSession(mode Mode) *Session {
	return &Session{
		Mode:      mode,
		Allowlist: NewAllowlist(),
	}
}
