package conn

import "sync"

// sharedSlot holds the process-wide Manager. Independent initialisation
// paths (tests, dev servers that reload their wiring) funnel through the
// same slot, so a process opens at most one shared connection no matter how
// many times setup runs.
type sharedSlot struct {
	mu sync.Mutex
	m  *Manager
}

var shared sharedSlot

// Shared returns the process-wide Manager, creating it with cfg on first
// call. Later calls return the existing Manager, their cfg is ignored.
//
// Prefer an explicitly owned Manager wired through your application's
// startup. Shared exists for environments where setup code genuinely runs
// more than once per process.
func Shared(cfg Config) *Manager {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.m == nil {
		shared.m = NewManager(cfg)
	}
	return shared.m
}
