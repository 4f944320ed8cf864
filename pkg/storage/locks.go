package storage

import "sync"

// ProjectLocks serializes mutating operations per project: saves, generation
// batches, and hub syncs must never interleave writes for one project.
// The locks are in-process only; sharing a store across processes is
// unsupported.
type ProjectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewProjectLocks creates an empty lock registry.
func NewProjectLocks() *ProjectLocks {
	return &ProjectLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the advisory lock for a project id, blocking until it is
// free, and returns the unlock function.
func (l *ProjectLocks) Lock(projectID string) func() {
	l.mu.Lock()
	m, ok := l.locks[projectID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[projectID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
