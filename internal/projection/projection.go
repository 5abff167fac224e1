// Package projection implements the in-memory read model and the
// critical-priority subscriber that keeps it up to date.
package projection

import "sync"

// UserView is a single row of the read model.
type UserView struct {
	ID          uint32
	Name        string
	CreatedAtMS int64
}

// UserReadModel is a mutex-guarded map keyed by user id. It is process-
// wide and shared by every request; the mutex is never held across an
// await-shaped operation.
type UserReadModel struct {
	mu    sync.RWMutex
	users map[uint32]UserView
}

// NewUserReadModel constructs an empty read model.
func NewUserReadModel() *UserReadModel {
	return &UserReadModel{users: make(map[uint32]UserView)}
}

// Upsert inserts or overwrites the entry for id.
func (m *UserReadModel) Upsert(view UserView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[view.ID] = view
}

// Rename updates the name of an existing entry, reporting whether one
// was found. A missing entry is tolerated rather than crashing: the
// read model is only eventually consistent with the write side.
func (m *UserReadModel) Rename(id uint32, newName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	view, ok := m.users[id]
	if !ok {
		return false
	}
	view.Name = newName
	m.users[id] = view
	return true
}

// Get returns the entry for id, if present.
func (m *UserReadModel) Get(id uint32) (UserView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	view, ok := m.users[id]
	return view, ok
}

// All returns a snapshot of every entry, in unspecified order.
func (m *UserReadModel) All() []UserView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]UserView, 0, len(m.users))
	for _, view := range m.users {
		out = append(out, view)
	}
	return out
}

// FindByName returns the first entry with an exact, case-sensitive
// name match.
func (m *UserReadModel) FindByName(name string) (UserView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, view := range m.users {
		if view.Name == name {
			return view, true
		}
	}
	return UserView{}, false
}
