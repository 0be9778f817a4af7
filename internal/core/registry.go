package core

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Registry is the in-memory index of online sessions and the single source
// of truth for who is online. Every operation, including broadcast
// iteration, runs under one mutex: broadcast evicts dead peers while
// iterating, so no caller may observe the map mid-eviction.
type Registry struct {
	mu     sync.Mutex
	byName map[string]Session
	logger *zerolog.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *zerolog.Logger) *Registry {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Registry{
		byName: make(map[string]Session),
		logger: logger,
	}
}

// Add registers a session under its username. Usernames are unique among
// online sessions; a taken name is rejected with ErrUsernameTaken.
func (r *Registry) Add(s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Username()
	if _, exists := r.byName[name]; exists {
		return ErrUsernameTaken
	}
	r.byName[name] = s
	ConnectedClients.Set(float64(len(r.byName)))
	return nil
}

// Remove deregisters the session. Returns false when the session was
// already gone, e.g. evicted during a broadcast.
func (r *Registry) Remove(s Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Username()
	if current, ok := r.byName[name]; !ok || current != s {
		return false
	}
	delete(r.byName, name)
	ConnectedClients.Set(float64(len(r.byName)))
	return true
}

// FindByUsername returns the online session registered under name.
func (r *Registry) FindByUsername(name string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byName[name]
	return s, ok
}

// SnapshotUsernames returns the sorted usernames of all online sessions.
func (r *Registry) SnapshotUsernames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of online sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byName)
}

// Broadcast sends line to every online session except the given one.
// A session whose write fails is removed and closed in the same pass;
// the failure never aborts delivery to the remaining peers. Returns the
// number of sessions that received the line.
func (r *Registry) Broadcast(line string, except Session) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	var dead []string
	for name, s := range r.byName {
		if s == except {
			continue
		}
		if err := s.WriteLine(line); err != nil {
			dead = append(dead, name)
			continue
		}
		delivered++
	}
	for _, name := range dead {
		s := r.byName[name]
		delete(r.byName, name)
		_ = s.Close()
		PeersEvicted.Inc()
		r.logger.Warn().Str("username", name).Msg("evicted dead peer during broadcast")
	}
	if len(dead) > 0 {
		ConnectedClients.Set(float64(len(r.byName)))
	}
	return delivered
}
