package sessions

import (
	"sync"
	"time"

	"github.com/susu3304/partybot/internal/state"
)

// Directory tracks the conversation state of every chat. Each chat has its
// own lock; holding it serializes everything done on behalf of that chat
// while other chats proceed independently.
type Directory struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

type entry struct {
	mu         sync.Mutex
	state      state.State
	lastActive time.Time
	removed    bool
}

func NewDirectory() *Directory {
	return &Directory{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Session is an exclusive handle on one chat's conversation state. It is
// valid until Release.
type Session struct {
	ID    string
	dir   *Directory
	entry *entry
}

// Acquire blocks until the chat's lock is free and returns the handle.
func (d *Directory) Acquire(sessionID string) *Session {
	for {
		d.mu.Lock()
		e, ok := d.entries[sessionID]
		if !ok {
			e = &entry{lastActive: d.now()}
			d.entries[sessionID] = e
		}
		d.mu.Unlock()

		e.mu.Lock()
		if e.removed {
			// expired while we waited; the map now holds a fresh entry
			e.mu.Unlock()
			continue
		}
		return &Session{ID: sessionID, dir: d, entry: e}
	}
}

func (s *Session) State() state.State {
	return s.entry.state
}

func (s *Session) Set(st state.State) {
	s.entry.state = st
}

// Release records activity and unlocks the chat.
func (s *Session) Release() {
	s.entry.lastActive = s.dir.now()
	s.entry.mu.Unlock()
}

// With runs fn while holding the chat's lock.
func (d *Directory) With(sessionID string, fn func(s *Session) error) error {
	s := d.Acquire(sessionID)
	defer s.Release()
	return fn(s)
}

// Peek returns the current state without registering activity.
func (d *Directory) Peek(sessionID string) state.State {
	d.mu.Lock()
	e, ok := d.entries[sessionID]
	d.mu.Unlock()
	if !ok {
		return state.To(state.Idle)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Len returns the number of tracked chats.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// Expire forgets chats idle for longer than ttl, which drops any pending flow
// back to Idle. Chats whose lock is currently held are skipped. It returns
// how many flows were abandoned.
func (d *Directory) Expire(ttl time.Duration) (abandoned int) {
	cutoff := d.now().Add(-ttl)

	d.mu.Lock()
	defer d.mu.Unlock()
	for id, e := range d.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastActive.Before(cutoff) {
			if e.state.Mode != state.Idle {
				abandoned++
			}
			e.removed = true
			delete(d.entries, id)
		}
		e.mu.Unlock()
	}
	return abandoned
}
