// Package cache provides the gateway's two single-slot TTL caches: one for
// the vault structure and one for the discovered note list. A slot is either
// empty or holds one value with an insertion timestamp; there is no keyed
// storage and no eviction beyond expiry and explicit invalidation.
package cache

import (
	"sync"
	"time"
)

// Slot is a single-value cache with a fixed TTL. The zero value is not
// usable; construct with NewSlot. Locks are held only around slot access,
// never across I/O: callers read under the lock, release, fetch, then
// install the result.
type Slot[T any] struct {
	mu       sync.Mutex
	ttl      time.Duration
	val      T
	ok       bool
	inserted time.Time
	now      func() time.Time
}

// NewSlot returns an empty slot with the given TTL.
func NewSlot[T any](ttl time.Duration) *Slot[T] {
	return &Slot[T]{ttl: ttl, now: time.Now}
}

// Get returns the cached value if present and fresh.
func (s *Slot[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if !s.ok {
		return zero, false
	}
	if s.now().Sub(s.inserted) >= s.ttl {
		// Expired entries are dropped on read so a later Put starts a
		// fresh TTL window.
		s.val = zero
		s.ok = false
		return zero, false
	}
	return s.val, true
}

// Put installs a value with a fresh insertion timestamp.
func (s *Slot[T]) Put(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.val = v
	s.ok = true
	s.inserted = s.now()
}

// Invalidate empties the slot.
func (s *Slot[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.val = zero
	s.ok = false
}

// setClock is a test hook.
func (s *Slot[T]) setClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// NotesEntry is the note-list slot payload. HasHeaders records whether the
// cached metadata includes parsed note headers; a cached entry without
// headers cannot satisfy a request that needs them.
type NotesEntry[M any] struct {
	Notes      []M
	HasHeaders bool
}

// Store bundles the two gateway slots so mutating code paths can clear
// both with one call.
type Store[S any, M any] struct {
	Structure *Slot[S]
	Notes     *Slot[NotesEntry[M]]
}

// NewStore builds a store with the given TTLs.
func NewStore[S any, M any](structureTTL, notesTTL time.Duration) *Store[S, M] {
	return &Store[S, M]{
		Structure: NewSlot[S](structureTTL),
		Notes:     NewSlot[NotesEntry[M]](notesTTL),
	}
}

// Invalidate empties both slots. Called after every vault mutation.
func (s *Store[S, M]) Invalidate() {
	s.Structure.Invalidate()
	s.Notes.Invalidate()
}

// GetNotes returns the cached note list if it is fresh and, when headers
// are required, was cached with headers. A headerless request is satisfied
// by a headered entry, never the other way around.
func (s *Store[S, M]) GetNotes(needHeaders bool) ([]M, bool) {
	entry, ok := s.Notes.Get()
	if !ok {
		return nil, false
	}
	if needHeaders && !entry.HasHeaders {
		return nil, false
	}
	return entry.Notes, true
}

// PutNotes caches a note list, recording whether headers were populated.
func (s *Store[S, M]) PutNotes(notes []M, hasHeaders bool) {
	s.Notes.Put(NotesEntry[M]{Notes: notes, HasHeaders: hasHeaders})
}
