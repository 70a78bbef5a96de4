package wallpaper

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an Arena lookup fails.
var ErrNotFound = errors.New("wallpaper: not found")

// Arena owns every Wallpaper the daemon has created, addressed by a stable
// id rather than a direct pointer: animators and the IPC handler both hold
// onto ids rather than *Wallpaper, so dropping a reference somewhere never
// leaves a dangling handle, and a wallpaper outlives any single holder of
// its id. Borrow enforces the single-borrow discipline spec §4.7 requires
// — at most one live borrow per wallpaper at a time.
type Arena struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*entry
}

type entry struct {
	wp       *Wallpaper
	borrowed atomic.Bool
}

// NewArena creates an empty Arena.
func NewArena() *Arena {
	return &Arena{entries: make(map[uuid.UUID]*entry)}
}

// Insert adds wp to the arena and returns its new stable id.
func (a *Arena) Insert(wp *Wallpaper) uuid.UUID {
	id := uuid.New()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[id] = &entry{wp: wp}
	return id
}

// Remove destroys the wallpaper at id, if present.
func (a *Arena) Remove(id uuid.UUID) {
	a.mu.Lock()
	e, ok := a.entries[id]
	if ok {
		delete(a.entries, id)
	}
	a.mu.Unlock()
	if ok {
		e.wp.Destroy()
	}
}

// Borrow checks out the wallpaper at id for exclusive access. The returned
// release function must be called exactly once to return it. Borrow panics
// if the wallpaper is already checked out — per spec §4.7, a double borrow
// is a program bug, not a recoverable error.
func (a *Arena) Borrow(id uuid.UUID) (wp *Wallpaper, release func(), err error) {
	a.mu.RLock()
	e, ok := a.entries[id]
	a.mu.RUnlock()
	if !ok {
		return nil, nil, ErrNotFound
	}
	if !e.borrowed.CompareAndSwap(false, true) {
		panic("wallpaper: double borrow of " + id.String())
	}
	return e.wp, func() { e.borrowed.Store(false) }, nil
}

// Ids returns every wallpaper id currently in the arena, in no particular
// order.
func (a *Arena) Ids() []uuid.UUID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(a.entries))
	for id := range a.entries {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of wallpapers currently in the arena.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}
