// Package bumppool implements the fixed-geometry shared-memory buffer pool
// each Wallpaper draws into (spec §4.4 / C6): it hands out the first
// released buffer it finds, growing the pool only when every buffer is
// still owned by the compositor, and reports the previously drawn buffer's
// offset whenever it hands out a different one, so the caller can seed the
// new drawable with the last drawn frame rather than garbage memory.
package bumppool

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/muralwl/mural/internal/compositor"
)

// Pool hands out fixed-size drawable regions of a single growable
// wl_shm_pool, reusing released buffers before allocating new ones.
type Pool struct {
	pool         compositor.Pool
	comp         compositor.Compositor
	fd           int
	shmLen       int
	growBacking  func(newSize int) error
	unmapBacking func() error

	buffers       []buffer
	width, height int
	channels      int
	format        compositor.PixelFormat
	lastUsed      int
	hasLastUsed   bool
}

type buffer struct {
	handle compositor.Buffer
	offset int
}

// New creates a pool sized for one buffer at width x height x channels,
// requesting the backing shared memory and wl_shm_pool from comp. growBacking
// is called at the start of every grow, before any wl_shm_pool resize, to
// re-map the fd's backing storage if a Release unmapped it and grow it to at
// least newSize bytes (ftruncate + mremap) — the compositor's
// Pool.Resize only issues the wl_shm_pool.resize protocol request itself and
// has no access to the fd's shm.Mmap, so the caller (Wallpaper) supplies this
// hook over its own mapping. unmapBacking is called by Release once every
// buffer has been released and the pool is known idle (not animating), to
// give the backing memory back to the kernel until the pool is needed again.
func New(comp compositor.Compositor, fd int, width, height, channels int, format compositor.PixelFormat, growBacking func(newSize int) error, unmapBacking func() error) (*Pool, error) {
	p := &Pool{comp: comp, fd: fd, width: width, height: height, channels: channels, format: format, growBacking: growBacking, unmapBacking: unmapBacking}
	initialLen := p.bufferLen()
	pool, err := comp.CreatePool(fd, initialLen)
	if err != nil {
		return nil, fmt.Errorf("bumppool: create pool: %w", err)
	}
	p.pool = pool
	p.shmLen = initialLen
	return p, nil
}

func (p *Pool) bufferLen() int {
	return p.width * p.height * p.channels
}

func (p *Pool) bufferOffset(index int) int {
	return p.bufferLen() * index
}

func (p *Pool) occupiedBytes() int {
	return p.bufferOffset(len(p.buffers))
}

// grow resizes the pool and allocates one more buffer at the next free
// offset.
func (p *Pool) grow() error {
	length := p.bufferLen()
	newLen := p.occupiedBytes() + length
	if p.growBacking != nil {
		if err := p.growBacking(newLen); err != nil {
			return fmt.Errorf("bumppool: grow backing storage: %w", err)
		}
	}
	if newLen > p.shmLen {
		if err := p.pool.Resize(newLen); err != nil {
			return fmt.Errorf("bumppool: resize: %w", err)
		}
		p.shmLen = newLen
	}

	index := len(p.buffers)
	handle, err := p.pool.CreateBuffer(p.bufferOffset(index), p.width, p.height, p.width*p.channels, p.format)
	if err != nil {
		return fmt.Errorf("bumppool: create buffer: %w", err)
	}
	p.buffers = append(p.buffers, buffer{handle: handle, offset: p.bufferOffset(index)})
	return nil
}

// GetDrawable returns the byte range of a released buffer (growing the
// pool if none is free) as an offset/length pair into shared memory, along
// with a flag indicating whether that memory should be seeded from the
// previously drawn frame's content (true only when a different buffer was
// drawn to last; false for the first drawable after New, Resize or an idle
// teardown, and when the same buffer is handed out again). The caller (Wallpaper) is responsible for
// the actual memory copy since it owns the mmap's byte slice; bumppool only
// tracks which offsets to copy between.
func (p *Pool) GetDrawable() (offset, length int, copyFrom int, hasCopyFrom bool, err error) {
	index := -1
	for i, b := range p.buffers {
		if b.handle.Released() {
			index = i
			break
		}
	}
	if index < 0 {
		if err := p.grow(); err != nil {
			return 0, 0, 0, false, err
		}
		index = len(p.buffers) - 1
	}

	length = p.bufferLen()
	offset = p.bufferOffset(index)

	if p.hasLastUsed && p.lastUsed != index {
		copyFrom = p.bufferOffset(p.lastUsed)
		hasCopyFrom = true
	}
	p.lastUsed = index
	p.hasLastUsed = true
	return offset, length, copyFrom, hasCopyFrom, nil
}

// LastUsedOffset returns the byte offset of the most recently drawn buffer,
// or false if none has been drawn to yet.
func (p *Pool) LastUsedOffset() (offset int, ok bool) {
	if !p.hasLastUsed {
		return 0, false
	}
	return p.buffers[p.lastUsed].offset, true
}

// CommitableBuffer returns the compositor buffer handle for the last
// drawable returned by GetDrawable, or false if none has been drawn to yet
// (e.g. right after a Resize).
func (p *Pool) CommitableBuffer() (compositor.Buffer, bool) {
	if !p.hasLastUsed {
		return nil, false
	}
	return p.buffers[p.lastUsed].handle, true
}

// Release records that buf has been released by the compositor (the
// wl_buffer.release event already flipped buf.Released(); this just lets the
// pool react to it) and, when isAnimating is false and every buffer in the
// pool is now released, destroys all buffers and unmaps the backing shared
// memory — the same idle-teardown set_buffer_release_flag performs in the
// original, so a static wallpaper's memory doesn't sit mapped forever. The
// mapping comes back automatically the next time grow() needs it, via
// growBacking's EnsureMapped call. Returns whether the pool was torn down.
func (p *Pool) Release(buf compositor.Buffer, isAnimating bool) bool {
	found := false
	for _, b := range p.buffers {
		if b.handle == buf {
			found = true
			break
		}
	}
	if !found || isAnimating {
		return false
	}

	for _, b := range p.buffers {
		if !b.handle.Released() {
			return false
		}
	}

	for _, b := range p.buffers {
		b.handle.Destroy()
	}
	p.buffers = nil
	p.hasLastUsed = false

	if p.unmapBacking != nil {
		if err := p.unmapBacking(); err != nil {
			return false
		}
	}
	return true
}

// Resize drops every existing buffer (their geometry no longer matches)
// and resets pending-draw state; the next GetDrawable call allocates fresh
// buffers at the new size.
func (p *Pool) Resize(width, height int) {
	for _, b := range p.buffers {
		b.handle.Destroy()
	}
	p.buffers = nil
	p.hasLastUsed = false
	p.width, p.height = width, height
}

// Stats reports the pool's buffer count and total shared-memory footprint,
// in human-readable form, for daemon diagnostics.
func (p *Pool) Stats() string {
	return fmt.Sprintf("%d buffers, %s", len(p.buffers), humanize.IBytes(uint64(p.shmLen)))
}

// Destroy releases every buffer and the pool object itself.
func (p *Pool) Destroy() {
	for _, b := range p.buffers {
		b.handle.Destroy()
	}
	p.buffers = nil
	p.pool.Destroy()
}
