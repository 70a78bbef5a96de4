// Package wallpaper implements per-output state (spec §4.7 / C9): a bump
// pool, a compositor surface, and the image description reported to Query.
// An Arena addresses wallpapers by stable uuid.UUID ids and enforces the
// single-borrow discipline multiple pending animators sharing a wallpaper
// require.
package wallpaper

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/muralwl/mural/internal/bumppool"
	"github.com/muralwl/mural/internal/codec"
	"github.com/muralwl/mural/internal/compositor"
	"github.com/muralwl/mural/internal/ipc"
	"github.com/muralwl/mural/internal/shm"
)

// initialBufferCount sizes the backing shm region for two buffers up front,
// the steady-state double-buffering count spec §8's pool-reuse property
// expects.
const initialBufferCount = 2

// Wallpaper is one output's drawable state.
type Wallpaper struct {
	outputName  string
	mem         *shm.Mmap
	pool        *bumppool.Pool
	surface     compositor.Surface
	pixelFormat codec.PixelFormat
	width       int
	height      int
	scale       ipc.Scale
	img         ipc.ImageDescription
	group       uuid.UUID
	hasGroup    bool
	armed       bool
}

// New creates a Wallpaper for outputName: a fresh shared-memory region sized
// for initialBufferCount buffers, a bump pool over it, and the given
// compositor surface.
func New(outputName string, comp compositor.Compositor, surface compositor.Surface, width, height int, pixelFormat codec.PixelFormat, compFormat compositor.PixelFormat) (*Wallpaper, error) {
	channels := pixelFormat.Channels()
	initialLen := width * height * channels * initialBufferCount
	if initialLen <= 0 {
		return nil, fmt.Errorf("wallpaper: invalid geometry %dx%d", width, height)
	}

	mem, err := shm.Create(initialLen)
	if err != nil {
		return nil, fmt.Errorf("wallpaper: create shm: %w", err)
	}

	pool, err := bumppool.New(comp, mem.Fd(), width, height, channels, compFormat, mem.Remap, mem.Unmap)
	if err != nil {
		mem.Close()
		return nil, fmt.Errorf("wallpaper: create bump pool: %w", err)
	}

	return &Wallpaper{
		outputName:  outputName,
		mem:         mem,
		pool:        pool,
		surface:     surface,
		pixelFormat: pixelFormat,
		width:       width,
		height:      height,
	}, nil
}

// OutputName returns the name of the output this Wallpaper draws to.
func (w *Wallpaper) OutputName() string { return w.outputName }

// Dimensions returns the wallpaper's current canvas size in pixels.
func (w *Wallpaper) Dimensions() (width, height int) { return w.width, w.height }

// PixelFormat returns the logical pixel format canvases are materialized
// in.
func (w *Wallpaper) PixelFormat() codec.PixelFormat { return w.pixelFormat }

// ImgInfo returns the description reported in Query replies.
func (w *Wallpaper) ImgInfo() ipc.ImageDescription { return w.img }

// Scale returns the output scale most recently passed to Resize.
func (w *Wallpaper) Scale() ipc.Scale { return w.scale }

// SetImgInfo updates the description reported in Query replies.
func (w *Wallpaper) SetImgInfo(info ipc.ImageDescription) { w.img = info }

// CanvasChange acquires a drawable (growing the pool if none is released),
// seeds it from the last-committed buffer's content when one differs, runs
// f against it, and leaves the buffer ready for Commit on success. A
// non-nil return from f propagates to the caller without arming a commit.
func (w *Wallpaper) CanvasChange(f func(canvas []byte) error) error {
	w.armed = false
	offset, length, copyFrom, hasCopyFrom, err := w.pool.GetDrawable()
	if err != nil {
		return fmt.Errorf("wallpaper: get drawable: %w", err)
	}

	data := w.mem.SliceMut()
	canvas := data[offset : offset+length]
	if hasCopyFrom {
		copy(canvas, data[copyFrom:copyFrom+length])
	}
	if err := f(canvas); err != nil {
		return err
	}
	w.armed = true
	return nil
}

// Snapshot copies the content of the most recently committed buffer, for
// use as a transition's frozen "prev" frame. Returns a zeroed buffer if
// nothing has been drawn yet.
func (w *Wallpaper) Snapshot() []byte {
	length := w.width * w.height * w.pixelFormat.Channels()
	out := make([]byte, length)
	offset, ok := w.pool.LastUsedOffset()
	if !ok {
		return out
	}
	copy(out, w.mem.Slice()[offset:offset+length])
	return out
}

// Resize propagates a new output size/scale to the bump pool and the
// compositor surface. Every existing buffer is dropped; the next
// CanvasChange allocates fresh ones at the new geometry.
func (w *Wallpaper) Resize(width, height int, scale ipc.Scale) {
	w.width, w.height = width, height
	w.scale = scale
	w.pool.Resize(width, height)
	w.surface.SetSize(width, height)
}

// Commit attaches the most recently drawn buffer to the surface, damages
// the full region, and commits. A no-op if nothing has been drawn yet or if
// the most recent CanvasChange failed.
func (w *Wallpaper) Commit() {
	if !w.armed {
		return
	}
	buf, ok := w.pool.CommitableBuffer()
	if !ok {
		return
	}
	w.surface.Attach(buf)
	w.surface.SetSize(w.width, w.height)
	w.surface.DamageFull()
	w.surface.Commit()
}

// LastBuffer returns the compositor buffer handle most recently committed
// to the surface, or false if nothing has been drawn yet.
func (w *Wallpaper) LastBuffer() (compositor.Buffer, bool) {
	return w.pool.CommitableBuffer()
}

// Release reacts to the compositor releasing buf back to us: once every
// buffer in the pool is released and isAnimating is false, the pool
// destroys its buffers and unmaps the backing shared memory, reclaiming a
// static wallpaper's RAM until it is next drawn to.
func (w *Wallpaper) Release(buf compositor.Buffer, isAnimating bool) bool {
	return w.pool.Release(buf, isAnimating)
}

// Detach clears this wallpaper's animation-group membership, the non-fatal
// response to a per-wallpaper decode error during an animator's validating
// pass (spec §4.4): the wallpaper keeps its last drawn frame and stops
// receiving further ticks from that group.
func (w *Wallpaper) Detach() {
	w.hasGroup = false
}

// SetAnimationGroup records which animation group this wallpaper belongs
// to.
func (w *Wallpaper) SetAnimationGroup(id uuid.UUID) {
	w.group = id
	w.hasGroup = true
}

// AnimationGroup returns the wallpaper's current animation-group id, if
// any.
func (w *Wallpaper) AnimationGroup() (id uuid.UUID, ok bool) {
	return w.group, w.hasGroup
}

// Destroy tears down the bump pool, surface, and backing shared memory.
func (w *Wallpaper) Destroy() {
	w.pool.Destroy()
	w.surface.Destroy()
	w.mem.Close()
}
