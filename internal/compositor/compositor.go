// Package compositor defines the narrow interface the daemon needs from
// its Wayland connection (spec C10): creating shm pools and buffers,
// attaching buffers to layer-shell surfaces, and pumping the connection's
// event queue as one of the event loop's pollable file descriptors. It is
// intentionally thin — the daemon's own logic (bump pool, animator,
// wallpaper) never touches a Wayland type directly, only this interface —
// so the concrete binding can be swapped or stubbed for tests.
package compositor

// PixelFormat names the wl_shm buffer format a pool's buffers use. The
// numeric values match the wl_shm::format enum (0 = ARGB8888 is never
// used by this daemon; XRGB8888/XBGR8888 are the two 4-channel formats it
// actually requests).
type PixelFormat uint32

const (
	FormatXRGB8888 PixelFormat = 1
	FormatXBGR8888 PixelFormat = 0x34324258 // "XB24"
	FormatBGR888   PixelFormat = 0x34324742 // "BG24"
	FormatRGB888   PixelFormat = 0x34324752 // "RG24"
)

// Buffer is one wl_buffer backed by a region of a Pool's shared memory. Its
// only cross-thread-visible state is release-ness: the compositor's
// dispatch thread marks it released when the server returns wl_buffer.release,
// and the frame loop reads that flag to decide which buffer it may reuse
// (spec §5: "the only cross-thread primitive is the released flag").
type Buffer interface {
	// Released reports whether the compositor has released this buffer
	// back to the client. Safe to call from the frame loop while the
	// compositor's dispatch thread may concurrently set it.
	Released() bool
	Destroy()
}

// Pool is a wl_shm_pool: a single shared-memory-backed allocation that
// buffers carve fixed-size regions out of.
type Pool interface {
	// Resize grows the pool's backing allocation to newSize bytes. Pools
	// never shrink (mirrors shm.Mmap's growth-only discipline).
	Resize(newSize int) error
	// CreateBuffer carves out one buffer at the given byte offset with the
	// given geometry and stride, in format.
	CreateBuffer(offset, width, height, stride int, format PixelFormat) (Buffer, error)
	Destroy()
}

// Surface is a layer-shell surface: the on-screen target a Wallpaper
// commits its drawn buffers to.
type Surface interface {
	Attach(buf Buffer)
	SetSize(width, height int)
	DamageFull()
	Commit()
	Destroy()
}

// Compositor is the daemon's whole view of its Wayland connection.
type Compositor interface {
	// Fd returns the connection's file descriptor, for the event loop to
	// multiplex alongside the IPC listener and animator timers.
	Fd() int
	// Dispatch processes any events currently queued on the connection
	// without blocking.
	Dispatch() error
	// CreatePool allocates a wl_shm_pool of size bytes backed by fd.
	CreatePool(fd int, size int) (Pool, error)
	// NewSurface creates a layer-shell surface for the named output.
	NewSurface(outputName string) (Surface, error)
}
