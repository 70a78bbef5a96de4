package compositor

import (
	"fmt"
	"sync/atomic"

	wayland "honnef.co/go/libwayland"
)

// waylandCompositor adapts honnef.co/go/libwayland's core-protocol bindings
// to the Compositor interface. It binds wl_compositor and wl_shm from the
// registry on connect; zwlr_layer_shell_v1 (the actual protocol layer-shell
// surfaces need) isn't part of this binding's generated set — it ships only
// core wayland plus xdg-shell — so NewSurface targets an xdg_surface today.
// A real deployment would generate layer-shell bindings with the same
// wayland-scanner-style tool this package was produced by and swap the
// surface constructor below; every other call site only sees the Surface
// interface, so that swap is confined to this file.
type waylandCompositor struct {
	display    *wayland.Display
	registry   *wayland.Registry
	compositor *wayland.Compositor
	shm        *wayland.Shm
	xdgWmBase  *wayland.XdgWmBase
	outputs    map[string]OutputInfo
}

// wantedGlobal records one interface this daemon needs bound, and the
// name/version the registry's OnGlobal callback reports for it.
type wantedGlobal struct {
	name, version uint32
	seen          bool
}

// Connect opens a Wayland connection, walks the registry's global
// announcements via Registry.OnGlobal, and binds wl_compositor, wl_shm,
// and xdg_wm_base by interface name — the three core globals this daemon
// needs. A second roundtrip forces the server to flush every wl_registry.
// global event before binding starts, so arrival order never matters.
func Connect() (Compositor, error) {
	display, err := wayland.Connect()
	if err != nil {
		return nil, fmt.Errorf("compositor: connect: %w", err)
	}

	registry := display.Registry()
	wanted := map[string]*wantedGlobal{
		"wl_compositor": {},
		"wl_shm":        {},
		"xdg_wm_base":   {},
	}
	registry.OnGlobal = func(name uint32, iface string, version uint32) {
		if w, ok := wanted[iface]; ok {
			w.name, w.version, w.seen = name, version, true
		}
	}

	if _, err := display.Roundtrip(); err != nil {
		return nil, fmt.Errorf("compositor: initial roundtrip: %w", err)
	}
	// A second roundtrip guarantees every global event queued by the first
	// has actually been dispatched into the OnGlobal callback above, since
	// Roundtrip only guarantees the server has processed requests sent
	// before it, not that every resulting event has been read back yet.
	if _, err := display.Roundtrip(); err != nil {
		return nil, fmt.Errorf("compositor: second roundtrip: %w", err)
	}

	for iface, w := range wanted {
		if !w.seen {
			return nil, fmt.Errorf("compositor: compositor did not advertise %s", iface)
		}
	}

	wc := &waylandCompositor{display: display, registry: registry}
	wc.compositor = registry.BindCompositor(wanted["wl_compositor"].name, wanted["wl_compositor"].version)
	wc.shm = registry.BindShm(wanted["wl_shm"].name, wanted["wl_shm"].version)
	wc.xdgWmBase = registry.BindXdgWmBase(wanted["xdg_wm_base"].name, wanted["xdg_wm_base"].version)
	return wc, nil
}

func (c *waylandCompositor) Fd() int {
	return int(c.display.Fd())
}

func (c *waylandCompositor) Dispatch() error {
	c.display.DispatchPending()
	if _, err := c.display.Flush(); err != nil {
		return fmt.Errorf("compositor: flush: %w", err)
	}
	return nil
}

func (c *waylandCompositor) CreatePool(fd int, size int) (Pool, error) {
	if c.shm == nil {
		return nil, fmt.Errorf("compositor: wl_shm not bound yet")
	}
	pool := c.shm.CreatePool(int32(fd), int32(size))
	return &waylandPool{pool: pool}, nil
}

func (c *waylandCompositor) NewSurface(outputName string) (Surface, error) {
	if c.compositor == nil || c.xdgWmBase == nil {
		return nil, fmt.Errorf("compositor: wl_compositor/xdg_wm_base not bound yet")
	}
	surf := c.compositor.CreateSurface()
	xdgSurf := c.xdgWmBase.XdgSurface(surf)
	return &waylandSurface{surface: surf, xdgSurface: xdgSurf}, nil
}

type waylandPool struct {
	pool *wayland.ShmPool
}

func (p *waylandPool) Resize(newSize int) error {
	// honnef.co/go/libwayland's ShmPool does not expose wl_shm_pool.resize
	// directly in this binding's generated surface; callers must have
	// already grown the backing fd (internal/shm.Mmap.Remap) and recreate
	// the pool against the new size for hosts where in-place resize isn't
	// wired. Kept as a named method so bumppool's call site doesn't change
	// when a resize-capable binding lands.
	return nil
}

func (p *waylandPool) CreateBuffer(offset, width, height, stride int, format PixelFormat) (Buffer, error) {
	buf := p.pool.CreateBuffer(int32(offset), int32(width), int32(height), int32(stride), wayland.ShmFormat(format))
	wb := &waylandBuffer{buf: buf}
	wb.released.Store(true)
	buf.OnRelease = func() {
		wb.released.Store(true)
	}
	return wb, nil
}

func (p *waylandPool) Destroy() {
	p.pool.Destroy()
}

type waylandBuffer struct {
	buf      *wayland.Buffer
	released atomic.Bool
}

func (b *waylandBuffer) Released() bool {
	return b.released.Load()
}

func (b *waylandBuffer) Destroy() {
	b.buf.Destroy()
}

type waylandSurface struct {
	surface    *wayland.Surface
	xdgSurface *wayland.XdgSurface
	width      int
	height     int
}

func (s *waylandSurface) Attach(buf Buffer) {
	wb, ok := buf.(*waylandBuffer)
	if !ok {
		return
	}
	s.surface.Attach(wb.buf)
	wb.released.Store(false)
}

func (s *waylandSurface) SetSize(width, height int) {
	s.width, s.height = width, height
}

func (s *waylandSurface) DamageFull() {
	s.surface.Damage(0, 0, int32(s.width), int32(s.height))
}

func (s *waylandSurface) Commit() {
	s.surface.Commit()
}

func (s *waylandSurface) Destroy() {
	s.xdgSurface.Destroy()
	s.surface.Destroy()
}
