package wallpaper

import (
	"testing"

	"github.com/google/uuid"

	"github.com/muralwl/mural/internal/codec"
	"github.com/muralwl/mural/internal/compositor"
	"github.com/muralwl/mural/internal/ipc"
)

type fakeBuffer struct{ released bool }

func (b *fakeBuffer) Released() bool { return b.released }
func (b *fakeBuffer) Destroy()       {}

type fakePool struct {
	size    int
	buffers []*fakeBuffer
}

func (p *fakePool) Resize(newSize int) error { p.size = newSize; return nil }
func (p *fakePool) CreateBuffer(offset, width, height, stride int, format compositor.PixelFormat) (compositor.Buffer, error) {
	b := &fakeBuffer{released: true}
	p.buffers = append(p.buffers, b)
	return b, nil
}
func (p *fakePool) Destroy() {}

type fakeSurface struct {
	attached      compositor.Buffer
	width, height int
	damaged       bool
	committed     bool
	destroyed     bool
}

func (s *fakeSurface) Attach(buf compositor.Buffer) { s.attached = buf }
func (s *fakeSurface) SetSize(w, h int)              { s.width, s.height = w, h }
func (s *fakeSurface) DamageFull()                   { s.damaged = true }
func (s *fakeSurface) Commit()                       { s.committed = true }
func (s *fakeSurface) Destroy()                      { s.destroyed = true }

type fakeCompositor struct{ pool *fakePool }

func (c *fakeCompositor) Fd() int         { return -1 }
func (c *fakeCompositor) Dispatch() error { return nil }
func (c *fakeCompositor) NewSurface(string) (compositor.Surface, error) {
	return &fakeSurface{}, nil
}
func (c *fakeCompositor) CreatePool(fd int, size int) (compositor.Pool, error) {
	c.pool = &fakePool{size: size}
	return c.pool, nil
}

func newTestWallpaper(t *testing.T, width, height int) (*Wallpaper, *fakeSurface) {
	t.Helper()
	comp := &fakeCompositor{}
	surf := &fakeSurface{}
	w, err := New("eDP-1", comp, surf, width, height, codec.Xrgb, compositor.FormatXRGB8888)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w, surf
}

func TestCanvasChangeWritesIntoDrawable(t *testing.T) {
	w, _ := newTestWallpaper(t, 2, 2)
	err := w.CanvasChange(func(canvas []byte) error {
		if len(canvas) != 2*2*4 {
			t.Fatalf("canvas length = %d, want %d", len(canvas), 2*2*4)
		}
		for i := range canvas {
			canvas[i] = 0xAB
		}
		return nil
	})
	if err != nil {
		t.Fatalf("CanvasChange: %v", err)
	}
}

func TestSnapshotReflectsLastCommittedContent(t *testing.T) {
	w, _ := newTestWallpaper(t, 1, 1)
	if snap := w.Snapshot(); len(snap) != 4 {
		t.Fatalf("expected a zeroed 4-byte snapshot before any draw, got %v", snap)
	}

	err := w.CanvasChange(func(canvas []byte) error {
		canvas[0], canvas[1], canvas[2], canvas[3] = 1, 2, 3, 4
		return nil
	})
	if err != nil {
		t.Fatalf("CanvasChange: %v", err)
	}

	snap := w.Snapshot()
	if snap[0] != 1 || snap[1] != 2 || snap[2] != 3 || snap[3] != 4 {
		t.Fatalf("snapshot = %v, want the just-drawn pixel", snap)
	}
}

func TestCommitAttachesLastDrawnBuffer(t *testing.T) {
	w, surf := newTestWallpaper(t, 4, 4)
	if err := w.CanvasChange(func([]byte) error { return nil }); err != nil {
		t.Fatalf("CanvasChange: %v", err)
	}
	w.Commit()
	if surf.attached == nil {
		t.Fatalf("Commit should have attached a buffer to the surface")
	}
	if !surf.damaged || !surf.committed {
		t.Fatalf("Commit should damage and commit the surface")
	}
}

func TestCommitIsNoOpBeforeAnyDraw(t *testing.T) {
	w, surf := newTestWallpaper(t, 4, 4)
	w.Commit()
	if surf.attached != nil || surf.committed {
		t.Fatalf("Commit before any draw should be a no-op")
	}
}

func TestCanvasChangeErrorPropagates(t *testing.T) {
	w, _ := newTestWallpaper(t, 2, 2)
	sentinel := errSentinel{}
	err := w.CanvasChange(func([]byte) error { return sentinel })
	if err != sentinel {
		t.Fatalf("expected the closure's error to propagate unchanged, got %v", err)
	}
}

type errSentinel struct{}

func (errSentinel) Error() string { return "sentinel" }

func TestSetAndClearAnimationGroup(t *testing.T) {
	w, _ := newTestWallpaper(t, 2, 2)
	if _, ok := w.AnimationGroup(); ok {
		t.Fatalf("a freshly created wallpaper should have no animation group")
	}
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	w.SetAnimationGroup(id)
	got, ok := w.AnimationGroup()
	if !ok || got != id {
		t.Fatalf("AnimationGroup = (%v, %v), want (%v, true)", got, ok, id)
	}
	w.Detach()
	if _, ok := w.AnimationGroup(); ok {
		t.Fatalf("Detach should clear the animation group")
	}
}

func TestImgInfoRoundTrip(t *testing.T) {
	w, _ := newTestWallpaper(t, 2, 2)
	info := ipc.ImageDescription{Path: "/tmp/a.png"}
	w.SetImgInfo(info)
	if got := w.ImgInfo(); got.Path != info.Path {
		t.Fatalf("ImgInfo = %+v, want %+v", got, info)
	}
}

func TestResizeUpdatesDimensionsAndSurface(t *testing.T) {
	w, surf := newTestWallpaper(t, 2, 2)
	w.Resize(10, 20, ipc.Scale{Value: 1})
	width, height := w.Dimensions()
	if width != 10 || height != 20 {
		t.Fatalf("Dimensions = (%d, %d), want (10, 20)", width, height)
	}
	if surf.width != 10 || surf.height != 20 {
		t.Fatalf("surface size = (%d, %d), want (10, 20)", surf.width, surf.height)
	}
}
