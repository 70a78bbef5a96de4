package main

import (
	"net"
	"os"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/muralwl/mural/internal/compositor"
	"github.com/muralwl/mural/internal/ipc"
)

func socketpair(t *testing.T) (*net.UnixConn, *net.UnixConn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	conns := make([]*net.UnixConn, 2)
	for i, fd := range fds {
		f := os.NewFile(uintptr(fd), "sockpair")
		c, err := net.FileConn(f)
		f.Close()
		if err != nil {
			t.Fatalf("FileConn: %v", err)
		}
		conns[i] = c.(*net.UnixConn)
	}
	return conns[0], conns[1]
}

type fakeBuffer struct{ released bool }

func (b *fakeBuffer) Released() bool { return b.released }
func (b *fakeBuffer) Destroy()       {}

type fakePool struct{ size int }

func (p *fakePool) Resize(newSize int) error { p.size = newSize; return nil }
func (p *fakePool) CreateBuffer(offset, width, height, stride int, format compositor.PixelFormat) (compositor.Buffer, error) {
	return &fakeBuffer{released: true}, nil
}
func (p *fakePool) Destroy() {}

type fakeSurface struct{}

func (s *fakeSurface) Attach(compositor.Buffer) {}
func (s *fakeSurface) SetSize(int, int)         {}
func (s *fakeSurface) DamageFull()              {}
func (s *fakeSurface) Commit()                  {}
func (s *fakeSurface) Destroy()                 {}

type fakeCompositor struct{ outputs []compositor.OutputInfo }

func (c *fakeCompositor) Fd() int         { return -1 }
func (c *fakeCompositor) Dispatch() error { return nil }
func (c *fakeCompositor) CreatePool(fd int, size int) (compositor.Pool, error) {
	return &fakePool{size: size}, nil
}
func (c *fakeCompositor) NewSurface(string) (compositor.Surface, error) {
	return &fakeSurface{}, nil
}
func (c *fakeCompositor) Outputs() []compositor.OutputInfo { return c.outputs }

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	comp := &fakeCompositor{}
	ln, err := ipc.Listen()
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	return NewDaemon(cliOptions{format: 0}, comp, ln, nil)
}

func TestEnsureWallpaperIsIdempotentPerOutput(t *testing.T) {
	d := newTestDaemon(t)
	id1, err := d.ensureWallpaper("eDP-1", 100, 100)
	if err != nil {
		t.Fatalf("ensureWallpaper: %v", err)
	}
	id2, err := d.ensureWallpaper("eDP-1", 100, 100)
	if err != nil {
		t.Fatalf("ensureWallpaper: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("ensureWallpaper for the same output returned distinct ids: %v != %v", id1, id2)
	}
	if len(d.outputs) != 1 {
		t.Fatalf("expected exactly one tracked output, got %d", len(d.outputs))
	}
}

func TestHandleClearFillsCanvasAndReplies(t *testing.T) {
	d := newTestDaemon(t)
	if _, err := d.ensureWallpaper("eDP-1", 2, 2); err != nil {
		t.Fatalf("ensureWallpaper: %v", err)
	}

	client, daemonSide := socketpair(t)
	defer client.Close()
	defer daemonSide.Close()

	payload := ipc.EncodeClearRequest(ipc.ClearRequest{Color: [3]byte{10, 20, 30}, Outputs: []string{"eDP-1"}})
	d.handleClear(daemonSide, payload)

	answer, err := ipc.ReceiveAnswer(client)
	if err != nil {
		t.Fatalf("ReceiveAnswer: %v", err)
	}
	if answer.Code != ipc.CodeOk {
		t.Fatalf("answer code = %v, want CodeOk", answer.Code)
	}

	id := d.outputs["eDP-1"]
	wp, release, err := d.arena.Borrow(id)
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}
	defer release()
	if !wp.ImgInfo().IsColor || wp.ImgInfo().Color != [3]byte{10, 20, 30} {
		t.Fatalf("ImgInfo after clear = %+v, want IsColor with color {10 20 30}", wp.ImgInfo())
	}
}

func TestHandleClearUnknownOutputIsSkippedNotFatal(t *testing.T) {
	d := newTestDaemon(t)
	client, daemonSide := socketpair(t)
	defer client.Close()
	defer daemonSide.Close()

	payload := ipc.EncodeClearRequest(ipc.ClearRequest{Color: [3]byte{1, 1, 1}, Outputs: []string{"nonexistent"}})
	d.handleClear(daemonSide, payload)

	answer, err := ipc.ReceiveAnswer(client)
	if err != nil {
		t.Fatalf("ReceiveAnswer: %v", err)
	}
	if answer.Code != ipc.CodeOk {
		t.Fatalf("answer code = %v, want CodeOk even when no output matched", answer.Code)
	}
}

func TestDetachFromGroupPrunesEmptyGroups(t *testing.T) {
	d := newTestDaemon(t)
	id, err := d.ensureWallpaper("eDP-1", 2, 2)
	if err != nil {
		t.Fatalf("ensureWallpaper: %v", err)
	}

	groupID := uuid.New()
	wp, release, err := d.arena.Borrow(id)
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}
	wp.SetAnimationGroup(groupID)
	release()
	d.groupMembers[groupID] = []uuid.UUID{id}
	d.animators[groupID] = nil

	d.detachFromGroup(id)

	if _, stillMember := d.groupMembers[groupID]; stillMember {
		t.Fatalf("detachFromGroup should have pruned the now-empty group")
	}
	if _, stillAnimating := d.animators[groupID]; stillAnimating {
		t.Fatalf("detachFromGroup should have removed the group's animator")
	}
	wp, release, err = d.arena.Borrow(id)
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}
	defer release()
	if _, ok := wp.AnimationGroup(); ok {
		t.Fatalf("wallpaper should have no animation group after detach")
	}
}
