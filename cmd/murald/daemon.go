package main

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/muralwl/mural/internal/animator"
	"github.com/muralwl/mural/internal/cache"
	"github.com/muralwl/mural/internal/compositor"
	"github.com/muralwl/mural/internal/ipc"
	"github.com/muralwl/mural/internal/wallpaper"
)

// idleTick is how long the main loop waits when no animator is running.
// IPC requests and compositor events wake the select directly, so this
// only bounds an otherwise idle wait.
const idleTick = time.Hour

// daemonRequest carries one decoded IPC request from its accept-loop
// goroutine into the single-threaded main loop, along with the connection
// to reply on and a channel the main loop closes once it has written that
// reply (or decided not to).
type daemonRequest struct {
	req  ipc.IncomingRequest
	conn *net.UnixConn
	done chan struct{}
}

// Daemon is murald's whole runtime: a Wayland connection, a wallpaper per
// discovered output, a set of in-flight animators grouped by the uuid an
// Img request shares across the outputs it targets, and the IPC listener
// feeding it requests. Every field below is touched only from Run's
// goroutine — spec's single-writer discipline (C9/C10): the only state
// shared across goroutines is what's already safe for it (a Buffer's
// released flag, deep inside bumppool).
type Daemon struct {
	opts    cliOptions
	comp    compositor.Compositor
	compFmt compositor.PixelFormat
	arena   *wallpaper.Arena
	outputs map[string]uuid.UUID // output name -> wallpaper id

	animators    map[uuid.UUID]*animator.Animator // animation group id -> animator
	groupMembers map[uuid.UUID][]uuid.UUID         // animation group id -> member wallpaper ids

	listener *ipc.Listener
	state    *cache.StateStore

	requests chan daemonRequest
	paused   bool
	cancel   context.CancelFunc
}

// NewDaemon wires together an already-connected compositor, a bound IPC
// listener, and the sqlite-backed state index into a Daemon ready for Run.
func NewDaemon(opts cliOptions, comp compositor.Compositor, ln *ipc.Listener, state *cache.StateStore) *Daemon {
	return &Daemon{
		opts:         opts,
		comp:         comp,
		compFmt:      compositorFormat(opts.format),
		arena:        wallpaper.NewArena(),
		outputs:      make(map[string]uuid.UUID),
		animators:    make(map[uuid.UUID]*animator.Animator),
		groupMembers: make(map[uuid.UUID][]uuid.UUID),
		listener:     ln,
		state:        state,
		requests:     make(chan daemonRequest),
	}
}

// seedOutputs creates a Wallpaper for every output the compositor already
// knows about at startup and, unless --no-cache was given, restores each
// one's last wallpaper via cache.Load. If comp doesn't implement
// compositor.OutputWatcher (or reports none — see Outputs' doc comment),
// outputs are created lazily the first time an Img/Clear request names
// one, which is today's actual code path: this binding's registry walk
// never populates a live output list.
func (d *Daemon) seedOutputs() {
	ow, ok := d.comp.(compositor.OutputWatcher)
	if !ok {
		log.Printf("murald: compositor connection does not report outputs; wallpapers are created on first use")
		return
	}
	outputs := ow.Outputs()
	if len(outputs) == 0 {
		log.Printf("murald: no outputs reported at startup; wallpapers are created on first use")
		return
	}
	for _, o := range outputs {
		if _, err := d.ensureWallpaper(o.Name, o.Width, o.Height); err != nil {
			log.Printf("murald: create wallpaper for %s: %v", o.Name, err)
			continue
		}
		if d.opts.noCache {
			continue
		}
		if err := cache.Load(o.Name); err != nil {
			log.Printf("murald: restore %s from cache: %v", o.Name, err)
		}
	}
}

// ensureWallpaper returns the existing wallpaper id for outputName, or
// creates a new layer-shell surface and Wallpaper sized width x height if
// this is the first time outputName has been named by a request.
func (d *Daemon) ensureWallpaper(outputName string, width, height int) (uuid.UUID, error) {
	if id, ok := d.outputs[outputName]; ok {
		return id, nil
	}
	surface, err := d.comp.NewSurface(outputName)
	if err != nil {
		return uuid.Nil, err
	}
	wp, err := wallpaper.New(outputName, d.comp, surface, width, height, d.opts.format, d.compFmt)
	if err != nil {
		surface.Destroy()
		return uuid.Nil, err
	}
	id := d.arena.Insert(wp)
	d.outputs[outputName] = id
	return id, nil
}

// reclaimIdleBuffers runs after every compositor dispatch, the point
// wl_buffer.release events actually land, and hands each wallpaper's most
// recently attached buffer to its pool's Release. Release only tears
// anything down once every buffer it holds is released and the wallpaper
// isn't part of a running animation, so this is cheap to call unconditionally
// on every dispatch rather than threading a release callback through the
// compositor interface.
func (d *Daemon) reclaimIdleBuffers() {
	for _, id := range d.outputs {
		wp, release, err := d.arena.Borrow(id)
		if err != nil {
			continue
		}
		buf, ok := wp.LastBuffer()
		if !ok {
			release()
			continue
		}
		groupID, hasGroup := wp.AnimationGroup()
		isAnimating := hasGroup && !d.paused
		if isAnimating {
			if _, running := d.animators[groupID]; !running {
				isAnimating = false
			}
		}
		wp.Release(buf, isAnimating)
		release()
	}
}

// acceptLoop accepts connections and hands each to its own goroutine; the
// goroutines never touch daemon state directly, only the requests channel.
func (d *Daemon) acceptLoop(ctx context.Context) {
	for {
		conn, err := d.listener.AcceptUnix()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Printf("murald: accept: %v", err)
				continue
			}
		}
		go d.serveConn(ctx, conn)
	}
}

// serveConn reads requests off one client connection until it closes or
// sends Kill, forwarding each to the main loop and waiting for the reply to
// be written before reading the next one.
func (d *Daemon) serveConn(ctx context.Context, conn *net.UnixConn) {
	defer conn.Close()
	for {
		in, err := ipc.ReceiveRequest(conn)
		if err != nil {
			return
		}
		done := make(chan struct{})
		select {
		case d.requests <- daemonRequest{req: in, conn: conn, done: done}:
		case <-ctx.Done():
			return
		}
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
		if in.Code == ipc.CodeKill {
			return
		}
	}
}

// pollCompositorFd signals ready whenever the compositor's connection fd
// has data pending, so Run's select can multiplex it alongside IPC
// requests and animator ticks without ever blocking inside Dispatch.
func pollCompositorFd(fd int, ready chan<- struct{}, quit <-chan struct{}) {
	pfds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		select {
		case <-quit:
			return
		default:
		}
		n, err := unix.Poll(pfds, 200)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if n > 0 {
			select {
			case ready <- struct{}{}:
			default:
			}
		}
	}
}

// Run is the daemon's single main loop: every request, every compositor
// event, and every animator tick is handled here, one at a time (spec §5).
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	d.seedOutputs()

	go d.acceptLoop(ctx)
	defer d.listener.Close()

	pollQuit := make(chan struct{})
	defer close(pollQuit)
	compReady := make(chan struct{}, 1)
	go pollCompositorFd(d.comp.Fd(), compReady, pollQuit)

	for {
		timer := time.NewTimer(d.nextTick())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case r := <-d.requests:
			timer.Stop()
			d.dispatchRequest(r)
		case <-compReady:
			timer.Stop()
			if err := d.comp.Dispatch(); err != nil {
				log.Printf("murald: compositor dispatch: %v", err)
			}
			d.reclaimIdleBuffers()
		case <-timer.C:
			d.tickAnimators()
		}
	}
}

// nextTick computes how long the main loop may sleep before the soonest
// active animator needs another Frame call.
func (d *Daemon) nextTick() time.Duration {
	if d.paused || len(d.animators) == 0 {
		return idleTick
	}
	min := idleTick
	for _, a := range d.animators {
		if t := a.TimeToDraw(); t < min {
			min = t
		}
	}
	return min
}

func (d *Daemon) dispatchRequest(r daemonRequest) {
	defer close(r.done)
	switch r.req.Code {
	case ipc.CodePing:
		if err := ipc.SendPingAnswer(r.conn, true); err != nil {
			log.Printf("murald: reply to ping: %v", err)
		}
	case ipc.CodeQuery:
		d.handleQuery(r.conn)
	case ipc.CodeClear:
		d.handleClear(r.conn, r.req.Payload)
	case ipc.CodeImg:
		d.handleImg(r.conn, r.req.Payload)
	case ipc.CodePause:
		d.paused = !d.paused
		if err := ipc.SendOk(r.conn); err != nil {
			log.Printf("murald: reply to pause: %v", err)
		}
	case ipc.CodeKill:
		if err := ipc.SendOk(r.conn); err != nil {
			log.Printf("murald: reply to kill: %v", err)
		}
		d.cancel()
	default:
		log.Printf("murald: unrecognized request code %v", r.req.Code)
	}
}
