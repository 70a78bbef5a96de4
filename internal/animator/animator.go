// Package animator drives one animation group's per-tick frame production
// (spec §4.4 / C8): a two-phase state machine that first runs a Transition
// effect toward a newly requested image, then — if an animation with more
// than one frame was attached — loops its decoded frames until superseded
// by a new request.
package animator

import (
	"log"
	"time"

	"github.com/muralwl/mural/internal/codec"
	"github.com/muralwl/mural/internal/ipc"
	"github.com/muralwl/mural/internal/transition"
)

// Wallpaper is the narrow view an Animator needs of a per-output drawable
// (spec C9): enough to read its geometry, snapshot its current canvas
// before mutating it, mutate it in place, and detach it from the group on
// an unrecoverable per-wallpaper decode error.
type Wallpaper interface {
	Dimensions() (width, height int)
	Snapshot() []byte
	CanvasChange(fn func(canvas []byte) error) error
	Detach()
}

type phase uint8

const (
	phaseTransition phase = iota
	phaseAnimation
	phaseDone
)

// Animator is the per-animation-group state machine described in spec §4.4.
type Animator struct {
	phase phase
	now   time.Time

	// transition phase
	start       time.Time
	params      transition.Params
	fps         uint16
	target      []byte
	snapshots   map[int][]byte
	over        bool
	nextAnim    *ipc.Animation
	format      codec.PixelFormat

	// animation phase
	frames        []ipc.AnimationFrame
	index         int
}

// New constructs an Animator in the Transition phase. target is the fully
// materialized next image (spec's ImageRequest.Images[i].Pixels), already
// sized width x height; animation is attached if the request carried one,
// and is only entered once the transition completes.
func New(t ipc.Transition, format codec.PixelFormat, width, height int, target []byte, animation *ipc.Animation) *Animator {
	now := time.Now()
	return &Animator{
		phase:     phaseTransition,
		now:       now,
		start:     now,
		params:    transition.NewParams(t, width, height),
		fps:       t.FPS,
		target:    target,
		snapshots: make(map[int][]byte),
		nextAnim:  animation,
		format:    format,
	}
}

// TimeToDraw reports how long the outer event loop should wait before the
// next Frame call: max(0, frame_interval - elapsed_since_last_tick).
func (a *Animator) TimeToDraw() time.Duration {
	var interval time.Duration
	switch a.phase {
	case phaseTransition:
		fps := a.fps
		if fps == 0 {
			fps = 1
		}
		interval = time.Second / time.Duration(fps)
	case phaseAnimation:
		if len(a.frames) > 0 {
			interval = a.frames[a.index%len(a.frames)].Duration
		}
	default:
		return 0
	}
	elapsed := time.Since(a.now)
	if elapsed >= interval {
		return 0
	}
	return interval - elapsed
}

// UpdateTime marks "now" for the next TimeToDraw computation; called by the
// event loop right before it sleeps.
func (a *Animator) UpdateTime() {
	a.now = time.Now()
}

// Done reports whether this Animator has reached its terminal state and can
// be dropped by the caller.
func (a *Animator) Done() bool {
	return a.phase == phaseDone
}

// Frame advances the animator by one tick against the given wallpapers (all
// members of this animation group), returning true once the animator has
// reached Done on this call.
func (a *Animator) Frame(wallpapers []Wallpaper) bool {
	switch a.phase {
	case phaseTransition:
		return a.frameTransition(wallpapers)
	case phaseAnimation:
		a.frameAnimation(wallpapers)
		return false
	default:
		return true
	}
}

func (a *Animator) frameTransition(wallpapers []Wallpaper) bool {
	if a.over {
		return a.finishTransition()
	}

	elapsed := time.Since(a.start)
	allDone := true
	for i, w := range wallpapers {
		snap, ok := a.snapshots[i]
		if !ok {
			snap = w.Snapshot()
			a.snapshots[i] = snap
		}

		var done bool
		err := w.CanvasChange(func(canvas []byte) error {
			done = transition.Execute(a.params, canvas, snap, a.target, elapsed)
			return nil
		})
		if err != nil {
			log.Printf("animator: transition tick failed, detaching wallpaper: %v", err)
			w.Detach()
			continue
		}
		if !done {
			allDone = false
		}
	}
	a.over = allDone
	if !a.over {
		return false
	}
	return a.finishTransition()
}

func (a *Animator) finishTransition() bool {
	if a.nextAnim != nil && len(a.nextAnim.Frames) > 1 {
		a.frames = a.nextAnim.Frames
		a.nextAnim = nil
		a.index = 0
		a.phase = phaseAnimation
		return false
	}
	a.phase = phaseDone
	return true
}

func (a *Animator) frameAnimation(wallpapers []Wallpaper) {
	if len(a.frames) == 0 {
		a.phase = phaseDone
		return
	}
	frame := a.frames[a.index%len(a.frames)]
	validating := a.index < len(a.frames)

	for _, w := range wallpapers {
		err := w.CanvasChange(func(canvas []byte) error {
			if validating {
				return codec.Decompress(frame.Pack.Bytes, canvas, a.format)
			}
			codec.DecompressUnchecked(frame.Pack.Bytes, canvas, a.format)
			return nil
		})
		if err != nil {
			log.Printf("animator: failed to unpack animation frame, detaching wallpaper: %v", err)
			w.Detach()
		}
	}
	a.index++
}
