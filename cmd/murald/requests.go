package main

import (
	"log"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/muralwl/mural/internal/animator"
	"github.com/muralwl/mural/internal/cache"
	"github.com/muralwl/mural/internal/ipc"
	"github.com/muralwl/mural/internal/wallpaper"
)

// handleQuery replies with the current state of every known output.
func (d *Daemon) handleQuery(conn *net.UnixConn) {
	infos := make([]ipc.Info, 0, len(d.outputs))
	for name, id := range d.outputs {
		wp, release, err := d.arena.Borrow(id)
		if err != nil {
			continue
		}
		width, height := wp.Dimensions()
		infos = append(infos, ipc.Info{
			Name:   name,
			Dim:    ipc.Vec2[uint32]{X: uint32(width), Y: uint32(height)},
			Scale:  wp.Scale(),
			Img:    wp.ImgInfo(),
			Format: wp.PixelFormat(),
		})
		release()
	}
	if err := ipc.SendInfo(conn, infos); err != nil {
		log.Printf("murald: reply to query: %v", err)
	}
}

// handleClear fills every named output with a solid color, detaching it
// from whatever animation group it belonged to. An output that has never
// been drawn to yet has no known geometry, so Clear can't create one from
// scratch (unlike Img, which always carries the target dimensions) — it is
// skipped with a log line rather than silently failing the whole request.
func (d *Daemon) handleClear(conn *net.UnixConn, payload []byte) {
	req, err := ipc.ParseClearRequest(payload)
	if err != nil {
		log.Printf("murald: malformed clear request: %v", err)
		return
	}

	for _, name := range req.Outputs {
		id, ok := d.outputs[name]
		if !ok {
			log.Printf("murald: clear: unknown output %s, skipping", name)
			continue
		}
		d.detachFromGroup(id)
		wp, release, err := d.arena.Borrow(id)
		if err != nil {
			continue
		}

		channels := wp.PixelFormat().Channels()
		err = wp.CanvasChange(func(canvas []byte) error {
			fillSolid(canvas, req.Color, channels)
			return nil
		})
		if err != nil {
			log.Printf("murald: clear %s: %v", name, err)
			release()
			continue
		}
		wp.SetImgInfo(ipc.ImageDescription{IsColor: true, Color: req.Color})
		wp.Commit()
		release()

		d.recordState(name, wp, "", "none")
	}

	if err := ipc.SendOk(conn); err != nil {
		log.Printf("murald: reply to clear: %v", err)
	}
}

func fillSolid(canvas []byte, color [3]byte, channels int) {
	for i := 0; i+channels <= len(canvas); i += channels {
		canvas[i], canvas[i+1], canvas[i+2] = color[2], color[1], color[0]
		for c := 3; c < channels; c++ {
			canvas[i+c] = 0xff
		}
	}
}

// handleImg parses an Img request and starts one animator per image, each
// covering the outputs that image names. An output named for the first
// time is created at the image's own target dimensions, the only geometry
// murald has for it given Outputs' documented limitation.
func (d *Daemon) handleImg(conn *net.UnixConn, payload []byte) {
	req, err := ipc.ParseImageRequest(payload)
	if err != nil {
		log.Printf("murald: malformed img request: %v", err)
		return
	}

	for i, img := range req.Images {
		width, height := int(img.Dim.X), int(img.Dim.Y)
		memberIDs := make([]uuid.UUID, 0, len(img.Outputs))
		for _, name := range img.Outputs {
			id, err := d.ensureWallpaper(name, width, height)
			if err != nil {
				log.Printf("murald: img: create wallpaper for %s: %v", name, err)
				continue
			}
			memberIDs = append(memberIDs, id)
		}
		if len(memberIDs) == 0 {
			continue
		}

		var anim *ipc.Animation
		if i < len(req.Animations) && len(req.Animations[i].Frames) > 0 {
			a := req.Animations[i]
			anim = &a
		}

		groupID := uuid.New()
		for _, id := range memberIDs {
			d.detachFromGroup(id)
			if wp, release, err := d.arena.Borrow(id); err == nil {
				wp.SetAnimationGroup(groupID)
				wp.SetImgInfo(ipc.ImageDescription{Path: img.Path})
				release()
			}
		}
		d.animators[groupID] = animator.New(req.Transition, img.Format, width, height, img.Pixels, anim)
		d.groupMembers[groupID] = memberIDs

		for _, name := range img.Outputs {
			if id, ok := d.outputs[name]; ok {
				if wp, release, err := d.arena.Borrow(id); err == nil {
					d.recordState(name, wp, img.Path, transitionTypeName(req.Transition.Type))
					release()
				}
			}
		}
	}

	if err := ipc.SendOk(conn); err != nil {
		log.Printf("murald: reply to img: %v", err)
	}
}

// detachFromGroup removes wpID from whatever animation group it currently
// belongs to, dropping the animator entirely once its membership is empty.
func (d *Daemon) detachFromGroup(wpID uuid.UUID) {
	wp, release, err := d.arena.Borrow(wpID)
	if err != nil {
		return
	}
	groupID, hasGroup := wp.AnimationGroup()
	wp.Detach()
	release()
	if !hasGroup {
		return
	}
	members := d.groupMembers[groupID]
	kept := members[:0]
	for _, id := range members {
		if id != wpID {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		delete(d.groupMembers, groupID)
		delete(d.animators, groupID)
	} else {
		d.groupMembers[groupID] = kept
	}
}

// tickAnimators advances every active animator by one frame and commits
// whatever wallpapers it drew to, pruning any animator that reaches Done.
func (d *Daemon) tickAnimators() {
	if d.paused {
		return
	}
	for groupID, a := range d.animators {
		a.UpdateTime()

		members := d.groupMembers[groupID]
		ifaces := make([]animator.Wallpaper, 0, len(members))
		live := make([]*wallpaper.Wallpaper, 0, len(members))
		releases := make([]func(), 0, len(members))
		for _, wpID := range members {
			wp, release, err := d.arena.Borrow(wpID)
			if err != nil {
				continue
			}
			if g, ok := wp.AnimationGroup(); !ok || g != groupID {
				release()
				continue
			}
			ifaces = append(ifaces, wp)
			live = append(live, wp)
			releases = append(releases, release)
		}

		done := a.Frame(ifaces)
		for _, wp := range live {
			wp.Commit()
		}
		for _, release := range releases {
			release()
		}

		if done {
			delete(d.animators, groupID)
			delete(d.groupMembers, groupID)
		}
	}
}

// recordState upserts the sqlite-backed recovery index for one output,
// supplementing the file-based cache (already written by
// ImageRequestBuilder.PushImage on the client side) with a field the wire
// ipc.Info doesn't carry, namely the transition that produced the current
// canvas. handleQuery does not read this index; it reads the Arena.
func (d *Daemon) recordState(output string, wp *wallpaper.Wallpaper, imagePath, transitionType string) {
	if d.state == nil {
		return
	}
	width, height := wp.Dimensions()
	st := cache.OutputState{
		Output:         output,
		ImagePath:      imagePath,
		Width:          width,
		Height:         height,
		PixelFormat:    wp.PixelFormat().String(),
		TransitionType: transitionType,
		UpdatedAtUnix:  time.Now().Unix(),
	}
	if err := d.state.Upsert(st); err != nil {
		log.Printf("murald: record state for %s: %v", output, err)
	}
}

func transitionTypeName(t ipc.TransitionType) string {
	switch t {
	case ipc.TransitionSimple:
		return "simple"
	case ipc.TransitionFade:
		return "fade"
	case ipc.TransitionOuter:
		return "outer"
	case ipc.TransitionWipe:
		return "wipe"
	case ipc.TransitionGrow:
		return "grow"
	case ipc.TransitionWave:
		return "wave"
	case ipc.TransitionNone:
		return "none"
	default:
		return "unknown"
	}
}
