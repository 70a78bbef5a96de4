package main

import (
	"flag"

	"github.com/muralwl/mural/internal/cache"
	"github.com/muralwl/mural/internal/imageload"
	"github.com/muralwl/mural/internal/ipc"
)

// restoreKey groups cached images by their source path and target
// dimensions, so a path shared by several outputs is decoded and resized
// only once.
type restoreKey struct {
	path string
	dims
}

func runRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	clearCache := fs.Bool("clear-cache", false, "delete the on-disk image and animation cache instead of restoring")
	if err := fs.Parse(args); err != nil {
		return userError("%w", err)
	}
	if fs.NArg() != 0 {
		return userError("restore takes no positional arguments")
	}

	if *clearCache {
		if err := cache.Clear(); err != nil {
			return daemonError("clear cache: %w", err)
		}
		return nil
	}

	infos, err := queryInfos()
	if err != nil {
		return err
	}

	groups := make(map[restoreKey][]string)
	for _, info := range infos {
		path, err := cache.PreviousImagePath(info.Name)
		if err != nil {
			return daemonError("look up cached image for %s: %w", info.Name, err)
		}
		if path == "" {
			continue
		}
		key := restoreKey{path: path, dims: dims{w: int(info.Dim.X), h: int(info.Dim.Y)}}
		groups[key] = append(groups[key], info.Name)
	}
	if len(groups) == 0 {
		return nil
	}

	transition := ipc.Transition{Type: ipc.TransitionNone, Step: 1, FPS: 1}
	builder, err := ipc.NewImageRequestBuilder(transition)
	if err != nil {
		return daemonError("build image request: %w", err)
	}

	for key, outputNames := range groups {
		src, err := imageload.Load(key.path)
		if err != nil {
			return daemonError("load cached image %s: %w", key.path, err)
		}
		canvas := imageload.Fit(src, key.w, key.h, true, imageload.FilterLanczos, [3]byte{})
		pixels := imageload.ToBGR(canvas)
		img := ipc.Image{
			Path:   key.path,
			Pixels: pixels,
			Dim:    ipc.Vec2[uint32]{X: uint32(key.w), Y: uint32(key.h)},
			Format: targetFormat(infos, outputNames[0]),
		}
		builder.PushImage(img, outputNames, nil)
	}

	mem := builder.Build()
	conn, err := dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := ipc.SendImg(conn, mem, builder.Len()); err != nil {
		return daemonError("send img request: %w", err)
	}
	answer, err := ipc.ReceiveAnswer(conn)
	if err != nil {
		return daemonError("receive answer: %w", err)
	}
	if answer.Code != ipc.CodeOk {
		return daemonError("unexpected answer code %v", answer.Code)
	}
	return nil
}
