package main

import (
	"flag"

	"github.com/muralwl/mural/internal/imageload"
	"github.com/muralwl/mural/internal/ipc"
)

type dims struct{ w, h int }

func runImg(args []string) error {
	fs := flag.NewFlagSet("img", flag.ContinueOnError)
	outputsFlag := fs.String("outputs", "", "comma-separated list of outputs (default: all)")
	transitionType := fs.String("transition-type", "simple", "simple|fade|outer|wipe|grow|wave|none")
	transitionStep := fs.Uint("transition-step", 2, "pixel step per tick for simple/sweep transitions")
	transitionFPS := fs.Uint("transition-fps", 30, "transition frames per second")
	transitionDuration := fs.Float64("transition-duration", 3, "transition duration in seconds (fade/sweep effects)")
	transitionAngle := fs.Float64("transition-angle", 45, "transition sweep angle in degrees")
	transitionPos := fs.String("transition-pos", "50%,50%", "transition center, X,Y (each either a pixel offset or N%)")
	transitionBezier := fs.String("transition-bezier", "0.25,0.1,0.25,1", "fade easing control points x1,y1,x2,y2")
	transitionWave := fs.String("transition-wave", "20,20", "wave transition W,H")
	invertY := fs.Bool("transition-invert-y", false, "invert the Y axis for sweep transitions")
	filterFlag := fs.String("filter", "", "nearest|bilinear|catmullrom|lanczos (default lanczos)")
	noResize := fs.Bool("no-resize", false, "don't scale the image; center it and pad with --fill-color")
	fillColorFlag := fs.String("fill-color", "000000", "background color used by --no-resize, RRGGBB or R,G,B")

	if err := fs.Parse(args); err != nil {
		return userError("%w", err)
	}
	if fs.NArg() != 1 {
		return userError("img requires exactly one image path")
	}
	path := fs.Arg(0)
	if *transitionStep == 0 || *transitionStep > 255 {
		return userError("--transition-step must be between 1 and 255")
	}

	ttype, err := parseTransitionType(*transitionType)
	if err != nil {
		return userError("%w", err)
	}
	pos, err := parsePos(*transitionPos)
	if err != nil {
		return userError("%w", err)
	}
	bezier, err := parseBezier(*transitionBezier)
	if err != nil {
		return userError("%w", err)
	}
	wave, err := parseVec2Float32(*transitionWave)
	if err != nil {
		return userError("%w", err)
	}
	filter, err := imageload.ParseFilter(*filterFlag)
	if err != nil {
		return userError("%w", err)
	}
	fillColor, err := parseRGB(*fillColorFlag)
	if err != nil {
		return userError("%w", err)
	}

	transition := ipc.Transition{
		Type:     ttype,
		Duration: float32(*transitionDuration),
		Step:     uint8(*transitionStep),
		FPS:      uint16(*transitionFPS),
		Angle:    *transitionAngle,
		Pos:      pos,
		Bezier:   bezier,
		Wave:     wave,
		InvertY:  *invertY,
	}

	infos, err := queryInfos()
	if err != nil {
		return err
	}
	targets, err := resolveOutputs(infos, splitOutputs(*outputsFlag))
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return userError("no outputs known; is murald running and connected to at least one output?")
	}

	src, err := imageload.Load(path)
	if err != nil {
		return userError("%w", err)
	}

	// Group outputs by target dimensions: one Image entry per distinct
	// size, so a single resized buffer is shared by every output that
	// needs it.
	groups := make(map[dims][]string)
	for _, info := range targets {
		d := dims{w: int(info.Dim.X), h: int(info.Dim.Y)}
		groups[d] = append(groups[d], info.Name)
	}

	builder, err := ipc.NewImageRequestBuilder(transition)
	if err != nil {
		return daemonError("build image request: %w", err)
	}

	for d, outputNames := range groups {
		canvas := imageload.Fit(src, d.w, d.h, !*noResize, filter, fillColor)
		pixels := imageload.ToBGR(canvas)
		img := ipc.Image{
			Path:   path,
			Pixels: pixels,
			Dim:    ipc.Vec2[uint32]{X: uint32(d.w), Y: uint32(d.h)},
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

func targetFormat(infos []ipc.Info, outputName string) ipc.PixelFormat {
	for _, info := range infos {
		if info.Name == outputName {
			return info.Format
		}
	}
	return ipc.Xrgb
}
