package ipc

import (
	"time"

	"github.com/muralwl/mural/internal/codec"
)

// PixelFormat is the wire pixel format tag. It is an alias of
// codec.PixelFormat: the wire value and the codec's in-memory value are the
// same type.
type PixelFormat = codec.PixelFormat

// Vec2 is a generic 2-component vector, used for both integer dimensions
// and floating-point transition coordinates.
type Vec2[T any] struct {
	X, Y T
}

// CoordKind distinguishes an absolute pixel offset from a percentage of
// output size for transition positioning (spec §4.2's "center" parameter).
type CoordKind uint8

const (
	CoordPixel CoordKind = iota
	CoordPercent
)

// Coord is a transition position component: either an absolute pixel
// offset or a fraction of the output's dimension in [0, 1].
type Coord struct {
	Kind  CoordKind
	Value float32
}

// TransitionType selects one of the blend effects spec §4.2 implements.
type TransitionType uint8

const (
	TransitionSimple TransitionType = iota
	TransitionFade
	TransitionOuter
	TransitionWipe
	TransitionGrow
	TransitionWave
	TransitionNone
)

// Transition carries every parameter a transition effect needs: the effect
// kind, pacing (duration, step, fps), and effect-specific geometry (angle,
// position, bezier control points, wave dimensions).
type Transition struct {
	Type      TransitionType
	Duration  float32
	Step      uint8 // non-zero; validated by callers constructing one
	FPS       uint16
	Angle     float64
	Pos       Vec2[Coord]
	Bezier    [2]Vec2[float32]
	Wave      Vec2[float32]
	InvertY   bool
}

// Scale is the output's reported scale factor: either a whole-number
// integer scale or a fractional (120ths-of-a-unit, Wayland
// wp_fractional_scale convention) scale.
type Scale struct {
	Fractional bool
	Value      int32
}

// ImageDescription is what a Wallpaper currently shows: either a flat
// color or a path to the image that produced the current canvas.
type ImageDescription struct {
	IsColor bool
	Color   [3]byte
	Path    string
}

// Info is one output's state, returned in a Query response.
type Info struct {
	Name   string
	Dim    Vec2[uint32]
	Scale  Scale
	Img    ImageDescription
	Format PixelFormat
}

// Image is one image payload inside an Img request: raw literal pixel
// bytes (always 3-byte-per-pixel, per codec.Compress's contract), the
// target dimensions and format it should be materialized into, and the
// set of outputs it applies to (a single Img request can carry distinct
// images for distinct output subsets).
type Image struct {
	Path    string
	Pixels  []byte
	Dim     Vec2[uint32]
	Format  PixelFormat
	Outputs []string
}

// BitPack is one compressed animation frame's payload.
type BitPack struct {
	Bytes        []byte
	ExpectedSize uint32
}

// AnimationFrame pairs a bitpack with how long it should stay on screen.
type AnimationFrame struct {
	Pack     BitPack
	Duration time.Duration
}

// Animation is a full per-output animation sequence: the decoder replays
// frames in order, looping once it reaches the end.
type Animation struct {
	Frames []AnimationFrame
}

// ImageRequest is the fully decoded payload of a CodeImg message. Images
// is a flat list of image payloads; each Image carries its own Outputs.
type ImageRequest struct {
	Transition Transition
	Images     []Image
	Animations []Animation // parallel to Images when non-nil
}

// ClearRequest is the fully decoded payload of a CodeClear message.
type ClearRequest struct {
	Color   [3]byte
	Outputs []string
}
