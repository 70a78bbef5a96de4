// Package transition implements the blend effects spec §4.2 describes: a
// transition mutates a 3-byte-per-pixel canvas toward a target frame once
// per tick, reporting when the canvas has converged. Every effect operates
// on the same logical (R, G, B) pixel layout the delta codec compresses —
// materializing into the compositor's actual wl_shm format happens
// downstream, in codec.Decompress/MaterializeFull.
package transition

import (
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/muralwl/mural/internal/ipc"
)

// Params bundles everything an effect needs beyond the three pixel
// buffers: geometry (for Wipe/Grow/Outer/Wave's spatial math) and pacing
// (for Simple's per-tick step bound and Fade's bezier timing).
//
// Pos is resolved into absolute pixel coordinates exactly once, by
// NewParams, against the dimensions in effect when the transition begins —
// a mid-transition resize does not re-resolve a Percent coordinate against
// the new dimensions.
type Params struct {
	Type     ipc.TransitionType
	Duration time.Duration
	Step     uint8
	Angle    float64
	CenterX  float64
	CenterY  float64
	Bezier   [2]ipc.Vec2[float32]
	Wave     ipc.Vec2[float32]
	InvertY  bool
	Width    int
	Height   int
}

// NewParams resolves t's Pos coordinate against width/height and returns a
// Params ready for repeated Execute calls across the transition's ticks.
func NewParams(t ipc.Transition, width, height int) Params {
	return Params{
		Type:     t.Type,
		Duration: time.Duration(t.Duration * float32(time.Second)),
		Step:     t.Step,
		Angle:    t.Angle,
		CenterX:  resolveCoord(t.Pos.X, width),
		CenterY:  resolveCoord(t.Pos.Y, height),
		Bezier:   t.Bezier,
		Wave:     t.Wave,
		InvertY:  t.InvertY,
		Width:    width,
		Height:   height,
	}
}

// Execute mutates canvas in place toward next, given prev (the frame the
// transition started from) and elapsed (wall-clock time since the
// transition began). It returns true on the tick canvas becomes equal to
// next — the animator uses that to decide when to move to the Animation or
// Done state.
func Execute(p Params, canvas, prev, next []byte, elapsed time.Duration) bool {
	switch p.Type {
	case ipc.TransitionNone:
		return executeNone(canvas, next)
	case ipc.TransitionSimple:
		return executeSimple(p, canvas, next)
	case ipc.TransitionFade:
		return executeFade(p, canvas, prev, next, elapsed)
	case ipc.TransitionWipe:
		return executeSweep(p, canvas, prev, next, elapsed, wipeMask)
	case ipc.TransitionGrow:
		return executeSweep(p, canvas, prev, next, elapsed, growMask)
	case ipc.TransitionOuter:
		return executeSweep(p, canvas, prev, next, elapsed, outerMask)
	case ipc.TransitionWave:
		return executeSweep(p, canvas, prev, next, elapsed, waveMask)
	default:
		return executeNone(canvas, next)
	}
}

func executeNone(canvas, next []byte) bool {
	copy(canvas, next)
	return true
}

func executeSimple(p Params, canvas, next []byte) bool {
	step := int(p.Step)
	if step == 0 {
		step = 1
	}
	done := true
	for i := range canvas {
		canvas[i] = stepToward(canvas[i], next[i], step)
		if canvas[i] != next[i] {
			done = false
		}
	}
	return done
}

func stepToward(cur, target byte, step int) byte {
	c, t := int(cur), int(target)
	if c == t {
		return cur
	}
	if c < t {
		c += step
		if c > t {
			c = t
		}
	} else {
		c -= step
		if c < t {
			c = t
		}
	}
	return byte(c)
}

// progress returns elapsed/Duration clamped to [0, 1], or 1 immediately if
// Duration is zero (an instant transition).
func progress(p Params, elapsed time.Duration) float64 {
	if p.Duration <= 0 {
		return 1
	}
	t := float64(elapsed) / float64(p.Duration)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func executeFade(p Params, canvas, prev, next []byte, elapsed time.Duration) bool {
	t := cubicBezier(p.Bezier, progress(p, elapsed))
	n := len(canvas) / 3
	for i := 0; i < n; i++ {
		o := i * 3
		a := colorful.Color{R: float64(prev[o]) / 255, G: float64(prev[o+1]) / 255, B: float64(prev[o+2]) / 255}
		b := colorful.Color{R: float64(next[o]) / 255, G: float64(next[o+1]) / 255, B: float64(next[o+2]) / 255}
		blended := a.BlendRgb(b, t)
		canvas[o] = toByte(blended.R)
		canvas[o+1] = toByte(blended.G)
		canvas[o+2] = toByte(blended.B)
	}
	return t >= 1
}

func toByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}

// cubicBezier evaluates the easing curve through (0,0), bezier[0],
// bezier[1], (1,1) at parameter t, returning its y component — the
// standard CSS-style two-control-point timing-function construction.
func cubicBezier(ctrl [2]ipc.Vec2[float32], t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	p1y := float64(ctrl[0].Y)
	p2y := float64(ctrl[1].Y)
	mt := 1 - t
	// y(t) for a cubic bezier with endpoints (0,0) and (1,1).
	return 3*mt*mt*t*p1y + 3*mt*t*t*p2y + t*t*t
}

// maskFunc reports, for pixel (x, y) at the given sweep progress, whether
// that pixel should already show next (true) or still show prev (false).
type maskFunc func(p Params, x, y int, t float64) bool

func executeSweep(p Params, canvas, prev, next []byte, elapsed time.Duration, mask maskFunc) bool {
	t := progress(p, elapsed)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			o := (y*p.Width + x) * 3
			if mask(p, x, y, t) {
				canvas[o], canvas[o+1], canvas[o+2] = next[o], next[o+1], next[o+2]
			} else {
				canvas[o], canvas[o+1], canvas[o+2] = prev[o], prev[o+1], prev[o+2]
			}
		}
	}
	return t >= 1
}

func resolveCoord(c ipc.Coord, dimension int) float64 {
	if c.Kind == ipc.CoordPercent {
		return float64(c.Value) * float64(dimension)
	}
	return float64(c.Value)
}

// rotatedAxis projects (x, y), relative to the canvas center, onto the axis
// rotated by p.Angle degrees — the coordinate the wipe sweep thresholds
// against.
func rotatedAxis(p Params, x, y int) float64 {
	cx, cy := float64(p.Width)/2, float64(p.Height)/2
	dx, dy := float64(x)-cx, float64(y)-cy
	rad := p.Angle * math.Pi / 180
	return dx*math.Cos(rad) + dy*math.Sin(rad)
}

func wipeMask(p Params, x, y int, t float64) bool {
	diag := math.Hypot(float64(p.Width), float64(p.Height))
	threshold := -diag/2 + t*diag
	v := rotatedAxis(p, x, y)
	if p.InvertY {
		return v > threshold
	}
	return v < threshold
}

func growMask(p Params, x, y int, t float64) bool {
	maxRadius := math.Hypot(float64(p.Width), float64(p.Height))
	radius := t * maxRadius
	dist := math.Hypot(float64(x)-p.CenterX, float64(y)-p.CenterY)
	return dist <= radius
}

func outerMask(p Params, x, y int, t float64) bool {
	maxRadius := math.Hypot(math.Max(p.CenterX, float64(p.Width)-p.CenterX), math.Max(p.CenterY, float64(p.Height)-p.CenterY))
	radius := maxRadius * (1 - t)
	dist := math.Hypot(float64(x)-p.CenterX, float64(y)-p.CenterY)
	return dist >= radius
}

// waveMask is wipeMask with the sweep threshold modulated sinusoidally per
// row: spec §4.2 — "Wave modulates the wipe's threshold by
// sin(2π · wave.x · y / h) · wave.y".
func waveMask(p Params, x, y int, t float64) bool {
	diag := math.Hypot(float64(p.Width), float64(p.Height))
	threshold := -diag/2 + t*diag
	if p.Height > 0 {
		threshold += math.Sin(2*math.Pi*float64(p.Wave.X)*float64(y)/float64(p.Height)) * float64(p.Wave.Y)
	}
	v := rotatedAxis(p, x, y)
	if p.InvertY {
		return v > threshold
	}
	return v < threshold
}
