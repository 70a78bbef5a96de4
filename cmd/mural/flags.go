package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muralwl/mural/internal/ipc"
)

// splitOutputs parses a comma-separated --outputs value into individual
// output names, trimming whitespace. An empty string means "every known
// output" — callers resolve that against a live Query.
func splitOutputs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseRGB parses a "RRGGBB" hex triplet or "R,G,B" decimal triplet into
// its three bytes.
func parseRGB(s string) ([3]byte, error) {
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return [3]byte{}, fmt.Errorf("color %q must have exactly 3 components", s)
		}
		var c [3]byte
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || v < 0 || v > 255 {
				return [3]byte{}, fmt.Errorf("color component %q must be 0-255", p)
			}
			c[i] = byte(v)
		}
		return c, nil
	}

	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return [3]byte{}, fmt.Errorf("color %q must be a 6-digit hex triplet", s)
	}
	raw, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return [3]byte{}, fmt.Errorf("color %q is not valid hex: %w", s, err)
	}
	return [3]byte{byte(raw >> 16), byte(raw >> 8), byte(raw)}, nil
}

// parseCoord parses one transition-pos component: a trailing '%' marks a
// fraction of the output's dimension, otherwise it's an absolute pixel
// offset.
func parseCoord(s string) (ipc.Coord, error) {
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 32)
		if err != nil {
			return ipc.Coord{}, fmt.Errorf("invalid percentage %q: %w", s, err)
		}
		return ipc.Coord{Kind: ipc.CoordPercent, Value: float32(v) / 100}, nil
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return ipc.Coord{}, fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	return ipc.Coord{Kind: ipc.CoordPixel, Value: float32(v)}, nil
}

// parsePos parses a "X,Y" transition-pos value.
func parsePos(s string) (ipc.Vec2[ipc.Coord], error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return ipc.Vec2[ipc.Coord]{}, fmt.Errorf("--transition-pos %q must be X,Y", s)
	}
	x, err := parseCoord(strings.TrimSpace(parts[0]))
	if err != nil {
		return ipc.Vec2[ipc.Coord]{}, err
	}
	y, err := parseCoord(strings.TrimSpace(parts[1]))
	if err != nil {
		return ipc.Vec2[ipc.Coord]{}, err
	}
	return ipc.Vec2[ipc.Coord]{X: x, Y: y}, nil
}

// parseVec2Float32 parses a "A,B" pair of plain floats, used for
// --transition-bezier's two control points and --transition-wave.
func parseVec2Float32(s string) (ipc.Vec2[float32], error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return ipc.Vec2[float32]{}, fmt.Errorf("%q must be A,B", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 32)
	if err != nil {
		return ipc.Vec2[float32]{}, fmt.Errorf("invalid number %q: %w", parts[0], err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 32)
	if err != nil {
		return ipc.Vec2[float32]{}, fmt.Errorf("invalid number %q: %w", parts[1], err)
	}
	return ipc.Vec2[float32]{X: float32(x), Y: float32(y)}, nil
}

// parseBezier parses --transition-bezier's "x1,y1,x2,y2" into two control
// points.
func parseBezier(s string) ([2]ipc.Vec2[float32], error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return [2]ipc.Vec2[float32]{}, fmt.Errorf("--transition-bezier %q must be x1,y1,x2,y2", s)
	}
	var nums [4]float32
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return [2]ipc.Vec2[float32]{}, fmt.Errorf("invalid number %q: %w", p, err)
		}
		nums[i] = float32(v)
	}
	return [2]ipc.Vec2[float32]{{X: nums[0], Y: nums[1]}, {X: nums[2], Y: nums[3]}}, nil
}

func parseTransitionType(s string) (ipc.TransitionType, error) {
	switch s {
	case "", "simple":
		return ipc.TransitionSimple, nil
	case "fade":
		return ipc.TransitionFade, nil
	case "outer":
		return ipc.TransitionOuter, nil
	case "wipe":
		return ipc.TransitionWipe, nil
	case "grow":
		return ipc.TransitionGrow, nil
	case "wave":
		return ipc.TransitionWave, nil
	case "none":
		return ipc.TransitionNone, nil
	default:
		return 0, fmt.Errorf("unknown transition type %q", s)
	}
}
