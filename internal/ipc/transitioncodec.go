package ipc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// transitionWireLen is the fixed byte length of an encoded Transition
// (spec §4.5: "Bytes 0..51: Transition serialization (fixed length)").
const transitionWireLen = 51

func encodeTransition(t Transition) []byte {
	buf := make([]byte, 0, transitionWireLen)
	buf = append(buf, byte(t.Type))
	buf = appendF32(buf, t.Duration)
	buf = append(buf, t.Step)
	buf = appendU16(buf, t.FPS)
	buf = appendF64(buf, t.Angle)
	buf = appendCoord(buf, t.Pos.X)
	buf = appendCoord(buf, t.Pos.Y)
	buf = appendF32(buf, t.Bezier[0].X)
	buf = appendF32(buf, t.Bezier[0].Y)
	buf = appendF32(buf, t.Bezier[1].X)
	buf = appendF32(buf, t.Bezier[1].Y)
	buf = appendF32(buf, t.Wave.X)
	buf = appendF32(buf, t.Wave.Y)
	buf = append(buf, boolByte(t.InvertY))

	if len(buf) != transitionWireLen {
		panic(fmt.Sprintf("ipc: encodeTransition produced %d bytes, want %d", len(buf), transitionWireLen))
	}
	return buf
}

func decodeTransition(b []byte) (Transition, error) {
	if len(b) < transitionWireLen {
		return Transition{}, wrap(KindMalformedMsg, fmt.Errorf("transition payload too short: %d bytes", len(b)))
	}
	var t Transition
	off := 0
	t.Type = TransitionType(b[off])
	off++
	t.Duration = readF32(b, &off)
	t.Step = b[off]
	off++
	t.FPS = readU16(b, &off)
	t.Angle = readF64(b, &off)
	t.Pos.X = readCoord(b, &off)
	t.Pos.Y = readCoord(b, &off)
	t.Bezier[0].X = readF32(b, &off)
	t.Bezier[0].Y = readF32(b, &off)
	t.Bezier[1].X = readF32(b, &off)
	t.Bezier[1].Y = readF32(b, &off)
	t.Wave.X = readF32(b, &off)
	t.Wave.Y = readF32(b, &off)
	t.InvertY = b[off] != 0
	off++
	return t, nil
}

func appendCoord(buf []byte, c Coord) []byte {
	buf = append(buf, byte(c.Kind))
	return appendF32(buf, c.Value)
}

func readCoord(b []byte, off *int) Coord {
	kind := CoordKind(b[*off])
	*off++
	return Coord{Kind: kind, Value: readF32(b, off)}
}

func appendU16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendF32(buf []byte, v float32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	return append(buf, tmp[:]...)
}

func appendF64(buf []byte, v float64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	return append(buf, tmp[:]...)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func readU16(b []byte, off *int) uint16 {
	v := binary.LittleEndian.Uint16(b[*off:])
	*off += 2
	return v
}

func readF32(b []byte, off *int) float32 {
	v := math.Float32frombits(binary.LittleEndian.Uint32(b[*off:]))
	*off += 4
	return v
}

func readF64(b []byte, off *int) float64 {
	v := math.Float64frombits(binary.LittleEndian.Uint64(b[*off:]))
	*off += 8
	return v
}
