// Package codec implements the delta codec (spec §4.1): compressing and
// decompressing consecutive RGB frames into a compact (skip, copy, literal)
// instruction stream, with a 128-bit-shuffle-class fast path gated by
// internal/cpufeature and a safe bounds-checked decoder plus an unchecked
// twin for validated repeat playback.
package codec

// PixelFormat is the tagged variant spec §3 describes: the wire/shm pixel
// layout a decompressed frame is materialized into. The codec always reads
// literal pixel data from the bitpack as 3-byte (B, G, R) triples — that is
// the compositor's native byte order for XRGB8888/XBGR8888 (a little-endian
// 32-bit word stores low-to-high as B,G,R,X) — and only the Rgb/Xrgb
// variants require flipping R and B when materializing into the target
// format.
type PixelFormat uint8

const (
	Bgr PixelFormat = iota
	Rgb
	Xbgr
	Xrgb
)

// Channels returns the number of bytes-per-pixel a frame using this format
// occupies once materialized into shared memory.
func (f PixelFormat) Channels() int {
	switch f {
	case Bgr, Rgb:
		return 3
	case Xbgr, Xrgb:
		return 4
	default:
		return 0
	}
}

// NeedsSwap reports whether materializing this format requires flipping the
// literal (B, G, R) bitpack bytes to (R, G, B).
func (f PixelFormat) NeedsSwap() bool {
	return f == Rgb || f == Xrgb
}

func (f PixelFormat) String() string {
	switch f {
	case Bgr:
		return "Bgr"
	case Rgb:
		return "Rgb"
	case Xbgr:
		return "Xbgr"
	case Xrgb:
		return "Xrgb"
	default:
		return "Unknown"
	}
}
