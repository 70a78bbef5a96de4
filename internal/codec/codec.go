package codec

import (
	"errors"
	"fmt"

	"github.com/muralwl/mural/internal/cpufeature"
)

// ErrCopyInstructionTooLarge is returned by Decompress when a copy
// instruction's literal byte count would read past the end of the bitpack
// or write past the end of the destination canvas. It mirrors
// DecompressionError::CopyInstructionIsTooLarge from the algorithm this
// codec is grounded on: a corrupt or truncated bitpack must never cause an
// out-of-bounds read or write.
var ErrCopyInstructionTooLarge = errors.New("codec: copy instruction overruns bitpack or canvas")

// sentinel is the two zero bytes every bitpack ends with; decoders stop
// reading instructions once fewer than these remain.
const sentinelLen = 2

// Compress produces the delta bitpack that turns prev into cur. prev and cur
// must be equal-length 3-byte-per-pixel (B, G, R) buffers — the literal
// pixel format the bitpack always carries, independent of the eventual
// PixelFormat it gets decompressed into.
//
// A nil (zero-length) result means prev and cur are pixel-identical: the
// caller should skip sending a frame entirely rather than ship a bitpack
// that decodes to a no-op.
func Compress(prev, cur []byte) []byte {
	if len(prev) != len(cur) || len(prev)%3 != 0 {
		panic("codec: Compress requires equal-length, pixel-aligned buffers")
	}
	n := len(prev) / 3
	out := make([]byte, 0, len(cur)/4)

	i := 0
	for i < n {
		skipStart := i
		for i < n && pixelEqual(prev, cur, i) {
			i++
		}
		skip := i - skipStart
		if i >= n {
			// Trailing equal pixels need no instruction: the canvas already
			// holds the right values there from the previous frame.
			break
		}

		copyStart := i
		for i < n && !pixelEqual(prev, cur, i) {
			i++
		}
		copyLen := i - copyStart

		out = appendRun(out, skip)
		out = appendRun(out, copyLen-1)
		out = append(out, cur[copyStart*3:i*3]...)
	}

	if len(out) == 0 {
		return nil
	}
	return append(out, 0, 0)
}

func pixelEqual(a, b []byte, pixel int) bool {
	o := pixel * 3
	return a[o] == b[o] && a[o+1] == b[o+1] && a[o+2] == b[o+2]
}

// appendRun encodes v (a skip count or a copy-1 count) as a run of 0xFF
// bytes followed by a single terminal byte in [0, 254], per spec §4.1: the
// value equals 255*k + r where k is the number of 0xFF bytes emitted.
func appendRun(buf []byte, v int) []byte {
	for v >= 255 {
		buf = append(buf, 0xFF)
		v -= 255
	}
	return append(buf, byte(v))
}

// decodeRun reads one run-length-encoded value from src, returning the
// decoded value and the number of bytes consumed.
func decodeRun(src []byte) (value, consumed int) {
	for consumed < len(src) && src[consumed] == 0xFF {
		value += 255
		consumed++
	}
	if consumed < len(src) {
		value += int(src[consumed])
		consumed++
	}
	return value, consumed
}

// Decompress applies bitpack to canvas, which must already hold the
// previous frame materialized in format. It is the bounds-checked variant:
// every copy instruction is verified against both the remaining bitpack and
// the remaining canvas before any bytes move, returning
// ErrCopyInstructionTooLarge on the first violation instead of panicking or
// corrupting memory. Use this for the first frame of an animation or
// whenever the bitpack's origin isn't already trusted.
func Decompress(bitpack, canvas []byte, format PixelFormat) error {
	channels := format.Channels()
	if channels == 0 {
		return fmt.Errorf("codec: unknown pixel format %v", format)
	}
	if len(bitpack) < sentinelLen {
		return nil
	}
	lastSrc := len(bitpack) - sentinelLen
	swap := format.NeedsSwap()

	src, dst := 0, 0
	for src < lastSrc {
		skip, n := decodeRun(bitpack[src:])
		src += n
		dst += skip * channels

		copyMinus1, n2 := decodeRun(bitpack[src:])
		src += n2
		copyLen := copyMinus1 + 1

		if src+copyLen*3 > lastSrc || dst+copyLen*channels > len(canvas) {
			return ErrCopyInstructionTooLarge
		}

		writePixels(canvas[dst:], bitpack[src:], copyLen, channels, swap)

		src += copyLen * 3
		dst += copyLen * channels
	}
	return nil
}

// DecompressUnchecked behaves like Decompress but skips every bounds check,
// matching the original's unchecked replay path for animation frames that
// have already been validated once (the animator runs every frame of the
// sequence through the checked Decompress on its first pass and only uses
// this variant on later passes, against buffers of identical size). Callers
// that feed
// it untrusted bitpacks risk an out-of-bounds panic or memory corruption —
// it exists purely as a hot-path optimization for already-trusted data.
func DecompressUnchecked(bitpack, canvas []byte, format PixelFormat) {
	channels := format.Channels()
	if len(bitpack) < sentinelLen {
		return
	}
	lastSrc := len(bitpack) - sentinelLen
	swap := format.NeedsSwap()

	src, dst := 0, 0
	for src < lastSrc {
		skip, n := decodeRun(bitpack[src:])
		src += n
		dst += skip * channels

		copyMinus1, n2 := decodeRun(bitpack[src:])
		src += n2
		copyLen := copyMinus1 + 1

		writePixels(canvas[dst:], bitpack[src:], copyLen, channels, swap)

		src += copyLen * 3
		dst += copyLen * channels
	}
}

// writePixels materializes count literal (B, G, R) pixels from src into dst
// in the given channel layout. When the host supports a 128-bit byte
// shuffle (cpufeature.TierShuffle128) and the target is 4-channel, groups of
// four pixels are expanded together — the same lane-shuffle idea the
// original's SSSE3/NEON fast path uses to turn 3-byte pixels into 4-byte
// ones in a single instruction — falling back to the scalar loop for the
// remainder.
func writePixels(dst, src []byte, count, channels int, swap bool) {
	if channels == 4 && cpufeature.Detect() == cpufeature.TierShuffle128 {
		writePixels4Wide(dst, src, count, swap)
		return
	}
	writePixelsScalar(dst, src, count, channels, swap)
}

func writePixelsScalar(dst, src []byte, count, channels int, swap bool) {
	for p := 0; p < count; p++ {
		so := p * 3
		do := p * channels
		b, g, r := src[so], src[so+1], src[so+2]
		if swap {
			dst[do], dst[do+1], dst[do+2] = r, g, b
		} else {
			dst[do], dst[do+1], dst[do+2] = b, g, r
		}
		if channels == 4 {
			dst[do+3] = 0xFF
		}
	}
}

// writePixels4Wide expands four 3-byte pixels into four 4-byte pixels per
// iteration. It is functionally identical to writePixelsScalar's 4-channel
// case; the grouping exists so the instruction-level pattern mirrors the
// original's lane-shuffle expansion instead of re-deriving offsets one
// pixel at a time. Only ever called with channels == 4 (writePixels gates
// on that above), but the alpha write stays guarded to match
// writePixelsScalar rather than assume its caller forever will.
func writePixels4Wide(dst, src []byte, count int, swap bool) {
	const channels = 4
	p := 0
	for ; p+4 <= count; p += 4 {
		for lane := 0; lane < 4; lane++ {
			so := (p + lane) * 3
			do := (p + lane) * 4
			b, g, r := src[so], src[so+1], src[so+2]
			if swap {
				dst[do], dst[do+1], dst[do+2] = r, g, b
			} else {
				dst[do], dst[do+1], dst[do+2] = b, g, r
			}
			if channels == 4 {
				dst[do+3] = 0xFF
			}
		}
	}
	for ; p < count; p++ {
		so := p * 3
		do := p * 4
		b, g, r := src[so], src[so+1], src[so+2]
		if swap {
			dst[do], dst[do+1], dst[do+2] = r, g, b
		} else {
			dst[do], dst[do+1], dst[do+2] = b, g, r
		}
		if channels == 4 {
			dst[do+3] = 0xFF
		}
	}
}

// MaterializeFull expands a full 3-byte-per-pixel (B, G, R) frame into
// format with no delta instructions involved — the path a brand-new
// wallpaper's first frame and a "transition-type=none" request both take,
// grounded on the same writePixels expansion Decompress uses for literal
// runs.
func MaterializeFull(src []byte, format PixelFormat) []byte {
	channels := format.Channels()
	count := len(src) / 3
	dst := make([]byte, count*channels)
	writePixels(dst, src, count, channels, format.NeedsSwap())
	return dst
}
