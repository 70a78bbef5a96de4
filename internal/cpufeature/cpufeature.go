// Package cpufeature detects the CPU capabilities the delta codec cares
// about exactly once and caches the result for the lifetime of the process.
//
// The detection itself is delegated to golang.org/x/sys/cpu; this package
// only decides, once, which SIMD tier (if any) the codec is allowed to use.
package cpufeature

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// Tier describes the widest SIMD fast path the current host can run.
type Tier int

const (
	// TierScalar means no usable byte-shuffle instruction was found; the
	// codec must fall back to its per-pixel scalar loop.
	TierScalar Tier = iota
	// TierShuffle128 means a 128-bit byte-shuffle instruction (SSSE3 on
	// amd64, NEON on arm64) is available, enabling the 4-channel pixel
	// expansion fast path described in spec §4.1.
	TierShuffle128
)

var (
	once     sync.Once
	detected Tier
)

// Detect returns the SIMD tier available on this host. The underlying CPU
// probe only ever runs once, on the first call, mirroring the original's
// sync.Once-guarded static feature flags: if detection is skipped or the
// host is unrecognized, Detect degrades to TierScalar rather than risk
// executing an unsupported instruction.
func Detect() Tier {
	once.Do(func() {
		detected = detect()
	})
	return detected
}

func detect() Tier {
	switch {
	case cpu.X86.HasSSSE3:
		return TierShuffle128
	case cpu.ARM64.HasASIMD:
		return TierShuffle128
	default:
		return TierScalar
	}
}

// reset is exposed for tests that need to re-run detection under a forced
// tier; production code must never call this.
func reset() {
	once = sync.Once{}
}
