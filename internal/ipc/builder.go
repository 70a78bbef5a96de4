package ipc

import (
	"encoding/binary"

	"github.com/muralwl/mural/internal/cache"
	"github.com/muralwl/mural/internal/shm"
)

// initialBuilderSize starts the backing Mmap at 8 MiB, same order of
// magnitude the original reserves up front so a typical single-image
// request never triggers a grow.
const initialBuilderSize = 1 << 23

// ImageRequestBuilder incrementally serializes an Img request directly into
// a growable shared-memory region, so the finished payload can be handed to
// the daemon by fd rather than copied over the socket (spec §4.5's
// zero-copy Mmap transport).
type ImageRequestBuilder struct {
	mem           *shm.Mmap
	len           int
	imgCount      uint8
	imgCountIndex int
}

// NewImageRequestBuilder starts a new builder, writing the transition
// header immediately (spec: "Bytes 0..51: Transition serialization").
func NewImageRequestBuilder(transition Transition) (*ImageRequestBuilder, error) {
	mem, err := shm.Create(initialBuilderSize)
	if err != nil {
		return nil, err
	}
	b := &ImageRequestBuilder{mem: mem}
	b.extend(encodeTransition(transition))
	b.imgCountIndex = b.len
	b.pushByte(0) // placeholder, patched in Build
	return b, nil
}

func (b *ImageRequestBuilder) pushByte(v byte) {
	if b.len >= b.mem.Len() {
		b.grow()
	}
	b.mem.SliceMut()[b.len] = v
	b.len++
}

func (b *ImageRequestBuilder) extend(data []byte) {
	for b.len+len(data) >= b.mem.Len() {
		if err := b.mem.Remap((b.mem.Len() * 3) / 2); err != nil {
			panic(err) // shared memory growth failure is not recoverable mid-build
		}
	}
	copy(b.mem.SliceMut()[b.len:b.len+len(data)], data)
	b.len += len(data)
}

func (b *ImageRequestBuilder) grow() {
	if err := b.mem.Remap((b.mem.Len() * 3) / 2); err != nil {
		panic(err)
	}
}

func (b *ImageRequestBuilder) extendBytes(data []byte) {
	b.extend(u32le(uint32(len(data))))
	b.extend(data)
}

func u32le(v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return tmp[:]
}

func u64le(v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return tmp[:]
}

// PushImage appends one image (and its optional animation) to the request,
// and — matching the original builder's side effect of caching the request
// as it's built — records the last-image pointer and, for animations,
// stores the frame payload in the on-disk cache for each named output.
func (b *ImageRequestBuilder) PushImage(img Image, outputs []string, animation *Animation) {
	b.imgCount++

	b.extendBytes([]byte(img.Path))
	b.extendBytes(img.Pixels)
	b.extend(u32le(img.Dim.X))
	b.extend(u32le(img.Dim.Y))
	b.pushByte(byte(img.Format))

	b.pushByte(uint8(len(outputs)))
	for _, out := range outputs {
		b.extendBytes([]byte(out))
	}

	animationStart := b.len + 1
	if animation != nil {
		b.pushByte(1)
		b.extendAnimation(*animation)
	} else {
		b.pushByte(0)
	}

	for _, out := range outputs {
		if err := cache.Store(out, img.Path); err != nil {
			continue // best-effort cache: a failed write must not block the IPC request
		}
	}
	if animation != nil && img.Path != "-" {
		raw := append([]byte(nil), b.mem.Slice()[animationStart:b.len]...)
		_ = cache.StoreAnimationFrames(raw, img.Path, int(img.Dim.X), int(img.Dim.Y), img.Format.String())
	}
}

func (b *ImageRequestBuilder) extendAnimation(a Animation) {
	b.extend(u32le(uint32(len(a.Frames))))
	for _, f := range a.Frames {
		b.extendBytes(f.Pack.Bytes)
		b.extend(u64le(uint64(f.Duration.Nanoseconds())))
	}
}

// Build finalizes the payload, patching in the accumulated image count, and
// returns the backing shared-memory region ready to be handed to the
// daemon by fd.
func (b *ImageRequestBuilder) Build() *shm.Mmap {
	b.mem.SliceMut()[b.imgCountIndex] = b.imgCount
	return b.mem
}

// Len reports the number of meaningful bytes written so far (the Mmap
// itself may be larger due to growth headroom).
func (b *ImageRequestBuilder) Len() int {
	return b.len
}
