package ipc

import (
	"encoding/binary"
	"fmt"
	"time"
)

type byteReader struct {
	data []byte
	off  int
}

func (r *byteReader) need(n int) error {
	if r.off+n > len(r.data) {
		return wrap(KindMalformedMsg, fmt.Errorf("need %d bytes at offset %d, have %d", n, r.off, len(r.data)))
	}
	return nil
}

func (r *byteReader) u8() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

func (r *byteReader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *byteReader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, nil
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *byteReader) lenPrefixed() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	return r.bytes(int(n))
}

func (r *byteReader) lenPrefixedString() (string, error) {
	b, err := r.lenPrefixed()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseImageRequest decodes a full Img request payload — the layout
// ImageRequestBuilder produces — back into structured values. It is the
// daemon-side counterpart to PushImage/Build.
func ParseImageRequest(data []byte) (ImageRequest, error) {
	r := &byteReader{data: data}

	transitionBytes, err := r.bytes(transitionWireLen)
	if err != nil {
		return ImageRequest{}, err
	}
	transition, err := decodeTransition(transitionBytes)
	if err != nil {
		return ImageRequest{}, err
	}

	imgCount, err := r.u8()
	if err != nil {
		return ImageRequest{}, err
	}

	req := ImageRequest{Transition: transition}
	for i := 0; i < int(imgCount); i++ {
		img, anim, err := parseOneImage(r)
		if err != nil {
			return ImageRequest{}, err
		}
		req.Images = append(req.Images, img)
		req.Animations = append(req.Animations, anim)
	}
	return req, nil
}

func parseOneImage(r *byteReader) (Image, Animation, error) {
	var img Image
	var anim Animation

	path, err := r.lenPrefixedString()
	if err != nil {
		return img, anim, err
	}
	pixels, err := r.lenPrefixed()
	if err != nil {
		return img, anim, err
	}
	w, err := r.u32()
	if err != nil {
		return img, anim, err
	}
	h, err := r.u32()
	if err != nil {
		return img, anim, err
	}
	format, err := r.u8()
	if err != nil {
		return img, anim, err
	}

	img = Image{Path: path, Pixels: pixels, Dim: Vec2[uint32]{X: w, Y: h}, Format: PixelFormat(format)}

	outputCount, err := r.u8()
	if err != nil {
		return img, anim, err
	}
	img.Outputs = make([]string, 0, outputCount)
	for i := 0; i < int(outputCount); i++ {
		name, err := r.lenPrefixedString()
		if err != nil {
			return img, anim, err
		}
		img.Outputs = append(img.Outputs, name)
	}

	hasAnimation, err := r.u8()
	if err != nil {
		return img, anim, err
	}
	if hasAnimation != 0 {
		anim, err = parseAnimation(r)
		if err != nil {
			return img, anim, err
		}
	}

	return img, anim, nil
}

func parseAnimation(r *byteReader) (Animation, error) {
	count, err := r.u32()
	if err != nil {
		return Animation{}, err
	}
	frames := make([]AnimationFrame, 0, count)
	for i := uint32(0); i < count; i++ {
		packBytes, err := r.lenPrefixed()
		if err != nil {
			return Animation{}, err
		}
		nanos, err := r.u64()
		if err != nil {
			return Animation{}, err
		}
		frames = append(frames, AnimationFrame{
			Pack:     BitPack{Bytes: packBytes, ExpectedSize: uint32(len(packBytes))},
			Duration: time.Duration(nanos),
		})
	}
	return Animation{Frames: frames}, nil
}

// ParseClearRequest decodes a Clear request payload: a 3-byte color
// followed by a count-prefixed list of output names.
func ParseClearRequest(data []byte) (ClearRequest, error) {
	r := &byteReader{data: data}
	color, err := r.bytes(3)
	if err != nil {
		return ClearRequest{}, err
	}
	count, err := r.u8()
	if err != nil {
		return ClearRequest{}, err
	}
	outputs := make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		name, err := r.lenPrefixedString()
		if err != nil {
			return ClearRequest{}, err
		}
		outputs = append(outputs, name)
	}
	var c [3]byte
	copy(c[:], color)
	return ClearRequest{Color: c, Outputs: outputs}, nil
}

// EncodeClearRequest serializes a ClearRequest, the mirror of
// ParseClearRequest.
func EncodeClearRequest(req ClearRequest) []byte {
	buf := append([]byte{}, req.Color[:]...)
	buf = append(buf, uint8(len(req.Outputs)))
	for _, out := range req.Outputs {
		buf = append(buf, u32le(uint32(len(out)))...)
		buf = append(buf, out...)
	}
	return buf
}
