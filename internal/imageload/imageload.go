// Package imageload is the client-side counterpart to internal/codec: it
// decodes an arbitrary image file, fits it to an output's geometry, and
// flattens the result into the 3-byte-per-pixel (B, G, R) literal buffer
// codec.Compress and ipc.Image.Pixels expect. None of this runs in the
// daemon — spec's non-goals keep image decode out of murald entirely.
package imageload

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Filter selects the resampling kernel used when scaling an image, named
// after the CLI's --filter values.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterBilinear
	FilterCatmullRom
	FilterLanczos
)

// ParseFilter maps a --filter command line value to a Filter, defaulting to
// FilterLanczos (the highest-quality kernel) for an empty string.
func ParseFilter(s string) (Filter, error) {
	switch s {
	case "", "lanczos", "Lanczos3":
		return FilterLanczos, nil
	case "nearest", "Nearest":
		return FilterNearest, nil
	case "bilinear", "Bilinear":
		return FilterBilinear, nil
	case "catmullrom", "CatmullRom":
		return FilterCatmullRom, nil
	default:
		return 0, fmt.Errorf("imageload: unknown filter %q", s)
	}
}

func (f Filter) interpolator() draw.Interpolator {
	switch f {
	case FilterNearest:
		return draw.NearestNeighbor
	case FilterBilinear:
		return draw.ApproxBiLinear
	case FilterCatmullRom:
		return draw.CatmullRom
	default:
		return draw.CatmullRom
	}
}

// Load decodes the image file at path using whichever registered decoder
// claims it (stdlib png/jpeg/gif, plus golang.org/x/image's bmp/tiff/webp).
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imageload: open %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imageload: decode %s: %w", path, err)
	}
	_ = format
	return img, nil
}

// Fit produces an outW x outH canvas from src: covering (scale to fill,
// center-cropping the overflow) when resize is true, or centering the
// original image against a fillColor background when it is false — the
// --no-resize behavior.
func Fit(src image.Image, outW, outH int, resize bool, filter Filter, fillColor [3]byte) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	bg := color.RGBA{R: fillColor[0], G: fillColor[1], B: fillColor[2], A: 0xff}
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	if !resize {
		sb := src.Bounds()
		offX := (outW - sb.Dx()) / 2
		offY := (outH - sb.Dy()) / 2
		target := image.Rect(offX, offY, offX+sb.Dx(), offY+sb.Dy())
		draw.Draw(dst, target, src, sb.Min, draw.Over)
		return dst
	}

	sb := src.Bounds()
	srcW, srcH := sb.Dx(), sb.Dy()
	if srcW == 0 || srcH == 0 {
		return dst
	}
	scale := float64(outW) / float64(srcW)
	if s := float64(outH) / float64(srcH); s > scale {
		scale = s
	}
	scaledW := int(float64(srcW)*scale + 0.5)
	scaledH := int(float64(srcH)*scale + 0.5)

	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	filter.interpolator().Scale(scaled, scaled.Bounds(), src, sb, draw.Src, nil)

	cropX := (scaledW - outW) / 2
	cropY := (scaledH - outH) / 2
	srcRect := image.Rect(cropX, cropY, cropX+outW, cropY+outH)
	draw.Draw(dst, dst.Bounds(), scaled, srcRect.Min, draw.Src)
	return dst
}

// ToBGR flattens img (already sized width x height) into the literal
// 3-byte-per-pixel (B, G, R) buffer the wire format and codec package
// require.
func ToBGR(img *image.RGBA) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*3)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		rowOff := img.PixOffset(b.Min.X, y)
		row := img.Pix[rowOff : rowOff+w*4]
		for x := 0; x < w; x++ {
			r, g, bl := row[x*4], row[x*4+1], row[x*4+2]
			out[i], out[i+1], out[i+2] = bl, g, r
			i += 3
		}
	}
	return out
}
