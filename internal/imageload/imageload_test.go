package imageload

import (
	"image"
	"image/color"
	"testing"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestParseFilter(t *testing.T) {
	cases := map[string]Filter{
		"":           FilterLanczos,
		"lanczos":    FilterLanczos,
		"nearest":    FilterNearest,
		"bilinear":   FilterBilinear,
		"catmullrom": FilterCatmullRom,
	}
	for in, want := range cases {
		got, err := ParseFilter(in)
		if err != nil {
			t.Fatalf("ParseFilter(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseFilter(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseFilter("bogus"); err == nil {
		t.Fatalf("ParseFilter(%q) should have failed", "bogus")
	}
}

func TestFitResizeFillsEntireCanvas(t *testing.T) {
	src := solidImage(10, 10, color.RGBA{R: 255, A: 255})
	dst := Fit(src, 40, 20, true, FilterNearest, [3]byte{})

	b := dst.Bounds()
	if b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("Fit returned %dx%d canvas, want 40x20", b.Dx(), b.Dy())
	}
	// A pure-red source scaled to cover should leave no background pixel
	// visible anywhere in the output.
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := dst.At(x, y).RGBA()
			if r>>8 < 200 {
				t.Fatalf("pixel (%d,%d) = %v, expected to be covered by the red source", x, y, dst.At(x, y))
			}
		}
	}
}

func TestFitNoResizeCentersAndPads(t *testing.T) {
	src := solidImage(4, 4, color.RGBA{R: 255, A: 255})
	dst := Fit(src, 10, 10, false, FilterNearest, [3]byte{0, 0, 255})

	// Corner pixels should be the fill color, not the source image.
	r, g, b, _ := dst.At(0, 0).RGBA()
	if r>>8 != 0 || g>>8 != 0 || b>>8 != 255 {
		t.Fatalf("corner pixel = (%d,%d,%d), want fill color (0,0,255)", r>>8, g>>8, b>>8)
	}
	// Center pixel should be the (unscaled) source.
	cr, _, _, _ := dst.At(5, 5).RGBA()
	if cr>>8 < 200 {
		t.Fatalf("center pixel red channel = %d, want the red source centered there", cr>>8)
	}
}

func TestToBGR(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 40, G: 50, B: 60, A: 255})

	out := ToBGR(img)
	want := []byte{30, 20, 10, 60, 50, 40}
	if len(out) != len(want) {
		t.Fatalf("ToBGR returned %d bytes, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("byte %d = %d, want %d", i, out[i], want[i])
		}
	}
}
