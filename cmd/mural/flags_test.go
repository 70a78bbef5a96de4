package main

import (
	"testing"

	"github.com/muralwl/mural/internal/ipc"
)

func TestSplitOutputs(t *testing.T) {
	cases := map[string][]string{
		"":                nil,
		"eDP-1":           {"eDP-1"},
		"eDP-1,HDMI-A-1":  {"eDP-1", "HDMI-A-1"},
		" eDP-1 , HDMI-1": {"eDP-1", "HDMI-1"},
	}
	for in, want := range cases {
		got := splitOutputs(in)
		if len(got) != len(want) {
			t.Fatalf("splitOutputs(%q) = %v, want %v", in, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("splitOutputs(%q)[%d] = %q, want %q", in, i, got[i], want[i])
			}
		}
	}
}

func TestParseRGBHex(t *testing.T) {
	c, err := parseRGB("ff8000")
	if err != nil {
		t.Fatalf("parseRGB: %v", err)
	}
	if c != [3]byte{0xff, 0x80, 0x00} {
		t.Errorf("parseRGB(\"ff8000\") = %v, want {255 128 0}", c)
	}

	if _, err := parseRGB("#ff8000"); err != nil {
		t.Errorf("parseRGB with leading # should be accepted: %v", err)
	}

	if _, err := parseRGB("nothex"); err == nil {
		t.Errorf("parseRGB(\"nothex\") should have failed")
	}
}

func TestParseRGBDecimal(t *testing.T) {
	c, err := parseRGB("255,128,0")
	if err != nil {
		t.Fatalf("parseRGB: %v", err)
	}
	if c != [3]byte{255, 128, 0} {
		t.Errorf("parseRGB(\"255,128,0\") = %v, want {255 128 0}", c)
	}

	if _, err := parseRGB("255,999,0"); err == nil {
		t.Errorf("parseRGB with out-of-range component should have failed")
	}
}

func TestParseCoord(t *testing.T) {
	pct, err := parseCoord("50%")
	if err != nil {
		t.Fatalf("parseCoord: %v", err)
	}
	if pct.Kind != ipc.CoordPercent || pct.Value != 0.5 {
		t.Errorf("parseCoord(\"50%%\") = %+v, want {CoordPercent 0.5}", pct)
	}

	px, err := parseCoord("128")
	if err != nil {
		t.Fatalf("parseCoord: %v", err)
	}
	if px.Kind != ipc.CoordPixel || px.Value != 128 {
		t.Errorf("parseCoord(\"128\") = %+v, want {CoordPixel 128}", px)
	}
}

func TestParsePos(t *testing.T) {
	pos, err := parsePos("50%,25")
	if err != nil {
		t.Fatalf("parsePos: %v", err)
	}
	if pos.X.Kind != ipc.CoordPercent || pos.X.Value != 0.5 {
		t.Errorf("parsePos X = %+v", pos.X)
	}
	if pos.Y.Kind != ipc.CoordPixel || pos.Y.Value != 25 {
		t.Errorf("parsePos Y = %+v", pos.Y)
	}

	if _, err := parsePos("50%"); err == nil {
		t.Errorf("parsePos with one component should have failed")
	}
}

func TestParseBezier(t *testing.T) {
	b, err := parseBezier("0.25,0.1,0.25,1")
	if err != nil {
		t.Fatalf("parseBezier: %v", err)
	}
	if b[0].X != 0.25 || b[0].Y != 0.1 || b[1].X != 0.25 || b[1].Y != 1 {
		t.Errorf("parseBezier = %+v", b)
	}

	if _, err := parseBezier("0.25,0.1,0.25"); err == nil {
		t.Errorf("parseBezier with 3 components should have failed")
	}
}

func TestParseTransitionType(t *testing.T) {
	cases := map[string]ipc.TransitionType{
		"":       ipc.TransitionSimple,
		"simple": ipc.TransitionSimple,
		"fade":   ipc.TransitionFade,
		"wipe":   ipc.TransitionWipe,
		"none":   ipc.TransitionNone,
	}
	for in, want := range cases {
		got, err := parseTransitionType(in)
		if err != nil {
			t.Fatalf("parseTransitionType(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("parseTransitionType(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := parseTransitionType("bogus"); err == nil {
		t.Errorf("parseTransitionType(\"bogus\") should have failed")
	}
}
