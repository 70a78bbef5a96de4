package cpufeature

import "testing"

func TestDetectIsStable(t *testing.T) {
	reset()
	first := Detect()
	second := Detect()
	if first != second {
		t.Fatalf("Detect() is not stable across calls: %v != %v", first, second)
	}
}

func TestDetectNeverPanics(t *testing.T) {
	reset()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Detect() panicked: %v", r)
		}
	}()
	_ = Detect()
}
