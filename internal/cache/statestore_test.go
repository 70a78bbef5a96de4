package cache

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *StateStore {
	t.Helper()
	dir := t.TempDir()
	s, err := OpenStateStore(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("OpenStateStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStateStoreUpsertAndGet(t *testing.T) {
	s := openTestStore(t)

	st := OutputState{
		Output:         "DP-1",
		ImagePath:      "/a.png",
		Width:          1920,
		Height:         1080,
		PixelFormat:    "Xrgb",
		TransitionType: "fade",
		UpdatedAtUnix:  1000,
	}
	if err := s.Upsert(st); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, ok, err := s.Get("DP-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("Get: not found")
	}
	if got != st {
		t.Fatalf("Get = %+v, want %+v", got, st)
	}
}

func TestStateStoreGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Get("DP-missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("Get: expected not found")
	}
}

func TestStateStoreUpsertReplaces(t *testing.T) {
	s := openTestStore(t)
	base := OutputState{Output: "DP-1", ImagePath: "/a.png", Width: 1, Height: 1, PixelFormat: "Bgr", TransitionType: "none", UpdatedAtUnix: 1}
	if err := s.Upsert(base); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	updated := base
	updated.ImagePath = "/b.png"
	updated.UpdatedAtUnix = 2
	if err := s.Upsert(updated); err != nil {
		t.Fatalf("Upsert (replace): %v", err)
	}

	got, _, err := s.Get("DP-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ImagePath != "/b.png" || got.UpdatedAtUnix != 2 {
		t.Fatalf("Get after replace = %+v, want image /b.png updated 2", got)
	}
}

func TestStateStoreAllAndRemove(t *testing.T) {
	s := openTestStore(t)
	for _, out := range []string{"DP-2", "DP-1"} {
		if err := s.Upsert(OutputState{Output: out, ImagePath: "/x.png", Width: 1, Height: 1, PixelFormat: "Bgr", TransitionType: "none", UpdatedAtUnix: 1}); err != nil {
			t.Fatalf("Upsert(%s): %v", out, err)
		}
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 || all[0].Output != "DP-1" || all[1].Output != "DP-2" {
		t.Fatalf("All = %+v, want DP-1 then DP-2", all)
	}

	if err := s.Remove("DP-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	all, err = s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 || all[0].Output != "DP-2" {
		t.Fatalf("All after Remove = %+v, want only DP-2", all)
	}
}
