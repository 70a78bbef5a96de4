package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func withTempCacheHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)
	return dir
}

func TestStoreAndPreviousImagePath(t *testing.T) {
	withTempCacheHome(t)

	if err := Store("DP-1", "/home/user/wallpapers/beach.png"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, err := PreviousImagePath("DP-1")
	if err != nil {
		t.Fatalf("PreviousImagePath: %v", err)
	}
	if got != "/home/user/wallpapers/beach.png" {
		t.Fatalf("PreviousImagePath = %q, want the stored path", got)
	}
}

func TestPreviousImagePathEmptyWhenUnset(t *testing.T) {
	withTempCacheHome(t)
	got, err := PreviousImagePath("DP-2")
	if err != nil {
		t.Fatalf("PreviousImagePath: %v", err)
	}
	if got != "" {
		t.Fatalf("PreviousImagePath = %q, want empty", got)
	}
}

func TestAnimationFilenameFlattensSlashes(t *testing.T) {
	name := AnimationFilename("/home/user/gifs/rain.gif", 1920, 1080, "Xrgb")
	if filepath.Base(name) != name {
		t.Fatalf("AnimationFilename produced a path with separators: %q", name)
	}
	version, ok := parseVersion(name)
	if !ok || version != "1" {
		t.Fatalf("parseVersion(%q) = (%q, %v), want (1, true)", name, version, ok)
	}
}

func TestStoreAndLoadAnimationFrames(t *testing.T) {
	withTempCacheHome(t)
	data := []byte{1, 2, 3, 4, 5}

	if err := StoreAnimationFrames(data, "/tmp/a.gif", 4, 4, "Bgr"); err != nil {
		t.Fatalf("StoreAnimationFrames: %v", err)
	}
	got, err := LoadAnimationFrames("/tmp/a.gif", 4, 4, "Bgr")
	if err != nil {
		t.Fatalf("LoadAnimationFrames: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("LoadAnimationFrames = %v, want %v", got, data)
	}
}

func TestLoadAnimationFramesMissingReturnsNilNil(t *testing.T) {
	withTempCacheHome(t)
	got, err := LoadAnimationFrames("/tmp/missing.gif", 4, 4, "Bgr")
	if err != nil {
		t.Fatalf("LoadAnimationFrames: %v", err)
	}
	if got != nil {
		t.Fatalf("LoadAnimationFrames = %v, want nil", got)
	}
}

func TestCleanStaleVersionsRemovesOldEntriesOnly(t *testing.T) {
	dir := withTempCacheHome(t)
	cacheDir, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if cacheDir != filepath.Join(dir, "mural") {
		t.Fatalf("Dir() = %q, want %q", cacheDir, filepath.Join(dir, "mural"))
	}

	current := filepath.Join(cacheDir, AnimationFilename("/a.gif", 1, 1, "Bgr"))
	stale := filepath.Join(cacheDir, "_a.gif__1x1_Bgr_v0")
	pointerFile := filepath.Join(cacheDir, "DP-1")

	for _, f := range []string{current, stale, pointerFile} {
		if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatalf("seed %s: %v", f, err)
		}
	}

	if _, err := PreviousImagePath("DP-1"); err != nil {
		t.Fatalf("PreviousImagePath: %v", err)
	}

	if _, err := os.Stat(current); err != nil {
		t.Fatalf("current-version entry was removed: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale-version entry was not removed")
	}
	if _, err := os.Stat(pointerFile); err != nil {
		t.Fatalf("plain pointer file was removed: %v", err)
	}
}

func TestClearRemovesCacheDir(t *testing.T) {
	dir := withTempCacheHome(t)
	if err := Store("DP-1", "/x.png"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "mural")); !os.IsNotExist(err) {
		t.Fatalf("Clear did not remove the cache directory")
	}
}
