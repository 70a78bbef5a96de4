// Package cache implements the on-disk frame cache (spec §4.3 / C4): a
// per-output "last image path" pointer used for session restore, and a
// content-addressed animation frame cache keyed by path, dimensions, pixel
// format, and a version stamp that lets stale entries from an older binary
// be evicted without tracking them individually.
package cache

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// version stamps every cached animation filename (spec §4.3: "a version
// token suffixes every cache filename; entries whose token doesn't match
// the running binary's version are reaped on next access"). It is bumped
// whenever the on-disk animation format changes incompatibly.
const version = "1"

// Dir returns the cache directory, creating it if necessary. It follows
// $XDG_CACHE_HOME/mural, falling back to $HOME/.cache/mural.
func Dir() (string, error) {
	var base string
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		base = filepath.Join(xdg, "mural")
	} else if home := os.Getenv("HOME"); home != "" {
		base = filepath.Join(home, ".cache", "mural")
	} else {
		return "", fmt.Errorf("cache: neither $XDG_CACHE_HOME nor $HOME is set")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("cache: create %s: %w", base, err)
	}
	return base, nil
}

// Store records imgPath as the most recently set wallpaper for outputName,
// so a future restart can reload it via Load.
func Store(outputName, imgPath string) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, outputName), []byte(imgPath), 0o644)
}

// PreviousImagePath returns the last image path stored for outputName, or
// "" if none was ever recorded. It also sweeps stale-versioned animation
// cache files while it's walking the directory, mirroring the original's
// "clean on read" policy.
func PreviousImagePath(outputName string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	cleanStaleVersions(dir)

	data, err := os.ReadFile(filepath.Join(dir, outputName))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("cache: read previous image path: %w", err)
	}
	return string(data), nil
}

// Load reloads the last wallpaper recorded for outputName by forking a
// `mural img --outputs=<output> --transition-type=none <path>` client
// process, refusing to do so if a mural client process is already running.
func Load(outputName string) error {
	imgPath, err := PreviousImagePath(outputName)
	if err != nil {
		return err
	}
	if imgPath == "" {
		return nil
	}

	if running, _ := clientAlreadyRunning(); running {
		return fmt.Errorf("cache: a mural client process is already running")
	}

	cmd := exec.Command("mural", "img",
		fmt.Sprintf("--outputs=%s", outputName),
		"--transition-type=none",
		imgPath,
	)
	return cmd.Run()
}

func clientAlreadyRunning() (bool, error) {
	if err := exec.Command("pidof", "mural").Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if exitErr.ExitCode() == 1 {
				return false, nil
			}
		}
		return false, err
	}
	return true, nil
}

// Clear deletes the entire cache directory (wired to `mural restore
// --clear-cache`).
func Clear() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// cleanStaleVersions removes animation cache files stamped with a version
// other than the running binary's. Only filenames produced by
// AnimationFilename carry a "_v" token, so plain per-output pointer files
// are left untouched.
func cleanStaleVersions(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		i := strings.LastIndex(name, "_v")
		if i < 0 {
			continue
		}
		if name[i+2:] != version {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
}

// AnimationFilename derives the content-addressed cache filename for an
// animation keyed by its source path, output dimensions, and pixel format.
// Path separators are flattened so the whole thing stays a single path
// component.
func AnimationFilename(path string, width, height int, format string) string {
	flat := strings.ReplaceAll(path, "/", "_")
	return fmt.Sprintf("%s__%dx%d_%s_v%s", flat, width, height, format, version)
}

// StoreAnimationFrames writes the serialized animation frame set for path
// to the cache, skipping the write if an entry already exists (animation
// content is immutable once cached; only eviction via cleanStaleVersions
// removes it).
func StoreAnimationFrames(data []byte, path string, width, height int, format string) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	full := filepath.Join(dir, AnimationFilename(path, width, height, format))
	if _, err := os.Stat(full); err == nil {
		return nil
	}
	return os.WriteFile(full, data, 0o644)
}

// LoadAnimationFrames reads back a previously cached animation, returning
// (nil, nil) if nothing is cached for this key.
func LoadAnimationFrames(path string, width, height int, format string) ([]byte, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	full := filepath.Join(dir, AnimationFilename(path, width, height, format))
	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: load animation frames: %w", err)
	}
	return data, nil
}

// parseVersion is exposed for tests asserting the stale-version sweep
// recognizes its own token format.
func parseVersion(filename string) (string, bool) {
	i := strings.LastIndex(filename, "_v")
	if i < 0 {
		return "", false
	}
	return filename[i+2:], true
}
