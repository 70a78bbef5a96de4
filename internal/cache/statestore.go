package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// StateStore is a small embedded-SQLite index of (output, wallpaper-state)
// pairs, supplementing — not replacing — the file-based cache above. The
// file cache is the authority spec §4.3 mandates for restore-on-start; this
// store is a recovery index (current path, size, format, last transition)
// that murald upserts after each Clear/Img it applies. The daemon's Query
// handler does not read it; it answers from the live wallpapers.
type StateStore struct {
	db *sql.DB
	mu sync.Mutex
}

const stateSchema = `
CREATE TABLE IF NOT EXISTS output_state (
	output          TEXT PRIMARY KEY,
	image_path      TEXT NOT NULL,
	width           INTEGER NOT NULL,
	height          INTEGER NOT NULL,
	pixel_format    TEXT NOT NULL,
	transition_type TEXT NOT NULL,
	updated_at      INTEGER NOT NULL
);
`

// OpenStateStore opens (creating if necessary) the sqlite database at
// dbPath, typically <cache.Dir()>/state.db.
func OpenStateStore(dbPath string) (*StateStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("cache: create state store directory: %w", err)
	}

	dsn := dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cache: open state store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: ping state store: %w", err)
	}
	if _, err := db.Exec(stateSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create state store schema: %w", err)
	}
	return &StateStore{db: db}, nil
}

// OutputState is one row of recovery-index state for a single output.
type OutputState struct {
	Output         string
	ImagePath      string
	Width, Height  int
	PixelFormat    string
	TransitionType string
	UpdatedAtUnix  int64
}

// Upsert records (or replaces) the current state for an output.
func (s *StateStore) Upsert(st OutputState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO output_state (output, image_path, width, height, pixel_format, transition_type, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(output) DO UPDATE SET
			image_path=excluded.image_path,
			width=excluded.width,
			height=excluded.height,
			pixel_format=excluded.pixel_format,
			transition_type=excluded.transition_type,
			updated_at=excluded.updated_at
	`, st.Output, st.ImagePath, st.Width, st.Height, st.PixelFormat, st.TransitionType, st.UpdatedAtUnix)
	if err != nil {
		return fmt.Errorf("cache: upsert output state: %w", err)
	}
	return nil
}

// Get returns the recorded state for output, and false if none exists.
func (s *StateStore) Get(output string) (OutputState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRow(`
		SELECT output, image_path, width, height, pixel_format, transition_type, updated_at
		FROM output_state WHERE output = ?
	`, output)
	var st OutputState
	if err := row.Scan(&st.Output, &st.ImagePath, &st.Width, &st.Height, &st.PixelFormat, &st.TransitionType, &st.UpdatedAtUnix); err != nil {
		if err == sql.ErrNoRows {
			return OutputState{}, false, nil
		}
		return OutputState{}, false, fmt.Errorf("cache: get output state: %w", err)
	}
	return st, true, nil
}

// All returns every recorded output's state, ordered by output name.
func (s *StateStore) All() ([]OutputState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`
		SELECT output, image_path, width, height, pixel_format, transition_type, updated_at
		FROM output_state ORDER BY output
	`)
	if err != nil {
		return nil, fmt.Errorf("cache: list output state: %w", err)
	}
	defer rows.Close()

	var out []OutputState
	for rows.Next() {
		var st OutputState
		if err := rows.Scan(&st.Output, &st.ImagePath, &st.Width, &st.Height, &st.PixelFormat, &st.TransitionType, &st.UpdatedAtUnix); err != nil {
			return nil, fmt.Errorf("cache: scan output state: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Remove drops the recorded state for output, e.g. when it's disconnected.
func (s *StateStore) Remove(output string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM output_state WHERE output = ?`, output)
	if err != nil {
		return fmt.Errorf("cache: remove output state: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *StateStore) Close() error {
	return s.db.Close()
}
