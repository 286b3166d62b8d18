// Package history persists shell command history across socos runs.
// Lines are grouped by REPL session and stored as JSON; the file is
// flock-guarded so two socos instances cannot corrupt it.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/SoCo/socos/internal/config"
)

// maxSessions bounds the file size; the oldest sessions fall off.
const maxSessions = 50

// Session is one REPL session's command lines.
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Lines     []string  `json:"lines"`
}

// Manager is the history interface the shell depends on.
type Manager interface {
	// Load reads the history from disk.
	Load() error

	// Save writes the history to disk.
	Save() error

	// StartSession registers a new session.
	StartSession(id string)

	// Append records a command line under a session.
	Append(id, line string)

	// Lines returns all recorded lines, oldest first, for prompt
	// prefill.
	Lines() []string
}

var _ Manager = (*History)(nil)

// History is the file-backed Manager implementation.
type History struct {
	path     string
	sessions []Session
}

// NewHistory creates a history manager at the default path
// (~/.config/socos/history.json).
func NewHistory() (*History, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return NewHistoryAt(filepath.Join(dir, "history.json")), nil
}

// NewHistoryAt creates a history manager backed by the given file.
func NewHistoryAt(path string) *History {
	return &History{path: path}
}

// readSessions reads and parses the history file. The caller holds the
// lock. A missing file is an empty history.
func readSessions(path string) ([]Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var sessions []Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return sessions, nil
}

// Load reads the history file. A missing file is an empty history.
func (h *History) Load() error {
	lock := flock.New(h.path + ".lock")
	if err := lock.RLock(); err != nil {
		return fmt.Errorf("lock history: %w", err)
	}
	defer lock.Unlock()

	sessions, err := readSessions(h.path)
	if err != nil {
		return err
	}
	h.sessions = sessions
	return nil
}

// Save writes the history file, dropping empty sessions and trimming to
// the newest maxSessions. Sessions another socos instance saved since
// this one loaded are merged in, not overwritten; for a session ID both
// instances know, the in-memory copy wins.
func (h *History) Save() error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	lock := flock.New(h.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock history: %w", err)
	}
	defer lock.Unlock()

	onDisk, err := readSessions(h.path)
	if err != nil {
		// An unreadable file cannot be merged; the in-memory state
		// replaces it.
		onDisk = nil
	}

	ours := make(map[string]Session, len(h.sessions))
	for _, s := range h.sessions {
		ours[s.ID] = s
	}
	merged := make([]Session, 0, len(onDisk)+len(h.sessions))
	for _, s := range onDisk {
		if _, known := ours[s.ID]; !known {
			merged = append(merged, s)
		}
	}
	merged = append(merged, h.sessions...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].UpdatedAt.Before(merged[j].UpdatedAt)
	})

	kept := make([]Session, 0, len(merged))
	for _, s := range merged {
		if len(s.Lines) > 0 {
			kept = append(kept, s)
		}
	}
	if len(kept) > maxSessions {
		kept = kept[len(kept)-maxSessions:]
	}

	data, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0o600); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// StartSession registers a new, empty session.
func (h *History) StartSession(id string) {
	now := time.Now()
	h.sessions = append(h.sessions, Session{
		ID:        id,
		StartedAt: now,
		UpdatedAt: now,
	})
}

// Append records a line under the given session. Unknown session IDs
// are registered on the fly.
func (h *History) Append(id, line string) {
	for i := range h.sessions {
		if h.sessions[i].ID == id {
			h.sessions[i].Lines = append(h.sessions[i].Lines, line)
			h.sessions[i].UpdatedAt = time.Now()
			return
		}
	}
	h.StartSession(id)
	h.Append(id, line)
}

// Lines returns every recorded line, oldest session first.
func (h *History) Lines() []string {
	var lines []string
	for _, s := range h.sessions {
		lines = append(lines, s.Lines...)
	}
	return lines
}
