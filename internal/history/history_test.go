package history

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func tempHistory(t *testing.T) *History {
	t.Helper()
	return NewHistoryAt(filepath.Join(t.TempDir(), "history.json"))
}

func TestLoad_MissingFile(t *testing.T) {
	h := tempHistory(t)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(h.Lines()) != 0 {
		t.Errorf("Lines() = %v, want empty", h.Lines())
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	h := tempHistory(t)
	h.StartSession("s1")
	h.Append("s1", "list")
	h.Append("s1", "set 1")
	h.StartSession("s2")
	h.Append("s2", "volume +10")

	if err := h.Save(); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	reloaded := NewHistoryAt(h.path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	want := []string{"list", "set 1", "volume +10"}
	if !reflect.DeepEqual(reloaded.Lines(), want) {
		t.Errorf("Lines() = %v, want %v", reloaded.Lines(), want)
	}
}

func TestSave_DropsEmptySessions(t *testing.T) {
	h := tempHistory(t)
	h.StartSession("empty")
	h.StartSession("used")
	h.Append("used", "queue")

	if err := h.Save(); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	reloaded := NewHistoryAt(h.path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(reloaded.sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(reloaded.sessions))
	}
	if reloaded.sessions[0].ID != "used" {
		t.Errorf("session ID = %q, want used", reloaded.sessions[0].ID)
	}
}

func TestSave_TrimsOldSessions(t *testing.T) {
	h := tempHistory(t)
	for i := 0; i < maxSessions+10; i++ {
		id := string(rune('a' + i%26))
		h.sessions = append(h.sessions, Session{ID: id, Lines: []string{"play"}})
	}

	if err := h.Save(); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	reloaded := NewHistoryAt(h.path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(reloaded.sessions) != maxSessions {
		t.Errorf("got %d sessions, want %d", len(reloaded.sessions), maxSessions)
	}
}

func TestAppend_UnknownSession(t *testing.T) {
	h := tempHistory(t)
	h.Append("fresh", "list")
	if got := h.Lines(); len(got) != 1 || got[0] != "list" {
		t.Errorf("Lines() = %v, want [list]", got)
	}
}

func TestSave_MergesConcurrentSessions(t *testing.T) {
	h1 := tempHistory(t)
	h2 := NewHistoryAt(h1.path)

	// Two instances start from the same (empty) file.
	if err := h1.Load(); err != nil {
		t.Fatal(err)
	}
	if err := h2.Load(); err != nil {
		t.Fatal(err)
	}

	h1.Append("one", "list")
	if err := h1.Save(); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	// The second instance saves without having seen the first's write.
	h2.Append("two", "queue")
	if err := h2.Save(); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	reloaded := NewHistoryAt(h1.path)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	want := []string{"list", "queue"}
	if !reflect.DeepEqual(reloaded.Lines(), want) {
		t.Errorf("Lines() = %v, want %v", reloaded.Lines(), want)
	}
}

func TestSave_OwnSessionWinsOnMerge(t *testing.T) {
	h := tempHistory(t)
	h.Append("s1", "list")
	if err := h.Save(); err != nil {
		t.Fatal(err)
	}

	// Saving again after more lines must not duplicate the session.
	h.Append("s1", "play")
	if err := h.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded := NewHistoryAt(h.path)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if len(reloaded.sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(reloaded.sessions))
	}
	want := []string{"list", "play"}
	if !reflect.DeepEqual(reloaded.Lines(), want) {
		t.Errorf("Lines() = %v, want %v", reloaded.Lines(), want)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	h := tempHistory(t)
	if err := os.WriteFile(h.path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := h.Load(); err == nil {
		t.Fatal("Load() expected error for corrupt history")
	}
}
