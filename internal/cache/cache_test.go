package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func countJSON(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	n := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			n++
		}
	}
	return n
}

func TestCache_PutGet(t *testing.T) {
	c, err := New(true, t.TempDir(), 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	key := BuildKey("anthropic", "claude-sonnet-4-20250514", "analyze this")
	value := `[{"lineNumber":3,"severity":"critical","message":"eval"}]`

	if _, ok := c.Get(key); ok {
		t.Error("expected miss before put")
	}
	if err := c.Put(key, value); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if got != value {
		t.Errorf("Get = %q, want %q", got, value)
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	c, err := New(true, t.TempDir(), 1)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if err := c.Put("expire", "data"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if _, ok := c.Get("expire"); !ok {
		t.Error("expected hit before expiration")
	}

	time.Sleep(1100 * time.Millisecond)

	if _, ok := c.Get("expire"); ok {
		t.Error("expected miss after TTL expiration")
	}
}

func TestCache_Disabled(t *testing.T) {
	c, err := New(false, "", 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if c.Enabled() {
		t.Error("cache should be disabled")
	}
	if err := c.Put("key", "value"); err != nil {
		t.Errorf("Put on disabled cache should not error: %v", err)
	}
	if _, ok := c.Get("key"); ok {
		t.Error("Get on disabled cache should always miss")
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear on disabled cache should not error: %v", err)
	}
}

func TestCache_Clear(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := c.Put(string(rune('a'+i)), "data"); err != nil {
			t.Fatalf("Put error: %v", err)
		}
	}
	if got := countJSON(t, dir); got != 5 {
		t.Fatalf("entries before clear = %d, want 5", got)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if got := countJSON(t, dir); got != 0 {
		t.Errorf("entries after clear = %d, want 0", got)
	}
}

func TestCache_Stats(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Entries = %d, want 0", stats.Entries)
	}

	c.Put("key1", "value1")
	c.Put("key2", "value2")

	stats, err = c.Stats()
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
	if stats.TotalBytes <= 0 {
		t.Error("TotalBytes should be > 0")
	}
	if stats.Dir != dir {
		t.Errorf("Dir = %q, want %q", stats.Dir, dir)
	}
}

func TestBuildKey(t *testing.T) {
	k1 := BuildKey("anthropic", "claude-sonnet-4-20250514", "prompt")
	k2 := BuildKey("anthropic", "claude-sonnet-4-20250514", "prompt")
	k3 := BuildKey("openai", "gpt-4o", "prompt")
	k4 := BuildKey("anthropic", "claude-sonnet-4-20250514", "other prompt")

	if k1 != k2 {
		t.Error("same inputs should produce same key")
	}
	if k1 == k3 {
		t.Error("different provider should produce different key")
	}
	if k1 == k4 {
		t.Error("different prompt should produce different key")
	}
	if len(k1) != 64 {
		t.Errorf("key length = %d, want 64", len(k1))
	}
}
