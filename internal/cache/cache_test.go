package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/patchdiff/internal/violation"
)

func sample() violation.Collection {
	b := violation.NewBuilder()
	b.Touch("clean/File.java")
	b.AddAll([]violation.Record{
		{FilePath: "src/A.java", Line: 12, Column: 5, RuleID: "LineLength", Severity: violation.SeverityWarning, Message: "Line is longer than 100 characters"},
		{FilePath: "src/A.java", Line: 3, RuleID: "MagicNumber", Severity: violation.SeverityError, Message: "'42' is a magic number"},
	})
	return b.Build()
}

func countEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	n := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) == entryExt {
			n++
		}
	}
	return n
}

func TestCache_PutGet(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	key := "test-key"

	// Miss before put
	if _, ok := c.Get(key); ok {
		t.Error("Expected cache miss before put")
	}

	if err := c.Put(key, sample()); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Expected cache hit after put")
	}
	if got.Count() != 2 {
		t.Errorf("Count = %d, want 2", got.Count())
	}
	if _, ok := got["clean/File.java"]; !ok {
		t.Error("files without violations should survive the round trip")
	}
	first := got["src/A.java"].Records[0]
	if first.Line != 3 || first.RuleID != "MagicNumber" {
		t.Errorf("first record = %+v, want line 3 MagicNumber", first)
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 1) // 1 second TTL
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	key := "expire-test"
	if err := c.Put(key, sample()); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	if _, ok := c.Get(key); !ok {
		t.Error("Expected cache hit before expiration")
	}

	time.Sleep(1100 * time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Error("Expected cache miss after TTL expiration")
	}
	if n := countEntries(t, dir); n != 0 {
		t.Errorf("expired entry should be removed on read, %d left", n)
	}
}

func TestCache_Disabled(t *testing.T) {
	c, err := New(false, "", 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if c.Enabled() {
		t.Error("Cache should be disabled")
	}

	if err := c.Put("key", sample()); err != nil {
		t.Errorf("Put on disabled cache should not error: %v", err)
	}
	if _, ok := c.Get("key"); ok {
		t.Error("Get on disabled cache should always miss")
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear on disabled cache should not error: %v", err)
	}

	var nilCache *Cache
	if _, ok := nilCache.Get("key"); ok {
		t.Error("nil cache should miss")
	}
}

func TestCache_Clear(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for i := 0; i < 5; i++ {
		key := string(rune('a' + i))
		if err := c.Put(key, sample()); err != nil {
			t.Fatalf("Put error: %v", err)
		}
	}
	if n := countEntries(t, dir); n != 5 {
		t.Fatalf("Expected 5 cache entries, got %d", n)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n := countEntries(t, dir); n != 0 {
		t.Errorf("Expected 0 cache entries after clear, got %d", n)
	}
}

func TestCache_CorruptEntryMisses(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := os.WriteFile(c.entryPath("bad"), []byte("not msgpack"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("corrupt entry should miss")
	}
}

func TestCache_GetStats(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats error: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Entries = %d, want 0", stats.Entries)
	}

	c.Put("key1", sample())
	c.Put("key2", sample())

	stats, err = c.GetStats()
	if err != nil {
		t.Fatalf("GetStats error: %v", err)
	}
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
	if stats.Records != 4 {
		t.Errorf("Records = %d, want 4", stats.Records)
	}
	if stats.TotalBytes <= 0 {
		t.Error("TotalBytes should be > 0")
	}
	if stats.Dir != dir {
		t.Errorf("Dir = %q, want %q", stats.Dir, dir)
	}
}

func TestHashKey(t *testing.T) {
	h1 := HashKey("test")
	h2 := HashKey("test")
	h3 := HashKey("other")

	if h1 != h2 {
		t.Error("Same input should produce same hash")
	}
	if h1 == h3 {
		t.Error("Different input should produce different hash")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestBuildCacheKey(t *testing.T) {
	k1 := BuildCacheKey("checkstyle", "/src", "abc")
	k2 := BuildCacheKey("checkstyle", "/src", "abc")
	k3 := BuildCacheKey("checkstyle", "", "abc")

	if k1 != k2 {
		t.Error("Same inputs should produce same cache key")
	}
	if k1 == k3 {
		t.Error("Different source root should produce different cache key")
	}
}

func TestDigestReader(t *testing.T) {
	d1, err := DigestReader(strings.NewReader("<checkstyle/>"))
	if err != nil {
		t.Fatal(err)
	}
	d2, _ := DigestReader(strings.NewReader("<checkstyle/>"))
	if d1 != d2 || len(d1) != 64 {
		t.Errorf("digests %q %q", d1, d2)
	}
}
