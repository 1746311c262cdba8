package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestDiskCache_RoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	key := EmbeddingKey("nomic-embed-text", "Dantes was imprisoned")

	if _, found := c.Get(key); found {
		t.Fatal("expected miss on empty cache")
	}
	if err := c.Set(key, []byte{1, 2, 3}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, found := c.Get(key)
	if !found {
		t.Fatal("expected hit after set")
	}
	if !bytes.Equal(val, []byte{1, 2, 3}) {
		t.Errorf("expected stored bytes back, got %v", val)
	}
}

func TestDiskCache_ExpiredRecordIsMiss(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	key := EmbeddingKey("nomic-embed-text", "stale")

	if err := c.Set(key, []byte("vec"), -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("expected expired record to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	key := EmbeddingKey("nomic-embed-text", "promoted")

	disk := NewDiskCache(dir, time.Minute)
	if err := disk.Set(key, []byte("vec"), 0); err != nil {
		t.Fatalf("seed disk: %v", err)
	}

	l := NewLayeredCache(time.Minute, dir, time.Minute)
	val, found := l.Get(key)
	if !found || !bytes.Equal(val, []byte("vec")) {
		t.Fatalf("expected cold hit, got found=%v val=%v", found, val)
	}

	// Drop the disk copy; the promoted entry must still serve from memory.
	if err := disk.Delete(key); err != nil {
		t.Fatalf("delete disk copy: %v", err)
	}
	if _, found := l.Get(key); !found {
		t.Error("expected promoted entry to hit the memory layer")
	}
}

func TestEmbeddingKey_VariesByModel(t *testing.T) {
	a := EmbeddingKey("nomic-embed-text", "same text")
	b := EmbeddingKey("all-minilm", "same text")
	if a == b {
		t.Error("keys must differ across embedding models")
	}
}
