package render

import (
	"bytes"
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(time.Minute)

	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	c.Put(42, payload)

	got, ok := c.Get(42)
	if !ok {
		t.Fatal("Get after Put missed")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Get = %x, want %x", got, payload)
	}
}

func TestCacheMiss(t *testing.T) {
	c := NewCache(time.Minute)
	if _, ok := c.Get(7); ok {
		t.Error("Get on empty cache should miss")
	}
	if c.Touch(7) {
		t.Error("Touch on absent entry should report false")
	}
}

func TestCacheSweepEvictsExpired(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	c.Put(1, []byte{1})
	c.Put(2, []byte{2})

	if n := c.Sweep(time.Now()); n != 0 {
		t.Errorf("early sweep evicted %d, want 0", n)
	}

	if n := c.Sweep(time.Now().Add(time.Second)); n != 2 {
		t.Errorf("late sweep evicted %d, want 2", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len after sweep = %d, want 0", c.Len())
	}
}

func TestCacheAccessRefreshesExpiry(t *testing.T) {
	c := NewCache(time.Minute)
	c.Put(1, []byte{1})

	// simulate an access just before a sweep that would otherwise evict
	cutoff := time.Now().Add(30 * time.Second)
	if !c.Touch(1) {
		t.Fatal("Touch missed a live entry")
	}
	if n := c.Sweep(cutoff); n != 0 {
		t.Errorf("sweep evicted a freshly touched entry")
	}
}
