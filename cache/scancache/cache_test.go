package scancache

import (
	"testing"
	"time"
)

func TestCacheStoreAndLookupRoundTrip(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	mt := time.Unix(1700000000, 0)
	entries := []Entry{
		{RelPath: "a/b.txt", Name: "b.txt", Size: 12},
		{RelPath: "a", Name: "a", IsDir: true},
	}

	if err := c.Store("/archives/foo.gcf", mt, 4096, entries); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, ok := c.Lookup("/archives/foo.gcf", mt, 4096)
	if !ok {
		t.Fatalf("Lookup: expected hit")
	}
	if len(got) != 2 || got[0].RelPath != "a/b.txt" {
		t.Fatalf("Lookup returned %+v", got)
	}
}

func TestCacheLookupMissesOnFingerprintChange(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	mt := time.Unix(1700000000, 0)
	if err := c.Store("/archives/foo.zip", mt, 100, []Entry{{RelPath: "x", Name: "x"}}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if _, ok := c.Lookup("/archives/foo.zip", mt, 200); ok {
		t.Fatalf("Lookup: expected miss on size mismatch")
	}
	if _, ok := c.Lookup("/archives/foo.zip", mt.Add(time.Hour), 100); ok {
		t.Fatalf("Lookup: expected miss on modtime mismatch")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	mt := time.Unix(1700000000, 0)
	if err := c.Store("/archives/foo.gcf", mt, 4096, []Entry{{RelPath: "x", Name: "x"}}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := c.Invalidate("/archives/foo.gcf"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := c.Lookup("/archives/foo.gcf", mt, 4096); ok {
		t.Fatalf("Lookup: expected miss after invalidate")
	}
}
