package cache

import (
	"errors"
	"testing"
	"time"
)

func openTest(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestContentRoundTrip(t *testing.T) {
	c := openTest(t)
	key := GenerateKey("screenshot", "shots/a.png")

	if _, err := c.GetContent(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetContent before set: err = %v, want ErrNotFound", err)
	}

	if err := c.SetContent(key, []byte{1, 2, 3}, "image/png"); err != nil {
		t.Fatalf("SetContent: %v", err)
	}

	e, err := c.GetContent(key)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if e.MIME != "image/png" || len(e.Data) != 3 {
		t.Errorf("entry = %+v", e)
	}
	if e.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestGenerateKeyDistinguishesKinds(t *testing.T) {
	a := GenerateKey("screenshot", "x/1")
	b := GenerateKey("clipboard", "x/1")
	if a == b {
		t.Error("keys for different kinds collide")
	}
	if a != GenerateKey("screenshot", "x/1") {
		t.Error("key generation not deterministic")
	}
}

func TestRawKeysAndDelete(t *testing.T) {
	c := openTest(t)

	if err := c.Set("training/1", []byte("a")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("training/2", []byte("b")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("other/1", []byte("c")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	keys, err := c.Keys("training/")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("keys = %v, want 2 entries", keys)
	}

	if err := c.Delete("training/1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get("training/1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
	}
	if got, err := c.Get("training/2"); err != nil || string(got) != "b" {
		t.Errorf("Get training/2 = %q, %v", got, err)
	}
}
