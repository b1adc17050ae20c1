package gencache_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ember/internal/gencache"
)

func TestFingerprintIsLengthDelimited(t *testing.T) {
	a := gencache.Fingerprint("ab", "c")
	b := gencache.Fingerprint("a", "bc")
	if a == b {
		t.Fatalf("expected distinct digests for (ab,c) and (a,bc)")
	}
	if a != gencache.Fingerprint("ab", "c") {
		t.Fatalf("expected digest to be deterministic")
	}
	if a.IsZero() {
		t.Fatalf("expected non-zero digest")
	}
}

func TestPutGetRoundtrip(t *testing.T) {
	c, err := gencache.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := gencache.Fingerprint("demo", "x86_64-linux-gnu")
	in := &gencache.Artifact{
		Module: "demo",
		Triple: "x86_64-linux-gnu",
		Text:   "define void @main() {\n}\n",
		Funcs:  3,
	}
	if err := c.Put(key, in); err != nil {
		t.Fatalf("put: %v", err)
	}
	out, err := c.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Module != "demo" || out.Triple != "x86_64-linux-gnu" {
		t.Fatalf("expected identity to roundtrip, got %q %q", out.Module, out.Triple)
	}
	if out.Text != in.Text || out.Funcs != 3 {
		t.Fatalf("expected payload to roundtrip, got %q funcs=%d", out.Text, out.Funcs)
	}
	if out.Schema != gencache.SchemaVersion {
		t.Fatalf("expected schema %d, got %d", gencache.SchemaVersion, out.Schema)
	}
}

func TestGetMissesOnAbsentKey(t *testing.T) {
	c, err := gencache.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := c.Get(gencache.Fingerprint("nobody")); !errors.Is(err, gencache.ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestCorruptEntryReadsAsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := gencache.Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := gencache.Fingerprint("demo")
	if err := c.Put(key, &gencache.Artifact{Module: "demo"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	p := filepath.Join(dir, "gen", key.String()+".mp")
	if err := os.WriteFile(p, []byte("not msgpack"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if _, err := c.Get(key); !errors.Is(err, gencache.ErrMiss) {
		t.Fatalf("expected ErrMiss for corrupt entry, got %v", err)
	}
}

func TestDropClearsEverything(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := gencache.Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := gencache.Fingerprint("demo")
	if err := c.Put(key, &gencache.Artifact{Module: "demo"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.Drop(); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected cache dir to be gone, got %v", err)
	}
}

func TestNilCacheIsInert(t *testing.T) {
	var c *gencache.Cache
	if err := c.Put(gencache.Fingerprint("x"), &gencache.Artifact{}); err != nil {
		t.Fatalf("nil put: %v", err)
	}
	if _, err := c.Get(gencache.Fingerprint("x")); !errors.Is(err, gencache.ErrMiss) {
		t.Fatalf("expected ErrMiss from nil cache, got %v", err)
	}
	if err := c.Drop(); err != nil {
		t.Fatalf("nil drop: %v", err)
	}
}
