// Package gencache stores emitted artifacts on disk so unchanged
// modules skip translation entirely. Entries are msgpack-encoded,
// keyed by a sha256 fingerprint of the module's identity, target and
// generation options, and carry a schema version so format changes
// invalidate cleanly.
package gencache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion invalidates every stored artifact when bumped.
const SchemaVersion uint16 = 1

// ErrMiss reports that no usable entry exists for a key.
var ErrMiss = errors.New("gencache: miss")

// Digest is a sha256 cache key.
type Digest [sha256.Size]byte

// IsZero reports whether d is the all-zero digest.
func (d Digest) IsZero() bool {
	var z Digest
	return d == z
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Fingerprint hashes the identity parts into a cache key. Parts are
// length-delimited so ("ab","c") and ("a","bc") cannot collide.
func Fingerprint(parts ...string) Digest {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write([]byte(p))
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Artifact is one cached generation result.
type Artifact struct {
	Schema  uint16
	Module  string
	Triple  string
	Text    string // emitted output
	Funcs   int
	Globals int
	Created time.Time
}

// Cache is a directory of msgpack artifacts. Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open prepares a cache rooted at dir, creating it if needed.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Join(dir, "gen"), 0o755); err != nil {
		return nil, fmt.Errorf("gencache: open: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// DefaultDir resolves the conventional per-user cache location.
func DefaultDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "gen", key.String()+".mp")
}

// Put writes the artifact atomically: encode to a temp file, then
// rename over the final path.
func (c *Cache) Put(key Digest, art *Artifact) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	art.Schema = SchemaVersion
	p := c.pathFor(key)
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return fmt.Errorf("gencache: put: %w", err)
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(art); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("gencache: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("gencache: put: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("gencache: put: %w", err)
	}
	return nil
}

// Get loads the artifact for key. Missing entries, undecodable entries
// and schema mismatches all come back as ErrMiss: the caller
// regenerates in every one of those cases.
func (c *Cache) Get(key Digest) (*Artifact, error) {
	if c == nil {
		return nil, ErrMiss
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("gencache: get: %w", err)
	}
	defer f.Close()

	var art Artifact
	if err := msgpack.NewDecoder(f).Decode(&art); err != nil {
		return nil, ErrMiss
	}
	if art.Schema != SchemaVersion {
		return nil, ErrMiss
	}
	return &art, nil
}

// Drop discards the whole cache directory.
func (c *Cache) Drop() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
