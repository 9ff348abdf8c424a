// Package cache stores rendered artifacts between runs.
//
// Turning a scope's DOT text into SVG is the slowest step of a render and
// depends on nothing but that text, so its output is cached under a hash
// of the DOT. Keys come from a [Keyer]; [ScopedKeyer] prefixes them so that
// binaries of different versions never share entries.
//
// Two backends exist:
//   - [FileCache] keeps entries as files under a directory, for the CLI
//   - [NullCache] stores nothing, for tests and --no-cache
//
// # Usage
//
//	c, err := cache.NewFileCache(dir)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	key := cache.NewDefaultKeyer().ArtifactKey("svg", cache.Hash([]byte(dot)))
//	if svg, ok, _ := c.Get(ctx, key); ok {
//	    return svg, nil
//	}
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long artifacts stay valid.
const DefaultTTL = 30 * 24 * time.Hour

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. ok is false on a miss or an expired
	// entry; err is reserved for backend failures.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey returns the key of an artifact in format rendered from
	// content whose [Hash] is contentHash.
	ArtifactKey(format, contentHash string) string
}

// DefaultKeyer builds unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(format, contentHash string) string {
	return hashKey("artifact:"+format, contentHash)
}
