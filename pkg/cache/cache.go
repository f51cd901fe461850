// Package cache stores generated text art and rendered artifacts.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: JSON entry files under a directory, for the CLI
//   - [RedisCache]: shared cache for API deployments
//
// # Keys
//
// A [Keyer] derives keys from content hashes and the options that affect the
// output, so identical requests share entries and any option change misses:
//
//	artKey := keyer.ArtKey(imageHash, cache.ArtKeyOpts{Width: 100, ...})
//	pngKey := keyer.ArtifactKey(artHash, cache.ArtifactKeyOpts{Format: "png"})
//
// Hashes are full SHA-256 hex digests; see [Hash].
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. Callers treat cache errors as misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Entry lifetimes.
const (
	// TTLArt covers generated rows. Output is a pure function of the key, so
	// the TTL only bounds disk and memory use.
	TTLArt = 7 * 24 * time.Hour

	// TTLArtifact covers rendered text, JSON and PNG.
	TTLArtifact = 7 * 24 * time.Hour
)

// ArtKeyOpts holds every option that changes generated rows.
type ArtKeyOpts struct {
	Width            int     `json:"width"`
	AspectCorrection float64 `json:"aspect"`
	MaxDimension     int     `json:"max_dimension"`
	Glyphs           string  `json:"glyphs"`
	Invert           bool    `json:"invert"`
	Filter           string  `json:"filter"`
	Luma             string  `json:"luma"`
	Alpha            string  `json:"alpha"`
}

// ArtifactKeyOpts holds every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format  string `json:"format"`
	Palette string `json:"palette,omitempty"`
	Invert  bool   `json:"invert,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	ArtKey(imageHash string, opts ArtKeyOpts) string
	ArtifactKey(artHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces "art:<sha256>" and "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtKey generates a key for generated text art.
func (DefaultKeyer) ArtKey(imageHash string, opts ArtKeyOpts) string {
	return hashKey("art", imageHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (DefaultKeyer) ArtifactKey(artHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", artHash, opts)
}
