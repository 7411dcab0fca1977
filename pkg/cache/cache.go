// Package cache provides the byte-level caching layer shared by the CLI,
// the HTTP API and the data-source client.
//
// # Backends
//
//   - [FileCache]: entries as JSON files under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: never stores anything (caching disabled, tests)
//
// # Keys
//
// A [Keyer] derives keys for each kind of cached value. Layout keys hash
// the full geometry so that any change to count, viewport or card size
// produces a new key. [ScopedKeyer] prefixes every key for isolation
// between environments sharing one Redis.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional time-to-live.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per value kind.
const (
	TTLHTTP     = 5 * time.Minute
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// LayoutKeyOpts identifies a ring layout.
type LayoutKeyOpts struct {
	Count        int     `json:"count"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	CardWidth    float64 `json:"card_width,omitempty"`
	CardHeight   float64 `json:"card_height,omitempty"`
	BaseRatio    float64 `json:"base_ratio,omitempty"`
	SpacingRatio float64 `json:"spacing_ratio,omitempty"`
	MaxRings     int     `json:"max_rings,omitempty"`
}

// ArtifactKeyOpts identifies a rendered artifact of a layout.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	Style     string `json:"style,omitempty"`
	StateHash string `json:"state_hash,omitempty"`
	Rings     bool   `json:"rings,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// HTTPKey returns the key for a cached upstream response.
	HTTPKey(namespace, key string) string

	// LayoutKey returns the key for a computed layout.
	LayoutKey(opts LayoutKeyOpts) string

	// ArtifactKey returns the key for a rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// LayoutKey hashes every geometry input.
func (DefaultKeyer) LayoutKey(opts LayoutKeyOpts) string {
	return hashKey("layout", opts)
}

// ArtifactKey hashes the layout hash with the render options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
