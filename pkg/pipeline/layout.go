package pipeline

import (
	"github.com/matzehuels/spotlight/pkg/ring"
)

// GenerateLayout computes the ring layout for opts. It does not consult the cache.
func GenerateLayout(opts Options) (ring.Layout, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return ring.Layout{}, err
	}
	return ring.ComputeWithOptions(opts.Count, opts.Width, opts.Height, opts.Geometry), nil
}

// ringCount returns the number of rings used by l.
func ringCount(l ring.Layout) int {
	return len(l.RingSizes())
}
