// Package discovery holds the crawl-wide "seen" sets. A Store is a set of
// references with a single atomic test-and-insert operation; a crawl uses one
// Store for pages and a separate one for images.
package discovery

import "context"

// Store is a concurrent set of references.
type Store interface {
	// Claim inserts ref if it is absent. It reports true only to the one
	// caller that performed the insertion; every other caller, concurrent or
	// later, gets false. A reference is never removed once claimed.
	Claim(ctx context.Context, ref string) (bool, error)
}

// Kinds used to keep the page and image sets apart in shared backends.
const (
	KindPages  = "pages"
	KindImages = "images"
)
