// Package extractor pulls candidate page links and image references out of a
// single line of page text. Extraction is best-effort: strings that are not
// real resources may come back, and real resources may be missed.
package extractor

import "fmt"

// Extractor maps one line of page text to candidate links and images.
// Implementations are stateless and safe for concurrent use.
type Extractor interface {
	// Links returns every anchor reference found on line, in order.
	Links(line string) []string
	// Images returns every image source found on line, in order. Sources
	// that are not absolute are resolved against owner.
	Images(line, owner string) []string
}

// Strategy names accepted by New.
const (
	StrategyPattern = "pattern"
	StrategyMarkup  = "markup"
)

// New returns the extractor for the named strategy. An empty name selects
// the pattern extractor.
func New(strategy string) (Extractor, error) {
	switch strategy {
	case "", StrategyPattern:
		return Pattern{}, nil
	case StrategyMarkup:
		return Markup{}, nil
	default:
		return nil, fmt.Errorf("unknown extractor strategy %q", strategy)
	}
}
