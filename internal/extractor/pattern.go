package extractor

import (
	"regexp"
	"strings"
)

var (
	// href="..." or href='...'; the payload may not contain either quote.
	linkPattern = regexp.MustCompile(`href=(?:"([^"']+)"|'([^"']+)')`)

	imagePattern = regexp.MustCompile(`<img\s+[^>]*?src=(?:"([^"']+)"|'([^"']+)')`)
)

// Pattern extracts with regular expressions over the raw line.
type Pattern struct{}

func (Pattern) Links(line string) []string { return ExtractLinks(line) }

func (Pattern) Images(line, owner string) []string { return ExtractImages(line, owner) }

// ExtractLinks returns the quoted payload of every href attribute on line.
func ExtractLinks(line string) []string {
	var links []string
	for _, m := range linkPattern.FindAllStringSubmatch(line, -1) {
		links = append(links, quoted(m))
	}
	return links
}

// ExtractImages returns the quoted src payload of every <img> tag on line,
// resolving relative payloads against owner.
func ExtractImages(line, owner string) []string {
	var images []string
	for _, m := range imagePattern.FindAllStringSubmatch(line, -1) {
		images = append(images, ResolveImage(quoted(m), owner))
	}
	return images
}

// ResolveImage treats any src without "http" in it as relative to owner.
// No further normalization is applied.
func ResolveImage(src, owner string) string {
	if strings.Contains(src, "http") {
		return src
	}
	return owner + "/" + src
}

// quoted picks whichever alternative (double or single quote) matched.
func quoted(m []string) string {
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}
