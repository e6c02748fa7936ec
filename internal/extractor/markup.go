package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Markup parses each line as an HTML fragment with goquery and reads the
// href and img src attributes off the resulting nodes. Unlike Pattern it
// understands unquoted attributes and decodes entities, but a tag split
// across lines is still lost.
type Markup struct{}

func (Markup) Links(line string) []string {
	doc, ok := parseFragment(line)
	if !ok {
		return nil
	}

	var links []string
	doc.Find("[href]").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if exists && href != "" {
			links = append(links, href)
		}
	})
	return links
}

func (Markup) Images(line, owner string) []string {
	doc, ok := parseFragment(line)
	if !ok {
		return nil
	}

	var images []string
	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		src, exists := s.Attr("src")
		if exists && src != "" {
			images = append(images, ResolveImage(src, owner))
		}
	})
	return images
}

func parseFragment(line string) (*goquery.Document, bool) {
	// Cheap reject: most lines of a page carry no tag at all.
	if !strings.Contains(line, "<") {
		return nil, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(line))
	if err != nil {
		return nil, false
	}
	return doc, true
}
