// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package intake

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ExtractedPage is the outcome of HTML text extraction.
type ExtractedPage struct {
	Title    string
	Text     string
	Metadata map[string]string
	Links    []string
}

// mainDivClassRe recognizes content-bearing div classes when a page has no
// main or article element.
var mainDivClassRe = regexp.MustCompile(`content|main|article`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// ExtractHTML pulls the readable text out of an HTML page (R2.3). Chrome
// elements (script, style, nav, footer, aside, header) are discarded, then
// the text comes from the first of: main, article, a div with a
// content-like class, or the whole page. Links are absolutized against
// pageURL; meta name/property tags land in Metadata.
func ExtractHTML(body []byte, pageURL string) (*ExtractedPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find("script, style, nav, footer, aside, header").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())

	main := doc.Find("main").First()
	if main.Length() == 0 {
		main = doc.Find("article").First()
	}
	if main.Length() == 0 {
		main = doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return mainDivClassRe.MatchString(s.AttrOr("class", ""))
		}).First()
	}

	var text string
	if main.Length() > 0 {
		text = flattenText(main)
	} else {
		text = flattenText(doc.Selection)
	}

	metadata := make(map[string]string)
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name := s.AttrOr("name", "")
		if name == "" {
			name = s.AttrOr("property", "")
		}
		content := s.AttrOr("content", "")
		if name != "" && content != "" {
			metadata[name] = content
		}
	})

	base, _ := url.Parse(pageURL)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if href == "" {
			return
		}
		if base != nil {
			if abs, err := base.Parse(href); err == nil {
				href = abs.String()
			}
		}
		links = append(links, href)
	})

	return &ExtractedPage{Title: title, Text: text, Metadata: metadata, Links: links}, nil
}

// flattenText joins the trimmed text nodes under a selection with single
// spaces, then collapses any remaining whitespace runs.
func flattenText(s *goquery.Selection) string {
	var parts []string
	for _, node := range s.Nodes {
		collectText(node, &parts)
	}
	return whitespaceRe.ReplaceAllString(strings.Join(parts, " "), " ")
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
