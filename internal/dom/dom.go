// Package dom parses a rendered page's HTML into a read-only snapshot used
// for link, image and heading enumeration.
package dom

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is one anchor. Href is the attribute as written; URL is Href resolved
// against the document URL, the way the browser's a.href reports it.
type Link struct {
	Index int    `json:"index"`
	Href  string `json:"href"`
	URL   string `json:"url,omitempty"`
	Text  string `json:"text"`
}

type Image struct {
	Index int    `json:"index"`
	Src   string `json:"src"`
	Alt   string `json:"alt,omitempty"`
}

type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Snapshot is an immutable view of one page render.
type Snapshot struct {
	Links    []Link
	Images   []Image
	Headings []Heading
	BodyText string
	HasBody  bool
	Tags     map[string]int
}

// Parse builds a Snapshot from an HTML document with no document URL, so
// link URLs stay as written.
func Parse(html string) (*Snapshot, error) {
	return ParseAt(html, "")
}

// ParseAt builds a Snapshot from an HTML document loaded at docURL. A <base
// href> in the document takes precedence over docURL.
func ParseAt(html, docURL string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base := absURL(docURL)
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := url.Parse(strings.TrimSpace(href)); err == nil {
			if base != nil {
				b = base.ResolveReference(b)
			}
			if b.IsAbs() {
				base = b
			}
		}
	}

	s := &Snapshot{Tags: make(map[string]int)}

	doc.Find("a").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		s.Links = append(s.Links, Link{
			Index: i,
			Href:  href,
			URL:   resolve(base, href),
			Text:  collapse(sel.Text()),
		})
	})

	doc.Find("img").Each(func(i int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		alt, _ := sel.Attr("alt")
		s.Images = append(s.Images, Image{Index: i, Src: src, Alt: alt})
	})

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		level := int(goquery.NodeName(sel)[1] - '0')
		s.Headings = append(s.Headings, Heading{Level: level, Text: collapse(sel.Text())})
	})

	for _, tag := range []string{"header", "nav", "footer", "main"} {
		if n := doc.Find(tag).Length(); n > 0 {
			s.Tags[tag] = n
		}
	}

	body := doc.Find("body")
	s.HasBody = body.Length() > 0
	body.Find("script, style, noscript, template").Remove()
	s.BodyText = collapse(body.Text())

	return s, nil
}

// absURL parses s, returning nil unless it is an absolute URL.
func absURL(s string) *url.URL {
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return nil
	}
	return u
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FindLink returns the first link whose resolved URL contains route or
// whose text contains keyword, case-insensitively.
func (s *Snapshot) FindLink(route, keyword string) (Link, bool) {
	keyword = strings.ToLower(keyword)
	for _, l := range s.Links {
		if l.URL == "" {
			continue
		}
		if strings.Contains(l.URL, route) || (keyword != "" && strings.Contains(strings.ToLower(l.Text), keyword)) {
			return l, true
		}
	}
	return Link{}, false
}

// ImagesWithSrc counts images carrying a non-empty src attribute.
func (s *Snapshot) ImagesWithSrc() int {
	n := 0
	for _, img := range s.Images {
		if strings.TrimSpace(img.Src) != "" {
			n++
		}
	}
	return n
}

// RemoteImages returns images whose src contains any of the markers.
func (s *Snapshot) RemoteImages(markers ...string) []Image {
	var out []Image
	for _, img := range s.Images {
		for _, m := range markers {
			if img.Src != "" && strings.Contains(img.Src, m) {
				out = append(out, img)
				break
			}
		}
	}
	return out
}

// HasHeading reports whether a heading of the given level contains text.
// Level 0 matches any level.
func (s *Snapshot) HasHeading(level int, text string) bool {
	for _, h := range s.Headings {
		if (level == 0 || h.Level == level) && strings.Contains(h.Text, text) {
			return true
		}
	}
	return false
}

func (s *Snapshot) Count(tag string) int {
	return s.Tags[tag]
}
