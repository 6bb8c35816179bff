// Package page loads an HTML document and finds the elements a pipeline
// should watch.
package page

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/fxlens/pkg/classifier"
	"github.com/dtnitsch/fxlens/pkg/fetcher"
	"golang.org/x/net/html"
)

// candidateSelector is broad on purpose: the classifier decides.
const candidateSelector = "input, textarea, [contenteditable], [role], [class]"

// Element is one candidate element on a page.
type Element struct {
	Key        string                       `json:"key" yaml:"key"`
	Tag        string                       `json:"tag" yaml:"tag"`
	Text       string                       `json:"text,omitempty" yaml:"text,omitempty"`
	Descriptor classifier.ElementDescriptor `json:"-" yaml:"-"`
}

// Document is a parsed page and the URL it came from.
type Document struct {
	URL string
	doc *goquery.Document
}

// Load fetches url and parses it.
func Load(ctx context.Context, f *fetcher.Fetcher, url string) (*Document, error) {
	doc, err := f.GetHtmlContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", url, err)
	}
	return &Document{URL: url, doc: doc}, nil
}

// Parse reads an HTML document from r.
func Parse(url string, r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return &Document{URL: url, doc: doc}, nil
}

// Title returns the document title, trimmed.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Candidates returns every element that might take text entry, in
// document order.
func (d *Document) Candidates() []Element {
	var out []Element
	d.doc.Find(candidateSelector).Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		out = append(out, Element{
			Key:        CSSPath(n),
			Tag:        goquery.NodeName(s),
			Text:       Value(s),
			Descriptor: classifier.FromNode(n),
		})
	})
	return out
}

// Monitored returns the candidates c accepts.
func (d *Document) Monitored(c *classifier.Classifier) []Element {
	var out []Element
	for _, el := range d.Candidates() {
		if c.IsMonitored(el.Descriptor) {
			out = append(out, el)
		}
	}
	return out
}

// Find returns the candidate with the given key.
func (d *Document) Find(key string) (Element, bool) {
	for _, el := range d.Candidates() {
		if el.Key == key {
			return el, true
		}
	}
	return Element{}, false
}

// Value is what a user typed into s: the value attribute for inputs, the
// text content otherwise.
func Value(s *goquery.Selection) string {
	if goquery.NodeName(s) == "input" {
		v, _ := s.Attr("value")
		return v
	}
	return strings.TrimSpace(s.Text())
}

// CSSPath builds a key for n from its ancestry, e.g.
// "html>body>form:nth-of-type(2)>input:nth-of-type(1)". An id short-circuits
// the walk.
func CSSPath(n *html.Node) string {
	var parts []string
	for ; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if id := attr(n, "id"); id != "" {
			parts = append(parts, n.Data+"#"+id)
			break
		}
		parts = append(parts, segment(n))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ">")
}

func segment(n *html.Node) string {
	if n.Parent == nil || n.Parent.Type != html.ElementNode {
		return n.Data
	}
	idx, total := 0, 0
	for sib := n.Parent.FirstChild; sib != nil; sib = sib.NextSibling {
		if sib.Type != html.ElementNode || sib.Data != n.Data {
			continue
		}
		total++
		if sib == n {
			idx = total
		}
	}
	if total == 1 {
		return n.Data
	}
	return n.Data + ":nth-of-type(" + strconv.Itoa(idx) + ")"
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
