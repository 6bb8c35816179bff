package classifier

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ElementDescriptor is the minimal view of a DOM element the classifier
// needs. Hosts adapt their own element type to it.
type ElementDescriptor interface {
	// TagName returns the lowercased tag name.
	TagName() string
	// Attr returns an attribute value and whether it's present.
	Attr(name string) (string, bool)
	// Matches reports whether a compiled CSS selector matches the element.
	Matches(m cascadia.Matcher) bool
}

// nodeElement adapts a parsed html.Node.
type nodeElement struct {
	n *html.Node
}

// FromNode wraps an element node. Returns nil for nil or non-element nodes.
func FromNode(n *html.Node) ElementDescriptor {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return nodeElement{n: n}
}

// FromSelection wraps the first node of a goquery selection.
func FromSelection(s *goquery.Selection) ElementDescriptor {
	if s == nil || s.Length() == 0 {
		return nil
	}
	return FromNode(s.Get(0))
}

func (e nodeElement) TagName() string {
	return strings.ToLower(e.n.Data)
}

func (e nodeElement) Attr(name string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func (e nodeElement) Matches(m cascadia.Matcher) bool {
	return m.Match(e.n)
}

// Node returns the underlying html node.
func (e nodeElement) Node() *html.Node {
	return e.n
}

// Static is an element described by tag and attributes alone, for hosts
// that have no parsed document. Selectors are matched against a detached
// node, so combinators that need ancestors never match.
type Static struct {
	Tag   string
	Attrs map[string]string
}

func (s Static) TagName() string {
	return strings.ToLower(s.Tag)
}

func (s Static) Attr(name string) (string, bool) {
	for k, v := range s.Attrs {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

func (s Static) Matches(m cascadia.Matcher) bool {
	return m.Match(s.node())
}

func (s Static) node() *html.Node {
	n := &html.Node{
		Type: html.ElementNode,
		Data: strings.ToLower(s.Tag),
	}
	keys := make([]string, 0, len(s.Attrs))
	for k := range s.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Attr = append(n.Attr, html.Attribute{Key: strings.ToLower(k), Val: s.Attrs[k]})
	}
	return n
}
