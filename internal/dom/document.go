// Package dom is a small in-memory document model on top of golang.org/x/net/html.
// It gives the widget what a browser page would: a head and a body to append
// to, element helpers, fragment parsing for trusted markup and event listeners.
//
// A Document is not safe for concurrent use. The widget only touches it from
// its event loop.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const blankPage = `<!DOCTYPE html><html><head><meta charset="utf-8"><title></title></head><body></body></html>`

// Document is a host page tree.
type Document struct {
	root      *html.Node
	head      *html.Node
	body      *html.Node
	listeners map[*html.Node]map[string][]Listener
}

// NewDocument returns an empty page with the given title.
func NewDocument(title string) *Document {
	doc, err := Parse(strings.NewReader(blankPage))
	if err != nil {
		// blankPage is a constant; the parser never fails on it.
		panic(err)
	}
	if t := Find(doc.head, func(n *html.Node) bool { return n.DataAtom == atom.Title }); t != nil {
		SetText(t, title)
	}
	return doc
}

// Parse reads a host page. The HTML parser always synthesizes <head> and <body>.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	d := &Document{
		root:      root,
		listeners: make(map[*html.Node]map[string][]Listener),
	}
	d.head = Find(root, func(n *html.Node) bool { return n.DataAtom == atom.Head })
	d.body = Find(root, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	if d.head == nil || d.body == nil {
		return nil, fmt.Errorf("parse document: missing head or body")
	}
	return d, nil
}

func (d *Document) Root() *html.Node { return d.root }
func (d *Document) Head() *html.Node { return d.head }
func (d *Document) Body() *html.Node { return d.body }

// Render writes the whole document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, returning an empty string on error.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Element creates a detached element. attrs are key/value pairs.
func Element(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// Append adds children to parent, detaching them from any previous parent.
func Append(parent *html.Node, children ...*html.Node) {
	for _, c := range children {
		if c.Parent != nil {
			c.Parent.RemoveChild(c)
		}
		parent.AppendChild(c)
	}
}

// Remove detaches n from its parent. It is a no-op for detached nodes.
func Remove(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// SetText replaces the children of n with a single text node. The text is
// never interpreted as markup.
func SetText(n *html.Node, text string) {
	removeChildren(n)
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// SetInnerHTML replaces the children of n with the parsed fragment. Only
// trusted or sanitized markup may be passed here.
func SetInnerHTML(n *html.Node, fragment string) error {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), n)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}
	removeChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// InnerHTML renders the children of n.
func InnerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

// OuterHTML renders n itself.
func OuterHTML(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// TextContent concatenates all text below n.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func removeChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// Value returns the current value of a form control. Textareas keep their
// value as text content so that it survives rendering.
func Value(n *html.Node) string {
	if n.DataAtom == atom.Textarea {
		return TextContent(n)
	}
	return Attr(n, "value")
}

// SetValue sets the value of a form control.
func SetValue(n *html.Node, v string) {
	if n.DataAtom == atom.Textarea {
		SetText(n, v)
		return
	}
	SetAttr(n, "value", v)
}
