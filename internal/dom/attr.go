package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Attr returns the value of attribute key, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether n carries attribute key.
func HasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	return strings.Fields(Attr(n, "class"))
}

func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

func AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	SetAttr(n, "class", strings.TrimSpace(Attr(n, "class")+" "+class))
}

func RemoveClass(n *html.Node, class string) {
	classes := Classes(n)
	out := classes[:0]
	for _, c := range classes {
		if c != class {
			out = append(out, c)
		}
	}
	SetAttr(n, "class", strings.Join(out, " "))
}

// ToggleClass flips class on n and reports whether it is now present.
func ToggleClass(n *html.Node, class string) bool {
	if HasClass(n, class) {
		RemoveClass(n, class)
		return false
	}
	AddClass(n, class)
	return true
}

// Find returns the first node under root (root included, depth first)
// matching pred.
func Find(root *html.Node, pred func(*html.Node) bool) *html.Node {
	if root == nil {
		return nil
	}
	if pred(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := Find(c, pred); n != nil {
			return n
		}
	}
	return nil
}

// FindAll returns every node under root matching pred, in document order.
func FindAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// ByClass matches element nodes carrying class.
func ByClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && HasClass(n, class)
	}
}

// ByAttr matches element nodes whose attribute key equals val.
func ByAttr(key, val string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && HasAttr(n, key) && Attr(n, key) == val
	}
}

// Contains reports whether n is root or a descendant of root.
func Contains(root, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}
