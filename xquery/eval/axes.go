package eval

import (
	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/dom"
	"github.com/msokolov/lux/xquery/expression"
)

// step returns the nodes selected by s from n, in document order.
func step(n *dom.Node, s *expression.PathStep) Sequence {
	var result Sequence
	add := func(c *dom.Node) {
		if matches(c, s) {
			result = append(result, c)
		}
	}

	switch s.Axis {
	case expression.Self:
		add(n)
	case expression.Child:
		for _, c := range n.Children {
			add(c)
		}
	case expression.Descendant:
		descendants(n, add)
	case expression.DescendantOrSelf:
		add(n)
		descendants(n, add)
	case expression.Attribute:
		for _, a := range n.Attributes {
			add(a)
		}
	case expression.Parent:
		if n.Parent != nil {
			add(n.Parent)
		}
	case expression.Ancestor:
		ancestors(n.Parent, add)
	case expression.AncestorOrSelf:
		ancestors(n, add)
	case expression.FollowingSibling:
		if n.Kind != dom.AttributeNode && n.Parent != nil {
			siblings := n.Parent.Children
			for i := indexOf(siblings, n) + 1; i < len(siblings); i++ {
				add(siblings[i])
			}
		}
	case expression.PrecedingSibling:
		if n.Kind != dom.AttributeNode && n.Parent != nil {
			siblings := n.Parent.Children
			for _, c := range siblings[:indexOf(siblings, n)] {
				add(c)
			}
		}
	case expression.Following:
		following(n, add)
	case expression.Preceding:
		preceding(n, add)
	}

	return result
}

// matches reports whether n passes the node test of s.
func matches(n *dom.Node, s *expression.PathStep) bool {
	switch s.Kind {
	case xquery.Node:
		return true
	case xquery.Document:
		return n.Kind == dom.DocumentNode
	case xquery.Text:
		return n.Kind == dom.TextNode
	case xquery.Element:
		return n.Kind == dom.ElementNode && (s.Name == "" || s.Name == n.Name)
	case xquery.Attribute:
		return n.Kind == dom.AttributeNode && (s.Name == "" || s.Name == n.Name)
	default:
		return false
	}
}

func descendants(n *dom.Node, fn func(*dom.Node)) {
	for _, c := range n.Children {
		fn(c)
		descendants(c, fn)
	}
}

// ancestors calls fn from the root down to n.
func ancestors(n *dom.Node, fn func(*dom.Node)) {
	if n == nil {
		return
	}
	ancestors(n.Parent, fn)
	fn(n)
}

func following(n *dom.Node, fn func(*dom.Node)) {
	if n.Kind == dom.AttributeNode {
		// the following nodes of an attribute start at the children of
		// its element
		descendants(n.Parent, fn)
		n = n.Parent
	}

	for c := n; c.Parent != nil; c = c.Parent {
		siblings := c.Parent.Children
		for _, s := range siblings[indexOf(siblings, c)+1:] {
			fn(s)
			descendants(s, fn)
		}
	}
}

func preceding(n *dom.Node, fn func(*dom.Node)) {
	if n.Kind == dom.AttributeNode {
		n = n.Parent
	}

	var path []*dom.Node
	for c := n; c != nil; c = c.Parent {
		path = append([]*dom.Node{c}, path...)
	}

	for i := 1; i < len(path); i++ {
		siblings := path[i-1].Children
		for _, s := range siblings[:indexOf(siblings, path[i])] {
			fn(s)
			descendants(s, fn)
		}
	}
}

func indexOf(nodes []*dom.Node, n *dom.Node) int {
	for i, c := range nodes {
		if c == n {
			return i
		}
	}
	return -1
}
