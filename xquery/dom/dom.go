// Package dom is the in-memory model of the documents of a collection.
package dom

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrParse is returned when a document is not well-formed XML.
var ErrParse = errors.NewKind("unable to parse document: %s")

// Kind of a node.
type Kind int

const (
	// DocumentNode is the root of a document.
	DocumentNode Kind = iota
	// ElementNode is an element.
	ElementNode
	// AttributeNode is an attribute of an element.
	AttributeNode
	// TextNode is a run of character data.
	TextNode
)

// Node of a document tree.
type Node struct {
	Kind Kind
	// Name is the qualified name of elements and attributes.
	Name string
	// Value is the text of attributes and text nodes.
	Value      string
	Parent     *Node
	Attributes []*Node
	Children   []*Node

	doc   *Document
	order int
}

// Document is a parsed document. Its identifier orders it among the other
// documents.
type Document struct {
	ID   int64
	Root *Node
}

// Document returns the document the node belongs to.
func (n *Node) Document() *Document {
	return n.doc
}

// Root returns the document node of the node's document.
func (n *Node) Root() *Node {
	return n.doc.Root
}

// StringValue returns the concatenation of the text descendants of
// document and element nodes, and the value of the other nodes.
func (n *Node) StringValue() string {
	switch n.Kind {
	case AttributeNode, TextNode:
		return n.Value
	}

	var buf strings.Builder
	n.writeText(&buf)
	return buf.String()
}

func (n *Node) writeText(buf *strings.Builder) {
	for _, c := range n.Children {
		if c.Kind == TextNode {
			buf.WriteString(c.Value)
		} else {
			c.writeText(buf)
		}
	}
}

// Element returns the document element, the single element child of the
// document node.
func (d *Document) Element() *Node {
	for _, c := range d.Root.Children {
		if c.Kind == ElementNode {
			return c
		}
	}
	return nil
}

// Compare orders two nodes in document order: by document identifier, then
// by position in the document. It returns a negative number when a comes
// before b, a positive one when it comes after and zero when they are the
// same node.
func Compare(a, b *Node) int {
	switch {
	case a.doc.ID < b.doc.ID:
		return -1
	case a.doc.ID > b.doc.ID:
		return 1
	default:
		return a.order - b.order
	}
}

// Parse reads a document from r and gives it the identifier id.
func Parse(id int64, r io.Reader) (*Document, error) {
	doc := &Document{ID: id}
	root := &Node{Kind: DocumentNode, doc: doc}
	doc.Root = root

	order := 1
	current := root
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ErrParse.Wrap(err, err.Error())
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Node{
				Kind:   ElementNode,
				Name:   qualifiedName(t.Name),
				Parent: current,
				doc:    doc,
				order:  order,
			}
			order++
			for _, a := range t.Attr {
				if isNamespaceDecl(a.Name) {
					continue
				}
				el.Attributes = append(el.Attributes, &Node{
					Kind:   AttributeNode,
					Name:   qualifiedName(a.Name),
					Value:  a.Value,
					Parent: el,
					doc:    doc,
					order:  order,
				})
				order++
			}
			current.Children = append(current.Children, el)
			current = el
		case xml.EndElement:
			current = current.Parent
		case xml.CharData:
			if current == root {
				continue
			}
			text := string(t)
			if n := len(current.Children); n > 0 && current.Children[n-1].Kind == TextNode {
				current.Children[n-1].Value += text
				continue
			}
			current.Children = append(current.Children, &Node{
				Kind:   TextNode,
				Value:  text,
				Parent: current,
				doc:    doc,
				order:  order,
			})
			order++
		}
	}

	if current != root {
		return nil, ErrParse.New("unclosed element " + current.Name)
	}
	if doc.Element() == nil {
		return nil, ErrParse.New("no document element")
	}
	return doc, nil
}

// ParseBytes reads a document from data.
func ParseBytes(id int64, data []byte) (*Document, error) {
	return Parse(id, bytes.NewReader(data))
}

// qualifiedName keeps the prefix-free local name; documents of a
// collection are expected to share their namespace bindings.
func qualifiedName(n xml.Name) string {
	return n.Local
}

func isNamespaceDecl(n xml.Name) bool {
	return n.Space == "xmlns" || (n.Space == "" && n.Local == "xmlns")
}
