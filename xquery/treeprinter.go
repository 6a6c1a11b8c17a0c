package xquery

import (
	"bytes"
	"fmt"
	"strings"
)

// TreePrinter is a printer for tree nodes.
type TreePrinter struct {
	buf         bytes.Buffer
	nodeWritten bool
	written     bool
}

// NewTreePrinter creates a new tree printer.
func NewTreePrinter() *TreePrinter {
	return new(TreePrinter)
}

// WriteNode writes the main node.
func (p *TreePrinter) WriteNode(format string, args ...interface{}) {
	if p.nodeWritten {
		return
	}

	_, _ = fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteRune('\n')
	p.nodeWritten = true
}

// WriteChildren writes a children of the tree.
func (p *TreePrinter) WriteChildren(children ...string) {
	if !p.nodeWritten || p.written {
		return
	}

	for i, child := range children {
		last := i+1 == len(children)
		r := bufioLines(child)

		for j, l := range r {
			if j == 0 {
				if last {
					p.buf.WriteString(" └─ ")
				} else {
					p.buf.WriteString(" ├─ ")
				}
			} else {
				if last {
					p.buf.WriteString("    ")
				} else {
					p.buf.WriteString(" │  ")
				}
			}

			p.buf.WriteString(l)
			p.buf.WriteRune('\n')
		}
	}

	p.written = true
}

// String returns the output of the printed tree.
func (p *TreePrinter) String() string {
	return p.buf.String()
}

func bufioLines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
