package index

import (
	"sort"

	"github.com/msokolov/lux/xquery/dom"
)

// Token is an occurrence of a term in a document.
type Token struct {
	Field    string
	Text     string
	Position uint64
}

// Tokenize returns the tokens of a document: the path phrase of every
// element and attribute, their names and the values of the configured
// fields. Field values are given by the caller, keyed by field name.
//
// Path phrases start with RootToken followed by the names of the ancestors
// of the node, the node name last. Consecutive phrases are cfg.PhraseGap
// positions apart, so proximity queries never match across two of them.
func Tokenize(doc *dom.Document, cfg *Config, fields map[string][]string) []Token {
	t := &tokenizer{cfg: cfg}
	t.element(doc.Root, []string{RootToken})

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for i, v := range fields[name] {
			if v == "" {
				continue
			}
			t.tokens = append(t.tokens, Token{name, v, uint64(i)})
		}
	}

	return t.tokens
}

type tokenizer struct {
	cfg      *Config
	tokens   []Token
	phrase   uint64
	elements uint64
	attrs    uint64
}

func (t *tokenizer) element(n *dom.Node, path []string) {
	for _, c := range n.Children {
		if c.Kind != dom.ElementNode {
			continue
		}

		p := append(path[:len(path):len(path)], c.Name)
		t.addPhrase(p)
		if t.cfg.ElementIndex {
			t.tokens = append(t.tokens, Token{ElementNameField, c.Name, t.elements})
			t.elements++
		}

		for _, a := range c.Attributes {
			t.addPhrase(append(p[:len(p):len(p)], AttributePrefix+a.Name))
			if t.cfg.AttributeIndex {
				t.tokens = append(t.tokens, Token{AttributeNameField, a.Name, t.attrs})
				t.attrs++
			}
		}

		t.element(c, p)
	}
}

func (t *tokenizer) addPhrase(phrase []string) {
	if !t.cfg.PathIndex {
		return
	}

	start := t.phrase * t.cfg.PhraseGap
	for i, tok := range phrase {
		t.tokens = append(t.tokens, Token{PathField, tok, start + uint64(i)})
	}
	t.phrase++
}
