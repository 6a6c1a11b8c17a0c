// Package index is the inverted index of a document collection: its
// configuration, the tokenization of documents and the execution of
// index queries.
package index

import (
	"io"

	"github.com/sirupsen/logrus"
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/dom"
	"github.com/msokolov/lux/xquery/index/query"
)

// ErrIndexFull is returned when a document would get an identifier above
// xquery.MaxIndexDocID.
var ErrIndexFull = errors.NewKind("document identifier %d is beyond the index range")

// Store is the storage of an index.
type Store interface {
	Postings
	// Put stores a document with its tokens. Documents get increasing
	// identifiers in the order they are stored. Put returns ErrIndexFull
	// instead of storing a document above xquery.MaxIndexDocID.
	Put(doc []byte, tokens []Token) (uint64, error)
	// Document returns the stored text of a document.
	Document(id uint64) ([]byte, error)
	// Close releases the resources of the store.
	Close() error
}

// Searcher finds the documents matching index queries.
type Searcher interface {
	// Search returns the documents matching q in ascending identifier
	// order, which is the order they were added.
	Search(ctx *xquery.Context, q query.Query) (DocIter, error)
	// Count returns the number of documents matching q.
	Count(ctx *xquery.Context, q query.Query) (int64, error)
	// Document returns the stored text of a document.
	Document(ctx *xquery.Context, id int64) ([]byte, error)
}

// DocIter is an iterator of documents. Next returns io.EOF after the last
// document.
type DocIter interface {
	Next() (int64, []byte, error)
	Close() error
}

// Index tokenizes documents into a Store and runs queries against it.
type Index struct {
	store Store
	cfg   *Config
}

var _ Searcher = (*Index)(nil)

// New returns an index over the given store.
func New(store Store, cfg *Config) *Index {
	return &Index{store: store, cfg: cfg}
}

// Config returns the configuration of the index.
func (i *Index) Config() *Config {
	return i.cfg
}

// Add parses, tokenizes and stores a document. Values of configured
// fields are given by the caller.
func (i *Index) Add(ctx *xquery.Context, data []byte, fields map[string][]string) (int64, error) {
	span, _ := ctx.Span("index.add")
	defer span.Finish()

	doc, err := dom.ParseBytes(0, data)
	if err != nil {
		return 0, err
	}

	for name := range fields {
		if !i.cfg.HasField(name) {
			return 0, xquery.ErrUnknownField.New(name)
		}
	}

	tokens := Tokenize(doc, i.cfg, fields)
	id, err := i.store.Put(data, tokens)
	if err != nil {
		return 0, err
	}

	if id > uint64(xquery.MaxIndexDocID) {
		return 0, ErrIndexFull.New(id)
	}

	logrus.WithFields(logrus.Fields{
		"id":     id,
		"tokens": len(tokens),
	}).Debug("document indexed")

	return int64(id), nil
}

// Search implements the Searcher interface.
func (i *Index) Search(ctx *xquery.Context, q query.Query) (DocIter, error) {
	span, _ := ctx.Span("index.search")
	span.SetTag("query", q.String())
	defer span.Finish()

	docs, err := Execute(q, i.store)
	if err != nil {
		return nil, err
	}

	return &docIter{store: i.store, ids: docs.Slice()}, nil
}

// Count implements the Searcher interface.
func (i *Index) Count(ctx *xquery.Context, q query.Query) (int64, error) {
	span, _ := ctx.Span("index.count")
	span.SetTag("query", q.String())
	defer span.Finish()

	docs, err := Execute(q, i.store)
	if err != nil {
		return 0, err
	}
	return int64(docs.Count()), nil
}

// Document implements the Searcher interface.
func (i *Index) Document(ctx *xquery.Context, id int64) ([]byte, error) {
	return i.store.Document(uint64(id))
}

// Close closes the underlying store.
func (i *Index) Close() error {
	return i.store.Close()
}

type docIter struct {
	store Store
	ids   []uint64
	pos   int
}

func (it *docIter) Next() (int64, []byte, error) {
	if it.pos >= len(it.ids) {
		return 0, nil, io.EOF
	}

	id := it.ids[it.pos]
	it.pos++

	data, err := it.store.Document(id)
	if err != nil {
		return 0, nil, err
	}
	return int64(id), data, nil
}

func (it *docIter) Close() error {
	it.ids = nil
	return nil
}
