// Package mem is an in-memory index store, mostly useful for tests.
package mem

import (
	"sort"
	"sync"

	"github.com/pilosa/pilosa/roaring"
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/index"
)

// ErrDocumentNotFound is returned when a document is not in the store.
var ErrDocumentNotFound = errors.NewKind("document %d not found")

type termKey struct {
	field, text string
}

// Store is an in-memory index.Store.
type Store struct {
	mu       sync.RWMutex
	docs     [][]byte
	postings map[termKey]map[uint64][]uint64
}

var _ index.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{postings: make(map[termKey]map[uint64][]uint64)}
}

// Put implements the index.Store interface. Identifiers start at 1.
func (s *Store) Put(doc []byte, tokens []index.Token) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uint64(len(s.docs) + 1)
	if id > uint64(xquery.MaxIndexDocID) {
		return 0, index.ErrIndexFull.New(id)
	}
	s.docs = append(s.docs, doc)

	for _, t := range tokens {
		k := termKey{t.Field, t.Text}
		docs, ok := s.postings[k]
		if !ok {
			docs = make(map[uint64][]uint64)
			s.postings[k] = docs
		}
		docs[id] = insertPosition(docs[id], t.Position)
	}

	return id, nil
}

func insertPosition(positions []uint64, pos uint64) []uint64 {
	i := len(positions)
	for i > 0 && positions[i-1] > pos {
		i--
	}
	if i > 0 && positions[i-1] == pos {
		return positions
	}

	positions = append(positions, 0)
	copy(positions[i+1:], positions[i:])
	positions[i] = pos
	return positions
}

// Document implements the index.Store interface.
func (s *Store) Document(id uint64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id == 0 || id > uint64(len(s.docs)) {
		return nil, ErrDocumentNotFound.New(id)
	}
	return s.docs[id-1], nil
}

// Docs implements the index.Postings interface.
func (s *Store) Docs(field, text string) (*roaring.Bitmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.postings[termKey{field, text}]
	ids := make([]uint64, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return roaring.NewBitmap(ids...), nil
}

// Positions implements the index.Postings interface.
func (s *Store) Positions(field, text string, doc uint64) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.postings[termKey{field, text}][doc], nil
}

// All implements the index.Postings interface.
func (s *Store) All() (*roaring.Bitmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint64, len(s.docs))
	for i := range s.docs {
		ids[i] = uint64(i + 1)
	}
	return roaring.NewBitmap(ids...), nil
}

// Close implements the index.Store interface.
func (s *Store) Close() error {
	return nil
}
