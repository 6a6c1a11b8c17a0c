// Package pilosa is a persistent index store. Documents and positional
// postings live in a bolt database; document sets are pilosa roaring
// bitmaps.
package pilosa

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"

	"github.com/boltdb/bolt"
	"github.com/pilosa/pilosa/roaring"
	"github.com/sirupsen/logrus"
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/msokolov/lux/xquery"
	"github.com/msokolov/lux/xquery/index"
)

const (
	// ConfigFileName is the name of the index config file.
	ConfigFileName = "config.yml"
	// DataFileName is the name of the bolt database file.
	DataFileName = "index.db"
)

var (
	// ErrDocumentNotFound is returned when a document is not in the index.
	ErrDocumentNotFound = errors.NewKind("document %d not found")
	// ErrIndexClosed is returned when an index is used after Close.
	ErrIndexClosed = errors.NewKind("index in %q is closed")
)

var (
	documentsBucket = []byte("documents")
	postingsBucket  = []byte("postings")
)

// Index is a bolt backed index.Store.
//
// buckets:
// - documents: id uint64 -> document []byte
// - postings: field -> text -> id uint64 -> positions (uvarint deltas)
type Index struct {
	dir string
	cfg *index.Config

	mu sync.RWMutex
	db *bolt.DB
}

var _ index.Store = (*Index)(nil)

// Open opens the index in dir, creating it if it does not exist. A new
// index is created with cfg; an existing one keeps the configuration it
// was created with.
func Open(dir string, cfg *index.Config) (*Index, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}

	if cfg == nil {
		cfg = index.DefaultConfig()
	}

	log := logrus.WithField("dir", dir)

	cfgPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(cfgPath); err == nil {
		stored, err := index.ReadConfigFile(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = stored
	} else if os.IsNotExist(err) {
		if err := index.WriteConfigFile(cfgPath, cfg); err != nil {
			return nil, err
		}
		log.Debug("created index config")
	} else {
		return nil, err
	}

	db, err := bolt.Open(filepath.Join(dir, DataFileName), 0640, nil)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(documentsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(postingsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug("index opened")
	return &Index{dir: dir, cfg: cfg, db: db}, nil
}

// Config returns the configuration of the index.
func (i *Index) Config() *index.Config {
	return i.cfg
}

func (i *Index) query(fn func(db *bolt.DB) error) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.db == nil {
		return ErrIndexClosed.New(i.dir)
	}
	return fn(i.db)
}

// Put implements the index.Store interface.
func (i *Index) Put(doc []byte, tokens []index.Token) (uint64, error) {
	positions := make(map[string]map[string][]uint64)
	for _, t := range tokens {
		if positions[t.Field] == nil {
			positions[t.Field] = make(map[string][]uint64)
		}
		positions[t.Field][t.Text] = append(positions[t.Field][t.Text], t.Position)
	}

	var id uint64
	err := i.query(func(db *bolt.DB) error {
		return db.Update(func(tx *bolt.Tx) error {
			docs := tx.Bucket(documentsBucket)

			var err error
			id, err = docs.NextSequence()
			if err != nil {
				return err
			}

			if id > uint64(xquery.MaxIndexDocID) {
				return index.ErrIndexFull.New(id)
			}

			if err := docs.Put(encodeID(id), doc); err != nil {
				return err
			}

			postings := tx.Bucket(postingsBucket)
			for field, terms := range positions {
				fb, err := postings.CreateBucketIfNotExists([]byte(field))
				if err != nil {
					return err
				}

				for text, pos := range terms {
					tb, err := fb.CreateBucketIfNotExists([]byte(text))
					if err != nil {
						return err
					}

					if err := tb.Put(encodeID(id), encodePositions(pos)); err != nil {
						return err
					}
				}
			}

			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// Document implements the index.Store interface.
func (i *Index) Document(id uint64) ([]byte, error) {
	var doc []byte
	err := i.query(func(db *bolt.DB) error {
		return db.View(func(tx *bolt.Tx) error {
			v := tx.Bucket(documentsBucket).Get(encodeID(id))
			if v == nil {
				return ErrDocumentNotFound.New(id)
			}

			doc = make([]byte, len(v))
			copy(doc, v)
			return nil
		})
	})
	return doc, err
}

// Docs implements the index.Postings interface.
func (i *Index) Docs(field, text string) (*roaring.Bitmap, error) {
	var ids []uint64
	err := i.query(func(db *bolt.DB) error {
		return db.View(func(tx *bolt.Tx) error {
			b := termBucket(tx, field, text)
			if b == nil {
				return nil
			}

			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				ids = append(ids, decodeID(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return roaring.NewBitmap(ids...), nil
}

// Positions implements the index.Postings interface.
func (i *Index) Positions(field, text string, doc uint64) ([]uint64, error) {
	var positions []uint64
	err := i.query(func(db *bolt.DB) error {
		return db.View(func(tx *bolt.Tx) error {
			b := termBucket(tx, field, text)
			if b == nil {
				return nil
			}

			v := b.Get(encodeID(doc))
			if v == nil {
				return nil
			}

			var err error
			positions, err = decodePositions(v)
			return err
		})
	})
	return positions, err
}

// All implements the index.Postings interface.
func (i *Index) All() (*roaring.Bitmap, error) {
	var ids []uint64
	err := i.query(func(db *bolt.DB) error {
		return db.View(func(tx *bolt.Tx) error {
			c := tx.Bucket(documentsBucket).Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				ids = append(ids, decodeID(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return roaring.NewBitmap(ids...), nil
}

// Close implements the index.Store interface.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.db == nil {
		return nil
	}

	err := i.db.Close()
	i.db = nil
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"dir": i.dir,
			"err": err.Error(),
		}).Warn("unable to close the index")
	}
	return err
}

func termBucket(tx *bolt.Tx, field, text string) *bolt.Bucket {
	fb := tx.Bucket(postingsBucket).Bucket([]byte(field))
	if fb == nil {
		return nil
	}
	return fb.Bucket([]byte(text))
}

// Identifiers are big endian so bolt keeps them sorted.
func encodeID(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

func decodeID(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
