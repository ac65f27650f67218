// Package docstore is an in-memory JSON document store with json-server
// semantics: named collections of objects keyed by "id", equality filters
// on any field, and optional persistence to a single JSON file.
package docstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrNotFound          = errors.New("document not found")
	ErrConflict          = errors.New("document id already exists")
	ErrInvalidDocument   = errors.New("invalid document")
)

// Document is one JSON object of a collection.
type Document map[string]any

// ID returns the document id in string form; numeric ids are printed as-is.
func (d Document) ID() string {
	v, ok := d["id"]
	if !ok || v == nil {
		return ""
	}
	return scalarString(v)
}

// DefaultCollections are created when no data file provides any.
var DefaultCollections = []string{"users", "tasks"}

type Store struct {
	mu          sync.RWMutex
	collections map[string][]Document
	path        string
	newID       func() (string, error)
}

// New creates a store holding the given empty collections.
func New(collections ...string) *Store {
	if len(collections) == 0 {
		collections = DefaultCollections
	}
	s := &Store{
		collections: make(map[string][]Document, len(collections)),
		newID:       newUUIDv7,
	}
	for _, c := range collections {
		s.collections[c] = []Document{}
	}
	return s
}

// Open loads path (a json-server db.json) and persists every write back to
// it. A missing file starts from the default collections.
func Open(path string) (*Store, error) {
	s := New()
	s.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var raw map[string][]Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	for name, docs := range raw {
		if docs == nil {
			docs = []Document{}
		}
		s.collections[name] = docs
	}
	return s, nil
}

// Collections returns the collection names in sorted order.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the documents of collection matching filter. Each filter
// key must equal the field's string form; several values for one key match
// any of them. Keys starting with "_" are reserved and ignored.
func (s *Store) List(collection string, filter map[string][]string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	out := []Document{}
	for _, d := range docs {
		if matches(d, filter) {
			out = append(out, clone(d))
		}
	}
	return out, nil
}

func (s *Store) Get(collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	i := indexOf(docs, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return clone(docs[i]), nil
}

// Create appends doc, assigning a UUIDv7 id when it has none.
func (s *Store) Create(collection string, doc Document) (Document, error) {
	if doc == nil {
		return nil, ErrInvalidDocument
	}
	doc = clone(doc)

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	if doc.ID() == "" {
		id, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate id: %w", err)
		}
		doc["id"] = id
	} else if indexOf(docs, doc.ID()) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrConflict, doc.ID())
	}

	s.collections[collection] = append(docs, doc)
	if err := s.persistLocked(); err != nil {
		s.collections[collection] = docs
		return nil, err
	}
	return clone(doc), nil
}

// Replace swaps the whole document; the id is kept from the path.
func (s *Store) Replace(collection, id string, doc Document) (Document, error) {
	if doc == nil {
		return nil, ErrInvalidDocument
	}
	return s.update(collection, id, func(old Document) Document {
		next := clone(doc)
		next["id"] = old["id"]
		return next
	})
}

// Patch merges fields into the document; the id cannot change.
func (s *Store) Patch(collection, id string, fields Document) (Document, error) {
	if fields == nil {
		return nil, ErrInvalidDocument
	}
	return s.update(collection, id, func(old Document) Document {
		next := clone(old)
		for k, v := range fields {
			if k == "id" {
				continue
			}
			next[k] = v
		}
		return next
	})
}

func (s *Store) update(collection, id string, fn func(Document) Document) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	i := indexOf(docs, id)
	if i < 0 {
		return nil, ErrNotFound
	}

	prev := docs[i]
	docs[i] = fn(prev)
	if err := s.persistLocked(); err != nil {
		docs[i] = prev
		return nil, err
	}
	return clone(docs[i]), nil
}

func (s *Store) Delete(collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	i := indexOf(docs, id)
	if i < 0 {
		return ErrNotFound
	}

	next := make([]Document, 0, len(docs)-1)
	next = append(next, docs[:i]...)
	next = append(next, docs[i+1:]...)
	s.collections[collection] = next
	if err := s.persistLocked(); err != nil {
		s.collections[collection] = docs
		return err
	}
	return nil
}

func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.collections, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".docstore-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

func indexOf(docs []Document, id string) int {
	for i, d := range docs {
		if d.ID() == id {
			return i
		}
	}
	return -1
}

func matches(d Document, filter map[string][]string) bool {
	for key, wants := range filter {
		if strings.HasPrefix(key, "_") || len(wants) == 0 {
			continue
		}
		v, ok := d[key]
		if !ok {
			return false
		}
		got := scalarString(v)
		hit := false
		for _, w := range wants {
			if got == w {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// clone copies the top level of d; nested values are shared, which is
// fine because documents are only ever replaced, never mutated in place.
func clone(d Document) Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
