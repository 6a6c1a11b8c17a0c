package xquery

import (
	"sort"
	"sync"
)

// Field is an index field whose values are the string values of the nodes
// selected by Path.
type Field struct {
	Name string
	Path Expression
}

// FieldRegistry holds the configured index fields. Expressions congruent
// with a field path can be answered by a lookup in that field instead of a
// path query.
type FieldRegistry struct {
	mu         sync.RWMutex
	byName     map[string]*Field
	byTerminal map[string][]*Field
}

// NewFieldRegistry returns an empty registry.
func NewFieldRegistry() *FieldRegistry {
	return &FieldRegistry{
		byName:     make(map[string]*Field),
		byTerminal: make(map[string][]*Field),
	}
}

// Register adds a field with the given name and defining path.
func (r *FieldRegistry) Register(name string, path Expression) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return ErrFieldAlreadyExists.New(name)
	}

	f := &Field{Name: name, Path: path}
	r.byName[name] = f
	key := terminalKey(path)
	r.byTerminal[key] = append(r.byTerminal[key], f)
	return nil
}

// Field returns the field with the given name.
func (r *FieldRegistry) Field(name string) (*Field, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byName[name]
	if !ok {
		return nil, ErrUnknownField.New(name)
	}
	return f, nil
}

// Fields returns all the registered fields sorted by name.
func (r *FieldRegistry) Fields() []*Field {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	fields := make([]*Field, 0, len(r.byName))
	for _, f := range r.byName {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Name < fields[j].Name
	})
	return fields
}

// Equivalent returns the field whose path is congruent with e, if any.
func (r *FieldRegistry) Equivalent(e Expression) (*Field, bool) {
	if r == nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := r.byTerminal[terminalKey(e)]
	if len(candidates) == 0 {
		return nil, false
	}

	s := e.String()
	for _, f := range candidates {
		if f.Path.String() == s {
			return f, true
		}
	}
	return nil, false
}

func terminalKey(e Expression) string {
	if t, ok := e.(Terminal); ok {
		return t.TerminalStep().String()
	}
	return e.String()
}
