// Package registry provides the name-keyed factory tables that back the tool,
// preset and generator registries.
//
// A Registry is populated during startup and then sealed. After Seal it is
// read-only, so lookups need no locking as long as population happens before
// any concurrent use.
package registry

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSealed is returned by Register once the registry has been sealed.
var ErrSealed = errors.New("registry is sealed")

// NotFoundError is returned by Resolve for unknown names.
// Known always holds every registered name in sorted order.
type NotFoundError struct {
	Kind  string
	Name  string
	Known []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// AsNotFound returns the *NotFoundError err is or wraps.
func AsNotFound(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}

// Registry maps stable string identifiers to values of type T.
type Registry[T any] struct {
	kind    string
	entries map[string]T
	sealed  bool
}

// New creates an empty registry. kind names the entries in error messages,
// for example "tool type" or "preset".
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:    kind,
		entries: make(map[string]T),
	}
}

// Kind returns the entry kind the registry was created with.
func (r *Registry[T]) Kind() string {
	return r.kind
}

// Register adds an entry. Empty names, duplicates and registration after
// Seal are rejected.
func (r *Registry[T]) Register(name string, value T) error {
	if r.sealed {
		return fmt.Errorf("register %s %q: %w", r.kind, name, ErrSealed)
	}
	if name == "" {
		return fmt.Errorf("register %s: name must not be empty", r.kind)
	}
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%s %q is already registered", r.kind, name)
	}
	r.entries[name] = value
	return nil
}

// MustRegister is Register for fixed built-in tables; it panics on error.
func (r *Registry[T]) MustRegister(name string, value T) {
	if err := r.Register(name, value); err != nil {
		panic(err)
	}
}

// Seal makes the registry read-only.
func (r *Registry[T]) Seal() {
	r.sealed = true
}

// Resolve looks up name. A miss returns a *NotFoundError listing every known name.
func (r *Registry[T]) Resolve(name string) (T, error) {
	if v, ok := r.entries[name]; ok {
		return v, nil
	}
	var zero T
	return zero, &NotFoundError{Kind: r.kind, Name: name, Known: r.Names()}
}

// Names returns all registered names in sorted order.
func (r *Registry[T]) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries.
func (r *Registry[T]) Len() int {
	return len(r.entries)
}
