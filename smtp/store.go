package smtp

import (
	"fmt"
	"reflect"
)

/*
Store is a typed, per-session component registry. Setup code can place
guards, dispatchers, session handlers and interpreters - all plain Go
values - into a session's Store and retrieve them by type later, so new
kinds of pluggable component never require a change to Session itself.
RunSession does not read the Store; it takes its collaborators from
Components.

Go has no generic methods, so the typed accessors below are package-level
functions keyed by reflect.Type rather than methods on Store; Store
itself only holds the untyped backing map.
*/
type Store struct {
	byType map[reflect.Type][]interface{}
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{byType: make(map[reflect.Type][]interface{})}
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Prepender is implemented by component types that want Add to insert new
// values before existing ones rather than after (LIFO composition order,
// e.g. so the most recently installed guard runs first).
type Prepender interface {
	PrependsOnAdd() bool
}

// GetAll returns every value of type T currently in the store, in
// insertion order, except that values which reported PrependsOnAdd when
// they were Add-ed sit in front of those added before them.
func GetAll[T any](s *Store) []T {
	raw := s.byType[typeKey[T]()]
	out := make([]T, 0, len(raw))
	for _, v := range raw {
		out = append(out, v.(T))
	}
	return out
}

// Get returns the single value of type T, the single-component case. It
// reports ok=false if none is present; use GetAll for the multi-component
// case. More than one value of type T present is a misconfiguration, not a
// runtime condition a caller can recover from, so Get panics rather than
// silently picking one.
func Get[T any](s *Store) (value T, ok bool) {
	raw := s.byType[typeKey[T]()]
	switch len(raw) {
	case 0:
		return value, false
	case 1:
		return raw[0].(T), true
	default:
		panic(fmt.Sprintf("smtp: store has %d values of type %s, want at most 1", len(raw), typeKey[T]()))
	}
}

// Set replaces all values of type T with exactly v, the single-component
// case.
func Set[T any](s *Store, v T) {
	s.byType[typeKey[T]()] = []interface{}{v}
}

// Add appends v to the list of type T, the multi-component case. If v
// implements Prepender and PrependsOnAdd returns true, v is inserted at
// the front instead.
func Add[T any](s *Store, v T) {
	key := typeKey[T]()
	if p, ok := any(v).(Prepender); ok && p.PrependsOnAdd() {
		s.byType[key] = append([]interface{}{v}, s.byType[key]...)
		return
	}
	s.byType[key] = append(s.byType[key], v)
}

// Composer is implemented by component types supporting the
// composable-component case: GetOrCompose builds the canonical instance
// on first access by folding together every value of type T already
// present (e.g. a chain of partial MailGuards composed into one guard
// that runs them all in order).
type Composer[T any] interface {
	Compose(parts []T) T
}

// GetOrCompose returns the store's single composed value of type T,
// building and caching it on first call from every T previously Add-ed.
// compose is supplied by the caller because Go cannot express "T itself
// has a Compose method" as a constraint without a second type parameter
// at every call site.
func GetOrCompose[T any](s *Store, compose func([]T) T) T {
	key := typeKey[T]()
	if raw := s.byType[key]; len(raw) == 1 {
		return raw[0].(T)
	}
	parts := GetAll[T](s)
	composed := compose(parts)
	s.byType[key] = []interface{}{composed}
	return composed
}

// Remove deletes every value of type T.
func Remove[T any](s *Store) {
	delete(s.byType, typeKey[T]())
}
