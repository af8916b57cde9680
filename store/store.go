// Package store is a small document-store abstraction: typed collections of
// JSON/BSON documents addressed by equality filters. Every backend provides
// atomic single-document filtered update and delete, so callers never need a
// read-then-write sequence to enforce a predicate such as ownership.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
)

var (
	ErrNotFound  = errors.New("store: no document matches filter")
	ErrDuplicate = errors.New("store: duplicate key")
)

// Key is the storage engine's internal document key (a row pk, an ObjectID).
// It is returned by Insert for logging only; no collection method accepts it.
type Key string

// Filter selects documents whose top-level string fields equal the given
// values. All pairs must match.
type Filter map[string]string

// Fields is a set of top-level field assignments applied by UpdateOne.
type Fields map[string]any

// Collection is a typed view over one document collection. T must be
// JSON- and BSON-encodable with matching field names.
type Collection[T any] interface {
	Insert(ctx context.Context, doc T) (Key, error)
	// FindOne returns ErrNotFound when nothing matches.
	FindOne(ctx context.Context, f Filter) (T, error)
	// Find returns matches in insertion order, never nil.
	Find(ctx context.Context, f Filter) ([]T, error)
	// UpdateOne atomically applies set to the single matching document and
	// returns it as stored afterwards.
	UpdateOne(ctx context.Context, f Filter, set Fields) (T, error)
	// DeleteOne atomically removes the single matching document.
	DeleteOne(ctx context.Context, f Filter) error
}

var fieldName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func validateFilter(f Filter, requireNonEmpty bool) error {
	if requireNonEmpty && len(f) == 0 {
		return fmt.Errorf("store: empty filter")
	}
	for k := range f {
		if !fieldName.MatchString(k) {
			return fmt.Errorf("store: invalid filter field %q", k)
		}
	}
	return nil
}

func validateFields(set Fields) error {
	if len(set) == 0 {
		return fmt.Errorf("store: nothing to update")
	}
	for k := range set {
		if !fieldName.MatchString(k) {
			return fmt.Errorf("store: invalid field %q", k)
		}
	}
	return nil
}

// sortedKeys keeps generated queries deterministic.
func sortedKeys(f Filter) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
