package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
)

type memDoc struct {
	key  Key
	body map[string]any
}

// Memory is an in-process Collection. Documents are kept in their JSON form,
// so decoding behaves like the persistent backends.
type Memory[T any] struct {
	mu     sync.RWMutex
	seq    int64
	docs   []memDoc
	unique []string
}

// NewMemory returns an empty collection enforcing uniqueness of the named
// fields.
func NewMemory[T any](unique ...string) *Memory[T] {
	return &Memory[T]{unique: unique}
}

func (m *Memory[T]) Insert(ctx context.Context, doc T) (Key, error) {
	body, err := toBody(doc)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkUnique(body, -1); err != nil {
		return "", err
	}
	m.seq++
	key := Key("mem-" + strconv.FormatInt(m.seq, 10))
	m.docs = append(m.docs, memDoc{key: key, body: body})
	return key, nil
}

func (m *Memory[T]) FindOne(ctx context.Context, f Filter) (T, error) {
	var zero T
	if err := validateFilter(f, false); err != nil {
		return zero, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(f)
	if i < 0 {
		return zero, ErrNotFound
	}
	return fromBody[T](m.docs[i].body)
}

func (m *Memory[T]) Find(ctx context.Context, f Filter) ([]T, error) {
	if err := validateFilter(f, false); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]T, 0)
	for _, d := range m.docs {
		if !matches(d.body, f) {
			continue
		}
		v, err := fromBody[T](d.body)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *Memory[T]) UpdateOne(ctx context.Context, f Filter, set Fields) (T, error) {
	var zero T
	if err := validateFilter(f, true); err != nil {
		return zero, err
	}
	if err := validateFields(set); err != nil {
		return zero, err
	}
	patch, err := toBody(set)
	if err != nil {
		return zero, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(f)
	if i < 0 {
		return zero, ErrNotFound
	}
	merged := make(map[string]any, len(m.docs[i].body)+len(patch))
	for k, v := range m.docs[i].body {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	if err := m.checkUnique(merged, i); err != nil {
		return zero, err
	}
	m.docs[i].body = merged
	return fromBody[T](merged)
}

func (m *Memory[T]) DeleteOne(ctx context.Context, f Filter) error {
	if err := validateFilter(f, true); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(f)
	if i < 0 {
		return ErrNotFound
	}
	m.docs = append(m.docs[:i], m.docs[i+1:]...)
	return nil
}

// Len reports the number of stored documents.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Keys lists the internal keys in insertion order.
func (m *Memory[T]) Keys() []Key {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]Key, len(m.docs))
	for i, d := range m.docs {
		keys[i] = d.key
	}
	return keys
}

func (m *Memory[T]) indexOf(f Filter) int {
	for i, d := range m.docs {
		if matches(d.body, f) {
			return i
		}
	}
	return -1
}

func (m *Memory[T]) checkUnique(body map[string]any, skip int) error {
	for _, field := range m.unique {
		v, ok := body[field].(string)
		if !ok || v == "" {
			continue
		}
		for i, d := range m.docs {
			if i == skip {
				continue
			}
			if other, _ := d.body[field].(string); other == v {
				return fmt.Errorf("%w: %s", ErrDuplicate, field)
			}
		}
	}
	return nil
}

func matches(body map[string]any, f Filter) bool {
	for k, want := range f {
		got, ok := body[k].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func toBody(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encode document: %w", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("store: encode document: %w", err)
	}
	return body, nil
}

func fromBody[T any](body map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("store: decode document: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("store: decode document: %w", err)
	}
	return out, nil
}
