package models

// OrderedMap is an insertion-ordered mapping with O(1) key lookup,
// used for the page and link result sets where the site's native
// newest-first ordering must survive deduplication by URL.
type OrderedMap[V any] struct {
	keys  []string
	index map[string]V
}

// NewOrderedMap returns an empty ordered map.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{index: make(map[string]V)}
}

// Set inserts or updates the value for key. A duplicate key keeps its
// original position; only the value is replaced.
func (m *OrderedMap[V]) Set(key string, value V) {
	if _, ok := m.index[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.index[key] = value
}

// Get returns the value for key and whether it was present.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.index[key]
	return v, ok
}

// Has reports whether key is present.
func (m *OrderedMap[V]) Has(key string) bool {
	_, ok := m.index[key]
	return ok
}

// Len returns the number of entries.
func (m *OrderedMap[V]) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order. The returned slice is
// shared with the map and must not be modified.
func (m *OrderedMap[V]) Keys() []string {
	return m.keys
}

// Each calls fn for every entry in insertion order until fn returns
// false.
func (m *OrderedMap[V]) Each(fn func(key string, value V) bool) {
	for _, k := range m.keys {
		if !fn(k, m.index[k]) {
			return
		}
	}
}
