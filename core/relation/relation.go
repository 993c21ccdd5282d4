package relation

// Map is a many-to-many relation between keys and values. It maintains two
// indices in lockstep: key -> set of values and value -> set of keys. A key
// is present in the map iff it relates to at least one value, and
// symmetrically for values; empty sets are pruned immediately so the counts
// stay accurate.
type Map[K comparable, V comparable] struct {
	valuesByKey map[K]map[V]struct{}
	keysByValue map[V]map[K]struct{}
}

// NewMap creates an empty relation.
func NewMap[K comparable, V comparable]() *Map[K, V] {
	return &Map[K, V]{
		valuesByKey: make(map[K]map[V]struct{}),
		keysByValue: make(map[V]map[K]struct{}),
	}
}

// Relate adds the (k, v) pair. It returns true iff the relation did not
// already exist.
func (m *Map[K, V]) Relate(k K, v V) bool {
	values, ok := m.valuesByKey[k]
	if !ok {
		values = make(map[V]struct{})
		m.valuesByKey[k] = values
	}
	if _, exists := values[v]; exists {
		return false
	}
	values[v] = struct{}{}

	keys, ok := m.keysByValue[v]
	if !ok {
		keys = make(map[K]struct{})
		m.keysByValue[v] = keys
	}
	keys[k] = struct{}{}
	return true
}

// Unrelate removes the (k, v) pair. It returns true iff the pair was present
// on both sides and has been removed.
func (m *Map[K, V]) Unrelate(k K, v V) bool {
	values, ok := m.valuesByKey[k]
	if !ok {
		return false
	}
	if _, exists := values[v]; !exists {
		return false
	}

	delete(values, v)
	if len(values) == 0 {
		delete(m.valuesByKey, k)
	}

	if keys, ok := m.keysByValue[v]; ok {
		delete(keys, k)
		if len(keys) == 0 {
			delete(m.keysByValue, v)
		}
	}
	return true
}

// DropKey removes every relation mentioning k.
func (m *Map[K, V]) DropKey(k K) {
	values, ok := m.valuesByKey[k]
	if !ok {
		return
	}
	delete(m.valuesByKey, k)

	for v := range values {
		keys := m.keysByValue[v]
		delete(keys, k)
		if len(keys) == 0 {
			delete(m.keysByValue, v)
		}
	}
}

// DropValue removes every relation mentioning v.
func (m *Map[K, V]) DropValue(v V) {
	keys, ok := m.keysByValue[v]
	if !ok {
		return
	}
	delete(m.keysByValue, v)

	for k := range keys {
		values := m.valuesByKey[k]
		delete(values, v)
		if len(values) == 0 {
			delete(m.valuesByKey, k)
		}
	}
}

// ValuesOf returns a snapshot of the values related to k. The returned map
// does not alias internal state.
func (m *Map[K, V]) ValuesOf(k K) map[V]struct{} {
	values := m.valuesByKey[k]
	snapshot := make(map[V]struct{}, len(values))
	for v := range values {
		snapshot[v] = struct{}{}
	}
	return snapshot
}

// KeysOf returns a snapshot of the keys related to v.
func (m *Map[K, V]) KeysOf(v V) map[K]struct{} {
	keys := m.keysByValue[v]
	snapshot := make(map[K]struct{}, len(keys))
	for k := range keys {
		snapshot[k] = struct{}{}
	}
	return snapshot
}

// Has reports whether the (k, v) pair is related.
func (m *Map[K, V]) Has(k K, v V) bool {
	values, ok := m.valuesByKey[k]
	if !ok {
		return false
	}
	_, exists := values[v]
	return exists
}

// HasKey reports whether k relates to at least one value.
func (m *Map[K, V]) HasKey(k K) bool {
	_, ok := m.valuesByKey[k]
	return ok
}

// HasValue reports whether v relates to at least one key.
func (m *Map[K, V]) HasValue(v V) bool {
	_, ok := m.keysByValue[v]
	return ok
}

// KeyCount returns the number of keys with at least one relation.
func (m *Map[K, V]) KeyCount() int {
	return len(m.valuesByKey)
}

// ValueCount returns the number of values with at least one relation.
func (m *Map[K, V]) ValueCount() int {
	return len(m.keysByValue)
}

// Clear removes all relations.
func (m *Map[K, V]) Clear() {
	m.valuesByKey = make(map[K]map[V]struct{})
	m.keysByValue = make(map[V]map[K]struct{})
}
