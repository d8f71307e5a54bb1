// Package arraymap implements a persistent map for small sizes, backed by a
// flat array of entries that is scanned linearly. It is a drop-in for the
// hashmap package up to MaxSize entries and needs no hash function; past
// MaxSize, Assoc fails with ErrCapacity and the caller is expected to promote
// to a hashmap.
package arraymap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// MaxSize is the maximum number of entries an array map can hold.
const MaxSize = 8

// ErrCapacity is returned by Assoc when adding a new key to a map that
// already has MaxSize entries.
var ErrCapacity = errors.New("array map already has maximum number of entries")

// Equal is the type of a function that reports whether two keys are equal.
type Equal func(k1, k2 any) bool

// Map is a persistent associative data structure mapping keys to values,
// holding at most MaxSize entries. It is immutable; iteration is in
// insertion order.
type Map interface {
	json.Marshaler
	// Len returns the length of the map.
	Len() int
	// Index returns whether there is a value associated with the given key,
	// and that value or nil.
	Index(k any) (any, bool)
	// Get returns the value associated with the given key, or def if there
	// is none.
	Get(k, def any) any
	// Assoc returns an almost identical map, with the given key associated
	// with the given value. It fails with ErrCapacity when the key is new
	// and the map is full. If the key is already associated with an
	// identical value, the receiver itself is returned.
	Assoc(k, v any) (Map, error)
	// Dissoc returns an almost identical map, with the given key associated
	// with no value. If the key is absent, the receiver itself is returned.
	Dissoc(k any) Map
	// Equal returns whether the receiver and other hold the same set of
	// key-value pairs, regardless of insertion order.
	Equal(other any) bool
	// Iterator returns an iterator over the map.
	Iterator() Iterator
}

// Iterator is an iterator over map elements, in insertion order.
type Iterator interface {
	// Elem returns the current key-value pair.
	Elem() (any, any)
	// HasElem returns whether the iterator is pointing to an element.
	HasElem() bool
	// Next moves the iterator to the next position.
	Next()
}

// Entry is a key-value pair for bulk construction.
type Entry struct {
	Key   any
	Value any
}

// New takes an equality function and returns an empty Map.
func New(e Equal) Map {
	return &arrayMap{nil, e}
}

// FromEntries returns a map containing all the given entries; later entries
// with equal keys win. It fails with ErrCapacity when there are more than
// MaxSize distinct keys.
func FromEntries(e Equal, entries []Entry) (Map, error) {
	m := Map(New(e))
	for _, en := range entries {
		var err error
		m, err = m.Assoc(en.Key, en.Value)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

type arrayMap struct {
	entries []entry
	equal   Equal
}

type entry struct {
	key   any
	value any
}

func (m *arrayMap) findIndex(k any) int {
	for i, e := range m.entries {
		if m.equal(k, e.key) {
			return i
		}
	}
	return -1
}

func (m *arrayMap) Len() int {
	return len(m.entries)
}

func (m *arrayMap) Index(k any) (any, bool) {
	if i := m.findIndex(k); i != -1 {
		return m.entries[i].value, true
	}
	return nil, false
}

func (m *arrayMap) Get(k, def any) any {
	if v, ok := m.Index(k); ok {
		return v
	}
	return def
}

func (m *arrayMap) Assoc(k, v any) (Map, error) {
	if i := m.findIndex(k); i != -1 {
		if sameValue(m.entries[i].value, v) {
			return m, nil
		}
		newEntries := append([]entry(nil), m.entries...)
		newEntries[i] = entry{k, v}
		return &arrayMap{newEntries, m.equal}, nil
	}
	if len(m.entries) >= MaxSize {
		return nil, ErrCapacity
	}
	newEntries := make([]entry, len(m.entries)+1)
	copy(newEntries, m.entries)
	newEntries[len(m.entries)] = entry{k, v}
	return &arrayMap{newEntries, m.equal}, nil
}

func (m *arrayMap) Dissoc(k any) Map {
	i := m.findIndex(k)
	if i == -1 {
		return m
	}
	newEntries := make([]entry, len(m.entries)-1)
	copy(newEntries[:i], m.entries[:i])
	copy(newEntries[i:], m.entries[i+1:])
	return &arrayMap{newEntries, m.equal}
}

// Equal compares the two maps as unordered collections of key-value pairs;
// two maps holding the same pairs in different insertion orders are equal.
func (m *arrayMap) Equal(other any) bool {
	m2, ok := other.(Map)
	if !ok || len(m.entries) != m2.Len() {
		return false
	}
	for _, e := range m.entries {
		v2, ok := m2.Index(e.key)
		if !ok || !m.equal(e.value, v2) {
			return false
		}
	}
	return true
}

func (m *arrayMap) Iterator() Iterator {
	return &iterator{m.entries, 0}
}

func (m *arrayMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		kString, err := convertKey(e.key)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		kBytes, err := json.Marshal(kString)
		if err != nil {
			return nil, err
		}
		vBytes, err := json.Marshal(e.value)
		if err != nil {
			return nil, fmt.Errorf("key %s: %s", kString, err)
		}
		buf.Write(kBytes)
		buf.WriteByte(':')
		buf.Write(vBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// convertKey converts a map key to a string for use as a JSON object key.
func convertKey(k any) (string, error) {
	switch k := k.(type) {
	case string:
		return k, nil
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(k), nil
	default:
		return "", fmt.Errorf("json: unsupported key type: %T", k)
	}
}

type iterator struct {
	entries []entry
	index   int
}

func (it *iterator) Elem() (any, any) {
	e := it.entries[it.index]
	return e.key, e.value
}

func (it *iterator) HasElem() bool {
	return it.index < len(it.entries)
}

func (it *iterator) Next() {
	it.index++
}

// sameValue reports whether x and y are identical values of a comparable
// type; incomparable values are never identical.
func sameValue(x, y any) bool {
	if x == nil || y == nil {
		return x == y
	}
	t := reflect.TypeOf(x)
	return t == reflect.TypeOf(y) && t.Comparable() && x == y
}
