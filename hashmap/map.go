package hashmap

import "encoding/json"

// Map is a persistent associative data structure mapping keys to values. It
// is immutable, and supports near-O(1) operations to create modified version of
// the map that shares the underlying data structure. Because it is immutable,
// all of its methods are safe for concurrent use.
type Map interface {
	json.Marshaler
	// Len returns the length of the map.
	Len() int
	// Index returns whether there is a value associated with the given key, and
	// that value or nil.
	Index(k any) (any, bool)
	// Get returns the value associated with the given key, or def if there is
	// none.
	Get(k, def any) any
	// Assoc returns an almost identical map, with the given key associated with
	// the given value. If the key is already associated with a value identical
	// to the given one, the receiver itself is returned.
	Assoc(k, v any) Map
	// Dissoc returns an almost identical map, with the given key associated
	// with no value. If the key is absent, the receiver itself is returned.
	Dissoc(k any) Map
	// Update returns a map containing all associations of the receiver and of
	// other; associations from other win. Both maps must have been created
	// with the same notion of key equality and hashing.
	Update(other Map) Map
	// UpdateFrom returns a map updated with all key-value pairs produced by
	// the iterator; later pairs win.
	UpdateFrom(it EntryIterator) Map
	// Equal returns whether the receiver and other are maps of the same
	// length, with every key of the receiver associated with an equal value
	// in other.
	Equal(other any) bool
	// Iterator returns an iterator over the map.
	Iterator() Iterator
}

// Iterator is an iterator over map elements. It can be used like this:
//
//	for it := m.Iterator(); it.HasElem(); it.Next() {
//	    key, value := it.Elem()
//	    // do something with elem...
//	}
type Iterator interface {
	// Elem returns the current key-value pair.
	Elem() (any, any)
	// HasElem returns whether the iterator is pointing to an element.
	HasElem() bool
	// Next moves the iterator to the next position.
	Next()
}

// EntryIterator is the part of Iterator needed to feed key-value pairs into
// UpdateFrom. Iterators over other map implementations with the same method
// set satisfy it too.
type EntryIterator interface {
	Elem() (any, any)
	HasElem() bool
	Next()
}

// HasKey reports whether a Map has the given key.
func HasKey(m Map, k any) bool {
	_, ok := m.Index(k)
	return ok
}
