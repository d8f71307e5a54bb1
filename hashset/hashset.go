// Package hashset implements a persistent hash set, built on top of the
// hashmap package. Elements are the keys of an underlying persistent map;
// the associated values are a private presence marker that is never exposed.
package hashset

import (
	"bytes"
	"encoding/json"

	"github.com/xiaq/persistent/hashmap"
)

// Equal is the type of a function that reports whether two elements are
// equal.
type Equal func(v1, v2 any) bool

// Hash is the type of a function that returns the hash code of an element.
type Hash func(v any) uint32

// Set is a persistent set of arbitrary values. It is immutable, and supports
// near-O(1) operations to create modified versions of the set that share the
// underlying data structure. Because it is immutable, all of its methods are
// safe for concurrent use.
type Set interface {
	json.Marshaler
	// Len returns the number of elements.
	Len() int
	// Has returns whether the set contains the given element.
	Has(v any) bool
	// Conj returns an almost identical set, with the given element added. If
	// the element is already present, the receiver itself is returned.
	Conj(v any) Set
	// Disj returns an almost identical set, with the given element removed.
	// If the element is absent, the receiver itself is returned.
	Disj(v any) Set
	// Union returns the set of elements present in either set.
	Union(other Set) Set
	// Intersection returns the set of elements present in both sets.
	Intersection(other Set) Set
	// Difference returns the set of elements present in the receiver but not
	// in other.
	Difference(other Set) Set
	// SymmetricDifference returns the set of elements present in exactly one
	// of the two sets.
	SymmetricDifference(other Set) Set
	// IsSubset returns whether every element of the receiver is in other.
	IsSubset(other Set) bool
	// IsSuperset returns whether every element of other is in the receiver.
	IsSuperset(other Set) bool
	// IsDisjoint returns whether the two sets have no element in common.
	IsDisjoint(other Set) bool
	// Equal returns whether other is a set containing exactly the same
	// elements.
	Equal(other any) bool
	// Iterator returns an iterator over the elements.
	Iterator() Iterator
}

// Iterator is an iterator over set elements. It can be used like this:
//
//	for it := s.Iterator(); it.HasElem(); it.Next() {
//	    elem := it.Elem()
//	    // do something with elem...
//	}
type Iterator interface {
	// Elem returns the element at the current position.
	Elem() any
	// HasElem returns whether the iterator is pointing to an element.
	HasElem() bool
	// Next moves the iterator to the next position.
	Next()
}

// presence marks membership in the underlying map. Its values never leave
// the package.
type presence struct{}

// New takes an equality function and a hash function, and returns an empty
// Set.
func New(e Equal, h Hash) Set {
	return &hashSet{hashmap.New(hashmap.Equal(e), hashmap.Hash(h)), e, h}
}

// FromSlice returns a set containing all elements of the slice.
func FromSlice(e Equal, h Hash, elems []any) Set {
	s := Set(New(e, h))
	for _, elem := range elems {
		s = s.Conj(elem)
	}
	return s
}

type hashSet struct {
	m     hashmap.Map
	equal Equal
	hash  Hash
}

func (s *hashSet) withMap(m hashmap.Map) *hashSet {
	return &hashSet{m, s.equal, s.hash}
}

func (s *hashSet) empty() Set {
	return New(s.equal, s.hash)
}

func (s *hashSet) Len() int {
	return s.m.Len()
}

func (s *hashSet) Has(v any) bool {
	return hashmap.HasKey(s.m, v)
}

func (s *hashSet) Conj(v any) Set {
	newMap := s.m.Assoc(v, presence{})
	if newMap == s.m {
		return s
	}
	return s.withMap(newMap)
}

func (s *hashSet) Disj(v any) Set {
	newMap := s.m.Dissoc(v)
	if newMap == s.m {
		return s
	}
	return s.withMap(newMap)
}

func (s *hashSet) Union(other Set) Set {
	// Fold the smaller operand into the larger.
	small, large := Set(s), other
	if small.Len() > large.Len() {
		small, large = large, small
	}
	acc := large
	for it := small.Iterator(); it.HasElem(); it.Next() {
		acc = acc.Conj(it.Elem())
	}
	return acc
}

func (s *hashSet) Intersection(other Set) Set {
	small, large := Set(s), other
	if small.Len() > large.Len() {
		small, large = large, small
	}
	acc := s.empty()
	for it := small.Iterator(); it.HasElem(); it.Next() {
		if elem := it.Elem(); large.Has(elem) {
			acc = acc.Conj(elem)
		}
	}
	return acc
}

func (s *hashSet) Difference(other Set) Set {
	if other.Len() < s.Len() {
		acc := Set(s)
		for it := other.Iterator(); it.HasElem(); it.Next() {
			acc = acc.Disj(it.Elem())
		}
		return acc
	}
	acc := s.empty()
	for it := s.Iterator(); it.HasElem(); it.Next() {
		if elem := it.Elem(); !other.Has(elem) {
			acc = acc.Conj(elem)
		}
	}
	return acc
}

func (s *hashSet) SymmetricDifference(other Set) Set {
	acc := s.empty()
	for it := s.Iterator(); it.HasElem(); it.Next() {
		if elem := it.Elem(); !other.Has(elem) {
			acc = acc.Conj(elem)
		}
	}
	for it := other.Iterator(); it.HasElem(); it.Next() {
		if elem := it.Elem(); !s.Has(elem) {
			acc = acc.Conj(elem)
		}
	}
	return acc
}

func (s *hashSet) IsSubset(other Set) bool {
	if s.Len() > other.Len() {
		return false
	}
	for it := s.Iterator(); it.HasElem(); it.Next() {
		if !other.Has(it.Elem()) {
			return false
		}
	}
	return true
}

func (s *hashSet) IsSuperset(other Set) bool {
	if s.Len() < other.Len() {
		return false
	}
	for it := other.Iterator(); it.HasElem(); it.Next() {
		if !s.Has(it.Elem()) {
			return false
		}
	}
	return true
}

func (s *hashSet) IsDisjoint(other Set) bool {
	small, large := Set(s), other
	if small.Len() > large.Len() {
		small, large = large, small
	}
	for it := small.Iterator(); it.HasElem(); it.Next() {
		if large.Has(it.Elem()) {
			return false
		}
	}
	return true
}

func (s *hashSet) Equal(other any) bool {
	s2, ok := other.(Set)
	return ok && s.Len() == s2.Len() && s.IsSubset(s2)
}

func (s *hashSet) Iterator() Iterator {
	return &iterator{s.m.Iterator()}
}

func (s *hashSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	first := true
	for it := s.Iterator(); it.HasElem(); it.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		elemBytes, err := json.Marshal(it.Elem())
		if err != nil {
			return nil, err
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

type iterator struct {
	mapIt hashmap.Iterator
}

func (it *iterator) Elem() any {
	k, _ := it.mapIt.Elem()
	return k
}

func (it *iterator) HasElem() bool {
	return it.mapIt.HasElem()
}

func (it *iterator) Next() {
	it.mapIt.Next()
}
