// Package vector implements persistent vector.
//
// This is a Go clone of Clojure's PersistentVector type
// (https://github.com/clojure/clojure/blob/master/src/jvm/clojure/lang/PersistentVector.java).
// For an introduction to the internals, see
// https://hypirion.com/musings/understanding-persistent-vector-pt-1.
package vector

import (
	"encoding/json"
	"reflect"
)

const (
	chunkBits  = 5
	nodeSize   = 1 << chunkBits
	tailMaxLen = nodeSize
	chunkMask  = nodeSize - 1
)

// Vector is a persistent sequential container for arbitrary values. It
// supports O(1) lookup by index, modification by index, and insertion and
// removal operations at the end. Being a persistent variant of the data
// structure, it is immutable, and provides O(1) operations to create modified
// versions of the vector that share the underlying data structure, making it
// suitable for concurrent access.
type Vector interface {
	json.Marshaler
	// Len returns the length of the vector.
	Len() int
	// Index returns the i-th element of the vector, if it exists. The second
	// return value indicates whether the element exists.
	Index(i int) (any, bool)
	// Get returns the i-th element of the vector, or def if the index is out
	// of range.
	Get(i int, def any) any
	// Assoc returns an almost identical Vector, with the i-th element
	// replaced. If the index is smaller than 0 or greater than the length of
	// the vector, it returns nil. If the index is equal to the size of the
	// vector, it is equivalent to Conj. If the i-th element is already
	// identical to val, the receiver itself is returned.
	Assoc(i int, val any) Vector
	// Conj returns an almost identical Vector, with an additional element
	// appended to the end.
	Conj(val any) Vector
	// Pop returns an almost identical Vector, with the last element removed.
	// It returns nil if the vector is already empty.
	Pop() Vector
	// SubVector returns a subvector containing the elements from i up to but
	// not including j.
	SubVector(i, j int) Vector
	// Iterator returns an iterator over the vector.
	Iterator() Iterator
}

// Iterator is an iterator over vector elements. It can be used like this:
//
//	for it := v.Iterator(); it.HasElem(); it.Next() {
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

type vector struct {
	count int
	// height of the tree structure, defined to be 0 when root is a leaf.
	height uint
	root   node
	tail   []any
}

// Empty is an empty Vector.
var Empty Vector = &vector{}

// FromSlice returns a vector containing the elements of the slice, in order.
func FromSlice(s []any) Vector {
	v := Empty
	for _, elem := range s {
		v = v.Conj(elem)
	}
	return v
}

// node is a node in the vector tree: either a branch holding children or a
// leaf holding values.
type node interface {
	// index returns the value at index i, descending height more levels.
	index(height uint, i int) any
	// assoc returns a copy of the subtree with the value at index i replaced.
	assoc(height uint, i int, val any) node
}

type branchNode struct {
	children [nodeSize]node
}

type leafNode struct {
	values [nodeSize]any
}

func (n *branchNode) clone() *branchNode {
	c := *n
	return &c
}

func (n *leafNode) clone() *leafNode {
	c := *n
	return &c
}

func (n *branchNode) index(height uint, i int) any {
	return n.children[(i>>(height*chunkBits))&chunkMask].index(height-1, i)
}

func (n *leafNode) index(height uint, i int) any {
	return n.values[i&chunkMask]
}

func (n *branchNode) assoc(height uint, i int, val any) node {
	m := n.clone()
	sub := (i >> (height * chunkBits)) & chunkMask
	m.children[sub] = n.children[sub].assoc(height-1, i, val)
	return m
}

func (n *leafNode) assoc(height uint, i int, val any) node {
	m := n.clone()
	m.values[i&chunkMask] = val
	return m
}

func leafFromSlice(s []any) *leafNode {
	var n leafNode
	copy(n.values[:], s)
	return &n
}

func (v *vector) Len() int {
	return v.count
}

// treeSize returns the number of elements stored in the tree (as opposed to
// the tail).
func (v *vector) treeSize() int {
	if v.count < tailMaxLen {
		return 0
	}
	return ((v.count - 1) >> chunkBits) << chunkBits
}

func (v *vector) Index(i int) (any, bool) {
	if i < 0 || i >= v.count {
		return nil, false
	}
	if i >= v.treeSize() {
		return v.tail[i-v.treeSize()], true
	}
	return v.root.index(v.height, i), true
}

func (v *vector) Get(i int, def any) any {
	if elem, ok := v.Index(i); ok {
		return elem
	}
	return def
}

// sliceFor returns the slice where the i-th element is stored. The index must
// be in bound.
func (v *vector) sliceFor(i int) []any {
	if i >= v.treeSize() {
		return v.tail
	}
	n := v.root
	for h := v.height; h > 0; h-- {
		n = n.(*branchNode).children[(i>>(h*chunkBits))&chunkMask]
	}
	return n.(*leafNode).values[:]
}

func (v *vector) Assoc(i int, val any) Vector {
	if i < 0 || i > v.count {
		return nil
	} else if i == v.count {
		return v.Conj(val)
	}
	if cur, _ := v.Index(i); sameValue(cur, val) {
		return v
	}
	if i >= v.treeSize() {
		newTail := append([]any(nil), v.tail...)
		newTail[i-v.treeSize()] = val
		return &vector{v.count, v.height, v.root, newTail}
	}
	return &vector{v.count, v.height, v.root.assoc(v.height, i, val), v.tail}
}

func (v *vector) Conj(val any) Vector {
	// Room in tail?
	if v.count-v.treeSize() < tailMaxLen {
		newTail := make([]any, len(v.tail)+1)
		copy(newTail, v.tail)
		newTail[len(v.tail)] = val
		return &vector{v.count + 1, v.height, v.root, newTail}
	}
	// Full tail; push into tree.
	tailNode := leafFromSlice(v.tail)
	newHeight := v.height
	var newRoot node
	// Overflow root?
	if (v.count >> chunkBits) > (1 << (v.height * chunkBits)) {
		b := &branchNode{}
		b.children[0] = v.root
		b.children[1] = newPath(v.height, tailNode)
		newRoot = b
		newHeight++
	} else {
		newRoot = v.pushTail(v.height, v.root, tailNode)
	}
	return &vector{v.count + 1, newHeight, newRoot, []any{val}}
}

// pushTail returns a tree with tail appended.
func (v *vector) pushTail(height uint, n node, tail *leafNode) node {
	if height == 0 {
		return tail
	}
	idx := ((v.count - 1) >> (height * chunkBits)) & chunkMask
	b := n.(*branchNode)
	m := b.clone()
	child := b.children[idx]
	if child == nil {
		m.children[idx] = newPath(height-1, tail)
	} else {
		m.children[idx] = v.pushTail(height-1, child, tail)
	}
	return m
}

// newPath creates a left-branching tree of specified height and leaf.
func newPath(height uint, leaf *leafNode) node {
	if height == 0 {
		return leaf
	}
	ret := &branchNode{}
	ret.children[0] = newPath(height-1, leaf)
	return ret
}

func (v *vector) Pop() Vector {
	switch v.count {
	case 0:
		return nil
	case 1:
		return Empty
	}
	if v.count-v.treeSize() > 1 {
		newTail := make([]any, len(v.tail)-1)
		copy(newTail, v.tail)
		return &vector{v.count - 1, v.height, v.root, newTail}
	}
	// Tail has one element; the tree's rightmost leaf becomes the new tail.
	// This is the O(log n) trim, not a full rebuild.
	newTail := v.sliceFor(v.count - 2)
	newRoot := v.popTail(v.height, v.root)
	newHeight := v.height
	if v.height > 0 {
		if b, ok := newRoot.(*branchNode); ok && b.children[1] == nil {
			newRoot = b.children[0]
			newHeight--
		}
	}
	return &vector{v.count - 1, newHeight, newRoot, newTail}
}

// popTail returns a new tree with the last leaf removed, or nil if a branch
// root loses its only leaf. A root that is itself a leaf is returned
// unchanged; its values have moved to the tail and it is no longer read.
func (v *vector) popTail(height uint, n node) node {
	idx := ((v.count - 2) >> (height * chunkBits)) & chunkMask
	if height > 1 {
		b := n.(*branchNode)
		newChild := v.popTail(height-1, b.children[idx])
		if newChild == nil && idx == 0 {
			return nil
		}
		m := b.clone()
		m.children[idx] = newChild
		return m
	} else if idx == 0 {
		return nil
	}
	switch n := n.(type) {
	case *branchNode:
		// Drop the rightmost leaf.
		m := n.clone()
		m.children[idx] = nil
		return m
	default:
		// Root is a leaf; the values now all live in the tail, so the tree
		// goes away on the next push anyway.
		return n
	}
}

func (v *vector) SubVector(begin, end int) Vector {
	if begin < 0 || begin > end || end > v.count {
		return nil
	}
	return &subVector{v, begin, end}
}

func (v *vector) Iterator() Iterator {
	return newIterator(v)
}

type subVector struct {
	v     *vector
	begin int
	end   int
}

func (s *subVector) Len() int {
	return s.end - s.begin
}

func (s *subVector) Index(i int) (any, bool) {
	if i < 0 || s.begin+i >= s.end {
		return nil, false
	}
	return s.v.Index(s.begin + i)
}

func (s *subVector) Get(i int, def any) any {
	if elem, ok := s.Index(i); ok {
		return elem
	}
	return def
}

func (s *subVector) Assoc(i int, val any) Vector {
	if i < 0 || s.begin+i > s.end {
		return nil
	} else if s.begin+i == s.end {
		return s.Conj(val)
	}
	return s.v.Assoc(s.begin+i, val).SubVector(s.begin, s.end)
}

func (s *subVector) Conj(val any) Vector {
	return s.v.Assoc(s.end, val).SubVector(s.begin, s.end+1)
}

func (s *subVector) Pop() Vector {
	switch s.Len() {
	case 0:
		return nil
	case 1:
		return Empty
	default:
		return s.v.SubVector(s.begin, s.end-1)
	}
}

func (s *subVector) SubVector(i, j int) Vector {
	return s.v.SubVector(s.begin+i, s.begin+j)
}

func (s *subVector) Iterator() Iterator {
	return newIteratorWithRange(s.v, s.begin, s.end)
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
