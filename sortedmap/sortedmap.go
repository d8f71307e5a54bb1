// Package sortedmap implements a persistent sorted map, backed by a
// left-leaning red-black tree (Sedgewick 2008). It is immutable; operations
// return new maps sharing all untouched subtrees with the original, so it is
// safe for concurrent use.
package sortedmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Equal is the type of a function that reports whether two keys are equal.
type Equal func(k1, k2 any) bool

// Less is the type of a function that reports whether k1 orders before k2.
// Together with Equal it must define a total order on keys.
type Less func(k1, k2 any) bool

// Map is a persistent associative data structure mapping keys to values,
// sorted by key. Iteration is in ascending key order.
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
	// with the given value. If the key is already associated with an
	// identical value, the receiver itself is returned.
	Assoc(k, v any) Map
	// Dissoc returns an almost identical map, with the given key associated
	// with no value. If the key is absent, the receiver itself is returned.
	Dissoc(k any) Map
	// First returns the entry with the minimum key, or ok = false if the map
	// is empty.
	First() (k, v any, ok bool)
	// Last returns the entry with the maximum key, or ok = false if the map
	// is empty.
	Last() (k, v any, ok bool)
	// Subseq returns a map of all entries with lo <= key < hi.
	Subseq(lo, hi any) Map
	// Rsubseq returns a map of all entries with lo <= key < hi whose
	// iterator runs in descending key order.
	Rsubseq(lo, hi any) Map
	// Equal returns whether the receiver and other are maps of the same
	// length, with every key of the receiver associated with an equal value
	// in other.
	Equal(other any) bool
	// Iterator returns an iterator over the map, in key order (descending
	// for maps built by Rsubseq).
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

// New takes an equality function and a less-than function, and returns an
// empty Map. Equality is consulted before less-than, so the two functions
// may be inconsistent on equal keys.
func New(e Equal, l Less) Map {
	return &sortedMap{0, nil, e, l, false}
}

type sortedMap struct {
	count int
	root  *treeNode
	equal Equal
	less  Less
	// Iteration runs right-to-left. Only set on maps built by Rsubseq.
	reversed bool
}

// treeNode is immutable after construction. Subtrees are shared freely
// between map versions; a node is collected when the last version that
// reaches it goes away.
type treeNode struct {
	key   any
	value any
	left  *treeNode
	right *treeNode
	red   bool
}

func (m *sortedMap) compare(k1, k2 any) int {
	if m.equal(k1, k2) {
		return 0
	}
	if m.less(k1, k2) {
		return -1
	}
	return 1
}

func (m *sortedMap) Len() int {
	return m.count
}

func (m *sortedMap) Index(k any) (any, bool) {
	n := m.root
	for n != nil {
		switch cmp := m.compare(k, n.key); {
		case cmp < 0:
			n = n.left
		case cmp > 0:
			n = n.right
		default:
			return n.value, true
		}
	}
	return nil, false
}

func (m *sortedMap) Get(k, def any) any {
	if v, ok := m.Index(k); ok {
		return v
	}
	return def
}

func (m *sortedMap) Assoc(k, v any) Map {
	root, added := m.insert(m.root, k, v)
	if root == m.root {
		return m
	}
	root = blacken(root)
	count := m.count
	if added {
		count++
	}
	return &sortedMap{count, root, m.equal, m.less, m.reversed}
}

func (m *sortedMap) insert(n *treeNode, k, v any) (*treeNode, bool) {
	if n == nil {
		return &treeNode{k, v, nil, nil, true}, true
	}
	switch cmp := m.compare(k, n.key); {
	case cmp < 0:
		l, added := m.insert(n.left, k, v)
		if l == n.left {
			return n, false
		}
		return fixUp(&treeNode{n.key, n.value, l, n.right, n.red}), added
	case cmp > 0:
		r, added := m.insert(n.right, k, v)
		if r == n.right {
			return n, false
		}
		return fixUp(&treeNode{n.key, n.value, n.left, r, n.red}), added
	default:
		if sameValue(n.value, v) {
			return n, false
		}
		return &treeNode{k, v, n.left, n.right, n.red}, false
	}
}

func (m *sortedMap) Dissoc(k any) Map {
	if _, ok := m.Index(k); !ok {
		return m
	}
	var root *treeNode
	if m.count > 1 {
		h := m.root
		if !isRed(h.left) && !isRed(h.right) {
			h = h.recolor(true)
		}
		root = blacken(m.delete(h, k))
	}
	return &sortedMap{m.count - 1, root, m.equal, m.less, m.reversed}
}

// delete removes k from the subtree rooted at h. The key is known to be
// present, and h is red or has a red child, which the rebalancing steps
// maintain down the search path.
func (m *sortedMap) delete(h *treeNode, k any) *treeNode {
	if m.compare(k, h.key) < 0 {
		if !isRed(h.left) && h.left != nil && !isRed(h.left.left) {
			h = moveRedLeft(h)
		}
		h = h.withLeft(m.delete(h.left, k))
	} else {
		if isRed(h.left) {
			h = rotateRight(h)
		}
		if m.compare(k, h.key) == 0 && h.right == nil {
			return nil
		}
		if !isRed(h.right) && h.right != nil && !isRed(h.right.left) {
			h = moveRedRight(h)
		}
		if m.compare(k, h.key) == 0 {
			// Replace with the successor and delete it from the right
			// subtree.
			succ := h.right.min()
			h = &treeNode{succ.key, succ.value, h.left, m.deleteMin(h.right), h.red}
		} else {
			h = h.withRight(m.delete(h.right, k))
		}
	}
	return fixUp(h)
}

func (m *sortedMap) deleteMin(h *treeNode) *treeNode {
	if h.left == nil {
		return nil
	}
	if !isRed(h.left) && !isRed(h.left.left) {
		h = moveRedLeft(h)
	}
	h = h.withLeft(m.deleteMin(h.left))
	return fixUp(h)
}

func (m *sortedMap) First() (any, any, bool) {
	if m.root == nil {
		return nil, nil, false
	}
	n := m.root.min()
	return n.key, n.value, true
}

func (m *sortedMap) Last() (any, any, bool) {
	if m.root == nil {
		return nil, nil, false
	}
	n := m.root
	for n.right != nil {
		n = n.right
	}
	return n.key, n.value, true
}

func (m *sortedMap) Subseq(lo, hi any) Map {
	acc := Map(New(m.equal, m.less))
	m.collectRange(m.root, lo, hi, func(k, v any) {
		acc = acc.Assoc(k, v)
	})
	return acc
}

func (m *sortedMap) Rsubseq(lo, hi any) Map {
	sub := m.Subseq(lo, hi).(*sortedMap)
	sub.reversed = true
	return sub
}

// collectRange visits, in ascending order, every entry with lo <= key < hi.
func (m *sortedMap) collectRange(n *treeNode, lo, hi any, f func(k, v any)) {
	if n == nil {
		return
	}
	cmpLo := m.compare(n.key, lo)
	cmpHi := m.compare(n.key, hi)
	if cmpLo > 0 {
		m.collectRange(n.left, lo, hi, f)
	}
	if cmpLo >= 0 && cmpHi < 0 {
		f(n.key, n.value)
	}
	if cmpHi < 0 {
		m.collectRange(n.right, lo, hi, f)
	}
}

func (m *sortedMap) Equal(other any) bool {
	m2, ok := other.(Map)
	if !ok || m.count != m2.Len() {
		return false
	}
	for it := m.Iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		v2, ok := m2.Index(k)
		if !ok || !m.equal(v, v2) {
			return false
		}
	}
	return true
}

func (m *sortedMap) Iterator() Iterator {
	it := &iterator{reversed: m.reversed}
	it.push(m.root)
	return it
}

func (m *sortedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for it := m.Iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		kString, err := convertKey(k)
		if err != nil {
			return nil, err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kBytes, err := json.Marshal(kString)
		if err != nil {
			return nil, err
		}
		vBytes, err := json.Marshal(v)
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

// iterator performs an in-order traversal with an explicit stack of nodes
// whose entry is yet to be yielded. It holds the root, so iterating a map
// whose last other reference is gone is safe.
type iterator struct {
	reversed bool
	stack    []*treeNode
}

func (it *iterator) push(n *treeNode) {
	for n != nil {
		it.stack = append(it.stack, n)
		if it.reversed {
			n = n.right
		} else {
			n = n.left
		}
	}
}

func (it *iterator) Elem() (any, any) {
	n := it.stack[len(it.stack)-1]
	return n.key, n.value
}

func (it *iterator) HasElem() bool {
	return len(it.stack) > 0
}

func (it *iterator) Next() {
	n := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]
	if it.reversed {
		it.push(n.left)
	} else {
		it.push(n.right)
	}
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
