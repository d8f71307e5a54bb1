// Package hashmap implements persistent hashmap.
package hashmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/bits"
	"reflect"
)

const (
	chunkBits = 5
	nodeCap   = 1 << chunkBits
	chunkMask = nodeCap - 1
)

// Equal is the type of a function that reports whether two keys are equal.
type Equal func(k1, k2 any) bool

// Hash is the type of a function that returns the hash code of a key.
type Hash func(k any) uint32

// New takes an equality function and a hash function, and returns an empty
// Map. The hash function must return identical hash codes for keys that are
// equal, or lookups will miss.
func New(e Equal, h Hash) Map {
	return &hashMap{0, emptyBitmapNode, e, h}
}

type hashMap struct {
	count int
	root  node
	equal Equal
	hash  Hash
}

func (m *hashMap) Len() int {
	return m.count
}

func (m *hashMap) Index(k any) (any, bool) {
	return m.root.find(m.equal, 0, m.hash(k), k)
}

func (m *hashMap) Get(k, def any) any {
	if v, ok := m.Index(k); ok {
		return v
	}
	return def
}

func (m *hashMap) Assoc(k, v any) Map {
	newRoot, added := m.root.assoc(m.equal, m.hash, 0, m.hash(k), k, v)
	if newRoot == m.root {
		return m
	}
	newCount := m.count
	if added {
		newCount++
	}
	return &hashMap{newCount, newRoot, m.equal, m.hash}
}

func (m *hashMap) Dissoc(k any) Map {
	newRoot, deleted := m.root.without(m.equal, 0, m.hash(k), k)
	if !deleted {
		return m
	}
	if newRoot == nil {
		newRoot = emptyBitmapNode
	}
	return &hashMap{m.count - 1, newRoot, m.equal, m.hash}
}

func (m *hashMap) UpdateFrom(it EntryIterator) Map {
	acc := Map(m)
	for ; it.HasElem(); it.Next() {
		k, v := it.Elem()
		acc = acc.Assoc(k, v)
	}
	return acc
}

func (m *hashMap) Iterator() Iterator {
	return m.root.iterator()
}

func (m *hashMap) Equal(other any) bool {
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

func (m *hashMap) MarshalJSON() ([]byte, error) {
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

// sameValue reports whether x and y are identical values. The comparison is
// guarded by a comparability check, so values of incomparable types are never
// identical.
func sameValue(x, y any) bool {
	if x == nil || y == nil {
		return x == y
	}
	t := reflect.TypeOf(x)
	return t == reflect.TypeOf(y) && t.Comparable() && x == y
}

// entry is a key-value pair. Entries are shared, never mutated; a single
// entry may be reachable from any number of map versions.
type entry struct {
	key   any
	value any
}

// slot is one occupied position of a bitmapNode: either a leaf entry or a
// child node, never both.
type slot struct {
	entry *entry
	child node
}

// node is an interface for all nodes in the hash map tree.
type node interface {
	// assoc adds a new pair of key and value. It returns the new node, and
	// whether the key did not exist before (i.e. a new pair has been added,
	// instead of replaced). It returns the receiver itself when the key is
	// already associated with an identical value.
	assoc(eq Equal, hf Hash, shift, hash uint32, k, v any) (node, bool)
	// without removes a key. It returns the new node (nil if the node
	// dissolves) and whether the key existed.
	without(eq Equal, shift, hash uint32, k any) (node, bool)
	// find finds the value for a key. It returns the found value (if any) and
	// whether such a pair exists.
	find(eq Equal, shift, hash uint32, k any) (any, bool)
	// iterator returns an iterator.
	iterator() Iterator
}

func chunk(shift, hash uint32) uint32 {
	return (hash >> shift) & chunkMask
}

func bitpos(shift, hash uint32) uint32 {
	return 1 << chunk(shift, hash)
}

func index(bitmap, bit uint32) uint32 {
	return uint32(bits.OnesCount32(bitmap & (bit - 1)))
}

var emptyBitmapNode = &bitmapNode{}

type bitmapNode struct {
	bitmap uint32
	slots  []slot
}

func (n *bitmapNode) withNewSlot(bit, idx uint32, s slot) *bitmapNode {
	newSlots := make([]slot, len(n.slots)+1)
	copy(newSlots[:idx], n.slots[:idx])
	newSlots[idx] = s
	copy(newSlots[idx+1:], n.slots[idx:])
	return &bitmapNode{n.bitmap | bit, newSlots}
}

func (n *bitmapNode) withReplacedSlot(idx uint32, s slot) *bitmapNode {
	newSlots := append([]slot(nil), n.slots...)
	newSlots[idx] = s
	return &bitmapNode{n.bitmap, newSlots}
}

func (n *bitmapNode) withoutSlot(bit, idx uint32) *bitmapNode {
	newSlots := make([]slot, len(n.slots)-1)
	copy(newSlots[:idx], n.slots[:idx])
	copy(newSlots[idx:], n.slots[idx+1:])
	return &bitmapNode{n.bitmap ^ bit, newSlots}
}

// createNode builds a subtree for two entries whose hashes agree on all
// chunks below shift. It produces a collisionNode when the full hashes are
// identical.
func createNode(hf Hash, shift uint32, e1 *entry, h2 uint32, e2 *entry) node {
	h1 := hf(e1.key)
	if h1 == h2 {
		return &collisionNode{h1, []*entry{e1, e2}}
	}
	return mergeLeaves(shift, h1, e1, h2, e2)
}

// mergeLeaves builds the minimal subtree separating two entries with
// different hashes. Since the hashes differ in some chunk, the recursion
// terminates.
func mergeLeaves(shift, h1 uint32, e1 *entry, h2 uint32, e2 *entry) *bitmapNode {
	c1, c2 := chunk(shift, h1), chunk(shift, h2)
	switch {
	case c1 == c2:
		child := mergeLeaves(shift+chunkBits, h1, e1, h2, e2)
		return &bitmapNode{1 << c1, []slot{{child: child}}}
	case c1 < c2:
		return &bitmapNode{1<<c1 | 1<<c2, []slot{{entry: e1}, {entry: e2}}}
	default:
		return &bitmapNode{1<<c1 | 1<<c2, []slot{{entry: e2}, {entry: e1}}}
	}
}

func (n *bitmapNode) assoc(eq Equal, hf Hash, shift, hash uint32, k, v any) (node, bool) {
	bit := bitpos(shift, hash)
	idx := index(n.bitmap, bit)
	if n.bitmap&bit == 0 {
		// Empty slot.
		return n.withNewSlot(bit, idx, slot{entry: &entry{k, v}}), true
	}
	s := n.slots[idx]
	if s.entry == nil {
		// Child node.
		newChild, added := s.child.assoc(eq, hf, shift+chunkBits, hash, k, v)
		if newChild == s.child {
			return n, false
		}
		return n.withReplacedSlot(idx, slot{child: newChild}), added
	}
	// Leaf entry.
	if eq(k, s.entry.key) {
		if sameValue(s.entry.value, v) {
			return n, false
		}
		return n.withReplacedSlot(idx, slot{entry: &entry{k, v}}), false
	}
	// Two distinct keys in one slot; grow a subtree.
	newChild := createNode(hf, shift+chunkBits, s.entry, hash, &entry{k, v})
	return n.withReplacedSlot(idx, slot{child: newChild}), true
}

func (n *bitmapNode) without(eq Equal, shift, hash uint32, k any) (node, bool) {
	bit := bitpos(shift, hash)
	if n.bitmap&bit == 0 {
		return n, false
	}
	idx := index(n.bitmap, bit)
	s := n.slots[idx]
	if s.entry == nil {
		// Child node.
		newChild, deleted := s.child.without(eq, shift+chunkBits, hash, k)
		if newChild == s.child {
			return n, false
		}
		if newChild == nil {
			// Sole element in subtree deleted.
			if n.bitmap == bit {
				return nil, true
			}
			return n.withoutSlot(bit, idx), true
		}
		if c, ok := newChild.(*collisionNode); ok && len(c.entries) == 1 {
			// A collision node may not drop below two entries; absorb the
			// remaining entry into this slot.
			return n.withReplacedSlot(idx, slot{entry: c.entries[0]}), true
		}
		return n.withReplacedSlot(idx, slot{child: newChild}), deleted
	} else if eq(k, s.entry.key) {
		// Leaf, and this is the entry to delete.
		if n.bitmap == bit {
			return nil, true
		}
		return n.withoutSlot(bit, idx), true
	}
	// Nothing to delete.
	return n, false
}

func (n *bitmapNode) find(eq Equal, shift, hash uint32, k any) (any, bool) {
	bit := bitpos(shift, hash)
	if n.bitmap&bit == 0 {
		return nil, false
	}
	idx := index(n.bitmap, bit)
	s := n.slots[idx]
	if s.entry == nil {
		return s.child.find(eq, shift+chunkBits, hash, k)
	} else if eq(k, s.entry.key) {
		return s.entry.value, true
	}
	return nil, false
}

func (n *bitmapNode) iterator() Iterator {
	it := &bitmapNodeIterator{n, 0, nil}
	it.fixCurrent()
	return it
}

type bitmapNodeIterator struct {
	n       *bitmapNode
	index   int
	current Iterator
}

func (it *bitmapNodeIterator) fixCurrent() {
	if it.index < len(it.n.slots) && it.n.slots[it.index].entry == nil {
		it.current = it.n.slots[it.index].child.iterator()
	} else {
		it.current = nil
	}
}

func (it *bitmapNodeIterator) Elem() (any, any) {
	if it.current != nil {
		return it.current.Elem()
	}
	e := it.n.slots[it.index].entry
	return e.key, e.value
}

func (it *bitmapNodeIterator) HasElem() bool {
	return it.index < len(it.n.slots)
}

func (it *bitmapNodeIterator) Next() {
	if it.current != nil {
		it.current.Next()
	}
	if it.current == nil || !it.current.HasElem() {
		it.index++
		it.fixCurrent()
	}
}

type collisionNode struct {
	hash    uint32
	entries []*entry
}

func (n *collisionNode) assoc(eq Equal, hf Hash, shift, hash uint32, k, v any) (node, bool) {
	if hash == n.hash {
		idx := n.findIndex(eq, k)
		if idx != -1 {
			if sameValue(n.entries[idx].value, v) {
				return n, false
			}
			newEntries := append([]*entry(nil), n.entries...)
			newEntries[idx] = &entry{k, v}
			return &collisionNode{n.hash, newEntries}, false
		}
		newEntries := make([]*entry, len(n.entries)+1)
		copy(newEntries, n.entries)
		newEntries[len(n.entries)] = &entry{k, v}
		return &collisionNode{n.hash, newEntries}, true
	}
	// Wrap in a bitmapNode and add the entry.
	wrap := bitmapNode{bitpos(shift, n.hash), []slot{{child: n}}}
	return wrap.assoc(eq, hf, shift, hash, k, v)
}

func (n *collisionNode) without(eq Equal, shift, hash uint32, k any) (node, bool) {
	idx := n.findIndex(eq, k)
	if idx == -1 {
		return n, false
	}
	newEntries := make([]*entry, len(n.entries)-1)
	copy(newEntries[:idx], n.entries[:idx])
	copy(newEntries[idx:], n.entries[idx+1:])
	// A single remaining entry is absorbed into the parent slot by the
	// caller.
	return &collisionNode{n.hash, newEntries}, true
}

func (n *collisionNode) find(eq Equal, shift, hash uint32, k any) (any, bool) {
	idx := n.findIndex(eq, k)
	if idx == -1 {
		return nil, false
	}
	return n.entries[idx].value, true
}

func (n *collisionNode) findIndex(eq Equal, k any) int {
	for i, e := range n.entries {
		if eq(k, e.key) {
			return i
		}
	}
	return -1
}

func (n *collisionNode) iterator() Iterator {
	return &collisionNodeIterator{n, 0}
}

type collisionNodeIterator struct {
	n     *collisionNode
	index int
}

func (it *collisionNodeIterator) Elem() (any, any) {
	e := it.n.entries[it.index]
	return e.key, e.value
}

func (it *collisionNodeIterator) HasElem() bool {
	return it.index < len(it.n.entries)
}

func (it *collisionNodeIterator) Next() {
	it.index++
}
