package hashmap

import "math/bits"

// Updates of at least this many incoming entries merge the two tries
// structurally instead of folding Assoc.
const mergeThreshold = 100

func (m *hashMap) Update(other Map) Map {
	if o, ok := other.(*hashMap); ok {
		if o.count == 0 {
			return m
		}
		if m.count == 0 {
			return &hashMap{o.count, o.root, m.equal, m.hash}
		}
		if o.count >= mergeThreshold {
			root := mergeNodes(m.equal, m.hash, 0, m.root, o.root)
			// Overlapping keys make the merged size unpredictable; recount.
			return &hashMap{countEntries(root), root, m.equal, m.hash}
		}
	}
	return m.UpdateFrom(other.Iterator())
}

// mergeNodes merges two subtrees rooted at the same position. Associations
// from r win over those from l. Unshared shapes (collision vs bitmap,
// collisions with different hashes) fall back to entry-wise insertion.
func mergeNodes(eq Equal, hf Hash, shift uint32, l, r node) node {
	if lb, ok := l.(*bitmapNode); ok {
		if rb, ok := r.(*bitmapNode); ok {
			return mergeBitmap(eq, hf, shift, lb, rb)
		}
	}
	if lc, ok := l.(*collisionNode); ok {
		if rc, ok := r.(*collisionNode); ok && lc.hash == rc.hash {
			return mergeCollision(eq, lc, rc)
		}
	}
	n := l
	for it := r.iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		n, _ = n.assoc(eq, hf, shift, hf(k), k, v)
	}
	return n
}

func mergeBitmap(eq Equal, hf Hash, shift uint32, l, r *bitmapNode) *bitmapNode {
	union := l.bitmap | r.bitmap
	slots := make([]slot, bits.OnesCount32(union))
	li, ri, i := 0, 0, 0
	for c := uint32(0); c < nodeCap; c++ {
		bit := uint32(1) << c
		if union&bit == 0 {
			continue
		}
		inL := l.bitmap&bit != 0
		inR := r.bitmap&bit != 0
		switch {
		case inL && !inR:
			slots[i] = l.slots[li]
			li++
		case !inL && inR:
			slots[i] = r.slots[ri]
			ri++
		default:
			slots[i] = mergeSlot(eq, hf, shift+chunkBits, l.slots[li], r.slots[ri])
			li++
			ri++
		}
		i++
	}
	return &bitmapNode{union, slots}
}

func mergeSlot(eq Equal, hf Hash, shift uint32, ls, rs slot) slot {
	switch {
	case ls.entry == nil && rs.entry == nil:
		return slot{child: mergeNodes(eq, hf, shift, ls.child, rs.child)}
	case ls.entry == nil:
		// Child in l, entry in r: the entry overwrites.
		n, _ := ls.child.assoc(eq, hf, shift, hf(rs.entry.key), rs.entry.key, rs.entry.value)
		return slot{child: n}
	case rs.entry == nil:
		// Entry in l, child in r: keep l's entry unless r already has the key.
		h := hf(ls.entry.key)
		if _, ok := rs.child.find(eq, shift, h, ls.entry.key); ok {
			return rs
		}
		n, _ := rs.child.assoc(eq, hf, shift, h, ls.entry.key, ls.entry.value)
		return slot{child: n}
	default:
		if eq(rs.entry.key, ls.entry.key) {
			return rs
		}
		return slot{child: createNode(hf, shift, ls.entry, hf(rs.entry.key), rs.entry)}
	}
}

func mergeCollision(eq Equal, l, r *collisionNode) *collisionNode {
	entries := append([]*entry(nil), r.entries...)
	for _, le := range l.entries {
		found := false
		for _, re := range r.entries {
			if eq(le.key, re.key) {
				found = true
				break
			}
		}
		if !found {
			entries = append(entries, le)
		}
	}
	return &collisionNode{l.hash, entries}
}

func countEntries(n node) int {
	switch n := n.(type) {
	case *bitmapNode:
		total := 0
		for _, s := range n.slots {
			if s.entry != nil {
				total++
			} else {
				total += countEntries(s.child)
			}
		}
		return total
	case *collisionNode:
		return len(n.entries)
	default:
		return 0
	}
}
