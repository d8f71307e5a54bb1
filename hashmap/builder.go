package hashmap

// Entry is a key-value pair for bulk construction.
type Entry struct {
	Key   any
	Value any
}

// Bulk constructions of at least this many entries partition the entries
// bottom-up with arena-allocated nodes; below it, folding Assoc is faster.
const bulkThreshold = 1000

// FromEntries returns a map containing all the given entries; later entries
// with equal keys win.
func FromEntries(e Equal, h Hash, entries []Entry) Map {
	if len(entries) < bulkThreshold {
		m := New(e, h)
		for _, en := range entries {
			m = m.Assoc(en.Key, en.Value)
		}
		return m
	}
	return fromEntriesBulk(e, h, entries)
}

// FromMap returns a map containing all entries of a native map.
func FromMap(e Equal, h Hash, m map[any]any) Map {
	if len(m) < bulkThreshold {
		acc := New(e, h)
		for k, v := range m {
			acc = acc.Assoc(k, v)
		}
		return acc
	}
	entries := make([]Entry, 0, len(m))
	for k, v := range m {
		entries = append(entries, Entry{k, v})
	}
	return fromEntriesBulk(e, h, entries)
}

type hashedEntry struct {
	hash uint32
	e    *entry
}

func fromEntriesBulk(eq Equal, hf Hash, entries []Entry) Map {
	hashed := make([]hashedEntry, len(entries))
	for i, en := range entries {
		hashed[i] = hashedEntry{hf(en.Key), &entry{en.Key, en.Value}}
	}
	a := new(arena)
	s, h := buildSlot(eq, a, 0, hashed)
	var root node
	if s.child != nil {
		if _, ok := s.child.(*collisionNode); !ok {
			root = s.child
		}
	}
	if root == nil {
		// All entries in one slot; wrap so the root stays a bitmap node.
		root = a.newBitmapNode(bitpos(0, h), a.newSlots(1))
		root.(*bitmapNode).slots[0] = s
	}
	root = cloneToHeap(root)
	return &hashMap{countEntries(root), root, eq, hf}
}

// buildSlot builds the slot for a bucket of hashed entries at the given
// level, partitioning recursively by the current 5-bit chunk. It also returns
// the hash of one contained entry, for the caller to position the slot.
func buildSlot(eq Equal, a *arena, shift uint32, items []hashedEntry) (slot, uint32) {
	if len(items) == 1 {
		return slot{entry: items[0].e}, items[0].hash
	}
	h0 := items[0].hash
	same := true
	for _, it := range items[1:] {
		if it.hash != h0 {
			same = false
			break
		}
	}
	if same {
		deduped := dedupEntries(eq, items)
		if len(deduped) == 1 {
			return slot{entry: deduped[0]}, h0
		}
		return slot{child: a.newCollisionNode(h0, deduped)}, h0
	}
	var buckets [nodeCap][]hashedEntry
	for _, it := range items {
		c := chunk(shift, it.hash)
		buckets[c] = append(buckets[c], it)
	}
	var bitmap uint32
	n := 0
	for c := range buckets {
		if len(buckets[c]) > 0 {
			bitmap |= 1 << uint(c)
			n++
		}
	}
	slots := a.newSlots(n)
	i := 0
	for c := range buckets {
		if len(buckets[c]) > 0 {
			slots[i], _ = buildSlot(eq, a, shift+chunkBits, buckets[c])
			i++
		}
	}
	return slot{child: a.newBitmapNode(bitmap, slots)}, h0
}

// dedupEntries collapses entries with equal keys, later entries winning. All
// items share the same full hash, so buckets are tiny.
func dedupEntries(eq Equal, items []hashedEntry) []*entry {
	var result []*entry
	for _, it := range items {
		replaced := false
		for i, e := range result {
			if eq(it.e.key, e.key) {
				result[i] = it.e
				replaced = true
				break
			}
		}
		if !replaced {
			result = append(result, it.e)
		}
	}
	return result
}
