package vector

// iterator walks the vector in index order. It reads values a whole leaf (or
// the tail) at a time, re-descending the tree once per nodeSize elements.
type iterator struct {
	v     *vector
	index int
	end   int
	// Slice containing the current element, and the vector index of its
	// first element.
	slice []any
	off   int
}

func newIterator(v *vector) *iterator {
	return newIteratorWithRange(v, 0, v.Len())
}

func newIteratorWithRange(v *vector, begin, end int) *iterator {
	it := &iterator{v: v, index: begin, end: end}
	if it.index < it.end {
		it.refill()
	}
	return it
}

func (it *iterator) refill() {
	it.slice = it.v.sliceFor(it.index)
	if it.index >= it.v.treeSize() {
		it.off = it.v.treeSize()
	} else {
		it.off = it.index &^ chunkMask
	}
}

func (it *iterator) Elem() any {
	return it.slice[it.index-it.off]
}

func (it *iterator) HasElem() bool {
	return it.index < it.end
}

func (it *iterator) Next() {
	it.index++
	if it.index < it.end && it.index-it.off >= len(it.slice) {
		it.refill()
	}
}
