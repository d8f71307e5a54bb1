package sortedmap

// Rebalancing primitives for the left-leaning red-black tree. All of them
// build new nodes instead of mutating, so every version of the map keeps an
// intact view.

func isRed(n *treeNode) bool {
	return n != nil && n.red
}

func blacken(n *treeNode) *treeNode {
	if n == nil || !n.red {
		return n
	}
	return n.recolor(false)
}

func (n *treeNode) recolor(red bool) *treeNode {
	return &treeNode{n.key, n.value, n.left, n.right, red}
}

func (n *treeNode) withLeft(l *treeNode) *treeNode {
	return &treeNode{n.key, n.value, l, n.right, n.red}
}

func (n *treeNode) withRight(r *treeNode) *treeNode {
	return &treeNode{n.key, n.value, n.left, r, n.red}
}

func (n *treeNode) min() *treeNode {
	for n.left != nil {
		n = n.left
	}
	return n
}

// rotateLeft lifts the right child, which takes over h's color; h becomes
// its red left child.
func rotateLeft(h *treeNode) *treeNode {
	x := h.right
	return &treeNode{x.key, x.value,
		&treeNode{h.key, h.value, h.left, x.left, true}, x.right, h.red}
}

// rotateRight lifts the left child, which takes over h's color; h becomes
// its red right child.
func rotateRight(h *treeNode) *treeNode {
	x := h.left
	return &treeNode{x.key, x.value,
		x.left, &treeNode{h.key, h.value, x.right, h.right, true}, h.red}
}

// flip toggles the colors of h and of both children. Callers guarantee both
// children exist.
func flip(h *treeNode) *treeNode {
	return &treeNode{h.key, h.value,
		h.left.recolor(!h.left.red), h.right.recolor(!h.right.red), !h.red}
}

// fixUp restores the left-leaning invariants on the way out of a recursive
// insertion or deletion: right-leaning red links are rotated left, two reds
// in a row are rotated right, and full red nodes are split by a color flip.
func fixUp(h *treeNode) *treeNode {
	if isRed(h.right) && !isRed(h.left) {
		h = rotateLeft(h)
	}
	if isRed(h.left) && isRed(h.left.left) {
		h = rotateRight(h)
	}
	if isRed(h.left) && isRed(h.right) {
		h = flip(h)
	}
	return h
}

// moveRedLeft ensures h.left or h.left.left is red, borrowing from the right
// sibling if needed.
func moveRedLeft(h *treeNode) *treeNode {
	h = flip(h)
	if h.right != nil && isRed(h.right.left) {
		h = h.withRight(rotateRight(h.right))
		h = rotateLeft(h)
		h = flip(h)
	}
	return h
}

// moveRedRight ensures h.right or h.right.left is red, borrowing from the
// left sibling if needed.
func moveRedRight(h *treeNode) *treeNode {
	h = flip(h)
	if h.left != nil && isRed(h.left.left) {
		h = rotateRight(h)
		h = flip(h)
	}
	return h
}
