package sortedmap

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const (
	NSequential = 0x1000
	NRandom     = 0x2000
	NDissoc     = 0x800
)

func equalFunc(k1, k2 any) bool {
	return k1 == k2
}

func lessFunc(k1, k2 any) bool {
	switch k1 := k1.(type) {
	case int:
		return k1 < k2.(int)
	case string:
		return k1 < k2.(string)
	default:
		panic("unsupported key type")
	}
}

var empty = New(equalFunc, lessFunc)

func TestSortedMap(t *testing.T) {
	m := empty
	ref := make(map[int]string)
	r := rand.New(rand.NewSource(0xcafe))

	for i := 0; i < NSequential; i++ {
		k := i
		v := "seq " + string(rune('a'+i%26))
		m = m.Assoc(k, v)
		ref[k] = v
		if i%64 == 0 {
			checkTree(t, m)
		}
	}
	for i := 0; i < NRandom; i++ {
		k := r.Intn(NSequential * 4)
		v := "rand " + string(rune('a'+i%26))
		m = m.Assoc(k, v)
		ref[k] = v
		if m.Len() != len(ref) {
			t.Fatalf("m.Len() = %d, want %d", m.Len(), len(ref))
		}
	}
	checkTree(t, m)
	testMapContent(t, m, ref)
	testOrder(t, m)

	for i := 0; i < NDissoc; i++ {
		k := r.Intn(NSequential * 4)
		m = m.Dissoc(k)
		delete(ref, k)
		if m.Len() != len(ref) {
			t.Fatalf("m.Len() = %d after Dissoc, want %d", m.Len(), len(ref))
		}
		if _, in := m.Index(k); in {
			t.Fatalf("m.Index(%v) still returns item after removal", k)
		}
		if r.Float64() < 0.05 {
			checkTree(t, m)
		}
	}
	checkTree(t, m)
	testMapContent(t, m, ref)
	testOrder(t, m)

	// Drain the map completely.
	for k := range ref {
		m = m.Dissoc(k)
	}
	if m.Len() != 0 {
		t.Errorf("m.Len() = %d after removing everything, want 0", m.Len())
	}
}

func testMapContent(t *testing.T, m Map, ref map[int]string) {
	t.Helper()
	got := make(map[int]string, m.Len())
	for it := m.Iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		got[k.(int)] = v.(string)
	}
	if diff := cmp.Diff(ref, got); diff != "" {
		t.Errorf("iterated content differs from reference (-want +got):\n%s", diff)
	}
}

// testOrder checks that iteration yields keys in strictly ascending order.
func testOrder(t *testing.T, m Map) {
	t.Helper()
	first := true
	var prev any
	for it := m.Iterator(); it.HasElem(); it.Next() {
		k, _ := it.Elem()
		if !first && !lessFunc(prev, k) {
			t.Errorf("iteration yields %v after %v", k, prev)
		}
		prev = k
		first = false
	}
}

// checkTree verifies the red-black invariants: the root is black, no red
// node has a red child, no red link leans right, and every path from the
// root to a leaf crosses the same number of black nodes.
func checkTree(t *testing.T, m Map) {
	t.Helper()
	root := m.(*sortedMap).root
	if isRed(root) {
		t.Fatalf("root is red")
	}
	checkNode(t, root)
}

func checkNode(t *testing.T, n *treeNode) int {
	if n == nil {
		return 1
	}
	if n.red && (isRed(n.left) || isRed(n.right)) {
		t.Fatalf("red node %v has a red child", n.key)
	}
	if isRed(n.right) {
		t.Fatalf("right-leaning red link at %v", n.key)
	}
	lh := checkNode(t, n.left)
	rh := checkNode(t, n.right)
	if lh != rh {
		t.Fatalf("unbalanced black height at %v: %d vs %d", n.key, lh, rh)
	}
	if n.red {
		return lh
	}
	return lh + 1
}

// Assoc and Dissoc never modify the map they are called on.
func TestPersistence(t *testing.T) {
	m1 := empty
	for i := 0; i < 100; i++ {
		m1 = m1.Assoc(i, i*i)
	}
	m2 := m1.Assoc(50, -1)
	if v, _ := m1.Index(50); v != 2500 {
		t.Errorf("m1[50] = %v, want 2500", v)
	}
	if v, _ := m2.Index(50); v != -1 {
		t.Errorf("m2[50] = %v, want -1", v)
	}
	m3 := m1.Dissoc(50)
	if _, in := m1.Index(50); !in {
		t.Errorf("m1 lost key 50 after m1.Dissoc")
	}
	if _, in := m3.Index(50); in {
		t.Errorf("m3 still has key 50")
	}
}

func TestAssocSameValue(t *testing.T) {
	m := empty.Assoc(1, "a").Assoc(2, "b")
	if m2 := m.Assoc(1, "a"); m2 != m {
		t.Errorf("m.Assoc with existing value does not return the original map")
	}
}

func TestDissocAbsent(t *testing.T) {
	m := empty.Assoc(1, "a")
	if m2 := m.Dissoc(2); m2 != m {
		t.Errorf("m.Dissoc of absent key does not return the original map")
	}
}

func TestFirstLast(t *testing.T) {
	if _, _, ok := empty.First(); ok {
		t.Errorf("First of empty map reports an entry")
	}
	if _, _, ok := empty.Last(); ok {
		t.Errorf("Last of empty map reports an entry")
	}
	m := empty
	for i := 0; i < 100; i++ {
		m = m.Assoc(i, i*i)
	}
	if k, v, _ := m.First(); k != 0 || v != 0 {
		t.Errorf("m.First() = (%v, %v), want (0, 0)", k, v)
	}
	if k, v, _ := m.Last(); k != 99 || v != 9801 {
		t.Errorf("m.Last() = (%v, %v), want (99, 9801)", k, v)
	}
}

func TestSubseq(t *testing.T) {
	m := empty
	for i := 0; i < 100; i++ {
		m = m.Assoc(i, i*i)
	}
	sub := m.Subseq(10, 20)
	if sub.Len() != 10 {
		t.Errorf("sub.Len() = %d, want 10", sub.Len())
	}
	want := 10
	for it := sub.Iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		if k != want || v != want*want {
			t.Errorf("subseq yields (%v, %v), want (%v, %v)", k, v, want, want*want)
		}
		want++
	}
	// Original untouched; bounds beyond the key range clamp naturally.
	if m.Len() != 100 {
		t.Errorf("m.Len() = %d after Subseq, want 100", m.Len())
	}
	if all := m.Subseq(-100, 1000); all.Len() != 100 {
		t.Errorf("m.Subseq(-100, 1000).Len() = %d, want 100", all.Len())
	}
}

func TestRsubseq(t *testing.T) {
	m := empty
	for i := 0; i < 100; i++ {
		m = m.Assoc(i, i*i)
	}
	rsub := m.Rsubseq(10, 20)
	if rsub.Len() != 10 {
		t.Errorf("rsub.Len() = %d, want 10", rsub.Len())
	}
	want := 19
	for it := rsub.Iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		if k != want || v != want*want {
			t.Errorf("rsubseq yields (%v, %v), want (%v, %v)", k, v, want, want*want)
		}
		want--
	}
	if want != 9 {
		t.Errorf("rsubseq yields down to %d, want 10", want+1)
	}
	// Lookups still work on the reversed map.
	if v, _ := rsub.Index(15); v != 225 {
		t.Errorf("rsub[15] = %v, want 225", v)
	}
}

func TestEqual(t *testing.T) {
	m1 := empty.Assoc(1, "a").Assoc(2, "b")
	m2 := empty.Assoc(2, "b").Assoc(1, "a")
	if !m1.Equal(m2) {
		t.Errorf("maps with the same entries are not equal")
	}
	if m1.Equal(m2.Assoc(3, "c")) {
		t.Errorf("maps of different sizes are equal")
	}
	if m1.Equal(m2.Assoc(2, "x")) {
		t.Errorf("maps with different values are equal")
	}
}

func TestMarshalJSON(t *testing.T) {
	m := empty.Assoc(2, "b").Assoc(1, "a")
	out, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("m.MarshalJSON() -> err %v", err)
	}
	if want := `{"1":"a","2":"b"}`; string(out) != want {
		t.Errorf("m.MarshalJSON() = %s, want %s", out, want)
	}
}

func TestStringKeys(t *testing.T) {
	m := empty
	words := []string{"delta", "alpha", "charlie", "bravo"}
	for i, w := range words {
		m = m.Assoc(w, i)
	}
	if k, _, _ := m.First(); k != "alpha" {
		t.Errorf("m.First() key = %v, want alpha", k)
	}
	if k, _, _ := m.Last(); k != "delta" {
		t.Errorf("m.Last() key = %v, want delta", k)
	}
	sub := m.Subseq("alpha", "charlie")
	if sub.Len() != 2 {
		t.Errorf("m.Subseq(alpha, charlie).Len() = %d, want 2", sub.Len())
	}
}
