package hashmap

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xiaq/persistent/hash"
)

const (
	NSequential = 0x1000
	NCollision  = 0x100
	NRandom     = 0x4000
	NReplace    = 0x200

	SmallRandomPass      = 0x100
	NSmallRandom         = 0x400
	SmallRandomHighBound = 0x50
	SmallRandomLowBound  = 0x200

	NIneffectiveDissoc = 0x200
)

type testKey uint64
type anotherTestKey uint32

func equalFunc(k1, k2 any) bool {
	switch k1 := k1.(type) {
	case testKey:
		t2, ok := k2.(testKey)
		return ok && k1 == t2
	case anotherTestKey:
		return false
	default:
		return k1 == k2
	}
}

func hashFunc(k any) uint32 {
	switch k := k.(type) {
	case uint32:
		return k
	case string:
		return hash.String(k)
	case testKey:
		// Return the lower 32 bits for testKey. This is intended so that hash
		// collisions can be easily constructed.
		return uint32(k & 0xffffffff)
	case anotherTestKey:
		return uint32(k)
	default:
		return 0
	}
}

var empty = New(equalFunc, hashFunc)

type refEntry struct {
	k testKey
	v string
}

func hex(i uint64) string {
	return "0x" + strconv.FormatUint(i, 16)
}

func TestHashMap(t *testing.T) {
	var refEntries []refEntry
	add := func(k testKey, v string) {
		refEntries = append(refEntries, refEntry{k, v})
	}

	for i := 0; i < NSequential; i++ {
		add(testKey(i), hex(uint64(i)))
	}
	for i := 0; i < NCollision; i++ {
		add(testKey(uint64(i+1)<<32), "collision "+hex(uint64(i)))
	}
	for i := 0; i < NRandom; i++ {
		k := uint64(rand.Int63())>>31 | uint64(rand.Int63())<<32
		add(testKey(k), "random "+hex(k))
	}
	for i := 0; i < NReplace; i++ {
		k := uint64(rand.Int31n(NSequential))
		add(testKey(k), "replace "+hex(k))
	}

	testHashMapWithRefEntries(t, refEntries)
}

func TestHashMapSmallRandom(t *testing.T) {
	for p := 0; p < SmallRandomPass; p++ {
		var refEntries []refEntry
		add := func(k testKey, v string) {
			refEntries = append(refEntries, refEntry{k, v})
		}

		for i := 0; i < NSmallRandom; i++ {
			k := uint64(uint64(rand.Int31n(SmallRandomHighBound))<<32 |
				uint64(rand.Int31n(SmallRandomLowBound)))
			add(testKey(k), "random "+hex(k))
		}

		testHashMapWithRefEntries(t, refEntries)
	}
}

// testHashMapWithRefEntries tests the operations of a Map. It uses the
// supplied list of entries to build the map, and then tests all its
// operations.
func testHashMapWithRefEntries(t *testing.T, refEntries []refEntry) {
	t.Helper()
	m := empty
	// Len of empty should be 0.
	if m.Len() != 0 {
		t.Errorf("m.Len = %d, want %d", m.Len(), 0)
	}

	// Assoc and Len, test by building a reference map simultaneously.
	ref := make(map[testKey]string, len(refEntries))
	for _, e := range refEntries {
		ref[e.k] = e.v
		m = m.Assoc(e.k, e.v)
		if m.Len() != len(ref) {
			t.Errorf("m.Len = %d, want %d", m.Len(), len(ref))
		}
	}

	// Index.
	testMapContent(t, m, ref)
	got, in := m.Index(anotherTestKey(0))
	if in {
		t.Errorf("m.Index <bad key> returns entry %v", got)
	}
	// Iterator.
	testIterator(t, m, ref)

	// Dissoc.
	// Ineffective ones.
	for i := 0; i < NIneffectiveDissoc; i++ {
		k := anotherTestKey(uint32(rand.Int31())>>15 | uint32(rand.Int31())<<16)
		m2 := m.Dissoc(k)
		if m2 != m {
			t.Errorf("m.Dissoc(%v) does not return the original map", k)
		}
	}

	// Effective ones.
	for x := 0; x < len(refEntries); x++ {
		i := rand.Intn(len(refEntries))
		k := refEntries[i].k
		delete(ref, k)
		m = m.Dissoc(k)
		if m.Len() != len(ref) {
			t.Errorf("m.Len() = %d after removing, should be %v", m.Len(), len(ref))
		}
		_, in := m.Index(k)
		if in {
			t.Errorf("m.Index(%v) still returns item after removal", k)
		}
		// Checking all elements is expensive. Only do this 1% of the time.
		if rand.Float64() < 0.01 {
			testMapContent(t, m, ref)
			testIterator(t, m, ref)
		}
	}
}

func testMapContent(t *testing.T, m Map, ref map[testKey]string) {
	t.Helper()
	for k, v := range ref {
		got, in := m.Index(k)
		if !in {
			t.Errorf("m.Index 0x%x returns no entry", uint64(k))
		}
		if got != v {
			t.Errorf("m.Index(0x%x) = %v, want %v", uint64(k), got, v)
		}
	}
}

func testIterator(t *testing.T, m Map, ref map[testKey]string) {
	t.Helper()
	got := make(map[testKey]string, m.Len())
	for it := m.Iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		if _, dup := got[k.(testKey)]; dup {
			t.Errorf("iterator yields 0x%x twice", uint64(k.(testKey)))
		}
		got[k.(testKey)] = v.(string)
	}
	if diff := cmp.Diff(ref, got); diff != "" {
		t.Errorf("iterated content differs from reference (-want +got):\n%s", diff)
	}
}

func TestGetWithDefault(t *testing.T) {
	m := makeHashMap(uint32(1), "a", "2", "b")
	if got := m.Get(uint32(1), "default"); got != "a" {
		t.Errorf(`m.Get(1, "default") = %v, want "a"`, got)
	}
	if got := m.Get(uint32(10), "default"); got != "default" {
		t.Errorf(`m.Get(10, "default") = %v, want "default"`, got)
	}
}

// Assoc'ing the value a key already has returns the original map, with no
// new nodes.
func TestAssocSameValue(t *testing.T) {
	m := empty
	for i := 0; i < NSequential; i++ {
		m = m.Assoc(testKey(i), hex(uint64(i)))
	}
	for i := 0; i < NSequential; i++ {
		m2 := m.Assoc(testKey(i), hex(uint64(i)))
		if m2 != m {
			t.Errorf("m.Assoc with existing value does not return the original map")
		}
	}
	// Collision nodes take the same shortcut.
	m = m.Assoc(testKey(1<<32), "x").Assoc(testKey(2<<32), "y")
	if m2 := m.Assoc(testKey(1<<32), "x"); m2 != m {
		t.Errorf("m.Assoc with existing value in collision node does not return the original map")
	}
}

// Dissoc and Assoc never modify the map they are called on.
func TestPersistence(t *testing.T) {
	const n = 10000
	m1 := empty
	for i := 0; i < n; i++ {
		m1 = m1.Assoc(testKey(i), strconv.Itoa(i*2))
	}
	m2 := m1.Assoc(testKey(5000), "-1")
	if v, _ := m1.Index(testKey(5000)); v != "10000" {
		t.Errorf("m1[5000] = %v, want 10000", v)
	}
	if v, _ := m2.Index(testKey(5000)); v != "-1" {
		t.Errorf("m2[5000] = %v, want -1", v)
	}
	if m1.Len() != n || m2.Len() != n {
		t.Errorf("Len = %d, %d, want %d, %d", m1.Len(), m2.Len(), n, n)
	}
	m3 := m1.Dissoc(testKey(5000))
	if m3.Len() != n-1 {
		t.Errorf("m3.Len() = %d, want %d", m3.Len(), n-1)
	}
	if _, in := m1.Index(testKey(5000)); !in {
		t.Errorf("m1 lost key 5000 after m1.Dissoc")
	}
}

func TestEqual(t *testing.T) {
	m1 := makeHashMap(uint32(1), "a", "2", "b", "3", "c")
	m2 := makeHashMap("3", "c", "2", "b", uint32(1), "a")
	if !m1.Equal(m2) {
		t.Errorf("maps with the same entries in different orders are not equal")
	}
	if m1.Equal(m1.Dissoc("2")) {
		t.Errorf("maps of different sizes are equal")
	}
	if m1.Equal(m2.Assoc("2", "x")) {
		t.Errorf("maps with different values are equal")
	}
	if m1.Equal("not a map") {
		t.Errorf("map is equal to a non-map")
	}
}

var marshalJSONTests = []struct {
	in      Map
	wantOut string
	wantErr bool
}{
	{makeHashMap(uint32(1), "a", "2", "b"), `{"1":"a","2":"b"}`, false},
	// Invalid key type
	{makeHashMap([]any{}, "x"), "", true},
}

func TestMarshalJSON(t *testing.T) {
	for i, test := range marshalJSONTests {
		out, err := test.in.MarshalJSON()
		if string(out) != test.wantOut {
			t.Errorf("m%d.MarshalJSON -> out %s, want %s", i, out, test.wantOut)
		}
		if (err != nil) != test.wantErr {
			var wantErr string
			if test.wantErr {
				wantErr = "non-nil"
			} else {
				wantErr = "nil"
			}
			t.Errorf("m%d.MarshalJSON -> err %v, want %s", i, err, wantErr)
		}
	}
}

func makeHashMap(data ...any) Map {
	m := empty
	for i := 0; i+1 < len(data); i += 2 {
		k, v := data[i], data[i+1]
		m = m.Assoc(k, v)
	}
	return m
}
