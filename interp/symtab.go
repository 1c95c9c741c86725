package interp

// staticSlots is the count of always-present integer variable slots:
// A% through Z% plus @% (§4.4), never hashed. Each slot's record is
// allocated lazily by LookupStatic on first use.
const staticSlots = 27

// defaultBucketCount is the number of hash chains in each dynamic
// symbol table when Config's SymbolBuckets is not positive.
const defaultBucketCount = 97

// hashName implements the spec's custom byte hash h=(h*5)^b (§4.4),
// kept as hand-rolled bucket chaining rather than Go's built-in map
// because lookup order (library table first, then main table) is part
// of the observable contract and a map can't be walked in chain order
// for diagnostics the way a chain can.
func hashName(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = (h * 5) ^ uint32(name[i])
	}
	return h
}

// symEntry is one hash-chain link.
type symEntry struct {
	name string
	hash uint32
	rec  Handle
	next *symEntry
}

// SymTable is a single hash-chained symbol table, used once for the
// main program and once per LIBRARY (§4.4). Grounded on the shape of
// the teacher's strToInstrMap/instrToStrMap map-building pass in
// vm/bytecode.go, replaced with explicit chaining per the lookup-order
// requirement above.
type SymTable struct {
	buckets []*symEntry
	name    string // "" for the main table, library name otherwise
}

func newSymTable(name string, buckets int) *SymTable {
	if buckets <= 0 {
		buckets = defaultBucketCount
	}
	return &SymTable{buckets: make([]*symEntry, buckets), name: name}
}

func (t *SymTable) bucketIndex(h uint32) int {
	return int(h % uint32(len(t.buckets)))
}

// Lookup returns the record handle for name, or NilHandle if absent.
func (t *SymTable) Lookup(name string) (Handle, bool) {
	h := hashName(name)
	for e := t.buckets[t.bucketIndex(h)]; e != nil; e = e.next {
		if e.hash == h && e.name == name {
			return e.rec, true
		}
	}
	return NilHandle, false
}

// Insert adds a new binding, chaining onto any existing bucket.
func (t *SymTable) Insert(name string, rec Handle) {
	h := hashName(name)
	idx := t.bucketIndex(h)
	t.buckets[idx] = &symEntry{name: name, hash: h, rec: rec, next: t.buckets[idx]}
}

// Remove deletes a single binding. CLEAR does not use it: ClearDynamic
// empties whole tables with Clear.
func (t *SymTable) Remove(name string) {
	h := hashName(name)
	idx := t.bucketIndex(h)
	var prev *symEntry
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.hash == h && e.name == name {
			if prev == nil {
				t.buckets[idx] = e.next
			} else {
				prev.next = e.next
			}
			return
		}
		prev = e
	}
}

// Clear empties every bucket.
func (t *SymTable) Clear() {
	for i := range t.buckets {
		t.buckets[i] = nil
	}
}

// SymbolSpace aggregates the static A%..Z%/@% slots, the main dynamic
// table, and zero or more LIBRARY tables, implementing the lookup-order
// rule of §4.4: a bare name is searched in the innermost active
// library's table first, then the main table, never the reverse.
type SymbolSpace struct {
	statics  [staticSlots]Handle
	main     *SymTable
	libs     map[string]*SymTable
	libOrder []string // active LIBRARY scopes, innermost last
}

func newSymbolSpace(buckets int) *SymbolSpace {
	ss := &SymbolSpace{
		main: newSymTable("", buckets),
		libs: make(map[string]*SymTable),
	}
	for i := range ss.statics {
		ss.statics[i] = NilHandle
	}
	return ss
}

// staticIndex maps A..Z to 0..25 and @ to 26, or -1 if name isn't a
// static integer variable name.
func staticIndex(letter byte) int {
	switch {
	case letter >= 'A' && letter <= 'Z':
		return int(letter - 'A')
	case letter == '@':
		return 26
	default:
		return -1
	}
}

// LookupStatic returns the handle bound to a static integer slot
// (A%..Z%, @%), allocating it lazily on first use with the supplied
// heap if unbound.
func (ss *SymbolSpace) LookupStatic(letter byte, heap *Heap) Handle {
	idx := staticIndex(letter)
	if idx < 0 {
		raiseBroken("SymbolSpace: not a static slot letter", 0)
	}
	if ss.statics[idx] == NilHandle {
		ss.statics[idx] = heap.AllocVar(&VarRecord{Tag: KindInt32})
	}
	return ss.statics[idx]
}

// PushLibrary activates a LIBRARY scope, making its table
// searched before the main table until popped.
func (ss *SymbolSpace) PushLibrary(name string, buckets int) {
	if _, ok := ss.libs[name]; !ok {
		ss.libs[name] = newSymTable(name, buckets)
	}
	ss.libOrder = append(ss.libOrder, name)
}

func (ss *SymbolSpace) PopLibrary() {
	if n := len(ss.libOrder); n > 0 {
		ss.libOrder = ss.libOrder[:n-1]
	}
}

// Resolve looks up a dynamic (non-static) name, checking the innermost
// active library table before the main table.
func (ss *SymbolSpace) Resolve(name string) (Handle, bool) {
	if n := len(ss.libOrder); n > 0 {
		if t, ok := ss.libs[ss.libOrder[n-1]]; ok {
			if h, found := t.Lookup(name); found {
				return h, true
			}
		}
	}
	return ss.main.Lookup(name)
}

// Define binds name in the innermost active library table if one is
// active, otherwise in the main table — new PROC/FN/variable
// definitions join whichever scope is currently open.
func (ss *SymbolSpace) Define(name string, rec Handle) {
	if n := len(ss.libOrder); n > 0 {
		ss.libs[ss.libOrder[n-1]].Insert(name, rec)
		return
	}
	ss.main.Insert(name, rec)
}

// DefinedInActiveScope reports whether name is already bound directly in
// whichever table Define would write to (the innermost active library
// table, or the main table if none is active). Unlike Resolve, this
// never falls back past an active library to the main table — a
// pre-existing main-table name must not suppress a library's own,
// independent private declaration of the same name (§4.4.1's
// LIBRARY LOCAL).
func (ss *SymbolSpace) DefinedInActiveScope(name string) bool {
	if n := len(ss.libOrder); n > 0 {
		_, ok := ss.libs[ss.libOrder[n-1]].Lookup(name)
		return ok
	}
	_, ok := ss.main.Lookup(name)
	return ok
}

// ClearDynamic discards every dynamic binding (CLEAR), leaving static
// integer slots untouched per §4.4's static-slot carve-out.
func (ss *SymbolSpace) ClearDynamic() {
	ss.main.Clear()
	for _, t := range ss.libs {
		t.Clear()
	}
}
