package interp

// Handle is a stable arena index standing in for a raw pointer, per §9's
// design note ("pointer-graph descriptors ... implemented with stable
// arena indices rather than raw pointers, so moving the heap is safe").
type Handle int

const NilHandle Handle = -1

// VarRecord is the heap-allocated record described in §3.
type VarRecord struct {
	Name    string
	Hash    uint32
	Library string // "" means main table
	Tag     Kind
	IsProc  bool
	IsFn    bool
	IsMarker bool

	// Scalar payload, meaningful per Tag.
	U8  uint8
	I32 int32
	I64 int64
	F64 float64
	Str StringDesc

	// Array payload.
	Array Handle // index into Heap.arrays, or NilHandle

	// PROC/FN payload.
	Proc *ProcRecord
}

// ArrayDescriptor is described in §3: dim-count, element count, per-dim
// sizes, element base, off-heap flag, parent back-link (here a stable
// Handle rather than a raw pointer, per §9).
// ArrayDescriptor stores its elements directly as a Go slice rather
// than as an offset into a byte arena: the spec's "element base
// pointer" is modeled here by Elems/Strs themselves, which keeps array
// storage out of the byte window (reserved for indirection operators
// per §4.1) without changing any observable array semantics.
type ArrayDescriptor struct {
	ElemKind Kind
	Dims     []int
	NumElems int
	Elems    []Number
	Strs     []StringDesc
	OffHeap  bool
	OffHeapHandle Handle
	Parent   Handle
}

// FlatIndex converts a multi-dimensional index list into a flat
// element offset, row-major, raising "Bad dimension" on any
// out-of-range subscript.
func (d *ArrayDescriptor) FlatIndex(idx []int) int {
	if len(idx) != len(d.Dims) {
		raise(ErrBadDimension, "")
	}
	flat := 0
	for i, v := range idx {
		if v < 0 || v > d.Dims[i] {
			raise(ErrBadDimension, "")
		}
		flat = flat*(d.Dims[i]+1) + v
	}
	return flat
}

// ParamSpec is one formal parameter of a PROC/FN.
type ParamSpec struct {
	Name   string
	Kind   Kind
	Return bool
}

// ProcRecord upgrades a marker once its parameter list has been parsed
// (§4.4.1).
type ProcRecord struct {
	EntryAddr  int
	Params     []ParamSpec
	SimpleInt  bool // single int32 parameter, no RETURN
}

// Heap is the generic bump/free allocator serving variable records, array
// descriptors, and case tables (§4.3), kept distinct from the Value
// Stack. Grounded on the teacher's fixed-size byte arena in vm/vm.go; a
// free-list is layered on top since, unlike the VM's LIFO stack, the
// BASIC heap must support out-of-order reclamation (CLEAR, array DIM).
//
// No example in the pack models a managed heap with stable handles, so
// this is implemented directly against the standard library (a plain
// slice-backed arena): there is no third-party allocator in the corpus
// to ground the storage strategy on beyond the teacher's byte-arena
// idiom, which this generalizes.
type Heap struct {
	vars      []*VarRecord
	freeVars  []Handle
	arrays    []*ArrayDescriptor
	freeArr   []Handle
	caseTabls []*CaseTable
}

func newHeap() *Heap {
	return &Heap{}
}

func (h *Heap) AllocVar(rec *VarRecord) Handle {
	if n := len(h.freeVars); n > 0 {
		idx := h.freeVars[n-1]
		h.freeVars = h.freeVars[:n-1]
		h.vars[idx] = rec
		return idx
	}
	h.vars = append(h.vars, rec)
	return Handle(len(h.vars) - 1)
}

func (h *Heap) Var(handle Handle) *VarRecord {
	if handle < 0 || int(handle) >= len(h.vars) {
		raiseBroken("Heap: invalid variable handle", 0)
	}
	return h.vars[handle]
}

func (h *Heap) FreeVar(handle Handle) {
	h.vars[handle] = nil
	h.freeVars = append(h.freeVars, handle)
}

func (h *Heap) AllocArray(desc *ArrayDescriptor) Handle {
	if n := len(h.freeArr); n > 0 {
		idx := h.freeArr[n-1]
		h.freeArr = h.freeArr[:n-1]
		h.arrays[idx] = desc
		return idx
	}
	h.arrays = append(h.arrays, desc)
	return Handle(len(h.arrays) - 1)
}

func (h *Heap) Array(handle Handle) *ArrayDescriptor {
	if handle == NilHandle {
		return nil
	}
	if handle < 0 || int(handle) >= len(h.arrays) {
		raiseBroken("Heap: invalid array handle", 0)
	}
	return h.arrays[handle]
}

func (h *Heap) FreeArray(handle Handle) {
	if handle == NilHandle {
		return
	}
	h.arrays[handle] = nil
	h.freeArr = append(h.freeArr, handle)
}

// CaseTable is allocated once per CASE statement on first execution and
// cached thereafter (§4.5 item 5).
type CaseTable struct {
	Whens       []WhenEntry
	DefaultAddr int // address after ENDCASE if no OTHERWISE
	HasOther    bool
	OtherAddr   int
}

// WhenEntry pairs a WHEN's comma-separated expression-list start address
// with its body address.
type WhenEntry struct {
	ExprListAddr int
	ExprCount    int
	BodyAddr     int
}

func (h *Heap) AllocCaseTable(t *CaseTable) Handle {
	h.caseTabls = append(h.caseTabls, t)
	return Handle(len(h.caseTabls) - 1)
}

func (h *Heap) CaseTable(handle Handle) *CaseTable {
	if handle < 0 || int(handle) >= len(h.caseTabls) {
		raiseBroken("Heap: invalid case table handle", 0)
	}
	return h.caseTabls[handle]
}

// StringHeap manages variable-length string payloads, distinct from the
// general Heap (§4.3). alloc_string(n) returns a writable buffer of
// exactly n bytes; free_string reclaims it.
type StringHeap struct {
	allocated int
}

func newStringHeap() *StringHeap {
	return &StringHeap{}
}

func (sh *StringHeap) Alloc(n int) StringDesc {
	if n == 0 {
		return emptyString()
	}
	sh.allocated += n
	return StringDesc{Length: n, Payload: make([]byte, n)}
}

func (sh *StringHeap) Free(desc StringDesc) {
	if len(desc.Payload) == 0 {
		return
	}
	sh.allocated -= len(desc.Payload)
}

// OffHeapArena tracks arrays whose backing bytes live outside the
// interpreter's managed heap (§3, §9: "replicate this contract
// verbatim" — they leak unless explicitly released). Reclamation is
// explicit via DIM HIMEM arr -1; CLEAR does not release off-heap blocks.
type OffHeapArena struct {
	blocks map[Handle][]byte
	next   Handle
}

func newOffHeapArena() *OffHeapArena {
	return &OffHeapArena{blocks: make(map[Handle][]byte)}
}

func (a *OffHeapArena) Alloc(size int) (Handle, []byte) {
	h := a.next
	a.next++
	buf := make([]byte, size)
	a.blocks[h] = buf
	return h, buf
}

// Release frees a previously allocated off-heap block (DIM HIMEM arr
// -1). Releasing an unknown handle is a no-op: off-heap
// blocks are explicitly tracked by the caller, not reference counted.
func (a *OffHeapArena) Release(h Handle) {
	delete(a.blocks, h)
}
