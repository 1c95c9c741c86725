package interp

// Array element access has its own small helper set here, shared by
// the evaluator's OpArrayElem primary (expr.go) and the DIM, array
// LET and SWAP statement handlers, since a subscript list's arity is
// only known from the token stream (argCount stamped by assemble.go),
// not from operator precedence.

// arrayHandle resolves tok's root name against the symbol table's
// array key (§4.4's trailing '(' normalization), raising "No such
// variable" if it has never been DIMmed.
func (it *Interp) arrayHandle(tok *Token) Handle {
	h, ok := it.Sym.Resolve(ArrayTokenName(tok.Name))
	if !ok {
		raise(ErrMissingVariable, tok.Name)
	}
	return h
}

// evalSubscripts evaluates count comma-separated subscript expressions
// starting at addr, each terminated by OpExprEnd, converting each to an
// int index under §4.7's float->int32 range rule.
func (it *Interp) evalSubscripts(addr int, count int) ([]int, int) {
	idx := make([]int, count)
	for n := 0; n < count; n++ {
		v, next := it.EvalExpr(addr)
		if v.IsString {
			raise(ErrTypeMismatch, "")
		}
		iv, err := ToInt32(v.Num.AsFloat())
		if err != nil {
			raise(ErrBadDimension, "")
		}
		idx[n] = int(iv)
		addr = expectExprEnd(it, next)
	}
	return idx, addr
}

// descriptorFor fetches the array descriptor behind a DIMmed variable,
// raising "Bad dimension" if the variable has no descriptor (its
// off-heap block was released by DIM HIMEM arr -1).
func (it *Interp) descriptorFor(arrHandle Handle) (*VarRecord, *ArrayDescriptor) {
	rec := it.Heap.Var(arrHandle)
	desc := it.Heap.Array(rec.Array)
	if desc == nil {
		raise(ErrBadDimension, rec.Name)
	}
	return rec, desc
}

// readArrayElem reads one element of a DIMmed array.
func (it *Interp) readArrayElem(arrHandle Handle, idx []int) evalResult {
	_, desc := it.descriptorFor(arrHandle)
	flat := desc.FlatIndex(idx)
	if desc.ElemKind.IsString() {
		return evalResult{IsString: true, Str: desc.Strs[flat]}
	}
	return evalResult{Num: desc.Elems[flat]}
}

// writeArrayElem stores result into one element of a DIMmed array,
// applying the same type/range checks as a scalar assignment (§4.7).
func (it *Interp) writeArrayElem(arrHandle Handle, idx []int, result evalResult) {
	rec, desc := it.descriptorFor(arrHandle)
	flat := desc.FlatIndex(idx)

	if desc.ElemKind.IsString() {
		if !result.IsString {
			raise(ErrTypeMismatch, rec.Name)
		}
		new := it.StringHeap.Alloc(result.Str.Length)
		copy(new.Payload, result.Str.Payload[:result.Str.Length])
		it.StringHeap.Free(desc.Strs[flat])
		desc.Strs[flat] = new
		return
	}
	if result.IsString {
		raise(ErrTypeMismatch, rec.Name)
	}

	switch desc.ElemKind {
	case KindUint8:
		v, err := ToInt32(result.Num.AsFloat())
		if err != nil || v < 0 || v > 255 {
			raise(ErrNumberTooBig, rec.Name)
		}
		desc.Elems[flat] = NumU8(uint8(v))
	case KindInt32:
		v, err := ToInt32(result.Num.AsFloat())
		if err != nil {
			panic(err)
		}
		desc.Elems[flat] = NumI32(v)
	case KindInt64:
		v, err := ToInt64(result.Num.AsFloat())
		if err != nil {
			panic(err)
		}
		desc.Elems[flat] = NumI64(v)
	case KindFloat:
		desc.Elems[flat] = NumF64(result.Num.AsFloat())
	}
}

// zeroNumber is a DIMmed array's initial element value (§3: variables
// read as zero until written).
func zeroNumber(k Kind) Number {
	switch k {
	case KindUint8:
		return NumU8(0)
	case KindInt64:
		return NumI64(0)
	case KindFloat:
		return NumF64(0)
	default:
		return NumI32(0)
	}
}

// stmtDim implements DIM name(dims...) and the off-heap HIMEM forms
// (§3, §8's boundary cases: "DIM arr(-1) ... allocates zero bytes yet
// yields a valid address", "DIM HIMEM arr -1 releases a previously
// allocated off-heap block"). Grounded on the teacher's fixed-capacity
// allocation idiom in vm/vm.go, generalized to runtime-sized,
// heap-tracked arrays.
func stmtDim(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	if tok.HasArg {
		return it.stmtDimHimem(tok, addr)
	}

	key := ArrayTokenName(tok.Name)
	if h, ok := it.Sym.Resolve(key); ok {
		if it.Heap.Var(h).Array != NilHandle {
			raise(ErrBadDimension, tok.Name)
		}
	}

	dims, next := it.evalSubscripts(addr+1, tok.ArgCount)

	numElems := 1
	for _, d := range dims {
		if d < 0 {
			numElems = 0
			break
		}
		numElems *= d + 1
	}

	desc := &ArrayDescriptor{ElemKind: tok.VarKind, Dims: dims, NumElems: numElems}
	if tok.VarKind.IsString() {
		desc.Strs = make([]StringDesc, numElems)
		for i := range desc.Strs {
			desc.Strs[i] = emptyString()
		}
	} else {
		zero := zeroNumber(tok.VarKind)
		desc.Elems = make([]Number, numElems)
		for i := range desc.Elems {
			desc.Elems[i] = zero
		}
	}
	arrHandle := it.Heap.AllocArray(desc)

	varHandle, ok := it.Sym.Resolve(key)
	if !ok {
		varHandle = it.Heap.AllocVar(&VarRecord{Name: key, Tag: tok.VarKind, Array: NilHandle})
		it.Sym.Define(key, varHandle)
	}
	rec := it.Heap.Var(varHandle)
	rec.Array = arrHandle
	desc.Parent = varHandle

	return next
}

// stmtDimHimem handles DIM HIMEM arr size (allocation) and DIM HIMEM
// arr -1 (release), keeping the off-heap block's lifetime entirely
// under OffHeapArena rather than the managed Heap (§9: "leak unless
// explicitly released — replicate this contract verbatim").
func (it *Interp) stmtDimHimem(tok *Token, addr int) int {
	key := ArrayTokenName(tok.Name)

	sizeVal, next := it.EvalExpr(addr + 1)
	next = expectExprEnd(it, next)
	if sizeVal.IsString {
		raise(ErrTypeMismatch, "")
	}

	if tok.OffHeapRelease {
		if h, ok := it.Sym.Resolve(key); ok {
			rec := it.Heap.Var(h)
			if desc := it.Heap.Array(rec.Array); desc != nil && desc.OffHeap {
				it.OffHeap.Release(desc.OffHeapHandle)
				it.Heap.FreeArray(rec.Array)
				rec.Array = NilHandle
			}
		}
		return next
	}

	size := int(sizeVal.Num.AsInt64())
	if size < 0 {
		size = 0
	}
	offHandle, _ := it.OffHeap.Alloc(size)
	desc := &ArrayDescriptor{ElemKind: tok.VarKind, OffHeap: true, OffHeapHandle: offHandle, NumElems: size}
	arrHandle := it.Heap.AllocArray(desc)

	varHandle, ok := it.Sym.Resolve(key)
	if !ok {
		varHandle = it.Heap.AllocVar(&VarRecord{Name: key, Tag: tok.VarKind, Array: NilHandle})
		it.Sym.Define(key, varHandle)
	}
	rec := it.Heap.Var(varHandle)
	rec.Array = arrHandle
	desc.Parent = varHandle

	return next
}
