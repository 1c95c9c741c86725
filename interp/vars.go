package interp

// varHandleForRead resolves a VARREF/STATIC token to its variable
// handle for a read, raising "No such variable" rather than creating
// one — reads never implicitly define (§4.4's static slots excepted,
// which exist for the program's entire lifetime).
func (it *Interp) varHandleForRead(tok *Token) Handle {
	if tok.StaticIdx != 0 {
		return it.Sym.LookupStatic(byte(tok.StaticIdx), it.Heap)
	}
	h, ok := it.Sym.Resolve(tok.Name)
	if !ok {
		raise(ErrMissingVariable, tok.Name)
	}
	return h
}

// varHandleForAssign resolves a VARREF/STATIC token to its variable
// handle, creating a fresh record of tok.VarKind on first assignment
// (§3: "Variables live from creation (first assignment or DIM)").
func (it *Interp) varHandleForAssign(tok *Token) Handle {
	if tok.StaticIdx != 0 {
		return it.Sym.LookupStatic(byte(tok.StaticIdx), it.Heap)
	}
	if h, ok := it.Sym.Resolve(tok.Name); ok {
		return h
	}
	rec := &VarRecord{Name: tok.Name, Tag: tok.VarKind, Array: NilHandle}
	if tok.VarKind.IsString() {
		rec.Str = emptyString()
	}
	h := it.Heap.AllocVar(rec)
	it.Sym.Define(tok.Name, h)
	return h
}

// assign stores result into the variable record at h, converting
// between numeric kinds where the record's declared Tag differs from
// the expression's result kind, per §4.7's conversion rules.
func (it *Interp) assign(h Handle, result evalResult) {
	rec := it.Heap.Var(h)
	if result.IsString {
		if !rec.Tag.IsString() {
			raise(ErrTypeMismatch, rec.Name)
		}
		it.StringHeap.Free(rec.Str)
		desc := it.StringHeap.Alloc(result.Str.Length)
		copy(desc.Payload, result.Str.Payload[:result.Str.Length])
		rec.Str = desc
		return
	}
	if !rec.Tag.IsNumeric() {
		raise(ErrTypeMismatch, rec.Name)
	}
	switch rec.Tag {
	case KindUint8:
		v, err := ToInt32(result.Num.AsFloat())
		if err != nil || v < 0 || v > 255 {
			raise(ErrNumberTooBig, rec.Name)
		}
		rec.U8 = uint8(v)
	case KindInt32:
		v, err := ToInt32(result.Num.AsFloat())
		if err != nil {
			panic(err)
		}
		rec.I32 = v
	case KindInt64:
		v, err := ToInt64(result.Num.AsFloat())
		if err != nil {
			panic(err)
		}
		rec.I64 = v
	case KindFloat:
		rec.F64 = result.Num.AsFloat()
	}
}

// snapshotValue copies a variable record's current scalar/string
// payload, for LOCAL's save-on-entry and the round-trip tests of §8
// ("LOCAL x; x = v; ENDPROC restores x's prior value").
func snapshotValue(rec *VarRecord) *VarRecord {
	cp := *rec
	return &cp
}
