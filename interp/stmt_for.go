package interp

// stmtFor implements FOR var = init TO limit [STEP step] (§4.6).
// Grounded on the teacher's Jle/Jl/Jge/Jg conditional-branch opcodes in
// vm/bytecode.go, which this generalizes from a single compare-and-jump
// into a stateful loop frame carrying both bound and direction.
func stmtFor(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	varHandle := it.varHandleForAssign(tok)

	init, next := it.EvalExpr(addr + 1)
	it.assign(varHandle, init)
	next = expectExprEnd(it, next)

	limitRes, next2 := it.EvalExpr(next)
	next2 = expectExprEnd(it, next2)

	step := NumI32(1)
	bodyStart := next2
	if tok.HasStep {
		stepRes, next3 := it.EvalExpr(next2)
		if stepRes.IsString {
			raise(ErrTypeMismatch, "")
		}
		step = stepRes.Num
		bodyStart = expectExprEnd(it, next3)
	}
	if step.AsFloat() == 0 {
		raise(ErrSilly, "")
	}

	it.Stack.PushControl(Frame{
		Kind:      FrameFor,
		ForVar:    varHandle,
		ForLimit:  limitRes.Num,
		ForStep:   step,
		ForBodyPC: bodyStart,
	})
	return bodyStart
}

// stmtNext implements NEXT [var1[, var2...]] (§4.6): pops frames until
// the top FOR's lvalue matches var1 (or matches unconditionally for a
// bare NEXT), increments, tests the step-directional bound, and either
// re-branches to the loop body or discards the frame. With several
// names, each is tried in turn only once the previous one's loop has
// finished — matching "NEXT I,J" behaving as "NEXT I: NEXT J".
func stmtNext(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	after := addr + 1
	names := tok.NextVars
	if len(names) == 0 {
		names = []string{""}
	}

	for _, name := range names {
		if body, done := it.nextOne(name); !done {
			return body
		}
	}
	return after
}

// nextOne performs one NEXT cycle for a single named (or bare) loop
// variable, returning either the loop body address with done=false, or
// an arbitrary value with done=true meaning the caller should move on.
func (it *Interp) nextOne(wantName string) (body int, done bool) {
	idx := it.Stack.FindFrame(FrameFor)
	if idx < 0 {
		raise(ErrNoFor, "")
	}
	if wantName != "" {
		for idx >= 0 && it.Heap.Var(it.Stack.frames[idx].ForVar).Name != wantName {
			idx--
			for idx >= 0 && it.Stack.frames[idx].Kind != FrameFor {
				idx--
			}
		}
		if idx < 0 {
			raise(ErrMissingVariable, wantName)
		}
	}

	// Silently unwind anything opened inside the loop body above the
	// target FOR frame (§4.5's "intervening unterminated" rule applies
	// equally to FOR as it does to WHILE).
	for it.Stack.Depth()-1 > idx {
		f := it.Stack.frames[len(it.Stack.frames)-1]
		it.Stack.frames = it.Stack.frames[:len(it.Stack.frames)-1]
		it.Stack.cleanupFrame(f, it.Heap, it.StringHeap, it.Errors)
	}

	f := *it.Stack.FrameAt(idx)
	rec := it.Heap.Var(f.ForVar)
	cur := it.readVar(f.ForVar).Num
	updated, err := arith('+', cur, f.ForStep)
	if err != nil {
		panic(err)
	}
	it.assignRecord(rec, updated)

	loopDone := false
	if f.ForStep.AsFloat() >= 0 {
		loopDone = compareNumbers(updated, f.ForLimit) > 0
	} else {
		loopDone = compareNumbers(updated, f.ForLimit) < 0
	}

	it.checkEscape()

	if loopDone {
		it.Stack.Pop(FrameFor)
		return 0, true
	}
	return f.ForBodyPC, false
}

// assignRecord stores a Number directly into rec, used by NEXT's
// increment path which already holds the record rather than a token.
func (it *Interp) assignRecord(rec *VarRecord, n Number) {
	switch rec.Tag {
	case KindUint8:
		v, err := ToInt32(n.AsFloat())
		if err != nil || v < 0 || v > 255 {
			raise(ErrNumberTooBig, rec.Name)
		}
		rec.U8 = uint8(v)
	case KindInt32:
		v, err := ToInt32(n.AsFloat())
		if err != nil {
			panic(err)
		}
		rec.I32 = v
	case KindInt64:
		v, err := ToInt64(n.AsFloat())
		if err != nil {
			panic(err)
		}
		rec.I64 = v
	case KindFloat:
		rec.F64 = n.AsFloat()
	}
}

// expectExprEnd verifies the token at addr is OpExprEnd (an expression
// sub-stream terminator assemble.go always emits) and returns the
// address past it.
func expectExprEnd(it *Interp, addr int) int {
	if addr >= len(it.Program.Tokens) || it.Program.Tokens[addr].Op != OpExprEnd {
		raiseBroken("expected expression terminator", 0)
	}
	return addr + 1
}
