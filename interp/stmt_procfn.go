package interp

// stmtCall implements a bare PROC invocation used as a statement
// (§4.6 "Call-site"). Grounded on the teacher's Call opcode in
// vm/bytecode.go, generalized from a fixed-arity jump-and-link into
// parameter binding against the callee's resolved record.
func stmtCall(it *Interp, addr int) int {
	it.checkEscape()
	tok := &it.Program.Tokens[addr]
	h := it.resolver.ResolveCall(it.Program, addr, it.Sym, it.Heap)
	rec := it.Heap.Var(h)
	it.upgradeIfMarker(rec)

	after := it.bindParams(rec, addr+1, tok.ArgCount)
	it.Stack.PushControl(Frame{Kind: FrameProc, ReturnPC: after, SavedVar: h})
	return rec.Proc.EntryAddr
}

// upgradeIfMarker parses the callee's formal parameter list out of its
// DEF header on first call, per §4.4.1: "A marker is upgraded to a full
// record by parsing the definition's parameter list once."
func (it *Interp) upgradeIfMarker(rec *VarRecord) {
	if !rec.IsMarker {
		return
	}
	defTok := &it.Program.Tokens[rec.Proc.EntryAddr-1]
	simple := len(defTok.Params) == 1 && !defTok.Params[0].Return && defTok.Params[0].Kind == KindInt32
	it.resolver.UpgradeProc(rec, defTok.Params, simple)
}

// bindParams evaluates argCount actual arguments starting at addr
// (each an expression terminated by OpExprEnd, except RETURN-declared
// formals whose actual must be a bare VARREF/STATIC lvalue token), and
// pushes one LOCAL or RETPARM frame per formal recording its prior
// value (§4.6). Returns the address past the argument list.
func (it *Interp) bindParams(rec *VarRecord, addr int, argCount int) int {
	params := rec.Proc.Params
	if argCount != len(params) {
		raise(ErrMissingProc, rec.Name)
	}
	for _, formal := range params {
		formalTok := Token{Name: formal.Name, VarKind: formal.Kind}
		formalHandle := it.varHandleForAssign(&formalTok)
		formalRec := it.Heap.Var(formalHandle)
		old := snapshotValue(formalRec)

		if formal.Return {
			lvalTok := &it.Program.Tokens[addr]
			targetHandle := it.lvalueHandle(lvalTok)
			addr++
			addr = expectExprEnd(it, addr)
			copyVarPayload(formalRec, it.Heap.Var(targetHandle))
			it.Stack.PushControl(Frame{
				Kind:          FrameRetparm,
				SavedVar:      formalHandle,
				SavedValue:    old,
				RetparmTarget: targetHandle,
			})
			continue
		}

		val, next := it.EvalExpr(addr)
		addr = expectExprEnd(it, next)
		it.Stack.PushControl(Frame{Kind: FrameLocal, SavedVar: formalHandle, SavedValue: old})
		it.assign(formalHandle, val)
	}
	return addr
}

// lvalueHandle resolves a bare VARREF/STATIC token to its variable
// handle for use as an RETURN actual argument, creating it if absent
// (an uninitialized RETURN argument reads as zero per §8).
func (it *Interp) lvalueHandle(tok *Token) Handle {
	switch tok.Op {
	case OpStatic:
		return it.Sym.LookupStatic(byte(tok.StaticIdx), it.Heap)
	case OpVarRef:
		return it.varHandleForAssign(tok)
	default:
		raise(ErrSyntax, "")
		panic("unreachable")
	}
}

// stmtEndproc implements ENDPROC: unwinds LOCAL/RETPARM frames down to
// and including the enclosing PROC frame, then the parameter frames
// bindParams pushed beneath it, restoring variables and copying back
// RETURN parameters, then resumes at the saved return address (§4.6).
func stmtEndproc(it *Interp, addr int) int {
	f := it.Stack.UnwindTo(FrameProc, it.Heap, it.StringHeap, it.Errors)
	it.unwindParams(f)
	return f.ReturnPC
}

// unwindParams pops and cleans up the one LOCAL or RETPARM frame per
// formal that bindParams pushed beneath the PROC/FN frame f, whose
// SavedVar is the callee's record.
func (it *Interp) unwindParams(f Frame) {
	for range it.Heap.Var(f.SavedVar).Proc.Params {
		p := it.Stack.Pop(FrameLocal, FrameRetparm)
		it.Stack.cleanupFrame(p, it.Heap, it.StringHeap, it.Errors)
	}
}

// stmtFnReturn implements "=expr" inside a FN body: evaluates the
// result, unwinds LOCAL/RETPARM frames down to the FN frame and then
// the parameter frames beneath it (restoring variables and RETURN
// parameters exactly as ENDPROC does), and leaves
// the result for the caller. Used both when a FN is invoked as a
// top-level statement (rare, result discarded) and, via
// execUntilFnReturn, when invoked as an expression primary.
func stmtFnReturn(it *Interp, addr int) int {
	result, next := it.EvalExpr(addr + 1)
	next = expectExprEnd(it, next)
	it.pendingFnResult = &result
	f := it.Stack.UnwindTo(FrameFn, it.Heap, it.StringHeap, it.Errors)
	it.unwindParams(f)
	return fnReturnAddr(f, next)
}

func fnReturnAddr(f Frame, fallthroughAddr int) int {
	if f.ReturnPC != 0 {
		return f.ReturnPC
	}
	return fallthroughAddr
}

// callFn implements a FN invocation appearing inside an expression
// (§4.6). Unlike a PROC call, control must return into the middle of
// the enclosing expression with a value, so the FN body is run to
// completion here via a private recursive loop (execUntilFnReturn)
// rather than as a tail continuation of the main dispatch loop.
func (it *Interp) callFn(addr int) (evalResult, int) {
	tok := &it.Program.Tokens[addr]
	h := it.resolver.ResolveCall(it.Program, addr, it.Sym, it.Heap)
	rec := it.Heap.Var(h)
	it.upgradeIfMarker(rec)

	after := it.bindParams(rec, addr+1, tok.ArgCount)
	depth := it.Stack.Depth()
	it.Stack.PushControl(Frame{Kind: FrameFn, SavedVar: h})

	result := it.execUntilFnReturn(rec.Proc.EntryAddr, depth)
	return result, after
}

// fnErrorUnwind is a private signal panic used to unwind the Go call
// stack past an execUntilFnReturn invocation when a recovered BASIC
// error's handler lives at or above that FN's own call depth — i.e.
// outside the FN entirely (§7: the handler's saved stack pointer is
// restored "through" every intervening FN frame being passed over, not
// just the innermost one, so the FN call itself must unwind too rather
// than mistake the drop in stack depth for its own "=expr" return).
type fnErrorUnwind struct {
	resumeAddr int
}

// execUntilFnReturn runs statements from bodyAddr until the FN frame
// at stack depth baseDepth has been unwound by a "=expr" (§9: FN calls
// are modeled as direct recursive Go calls rather than a separate
// long-jump, since the evaluator needs the result in hand before it
// can continue parsing the enclosing expression).
func (it *Interp) execUntilFnReturn(bodyAddr int, baseDepth int) evalResult {
	addr := bodyAddr
	for {
		addr = it.stepFn(addr, baseDepth)
		if it.pendingFnResult != nil {
			r := it.pendingFnResult
			it.pendingFnResult = nil
			return *r
		}
	}
}

// stepFn executes one statement of a FN body. If the Value Stack falls
// to or below baseDepth without a "=expr" having run, the drop can only
// have come from an ON ERROR handler's stack-snapshot restore unwinding
// past this FN call. When that handler lives deeper than baseDepth
// (installed inside this very FN), resuming here is still correct, so
// stepFn returns normally; otherwise the handler belongs to an outer
// caller and stepFn panics fnErrorUnwind to unwind this Go frame too,
// letting the next level up (an enclosing FN call or Run's own loop)
// apply the same test.
func (it *Interp) stepFn(addr int, baseDepth int) (next int) {
	defer func() {
		if r := recover(); r != nil {
			fw, ok := r.(*fnErrorUnwind)
			if !ok {
				panic(r)
			}
			if it.Stack.Depth() <= baseDepth {
				panic(fw)
			}
			next = fw.resumeAddr
		}
	}()
	next = it.step(addr)
	if it.pendingFnResult == nil && it.Stack.Depth() <= baseDepth {
		panic(&fnErrorUnwind{resumeAddr: next})
	}
	return next
}
