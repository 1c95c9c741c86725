package interp

// stmtRepeat implements REPEAT: pushes a REPEAT frame recording the
// body start and falls straight into the body (§4.6). Grounded on the
// teacher's unconditional Jmp opcode's loop-back-edge usage.
func stmtRepeat(it *Interp, addr int) int {
	it.Stack.PushControl(Frame{Kind: FrameRepeat, ForBodyPC: addr + 1})
	return addr + 1
}

// stmtUntil implements UNTIL: evaluates its expression and re-branches
// to the enclosing REPEAT's body unless the result is non-zero (§4.6's
// "0 = false, anything else = true" convention).
func stmtUntil(it *Interp, addr int) int {
	idx := it.Stack.FindFrame(FrameRepeat)
	if idx < 0 {
		raise(ErrNoRepeat, "")
	}
	for it.Stack.Depth()-1 > idx {
		f := it.Stack.frames[len(it.Stack.frames)-1]
		it.Stack.frames = it.Stack.frames[:len(it.Stack.frames)-1]
		it.Stack.cleanupFrame(f, it.Heap, it.StringHeap, it.Errors)
	}

	f := *it.Stack.FrameAt(idx)
	cond, next := it.EvalExpr(addr + 1)
	next = expectExprEnd(it, next)
	if cond.IsString {
		raise(ErrTypeMismatch, "")
	}

	it.checkEscape()

	if cond.Num.Truthy() {
		it.Stack.Pop(FrameRepeat)
		return next
	}
	return f.ForBodyPC
}
