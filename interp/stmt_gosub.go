package interp

// stmtGoto implements GOTO linenum (§4.5 item 1). Grounded on the
// teacher's Jmp opcode.
func stmtGoto(it *Interp, addr int) int {
	it.checkEscape()
	return it.resolver.ResolveLineRef(it.Program, addr)
}

// stmtGosub implements GOSUB linenum: pushes a GOSUB return frame and
// jumps, per §4.6's "plain stack of return addresses". Grounded on the
// teacher's Call/"return": Jmp opcode pair in vm/bytecode.go.
func stmtGosub(it *Interp, addr int) int {
	it.checkEscape()
	target := it.resolver.ResolveLineRef(it.Program, addr)
	it.Stack.PushControl(Frame{Kind: FrameGosub, ReturnPC: addr + 1})
	return target
}

// stmtReturn implements RETURN: silently discards intermediate frames
// until the nearest GOSUB frame, then resumes there (§4.6).
func stmtReturn(it *Interp, addr int) int {
	f := it.Stack.UnwindTo(FrameGosub, it.Heap, it.StringHeap, it.Errors)
	return f.ReturnPC
}
