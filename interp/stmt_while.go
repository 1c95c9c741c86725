package interp

// stmtWhile implements WHILE/ENDWHILE (§4.6). Grounded on the
// teacher's Jz/Jnz conditional-branch opcodes in vm/bytecode.go.
// WHILE evaluates its condition immediately: if false, it locates
// ENDWHILE at matching depth and jumps straight past it (caching the
// continuation on the WHILE token so repeated entries skip the scan);
// if true, it pushes a WHILE frame and falls into the body.
func stmtWhile(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	cond, next := it.EvalExpr(addr + 1)
	next = expectExprEnd(it, next)

	if cond.IsString {
		raise(ErrTypeMismatch, "")
	}
	if !cond.Num.Truthy() {
		if !tok.Resolved {
			tok.Addr = findMatchingEndwhile(it, next)
			tok.Resolved = true
		}
		return tok.Addr
	}

	it.Stack.PushControl(Frame{Kind: FrameWhile, LoopTestPC: addr, ForBodyPC: next})
	return next
}

func findMatchingEndwhile(it *Interp, from int) int {
	depth := 1
	i := from
	for i < len(it.Program.Tokens) {
		switch it.Program.Tokens[i].Op {
		case OpWhile:
			depth++
		case OpEndwhile:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	raise(ErrNoEndwhile, "")
	return 0
}

// stmtEndwhile implements ENDWHILE: finds the top WHILE frame by
// silently unwinding non-WHILE frames above it, re-evaluates the
// condition, and either branches back to the body or pops the frame.
func stmtEndwhile(it *Interp, addr int) int {
	idx := it.Stack.FindFrame(FrameWhile)
	if idx < 0 {
		raise(ErrNoEndwhile, "")
	}
	for it.Stack.Depth()-1 > idx {
		f := it.Stack.frames[len(it.Stack.frames)-1]
		it.Stack.frames = it.Stack.frames[:len(it.Stack.frames)-1]
		it.Stack.cleanupFrame(f, it.Heap, it.StringHeap, it.Errors)
	}

	f := *it.Stack.FrameAt(idx)
	it.checkEscape()
	cond, _ := it.EvalExpr(f.LoopTestPC + 1)
	if cond.IsString {
		raise(ErrTypeMismatch, "")
	}
	if cond.Num.Truthy() {
		return f.ForBodyPC
	}
	it.Stack.Pop(FrameWhile)
	return addr + 1
}
