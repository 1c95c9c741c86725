package interp

// stmtData is reached when execution falls into a DATA line during
// normal control flow; the literal values themselves live in
// Program.DataItems (populated once by assemble.go) and are never
// re-evaluated here, so the only work is to step past the statement
// (§4.6, "new state machine... grounded on the teacher's cursor-as-
// register idiom").
func stmtData(it *Interp, addr int) int {
	return addr + 1
}

// stmtRead implements READ var[, var...] (§4.6): advances the data
// cursor across Program.DataItems, assigning each target variable from
// the next item, erroring with "Out of data" if exhausted.
func stmtRead(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	cursor := addr + 1
	for n := 0; n < tok.ArgCount; n++ {
		target := &it.Program.Tokens[cursor]
		cursor++

		if it.DataCursor >= len(it.Program.DataItems) {
			raise(ErrOutOfData, "")
		}
		item := it.Program.DataItems[it.DataCursor]
		it.DataCursor++

		handle := it.lvalueHandle(target)
		it.assign(handle, dataItemResult(&item))
	}
	return cursor
}

func dataItemResult(item *Token) evalResult {
	switch item.Op {
	case OpLitU8:
		return evalResult{Num: NumU8(uint8(item.I64))}
	case OpLitI32:
		return evalResult{Num: NumI32(int32(item.I64))}
	case OpLitI64:
		return evalResult{Num: NumI64(item.I64)}
	case OpLitFloat:
		return evalResult{Num: NumF64(item.F64)}
	case OpLitString:
		return evalResult{IsString: true, Str: StringDesc{Length: len(item.Str), Payload: []byte(item.Str)}}
	default:
		raiseBroken("READ: malformed data item", 0)
		panic("unreachable")
	}
}

// stmtRestore implements RESTORE [linenum] (§4.6): resets the data
// cursor to the first item at-or-after linenum, or to the very first
// item for a bare RESTORE.
func stmtRestore(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	if !tok.HasArg {
		it.DataCursor = 0
		return addr + 1
	}
	target := int(tok.LineRef)
	for i, line := range it.Program.DataItemLine {
		if line >= target {
			it.DataCursor = i
			return addr + 1
		}
	}
	it.DataCursor = len(it.Program.DataItems)
	return addr + 1
}

// stmtRestoreData pops a DATA frame (§4.6), restoring the data cursor
// saved at the matching point.
func stmtRestoreData(it *Interp, addr int) int {
	f := it.Stack.Pop(FrameData)
	it.DataCursor = f.DataPC
	return addr + 1
}

// stmtRestoreError pops the topmost ON ERROR LOCAL handler (§7).
func stmtRestoreError(it *Interp, addr int) int {
	it.Stack.Pop(FrameError)
	it.Errors.PopLocal()
	return addr + 1
}

// stmtRestoreLocal unwinds only the LOCAL-family frames (LOCAL,
// RETPARM, LOCARRAY, LOCSTRING) within the current PROC/FN, down to
// (but not including) the enclosing subprogram frame, per §4.6's
// "RESTORE LOCAL unwinds LOCALs within the current PROC/FN" — any
// WHILE/REPEAT/FOR/DATA/ERROR frame interleaved above them (e.g. a
// RESTORE LOCAL issued from inside an open loop) is left exactly where
// it is, so NEXT/ENDWHILE/UNTIL/RETURN targeting it afterwards still
// finds it. LOCAL-family frames are cleaned up topmost-first (LIFO
// order) so a variable localized more than once within the same
// PROC/FN restores correctly even though the slice itself is rebuilt
// in original order once the relevant frames are set aside.
func stmtRestoreLocal(it *Interp, addr int) int {
	frames := it.Stack.frames
	start := len(frames)
	for start > 0 && frames[start-1].Kind != FrameProc && frames[start-1].Kind != FrameFn {
		start--
	}

	remain := make([]Frame, 0, len(frames)-start)
	var toClean []Frame
	for i := start; i < len(frames); i++ {
		f := frames[i]
		switch f.Kind {
		case FrameLocal, FrameRetparm, FrameLocArray, FrameLocString:
			toClean = append(toClean, f)
		default:
			remain = append(remain, f)
		}
	}
	for i := len(toClean) - 1; i >= 0; i-- {
		it.Stack.cleanupFrame(toClean[i], it.Heap, it.StringHeap, it.Errors)
	}
	it.Stack.frames = append(frames[:start], remain...)
	return addr + 1
}
