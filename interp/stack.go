package interp

// FrameKind tags every entry pushed onto the Value Stack (§4.2).
type FrameKind byte

const (
	FrameValueU8 FrameKind = iota
	FrameValueI32
	FrameValueI64
	FrameValueFloat
	FrameValueStringRef
	FrameValueStringTemp
	FrameValueArrayRef
	FrameValueArrayTemp
	FrameOpstack
	FrameRestart
	FrameWhile
	FrameRepeat
	FrameFor
	FrameGosub
	FrameProc
	FrameFn
	FrameLocal
	FrameRetparm
	FrameError
	FrameData
	FrameLocArray
	FrameLocString
)

func (k FrameKind) String() string {
	names := [...]string{
		"VALUE_U8", "VALUE_I32", "VALUE_I64", "VALUE_FLOAT",
		"VALUE_STRINGREF", "VALUE_STRINGTEMP", "VALUE_ARRAYREF", "VALUE_ARRAYTEMP",
		"OPSTACK", "RESTART", "WHILE", "REPEAT", "FOR", "GOSUB", "PROC", "FN",
		"LOCAL", "RETPARM", "ERROR", "DATA", "LOCARRAY", "LOCSTRING",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "?frame?"
}

// Frame is one Value Stack entry. Only the fields relevant to Kind are
// populated; this mirrors the teacher's single-width stack slot in
// vm/vm.go widened into a tagged union since BASIC's stack must carry
// heterogeneous control and value frames rather than uniform uint32s.
type Frame struct {
	Kind FrameKind

	// Value payload (VALUE_* kinds).
	U8  uint8
	I32 int32
	I64 int64
	F64 float64
	Str StringDesc
	Arr Handle

	// FOR frame.
	ForVar     Handle
	ForLimit   Number
	ForStep    Number
	ForBodyPC  int

	// WHILE / REPEAT frame.
	LoopTestPC int

	// GOSUB / PROC / FN frame.
	ReturnPC int

	// SavedVar is a heap handle: for LOCAL/RETPARM frames the variable
	// whose old value SavedValue holds; for PROC/FN frames the callee's
	// record.
	SavedVar   Handle
	SavedValue *VarRecord

	// RETPARM's return-lvalue target: the call-site variable that
	// receives the formal's final value on subprogram exit (§4.2).
	RetparmTarget Handle

	// ERROR frame (ON ERROR LOCAL).
	Handler *ErrorHandler

	// DATA frame (READ cursor save/restore across RESTORE).
	DataPC int

	// RetparmName is never set; RETPARM write-back uses SavedVar (the
	// formal) and RetparmTarget.
	RetparmName string
}

// Stack is the Value Stack (§4.2): a slice of tagged Frame values,
// LIFO, holding control frames (loop/subroutine/error bookkeeping) and
// typed value frames, grounded on the teacher's pushStack/popStack/
// peekStack family in vm/vm.go, generalized from raw uint32 slots to
// the tagged Frame shape above. The expression evaluator returns its
// results directly and does not push onto this stack.
type Stack struct {
	frames []Frame
	limit  int
}

func newStack(limit int) *Stack {
	return &Stack{limit: limit}
}

func (s *Stack) Depth() int { return len(s.frames) }

func (s *Stack) push(f Frame) {
	if len(s.frames) >= s.limit {
		raise(ErrStackFull, "")
	}
	s.frames = append(s.frames, f)
}

func (s *Stack) PushU8(v uint8)     { s.push(Frame{Kind: FrameValueU8, U8: v}) }
func (s *Stack) PushI32(v int32)    { s.push(Frame{Kind: FrameValueI32, I32: v}) }
func (s *Stack) PushI64(v int64)    { s.push(Frame{Kind: FrameValueI64, I64: v}) }
func (s *Stack) PushFloat(v float64) { s.push(Frame{Kind: FrameValueFloat, F64: v}) }

func (s *Stack) PushNumber(n Number) {
	switch n.Kind {
	case KindUint8:
		s.PushU8(n.U8)
	case KindInt32:
		s.PushI32(n.I32)
	case KindInt64:
		s.PushI64(n.I64)
	case KindFloat:
		s.PushFloat(n.F64)
	default:
		raiseBroken("Stack: PushNumber with non-numeric kind", 0)
	}
}

func (s *Stack) PushStringRef(str StringDesc) {
	s.push(Frame{Kind: FrameValueStringRef, Str: str})
}

func (s *Stack) PushStringTemp(str StringDesc) {
	s.push(Frame{Kind: FrameValueStringTemp, Str: str})
}

func (s *Stack) PushArrayRef(h Handle) {
	s.push(Frame{Kind: FrameValueArrayRef, Arr: h})
}

func (s *Stack) PushControl(f Frame) { s.push(f) }

// top returns the top frame without popping, failing Broken if the
// stack is empty — every caller is expected to know a value is there.
func (s *Stack) top() *Frame {
	if len(s.frames) == 0 {
		raiseBroken("Stack: pop from empty stack", 0)
	}
	return &s.frames[len(s.frames)-1]
}

// Pop removes and returns the top frame, verifying it carries one of
// the expected kinds. A tag mismatch is an engine-invariant violation
// (§4.2: "a tag mismatch... is always a Broken-class failure"), never a
// BASIC-level error.
func (s *Stack) Pop(expect ...FrameKind) Frame {
	f := *s.top()
	if len(expect) > 0 {
		ok := false
		for _, k := range expect {
			if f.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			raiseBroken("Stack: frame kind mismatch", 0)
		}
	}
	s.frames = s.frames[:len(s.frames)-1]
	return f
}

// PopNumber pops a numeric value frame and returns it as a Number,
// raising Type mismatch (a BASIC-level error, not Broken) if the top
// frame isn't numeric — this is the "expression expected a number"
// path, distinct from an internal tag mismatch.
func (s *Stack) PopNumber() Number {
	f := *s.top()
	switch f.Kind {
	case FrameValueU8:
		s.frames = s.frames[:len(s.frames)-1]
		return NumU8(f.U8)
	case FrameValueI32:
		s.frames = s.frames[:len(s.frames)-1]
		return NumI32(f.I32)
	case FrameValueI64:
		s.frames = s.frames[:len(s.frames)-1]
		return NumI64(f.I64)
	case FrameValueFloat:
		s.frames = s.frames[:len(s.frames)-1]
		return NumF64(f.F64)
	default:
		raise(ErrTypeMismatch, "")
		panic("unreachable")
	}
}

// PopString pops a string value frame (either ref or temp kind).
func (s *Stack) PopString() StringDesc {
	f := *s.top()
	if f.Kind != FrameValueStringRef && f.Kind != FrameValueStringTemp {
		raise(ErrTypeMismatch, "")
	}
	s.frames = s.frames[:len(s.frames)-1]
	return f.Str
}

// PeekKind reports the top frame's kind without popping.
func (s *Stack) PeekKind() FrameKind {
	return s.top().Kind
}

// UnwindTo pops frames down to and including the first one matching
// kind, running cleanup for each popped frame (§4.2's normal unwind:
// LOCAL frames restore saved variables, LOCARRAY/LOCSTRING frames free
// their heap payloads). Used by error propagation and by END PROC/FN
// exit paths that must discard any loop/block frames opened inside the
// subprogram.
func (s *Stack) UnwindTo(kind FrameKind, heap *Heap, strHeap *StringHeap, ec *ErrorController) Frame {
	for {
		if len(s.frames) == 0 {
			raiseBroken("Stack: unwind target not found", 0)
		}
		f := s.frames[len(s.frames)-1]
		s.frames = s.frames[:len(s.frames)-1]
		s.cleanupFrame(f, heap, strHeap, ec)
		if f.Kind == kind {
			return f
		}
	}
}

// UnwindSilently pops frames down to and including the first one
// matching kind, running cleanup for every popped frame except that
// terminal one. Unlike UnwindTo it returns quietly when no frame of
// that kind is found.
func (s *Stack) UnwindSilently(kind FrameKind, heap *Heap, strHeap *StringHeap, ec *ErrorController) {
	for {
		if len(s.frames) == 0 {
			return
		}
		f := s.frames[len(s.frames)-1]
		if f.Kind == kind {
			s.frames = s.frames[:len(s.frames)-1]
			return
		}
		s.frames = s.frames[:len(s.frames)-1]
		s.cleanupFrame(f, heap, strHeap, ec)
	}
}

// cleanupFrame runs the normal-unwind obligation for one discarded
// frame (§4.2). An ERROR frame (pushed by ON ERROR LOCAL alongside
// ErrorController.PushLocal) must pop that same local handler here too
// — §7's documented lifetime is "valid until the enclosing subprogram
// returns or another RESTORE ERROR pops it", and ENDPROC/ENDFN discard
// the ERROR frame via exactly this path, not just explicit RESTORE
// ERROR (stmt_data.go's stmtRestoreError pops both directly instead of
// going through UnwindTo, since it targets the frame without discarding
// anything above it first).
func (s *Stack) cleanupFrame(f Frame, heap *Heap, strHeap *StringHeap, ec *ErrorController) {
	switch f.Kind {
	case FrameLocal:
		if f.SavedValue != nil {
			*heap.Var(f.SavedVar) = *f.SavedValue
		}
	case FrameRetparm:
		formal := heap.Var(f.SavedVar)
		target := heap.Var(f.RetparmTarget)
		copyVarPayload(target, formal)
		if f.SavedValue != nil {
			*formal = *f.SavedValue
		}
	case FrameLocArray:
		heap.FreeArray(f.Arr)
	case FrameLocString:
		strHeap.Free(f.Str)
	case FrameError:
		ec.PopLocal()
	}
}

// copyVarPayload copies src's scalar/string payload into dst, used by
// RETPARM's writeback (§8: "PROC f(RETURN x) ... propagates the
// written value to the call-site lvalue on return").
func copyVarPayload(dst, src *VarRecord) {
	dst.Tag = src.Tag
	dst.U8, dst.I32, dst.I64, dst.F64 = src.U8, src.I32, src.I64, src.F64
	dst.Str = src.Str
}

// FindFrame scans from the top of the stack downward for the nearest
// frame of kind, returning its index (len(frames)-1 offset) or -1. Used
// by NEXT/UNTIL/ENDWHILE to locate their opening construct without
// unwinding frames belonging to other, still-open constructs above it
// is never valid in well-formed programs, but callers use this to
// detect malformed nesting and raise the appropriate missing-ENDxxx
// error instead of corrupting the stack.
func (s *Stack) FindFrame(kind FrameKind) int {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Kind == kind {
			return i
		}
	}
	return -1
}

// FrameAt returns a pointer to the frame at absolute index idx, for
// handlers (FOR/WHILE/REPEAT) that mutate their own control frame in
// place (e.g. FOR updating its loop variable) without popping it.
func (s *Stack) FrameAt(idx int) *Frame {
	return &s.frames[idx]
}
