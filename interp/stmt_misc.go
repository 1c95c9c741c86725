package interp

import (
	"bytes"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// formatValue renders an evalResult the way PRINT emits it (§4.6):
// strings verbatim, integers without a fractional part, floats via
// Go's shortest round-tripping form.
func formatValue(v evalResult) string {
	if v.IsString {
		return string(v.Str.Payload[:v.Str.Length])
	}
	if v.Num.Kind == KindFloat {
		return strconv.FormatFloat(v.Num.F64, 'g', -1, 64)
	}
	return strconv.FormatInt(v.Num.AsInt64(), 10)
}

// tabPad computes PRINT's ',' separator padding: advance to the next
// multiple of the column width, per §4.6's "tab column" rule.
func tabPad(col int) string {
	const width = 10
	n := width - col%width
	return strings.Repeat(" ", n)
}

// stmtPrint implements PRINT expr [sep expr...] (§4.6). Grounded on
// the teacher's plain io.Writer output path in vm/devices.go, widened
// to the comma/semicolon layout rules BASIC's PRINT carries.
func stmtPrint(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	cursor := addr + 1
	col := 0
	for n := 0; n < tok.ArgCount; n++ {
		val, next := it.EvalExpr(cursor)
		cursor = expectExprEnd(it, next)
		text := formatValue(val)
		io.WriteString(it.Out, text)
		col += len(text)

		if n < len(tok.PrintSeps) {
			switch tok.PrintSeps[n] {
			case ',':
				pad := tabPad(col)
				io.WriteString(it.Out, pad)
				col += len(pad)
			case ';':
				// no gap
			}
		}
	}
	if tok.PrintNewline {
		io.WriteString(it.Out, "\n")
	}
	return cursor
}

// stmtLet implements lvalue = expr in its three forms: plain variable,
// array element, and byte-window indirection (§4.1, §4.7). Grounded on
// the teacher's Store opcode family in vm/bytecode.go.
func stmtLet(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]

	if tok.LetIndirect != OpNone {
		return it.stmtLetIndirect(tok, addr)
	}

	if tok.IsArray {
		arrHandle := it.arrayHandle(tok)
		idx, next := it.evalSubscripts(addr+1, tok.ArgCount)
		val, next2 := it.EvalExpr(next)
		next2 = expectExprEnd(it, next2)
		it.writeArrayElem(arrHandle, idx, val)
		return next2
	}

	h := it.varHandleForAssign(tok)
	val, next := it.EvalExpr(addr + 1)
	next = expectExprEnd(it, next)
	it.assign(h, val)
	return next
}

func (it *Interp) stmtLetIndirect(tok *Token, addr int) int {
	addrVal, next := it.EvalExpr(addr + 1)
	next = expectExprEnd(it, next)
	if addrVal.IsString {
		raise(ErrTypeMismatch, "")
	}
	offset := int(addrVal.Num.AsInt64())

	val, next2 := it.EvalExpr(next)
	next2 = expectExprEnd(it, next2)

	switch tok.LetIndirect {
	case OpIndByte:
		v, err := ToInt32(val.Num.AsFloat())
		if err != nil || v < 0 || v > 255 {
			raise(ErrNumberTooBig, "")
		}
		it.Window.WriteU8(offset, uint8(v))
	case OpIndWord:
		v, err := ToInt32(val.Num.AsFloat())
		if err != nil {
			panic(err)
		}
		it.Window.WriteI32LE(offset, v)
	case OpIndDouble:
		it.Window.WriteF64(offset, val.Num.AsFloat())
	case OpIndString:
		if !val.IsString {
			raise(ErrTypeMismatch, "")
		}
		buf := it.Window.Slice(offset, val.Str.Length+1)
		copy(buf, val.Str.Payload[:val.Str.Length])
		buf[val.Str.Length] = '\r'
	default:
		raiseBroken("LET: unknown indirect target", 0)
	}
	return next2
}

// swapTarget names one SWAP operand, either a scalar variable or an
// array element (§8: "SWAP a%(0),a%(2)" is an elementwise swap).
type swapTarget struct {
	isArray   bool
	varHandle Handle
	arrHandle Handle
	idx       []int
}

func (it *Interp) resolveSwapOperand(name string, staticIdx int, isArray bool, argCount int, addr int) (swapTarget, int) {
	if isArray {
		arrHandle := it.arrayHandle(&Token{Name: name})
		idx, next := it.evalSubscripts(addr, argCount)
		return swapTarget{isArray: true, arrHandle: arrHandle, idx: idx}, next
	}
	var h Handle
	if staticIdx != 0 {
		h = it.Sym.LookupStatic(byte(staticIdx), it.Heap)
	} else {
		found, ok := it.Sym.Resolve(name)
		if !ok {
			raise(ErrMissingVariable, name)
		}
		h = found
	}
	return swapTarget{varHandle: h}, addr
}

func (it *Interp) swapGet(t swapTarget) evalResult {
	if t.isArray {
		return it.readArrayElem(t.arrHandle, t.idx)
	}
	return it.readVar(t.varHandle)
}

func (it *Interp) swapSet(t swapTarget, v evalResult) {
	if t.isArray {
		it.writeArrayElem(t.arrHandle, t.idx, v)
		return
	}
	it.assign(t.varHandle, v)
}

// stmtSwap implements SWAP a, b (§4.6, §8's round-trip law): exchanges
// two lvalues' payloads in full, including string and array-element
// descriptors, without disturbing either side's declared type.
func stmtSwap(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	cursor := addr + 1

	a, cursor := it.resolveSwapOperand(tok.Name, tok.StaticIdx, tok.IsArray, tok.ArgCount, cursor)
	b, cursor := it.resolveSwapOperand(tok.SwapName, tok.SwapStaticIdx, tok.SwapIsArray, tok.SwapArgCount, cursor)

	va := it.swapGet(a)
	vb := it.swapGet(b)
	it.swapSet(a, vb)
	it.swapSet(b, va)
	return cursor
}

// stmtClear implements CLEAR: discards every dynamic variable binding
// (§3's lifecycle rule), leaving static A%..Z%/@% slots untouched.
// Heap slots behind cleared bindings are left allocated rather than
// freed, matching the bump allocator's no-compaction design.
func stmtClear(it *Interp, addr int) int {
	it.Sym.ClearDynamic()
	it.DataCursor = 0
	return addr + 1
}

// stmtLocal implements LOCAL var[, var...] (§4.6): saves each
// variable's current payload in a LOCAL frame, restored automatically
// on ENDPROC/FN-return/RESTORE LOCAL.
func stmtLocal(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	cursor := addr + 1
	for n := 0; n < tok.ArgCount; n++ {
		vtok := &it.Program.Tokens[cursor]
		cursor++
		h := it.lvalueHandle(vtok)
		old := snapshotValue(it.Heap.Var(h))
		it.Stack.PushControl(Frame{Kind: FrameLocal, SavedVar: h, SavedValue: old})
	}
	return cursor
}

// stmtEnd implements END/STOP: requests termination with exit code 0.
func stmtEnd(it *Interp, addr int) int {
	it.requestExit(0)
	return addr + 1
}

// stmtQuit implements QUIT [code] (§6.2: "other values from QUIT n").
func stmtQuit(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	if !tok.HasArg {
		it.requestExit(0)
		return addr + 1
	}
	val, next := it.EvalExpr(addr + 1)
	next = expectExprEnd(it, next)
	it.requestExit(int(val.Num.AsInt64()))
	return next
}

// stmtReport re-emits the last raised error's message (§7's REPORT/
// last-error tracking).
func stmtReport(it *Interp, addr int) int {
	if it.Errors.Last != nil {
		io.WriteString(it.Out, it.Errors.Last.Error())
	}
	return addr + 1
}

// stmtWait implements WAIT [delay] (§5: "blocks the dispatcher for the
// requested duration"), escaping early if interrupted.
func stmtWait(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	next := addr + 1
	d := 20 * time.Millisecond
	if tok.HasArg {
		val, n := it.EvalExpr(addr + 1)
		next = expectExprEnd(it, n)
		d = time.Duration(val.Num.AsInt64()) * 10 * time.Millisecond
	}
	if it.escape.Wait(d) {
		it.escape.Reset()
		raise(ErrEscape, "")
	}
	return next
}

// stmtOscli implements the OSCLI call-out (§6.2): invokes a host shell
// command and, if a target variable is given, captures its output into
// a string rather than writing it to the program's own output stream.
func stmtOscli(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	cmdVal, next := it.EvalExpr(addr + 1)
	next = expectExprEnd(it, next)
	if !cmdVal.IsString {
		raise(ErrTypeMismatch, "")
	}
	cmdline := string(cmdVal.Str.Payload[:cmdVal.Str.Length])

	out, err := runHostCommand(cmdline)
	if err != nil {
		it.Log.WithError(err).Warn("OSCLI command failed")
	}

	if tok.HasArg {
		target := &it.Program.Tokens[next]
		next++
		h := it.lvalueHandle(target)
		it.assign(h, evalResult{IsString: true, Str: StringDesc{Length: len(out), Payload: []byte(out)}})
	} else if out != "" {
		io.WriteString(it.Out, out)
	}
	return next
}

func runHostCommand(cmdline string) (string, error) {
	cmd := exec.Command("sh", "-c", cmdline)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}

// stmtInput implements INPUT ["prompt"] var[, var...] (§4.6):
// blocking read from the interpreter's input stream, parsed as a
// number or taken verbatim as a string depending on the target's tag.
func stmtInput(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	if tok.Prompt != "" {
		io.WriteString(it.Out, tok.Prompt)
	}
	cursor := addr + 1
	for n := 0; n < tok.ArgCount; n++ {
		target := &it.Program.Tokens[cursor]
		cursor++

		line, err := it.In.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if err != nil && line == "" {
			raise(ErrOutOfData, "")
		}

		h := it.lvalueHandle(target)
		rec := it.Heap.Var(h)
		if rec.Tag.IsString() {
			it.assign(h, evalResult{IsString: true, Str: StringDesc{Length: len(line), Payload: []byte(line)}})
			continue
		}
		f, perr := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if perr != nil {
			raise(ErrTypeMismatch, rec.Name)
		}
		it.assign(h, evalResult{Num: NumF64(f)})
	}
	return cursor
}

// stmtLibrary implements LIBRARY name (§4.4's "one table per loaded
// library"): activates name's table ahead of the main table for
// subsequent lookups.
func stmtLibrary(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	it.Sym.PushLibrary(tok.Name, 0)
	return addr + 1
}

// stmtLibraryLocal implements LIBRARY LOCAL name-list (§4.4.1): "creates
// private variables in that library's table on first library scan" —
// unlike LIBRARY, it never activates a new lookup scope. Each declared
// name is defined directly through SymbolSpace.Define, which already
// targets the innermost active library table (or the main table, if
// none is active) — the same scope-aware binding ordinary assignment
// uses. DefinedInActiveScope guards against re-declaring (second
// execution of this statement) without being fooled by an existing
// main-table name of the same identifier: a library's LOCAL is private
// to its own table even when a same-named global already exists.
func stmtLibraryLocal(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	for _, decl := range tok.LibLocals {
		if it.Sym.DefinedInActiveScope(decl.Name) {
			continue
		}
		rec := &VarRecord{Name: decl.Name, Tag: decl.Kind, Array: NilHandle}
		if decl.Kind.IsString() {
			rec.Str = emptyString()
		}
		h := it.Heap.AllocVar(rec)
		it.Sym.Define(decl.Name, h)
	}
	return addr + 1
}

// resolveOnErrorTarget resolves and caches an ON ERROR/ON ERROR LOCAL
// handler's target line, without mutating the token's Op tag (unlike
// ResolveLineRef, since this token is re-executed every time the
// handler statement itself runs, not just once).
func (it *Interp) resolveOnErrorTarget(tok *Token) int {
	if tok.Resolved {
		return tok.Addr
	}
	body, ok := it.Program.FindLine(tok.LineRef)
	if !ok {
		raise(ErrMissingLine, "")
	}
	tok.Addr = body
	tok.Resolved = true
	return body
}

// stmtOnError implements ON ERROR [OFF | GOTO linenum] (§7): installs
// or clears the global handler.
func stmtOnError(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	if !tok.HasArg {
		it.Errors.SetGlobal(nil)
		return addr + 1
	}
	target := it.resolveOnErrorTarget(tok)
	it.Errors.SetGlobal(&ErrorHandler{HandlerAddr: target, StackSnapshot: it.Stack.Depth()})
	return addr + 1
}

// stmtOnErrorLocal implements ON ERROR LOCAL linenum (§7): pushes a
// LOCAL handler plus its matching ERROR frame, popped by RESTORE ERROR
// or subprogram exit.
func stmtOnErrorLocal(it *Interp, addr int) int {
	tok := &it.Program.Tokens[addr]
	if !tok.HasArg {
		return addr + 1
	}
	target := it.resolveOnErrorTarget(tok)
	handler := &ErrorHandler{HandlerAddr: target, StackSnapshot: it.Stack.Depth(), Local: true}
	it.Errors.PushLocal(handler)
	it.Stack.PushControl(Frame{Kind: FrameError, Handler: handler})
	return addr + 1
}
