package interp

// Builder constructs a Program token-by-token. It is not a BASIC text
// tokenizer (that pass is out of scope per spec.md's PURPOSE section);
// it is programmatic test/demo-program scaffolding, grounded on the
// teacher's CompileSourceFromBuffer/preprocessLine/parseInputLine
// pipeline in vm/compile.go (a forward single pass appending fixed-shape
// records into a flat slice), repurposed here to emit §6.1's token
// shape directly rather than parsing source text into it.
type Builder struct {
	p           *Program
	curLine     int
	lineStarted bool
}

// NewBuilder starts a fresh program.
func NewBuilder() *Builder {
	return &Builder{p: &Program{}}
}

// Line opens a new source line numbered n; every subsequent token is
// attributed to it until the next Line call.
func (b *Builder) Line(n int) *Builder {
	b.curLine = n
	b.p.Lines = append(b.p.Lines, LineInfo{Number: n, BodyStart: len(b.p.Tokens)})
	b.lineStarted = true
	return b
}

func (b *Builder) emit(tok Token) int {
	tok.Line = b.curLine
	b.p.Tokens = append(b.p.Tokens, tok)
	return len(b.p.Tokens) - 1
}

// Tok appends a bare token with no payload beyond Op, returning its
// address (useful for statement opcodes built up via the With* helpers
// below, and for structural markers like EndOfLine/Endif/Endcase).
func (b *Builder) Tok(op Opcode) *Builder {
	b.emit(Token{Op: op})
	return b
}

// --- expression sub-stream helpers -----------------------------------

func (b *Builder) LitU8(v uint8) *Builder   { b.emit(Token{Op: OpLitU8, I64: int64(v)}); return b }
func (b *Builder) LitI32(v int32) *Builder  { b.emit(Token{Op: OpLitI32, I64: int64(v)}); return b }
func (b *Builder) LitI64(v int64) *Builder  { b.emit(Token{Op: OpLitI64, I64: v}); return b }
func (b *Builder) LitFloat(v float64) *Builder {
	b.emit(Token{Op: OpLitFloat, F64: v})
	return b
}
func (b *Builder) LitString(s string) *Builder { b.emit(Token{Op: OpLitString, Str: s}); return b }
func (b *Builder) True() *Builder              { b.emit(Token{Op: OpTrue}); return b }
func (b *Builder) False() *Builder             { b.emit(Token{Op: OpFalse}); return b }

func (b *Builder) Var(name string, kind Kind) *Builder {
	b.emit(Token{Op: OpVarRef, Name: name, VarKind: kind})
	return b
}

// Static's argument is the raw letter ('A'..'Z' or '@'), not a
// pre-computed slot index — LookupStatic derives the index itself, so
// StaticIdx carries the ASCII byte straight through (0 stays free as
// the "not a static token" sentinel, since no valid letter is zero).
func (b *Builder) Static(letter byte) *Builder {
	b.emit(Token{Op: OpStatic, StaticIdx: int(letter)})
	return b
}

func (b *Builder) ArrayElem(name string, subscripts int) *Builder {
	b.emit(Token{Op: OpArrayElem, Name: name, ArgCount: subscripts})
	return b
}

func (b *Builder) Op(op Opcode) *Builder { b.emit(Token{Op: op}); return b }

func (b *Builder) Indirect(op Opcode) *Builder { b.emit(Token{Op: op}); return b }

func (b *Builder) CallExpr(name string, argCount int) *Builder {
	b.emit(Token{Op: OpCallExpr, Name: name, ArgCount: argCount})
	return b
}

// ExprEnd terminates one expression sub-stream.
func (b *Builder) ExprEnd() *Builder { b.emit(Token{Op: OpExprEnd}); return b }

// --- statement helpers -------------------------------------------------

// Let appends a plain-variable assignment header; the caller follows
// with the value expression and ExprEnd.
func (b *Builder) Let(name string, kind Kind) *Builder {
	b.emit(Token{Op: OpLet, Name: name, VarKind: kind})
	return b
}

func (b *Builder) LetStatic(letter byte) *Builder {
	b.emit(Token{Op: OpLet, StaticIdx: int(letter)})
	return b
}

// LetArray appends an array-element assignment header; the caller
// follows with subscripts subscript expressions (each self-terminated
// by ExprEnd) then the value expression and its own ExprEnd.
func (b *Builder) LetArray(name string, subscripts int) *Builder {
	b.emit(Token{Op: OpLet, Name: name, IsArray: true, ArgCount: subscripts})
	return b
}

func (b *Builder) LetIndirect(op Opcode) *Builder {
	b.emit(Token{Op: OpLet, LetIndirect: op})
	return b
}

func (b *Builder) Print(items int, seps []byte, newline bool) *Builder {
	b.emit(Token{Op: OpPrint, ArgCount: items, PrintSeps: seps, PrintNewline: newline})
	return b
}

func (b *Builder) For(name string, kind Kind, hasStep bool) *Builder {
	b.emit(Token{Op: OpFor, Name: name, VarKind: kind, HasStep: hasStep})
	return b
}

func (b *Builder) Next(names ...string) *Builder {
	b.emit(Token{Op: OpNext, NextVars: names})
	return b
}

func (b *Builder) While() *Builder    { b.emit(Token{Op: OpWhile}); return b }
func (b *Builder) Endwhile() *Builder { b.emit(Token{Op: OpEndwhile}); return b }
func (b *Builder) Repeat() *Builder   { b.emit(Token{Op: OpRepeat}); return b }
func (b *Builder) Until() *Builder    { b.emit(Token{Op: OpUntil}); return b }

func (b *Builder) Goto(line int) *Builder {
	b.emit(Token{Op: OpLineNumUnres, LineRef: line})
	return b
}
func (b *Builder) GotoStmt(line int) *Builder {
	b.emit(Token{Op: OpGoto, LineRef: line})
	return b
}
func (b *Builder) Gosub(line int) *Builder {
	b.emit(Token{Op: OpGosub, LineRef: line})
	return b
}
func (b *Builder) Return() *Builder { b.emit(Token{Op: OpReturn}); return b }

func (b *Builder) IfSingle(line int) *Builder {
	b.emit(Token{Op: OpIfSingle, LineRef: line})
	return b
}
func (b *Builder) IfBlock() *Builder { b.emit(Token{Op: OpIf}); return b }
func (b *Builder) Else() *Builder    { b.emit(Token{Op: OpElse}); return b }
func (b *Builder) Endif() *Builder   { b.emit(Token{Op: OpEndif}); return b }

func (b *Builder) Case() *Builder { b.emit(Token{Op: OpCase}); return b }
func (b *Builder) When(exprCount int) *Builder {
	b.emit(Token{Op: OpWhen, I64: int64(exprCount)})
	return b
}
func (b *Builder) Otherwise() *Builder { b.emit(Token{Op: OpOtherwise}); return b }
func (b *Builder) Endcase() *Builder   { b.emit(Token{Op: OpEndcase}); return b }

func (b *Builder) DefProc(name string, params []ParamSpec) *Builder {
	b.emit(Token{Op: OpDefProc, Name: name, Params: params})
	return b
}
func (b *Builder) DefFn(name string, params []ParamSpec) *Builder {
	b.emit(Token{Op: OpDefFn, Name: name, Params: params})
	return b
}
func (b *Builder) Endproc() *Builder { b.emit(Token{Op: OpEndproc}); return b }
func (b *Builder) FnReturn() *Builder { b.emit(Token{Op: OpFnReturn}); return b }

func (b *Builder) CallStmt(name string, argCount int) *Builder {
	b.emit(Token{Op: OpCallStmt, Name: name, ArgCount: argCount})
	return b
}

func (b *Builder) Local(count int) *Builder {
	b.emit(Token{Op: OpLocal, ArgCount: count})
	return b
}

func (b *Builder) Dim(name string, kind Kind, dims int) *Builder {
	b.emit(Token{Op: OpDim, Name: name, VarKind: kind, ArgCount: dims})
	return b
}

func (b *Builder) DimHimem(name string, kind Kind, release bool) *Builder {
	b.emit(Token{Op: OpDim, Name: name, VarKind: kind, HasArg: true, OffHeapRelease: release})
	return b
}

func (b *Builder) Swap(name string, staticIdx int, isArray bool, argCount int,
	swapName string, swapStaticIdx int, swapIsArray bool, swapArgCount int) *Builder {
	b.emit(Token{
		Op: OpSwap, Name: name, StaticIdx: staticIdx, IsArray: isArray, ArgCount: argCount,
		SwapName: swapName, SwapStaticIdx: swapStaticIdx, SwapIsArray: swapIsArray, SwapArgCount: swapArgCount,
	})
	return b
}

func (b *Builder) Clear() *Builder { b.emit(Token{Op: OpClear}); return b }
func (b *Builder) End() *Builder   { b.emit(Token{Op: OpEnd}); return b }
func (b *Builder) Quit(hasArg bool) *Builder {
	b.emit(Token{Op: OpQuit, HasArg: hasArg})
	return b
}
func (b *Builder) Report() *Builder { b.emit(Token{Op: OpReport}); return b }

func (b *Builder) Wait(hasArg bool) *Builder {
	b.emit(Token{Op: OpWait, HasArg: hasArg})
	return b
}

func (b *Builder) Oscli(capture bool) *Builder {
	b.emit(Token{Op: OpOscli, HasArg: capture})
	return b
}

func (b *Builder) Input(prompt string, count int) *Builder {
	b.emit(Token{Op: OpInput, Prompt: prompt, ArgCount: count})
	return b
}

func (b *Builder) Library(name string) *Builder {
	b.emit(Token{Op: OpLibrary, Name: name})
	return b
}
// LibraryLocal implements LIBRARY LOCAL name-list (§4.4.1): unlike
// Library, this never activates a new lookup scope — it declares
// private variables directly in whichever library table is currently
// active. names pairs each identifier with the type its suffix selects.
func (b *Builder) LibraryLocal(names ...LibLocalName) *Builder {
	b.emit(Token{Op: OpLibraryLocal, LibLocals: names})
	return b
}

func (b *Builder) OnError(hasArg bool, line int) *Builder {
	b.emit(Token{Op: OpOnError, HasArg: hasArg, LineRef: line})
	return b
}
func (b *Builder) OnErrorLocal(hasArg bool, line int) *Builder {
	b.emit(Token{Op: OpOnErrorLocal, HasArg: hasArg, LineRef: line})
	return b
}
func (b *Builder) RestoreError() *Builder { b.emit(Token{Op: OpRestoreError}); return b }
func (b *Builder) RestoreLocal() *Builder { b.emit(Token{Op: OpRestoreLocal}); return b }

func (b *Builder) Data(values ...Token) *Builder {
	for _, v := range values {
		line := 0
		if n := len(b.p.Lines); n > 0 {
			line = b.p.Lines[n-1].Number
		}
		b.p.DataItems = append(b.p.DataItems, v)
		b.p.DataItemLine = append(b.p.DataItemLine, line)
	}
	b.emit(Token{Op: OpData})
	return b
}

func (b *Builder) Read(count int) *Builder {
	b.emit(Token{Op: OpRead, ArgCount: count})
	return b
}

func (b *Builder) Restore(hasArg bool, line int) *Builder {
	b.emit(Token{Op: OpRestore, HasArg: hasArg, LineRef: line})
	return b
}

// EndOfLine closes off the current source line.
func (b *Builder) EndOfLine() *Builder {
	b.emit(Token{Op: OpEndOfLine})
	return b
}

// Build finalizes the program, appending a terminating OpEndOfProgram.
func (b *Builder) Build() *Program {
	b.emit(Token{Op: OpEndOfProgram})
	return b.p
}
