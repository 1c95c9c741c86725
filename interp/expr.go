package interp

// precedence returns a binary operator's binding power, or -1 if op
// isn't a binary operator. Grounded on the teacher's overall
// stack-pushing evaluation style in vm/exec.go (arithmetic opcodes
// popping two operands and pushing one result), generalized here into
// the left-to-right pratt evaluator named in §2/§4.7.
func precedence(op Opcode) int {
	switch op {
	case OpOr, OpEor:
		return 1
	case OpAnd:
		return 2
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return 3
	case OpAdd, OpSub:
		return 4
	case OpMul, OpDiv, OpMod:
		return 5
	default:
		return -1
	}
}

// evalResult is the outcome of evaluating one expression: exactly one
// of Num/Str is meaningful, per IsString.
type evalResult struct {
	IsString bool
	Num      Number
	Str      StringDesc
}

// EvalExpr parses and evaluates an infix expression starting at addr,
// stopping at the first token that isn't part of the expression (an
// OpExprEnd, statement opcode, or stream end), and returns the result
// plus the address of that stopping token.
func (it *Interp) EvalExpr(addr int) (evalResult, int) {
	return it.parseBinary(addr, 0)
}

func (it *Interp) parseBinary(addr int, minPrec int) (evalResult, int) {
	lhs, addr := it.parseUnary(addr)
	for addr < len(it.Program.Tokens) {
		op := it.Program.Tokens[addr].Op
		prec := precedence(op)
		if prec < minPrec {
			break
		}
		rhs, next := it.parseBinary(addr+1, prec+1)
		lhs = it.applyBinary(op, lhs, rhs)
		addr = next
	}
	return lhs, addr
}

func (it *Interp) parseUnary(addr int) (evalResult, int) {
	if addr >= len(it.Program.Tokens) {
		raiseBroken("EvalExpr: ran past end of token stream", 0)
	}
	tok := &it.Program.Tokens[addr]
	switch tok.Op {
	case OpNeg:
		v, next := it.parseUnary(addr + 1)
		return it.applyNeg(v), next
	case OpNot:
		v, next := it.parseUnary(addr + 1)
		return it.applyNot(v), next
	case OpIndByte, OpIndWord, OpIndString, OpIndDouble:
		v, next := it.parseUnary(addr + 1)
		return it.applyIndirect(tok.Op, v), next
	default:
		return it.parsePrimary(addr)
	}
}

func (it *Interp) parsePrimary(addr int) (evalResult, int) {
	tok := &it.Program.Tokens[addr]
	switch tok.Op {
	case OpLitU8:
		return evalResult{Num: NumU8(uint8(tok.I64))}, addr + 1
	case OpLitI32:
		return evalResult{Num: NumI32(int32(tok.I64))}, addr + 1
	case OpLitI64:
		return evalResult{Num: NumI64(tok.I64)}, addr + 1
	case OpLitFloat:
		return evalResult{Num: NumF64(tok.F64)}, addr + 1
	case OpLitString:
		return evalResult{IsString: true, Str: StringDesc{Length: len(tok.Str), Payload: []byte(tok.Str)}}, addr + 1
	case OpTrue:
		return evalResult{Num: NumI32(-1)}, addr + 1
	case OpFalse:
		return evalResult{Num: NumI32(0)}, addr + 1
	case OpLParen:
		v, next := it.parseBinary(addr+1, 0)
		if next >= len(it.Program.Tokens) || it.Program.Tokens[next].Op != OpRParen {
			raise(ErrSyntax, "")
		}
		return v, next + 1
	case OpStatic:
		h := it.Sym.LookupStatic(byte(tok.StaticIdx), it.Heap)
		return it.readVar(h), addr + 1
	case OpVarRef:
		h, ok := it.Sym.Resolve(tok.Name)
		if !ok {
			raise(ErrMissingVariable, tok.Name)
		}
		return it.readVar(h), addr + 1
	case OpCallExpr, OpCallRes:
		return it.callFn(addr)
	case OpArrayElem:
		arrHandle := it.arrayHandle(tok)
		idx, next := it.evalSubscripts(addr+1, tok.ArgCount)
		return it.readArrayElem(arrHandle, idx), next
	default:
		raise(ErrSyntax, "")
		panic("unreachable")
	}
}

// readVar converts a variable record's current payload into an
// evalResult. Array-valued records are not readable as scalars;
// element reads go through the OpArrayElem primary above, which uses
// the helpers in arrays.go.
func (it *Interp) readVar(h Handle) evalResult {
	rec := it.Heap.Var(h)
	switch rec.Tag {
	case KindUint8:
		return evalResult{Num: NumU8(rec.U8)}
	case KindInt32:
		return evalResult{Num: NumI32(rec.I32)}
	case KindInt64:
		return evalResult{Num: NumI64(rec.I64)}
	case KindFloat:
		return evalResult{Num: NumF64(rec.F64)}
	case KindStringRef, KindStringTemp:
		return evalResult{IsString: true, Str: rec.Str}
	default:
		raise(ErrTypeMismatch, rec.Name)
		panic("unreachable")
	}
}

func (it *Interp) applyNeg(v evalResult) evalResult {
	if v.IsString {
		raise(ErrTypeMismatch, "")
	}
	zero := NumI32(0)
	r, err := arith('-', zero, v.Num)
	if err != nil {
		panic(err)
	}
	return evalResult{Num: r}
}

func (it *Interp) applyNot(v evalResult) evalResult {
	if v.IsString {
		raise(ErrTypeMismatch, "")
	}
	if v.Num.Truthy() {
		return evalResult{Num: NumI32(0)}
	}
	return evalResult{Num: NumI32(-1)}
}

// applyIndirect implements the ?/!/$/| indirection operators (§4.1):
// the operand is the byte-window address, and the operator selects the
// access width.
func (it *Interp) applyIndirect(op Opcode, addrVal evalResult) evalResult {
	if addrVal.IsString {
		raise(ErrTypeMismatch, "")
	}
	offset := int(addrVal.Num.AsInt64())
	switch op {
	case OpIndByte:
		return evalResult{Num: NumU8(it.Window.ReadU8(offset))}
	case OpIndWord:
		return evalResult{Num: NumI32(it.Window.ReadI32LE(offset))}
	case OpIndDouble:
		return evalResult{Num: NumF64(it.Window.ReadF64(offset))}
	case OpIndString:
		n := it.Window.CStringLen(offset)
		return evalResult{IsString: true, Str: StringDesc{Length: n, Payload: it.Window.Slice(offset, n)}}
	default:
		raiseBroken("EvalExpr: unknown indirection operator", 0)
		panic("unreachable")
	}
}

func (it *Interp) applyBinary(op Opcode, a, b evalResult) evalResult {
	if a.IsString || b.IsString {
		return it.applyStringBinary(op, a, b)
	}
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		r, err := arith(arithOpByte(op), a.Num, b.Num)
		if err != nil {
			panic(err)
		}
		return evalResult{Num: r}
	case OpMod:
		r, err := arith('%', a.Num, b.Num)
		if err != nil {
			panic(err)
		}
		return evalResult{Num: r}
	case OpEq:
		return boolResult(compareNumbers(a.Num, b.Num) == 0)
	case OpNe:
		return boolResult(compareNumbers(a.Num, b.Num) != 0)
	case OpLt:
		return boolResult(compareNumbers(a.Num, b.Num) < 0)
	case OpLe:
		return boolResult(compareNumbers(a.Num, b.Num) <= 0)
	case OpGt:
		return boolResult(compareNumbers(a.Num, b.Num) > 0)
	case OpGe:
		return boolResult(compareNumbers(a.Num, b.Num) >= 0)
	case OpAnd:
		return evalResult{Num: NumI64(a.Num.AsInt64() & b.Num.AsInt64())}
	case OpOr:
		return evalResult{Num: NumI64(a.Num.AsInt64() | b.Num.AsInt64())}
	case OpEor:
		return evalResult{Num: NumI64(a.Num.AsInt64() ^ b.Num.AsInt64())}
	default:
		raiseBroken("EvalExpr: unknown binary operator", 0)
		panic("unreachable")
	}
}

// applyStringBinary implements string '+' concatenation and
// byte-lexicographic comparison (§4.7); mixing a string with a numeric
// operand is always a type mismatch.
func (it *Interp) applyStringBinary(op Opcode, a, b evalResult) evalResult {
	if !a.IsString || !b.IsString {
		raise(ErrTypeMismatch, "")
	}
	switch op {
	case OpAdd:
		buf := make([]byte, 0, a.Str.Length+b.Str.Length)
		buf = append(buf, a.Str.Payload[:a.Str.Length]...)
		buf = append(buf, b.Str.Payload[:b.Str.Length]...)
		return evalResult{IsString: true, Str: StringDesc{Length: len(buf), Payload: buf}}
	case OpEq:
		return boolResult(stringsEqual(a.Str, b.Str))
	case OpNe:
		return boolResult(!stringsEqual(a.Str, b.Str))
	case OpLt, OpLe, OpGt, OpGe:
		c := stringCompare(a.Str, b.Str)
		switch op {
		case OpLt:
			return boolResult(c < 0)
		case OpLe:
			return boolResult(c <= 0)
		case OpGt:
			return boolResult(c > 0)
		default:
			return boolResult(c >= 0)
		}
	default:
		raise(ErrTypeMismatch, "")
		panic("unreachable")
	}
}

func stringsEqual(a, b StringDesc) bool {
	return stringCompare(a, b) == 0
}

func stringCompare(a, b StringDesc) int {
	pa, pb := a.Payload[:a.Length], b.Payload[:b.Length]
	n := len(pa)
	if len(pb) < n {
		n = len(pb)
	}
	for i := 0; i < n; i++ {
		if pa[i] != pb[i] {
			if pa[i] < pb[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(pa) < len(pb):
		return -1
	case len(pa) > len(pb):
		return 1
	default:
		return 0
	}
}

func boolResult(b bool) evalResult {
	if b {
		return evalResult{Num: NumI32(-1)}
	}
	return evalResult{Num: NumI32(0)}
}

func arithOpByte(op Opcode) byte {
	switch op {
	case OpAdd:
		return '+'
	case OpSub:
		return '-'
	case OpMul:
		return '*'
	case OpDiv:
		return '/'
	default:
		raiseBroken("EvalExpr: not an arithmetic operator", 0)
		return 0
	}
}
