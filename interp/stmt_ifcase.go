package interp

// stmtIfSingle implements the single-line form "IF cond THEN linenum"
// (§4.5 item 1, §4.6): a conditional GOTO with no ENDIF/ELSE pairing.
func stmtIfSingle(it *Interp, addr int) int {
	cond, next := it.EvalExpr(addr + 1)
	next = expectExprEnd(it, next)
	if cond.IsString {
		raise(ErrTypeMismatch, "")
	}
	if !cond.Num.Truthy() {
		return next + 1 // skip the trailing unresolved/resolved line-ref token
	}
	return it.resolver.ResolveLineRef(it.Program, next)
}

// stmtIf implements block IF/ELSE/ENDIF (§4.5 item 3, §4.6): evaluate
// the condition, resolve the block's then/else targets on first
// execution (cached thereafter on the token), and branch.
func stmtIf(it *Interp, addr int) int {
	cond, next := it.EvalExpr(addr + 1)
	next = expectExprEnd(it, next)
	if cond.IsString {
		raise(ErrTypeMismatch, "")
	}

	it.resolver.ResolveIfBlock(it.Program, addr, next)
	tok := &it.Program.Tokens[addr]
	if cond.Num.Truthy() {
		return tok.ThenAddr
	}
	return tok.ElseAddr
}

// stmtElse is only reached by falling off the end of a taken then-body
// (an ELSE with no preceding jump away from it); it forward-scans to
// the paired ENDIF exactly as §4.5 item 4 describes and continues
// there, since execution must not fall into the else-body.
func stmtElse(it *Interp, addr int) int {
	return it.resolver.ResolveElseEndif(it.Program, addr)
}

// stmtEndif is a no-op marker reached by falling off the end of
// whichever body was taken.
func stmtEndif(it *Interp, addr int) int {
	return addr + 1
}

// stmtCase implements CASE ... OF (§4.5 item 5, §4.6): evaluate the
// selector, resolve (or reuse) the case table, linearly test each
// WHEN's expression list, and branch to the first match, OTHERWISE, or
// the token after ENDCASE.
func stmtCase(it *Interp, addr int) int {
	selector, next := it.EvalExpr(addr + 1)
	next = expectExprEnd(it, next)

	h := it.resolver.ResolveCase(it.Program, addr, it.Heap)
	table := it.Heap.CaseTable(h)

	for _, w := range table.Whens {
		if it.caseListMatches(selector, w.ExprListAddr, w.ExprCount) {
			return w.BodyAddr
		}
	}
	if table.HasOther {
		return table.OtherAddr
	}
	_ = next
	return table.DefaultAddr
}

// caseListMatches evaluates each of count comma-separated expressions
// in a WHEN's list and reports whether any equals selector, using
// §4.6's comparison rules (integer-vs-integer exact, integer-vs-float
// promoted, string-vs-string byte-equal).
func (it *Interp) caseListMatches(selector evalResult, addr int, count int) bool {
	matched := false
	for n := 0; n < count; n++ {
		v, next := it.EvalExpr(addr)
		if it.caseValuesEqual(selector, v) {
			matched = true
		}
		addr = next + 1 // skip the list item's OpExprEnd terminator
	}
	return matched
}

func (it *Interp) caseValuesEqual(a, b evalResult) bool {
	if a.IsString != b.IsString {
		return false
	}
	if a.IsString {
		return stringsEqual(a.Str, b.Str)
	}
	return compareNumbers(a.Num, b.Num) == 0
}

// stmtEndcase is a no-op marker. Normal control flow never dispatches
// here directly — stmtCase branches past it and skipCaseBodyToEndcase
// lands one token after it — but it stays in the table in case a
// GOTO/GOSUB targets a line that happens to start here.
func stmtEndcase(it *Interp, addr int) int {
	return addr + 1
}
