package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runProgram(t *testing.T, p *Program) (string, int) {
	t.Helper()
	var out bytes.Buffer
	it := NewInterp(p, DefaultConfig(), &out, strings.NewReader(""))
	code, err := it.Run()
	require.NoError(t, err)
	return out.String(), code
}

// TestForLoopPrint covers a FOR/NEXT loop whose body prints its control
// variable with a trailing semicolon, suppressing the newline each pass.
func TestForLoopPrint(t *testing.T) {
	b := NewBuilder()
	b.Line(10).For("I%", KindInt32, false)
	b.LitI32(1).ExprEnd()
	b.LitI32(3).ExprEnd()
	b.Line(20).Print(2, []byte{';'}, false)
	b.Var("I%", KindInt32).ExprEnd()
	b.LitString(" ").ExprEnd()
	b.Line(30).Next("I%")

	out, code := runProgram(t, b.Build())
	require.Equal(t, 0, code)
	require.Equal(t, "1 2 3 ", out)
}

// TestRepeatUntilCounter covers REPEAT/UNTIL incrementing a counter to a
// fixed bound.
func TestRepeatUntilCounter(t *testing.T) {
	b := NewBuilder()
	b.Line(10).Let("n%", KindInt32)
	b.LitI32(0).ExprEnd()
	b.Line(20).Repeat()
	b.Line(30).Let("n%", KindInt32)
	b.Var("n%", KindInt32).Op(OpAdd).LitI32(1).ExprEnd()
	b.Line(40).Until()
	b.Var("n%", KindInt32).Op(OpEq).LitI32(5).ExprEnd()
	b.Line(50).Print(1, nil, false)
	b.Var("n%", KindInt32).ExprEnd()

	out, code := runProgram(t, b.Build())
	require.Equal(t, 0, code)
	require.Equal(t, "5", out)
}

// TestCaseOtherwise covers CASE/WHEN/OTHERWISE falling through to the
// OTHERWISE clause when no WHEN matches, with neither skipped WHEN body
// printing anything.
func TestCaseOtherwise(t *testing.T) {
	b := NewBuilder()
	b.Line(10).Let("c$", KindStringRef)
	b.LitString("x").ExprEnd()

	b.Line(20).Case()
	b.Var("c$", KindStringRef).ExprEnd()

	b.When(1)
	b.LitString("a").ExprEnd()
	b.Print(1, nil, false)
	b.LitString("a").ExprEnd()

	b.When(1)
	b.LitString("z").ExprEnd()
	b.Print(1, nil, false)
	b.LitString("z").ExprEnd()

	b.Otherwise()
	b.Print(1, nil, false)
	b.LitString("b").ExprEnd()

	b.Endcase()

	out, code := runProgram(t, b.Build())
	require.Equal(t, 0, code)
	require.Equal(t, "b", out)
}

// TestProcReturnParam covers PROC(RETURN x) propagating the callee's
// final value back to the call-site lvalue on ENDPROC.
func TestProcReturnParam(t *testing.T) {
	b := NewBuilder()
	b.Line(10).Let("x%", KindInt32)
	b.LitI32(10).ExprEnd()

	b.Line(20).CallStmt("double", 1)
	b.Var("x%", KindInt32).ExprEnd()

	b.Line(30).Print(1, nil, false)
	b.Var("x%", KindInt32).ExprEnd()

	b.Line(40).End()

	b.Line(100).DefProc("double", []ParamSpec{{Name: "n%", Kind: KindInt32, Return: true}})
	b.Line(110).Let("n%", KindInt32)
	b.Var("n%", KindInt32).Op(OpMul).LitI32(2).ExprEnd()
	b.Line(120).Endproc()

	out, code := runProgram(t, b.Build())
	require.Equal(t, 0, code)
	require.Equal(t, "20", out)
}

// TestOnErrorCatchesMissingProc covers ON ERROR GOTO catching a runtime
// error (calling an undefined PROC) and resuming at the handler line.
func TestOnErrorCatchesMissingProc(t *testing.T) {
	b := NewBuilder()
	b.Line(10).OnError(true, 100)
	b.Line(20).CallStmt("missing", 0)
	b.Line(30).End()

	b.Line(100).Print(1, nil, false)
	b.LitString("caught").ExprEnd()
	b.Line(110).End()

	out, code := runProgram(t, b.Build())
	require.Equal(t, 0, code)
	require.Equal(t, "caught", out)
}

// TestDimArraySwap covers DIM, array-element read/write, and SWAP on two
// elements of the same array.
func TestDimArraySwap(t *testing.T) {
	b := NewBuilder()
	b.Line(10).Dim("a%", KindInt32, 1)
	b.LitI32(2).ExprEnd()

	b.Line(20).LetArray("a%", 1)
	b.LitI32(0).ExprEnd()
	b.LitI32(10).ExprEnd()

	b.Line(30).LetArray("a%", 1)
	b.LitI32(1).ExprEnd()
	b.LitI32(20).ExprEnd()

	b.Line(40).LetArray("a%", 1)
	b.LitI32(2).ExprEnd()
	b.LitI32(30).ExprEnd()

	b.Line(50).Swap("a%", 0, true, 1, "a%", 0, true, 1)
	b.LitI32(0).ExprEnd()
	b.LitI32(2).ExprEnd()

	b.Line(60).Print(3, []byte{';', ';'}, false)
	b.ArrayElem("a%", 1).LitI32(0).ExprEnd().ExprEnd()
	b.LitString(" ").ExprEnd()
	b.ArrayElem("a%", 1).LitI32(2).ExprEnd().ExprEnd()

	out, code := runProgram(t, b.Build())
	require.Equal(t, 0, code)
	require.Equal(t, "30 10", out)
}

// TestLibraryLocalDeclaresPrivateVariable covers LIBRARY LOCAL declaring
// a variable private to the active library's table (§4.4.1), distinct
// from a same-named variable in the main table, rather than pushing a
// second lookup scope the way a bare LIBRARY does.
func TestLibraryLocalDeclaresPrivateVariable(t *testing.T) {
	b := NewBuilder()
	b.Line(10).Let("x%", KindInt32)
	b.LitI32(99).ExprEnd()

	b.Line(20).Library("mylib")
	b.Line(30).LibraryLocal(LibLocalName{Name: "x%", Kind: KindInt32})

	b.Line(40).Print(1, nil, false)
	b.Var("x%", KindInt32).ExprEnd()

	out, code := runProgram(t, b.Build())
	require.Equal(t, 0, code)
	require.Equal(t, "0", out)
}

// TestRestoreLocalLeavesLoopFrameIntact covers RESTORE LOCAL unwinding
// only LOCAL-family frames (§4.6), leaving an enclosing WHILE frame in
// place so ENDWHILE still finds its loop on the next iteration.
func TestRestoreLocalLeavesLoopFrameIntact(t *testing.T) {
	b := NewBuilder()
	b.Line(10).Let("n%", KindInt32)
	b.LitI32(1).ExprEnd()

	b.Line(20).While()
	b.Var("n%", KindInt32).Op(OpLe).LitI32(2).ExprEnd()

	b.Line(30).Local(1)
	b.Var("m%", KindInt32)
	b.Line(40).Let("m%", KindInt32)
	b.LitI32(5).ExprEnd()
	b.Line(50).RestoreLocal()
	b.Line(60).Let("n%", KindInt32)
	b.Var("n%", KindInt32).Op(OpAdd).LitI32(1).ExprEnd()

	b.Line(70).Endwhile()

	b.Line(80).Print(1, nil, false)
	b.Var("n%", KindInt32).ExprEnd()

	out, code := runProgram(t, b.Build())
	require.Equal(t, 0, code)
	require.Equal(t, "3", out)
}

// TestMissingVariableWithoutHandlerAborts covers an unrecovered
// BASIC-level error (reading an undefined variable) propagating out of
// Run with a nonzero exit code.
func TestMissingVariableWithoutHandlerAborts(t *testing.T) {
	b := NewBuilder()
	b.Line(10).Print(1, nil, false)
	b.Var("undefined%", KindInt32).ExprEnd()

	var out bytes.Buffer
	it := NewInterp(b.Build(), DefaultConfig(), &out, strings.NewReader(""))
	code, err := it.Run()
	require.Error(t, err)
	require.Equal(t, 1, code)
	be, ok := err.(*BasicError)
	require.True(t, ok)
	require.Equal(t, ErrMissingVariable, be.Kind)
}
