package interp

// Demos is the set of bundled programs main.go's CLI exposes under `run
// <demo-name>`, each built with the Builder rather than read from a
// source file (§1's tokenizer is out of scope). They double as a live
// specimen of every construct interp_test.go exercises.
var Demos = map[string]func() *Program{
	"forloop":  demoForLoop,
	"repeat":   demoRepeatUntil,
	"case":     demoCaseOtherwise,
	"proc":     demoProcReturnParam,
	"onerror":  demoOnError,
	"array":    demoArraySwap,
}

func demoForLoop() *Program {
	b := NewBuilder()
	b.Line(10).For("I%", KindInt32, false)
	b.LitI32(1).ExprEnd()
	b.LitI32(3).ExprEnd()
	b.Line(20).Print(2, []byte{';'}, false)
	b.Var("I%", KindInt32).ExprEnd()
	b.LitString(" ").ExprEnd()
	b.Line(30).Next("I%")
	return b.Build()
}

func demoRepeatUntil() *Program {
	b := NewBuilder()
	b.Line(10).Let("n%", KindInt32)
	b.LitI32(0).ExprEnd()
	b.Line(20).Repeat()
	b.Line(30).Let("n%", KindInt32)
	b.Var("n%", KindInt32).Op(OpAdd).LitI32(1).ExprEnd()
	b.Line(40).Until()
	b.Var("n%", KindInt32).Op(OpEq).LitI32(5).ExprEnd()
	b.Line(50).Print(1, nil, true)
	b.Var("n%", KindInt32).ExprEnd()
	return b.Build()
}

func demoCaseOtherwise() *Program {
	b := NewBuilder()
	b.Line(10).Let("c$", KindStringRef)
	b.LitString("x").ExprEnd()

	b.Line(20).Case()
	b.Var("c$", KindStringRef).ExprEnd()

	b.When(1)
	b.LitString("a").ExprEnd()
	b.Print(1, nil, true)
	b.LitString("a").ExprEnd()

	b.When(1)
	b.LitString("z").ExprEnd()
	b.Print(1, nil, true)
	b.LitString("z").ExprEnd()

	b.Otherwise()
	b.Print(1, nil, true)
	b.LitString("b").ExprEnd()

	b.Endcase()
	return b.Build()
}

func demoProcReturnParam() *Program {
	b := NewBuilder()
	b.Line(10).Let("x%", KindInt32)
	b.LitI32(10).ExprEnd()

	b.Line(20).CallStmt("double", 1)
	b.Var("x%", KindInt32).ExprEnd()

	b.Line(30).Print(1, nil, true)
	b.Var("x%", KindInt32).ExprEnd()

	b.Line(40).End()

	b.Line(100).DefProc("double", []ParamSpec{{Name: "n%", Kind: KindInt32, Return: true}})
	b.Line(110).Let("n%", KindInt32)
	b.Var("n%", KindInt32).Op(OpMul).LitI32(2).ExprEnd()
	b.Line(120).Endproc()
	return b.Build()
}

func demoOnError() *Program {
	b := NewBuilder()
	b.Line(10).OnError(true, 100)
	b.Line(20).CallStmt("missing", 0)
	b.Line(30).End()

	b.Line(100).Print(1, nil, true)
	b.LitString("caught").ExprEnd()
	b.Line(110).End()
	return b.Build()
}

func demoArraySwap() *Program {
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

	b.Line(60).Print(3, []byte{';', ';'}, true)
	b.ArrayElem("a%", 1).LitI32(0).ExprEnd().ExprEnd()
	b.LitString(" ").ExprEnd()
	b.ArrayElem("a%", 1).LitI32(2).ExprEnd().ExprEnd()
	return b.Build()
}
