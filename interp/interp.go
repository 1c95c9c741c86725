package interp

import (
	"bufio"
	"fmt"
	"io"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Interp is the top-level execution context threaded through every
// statement handler (§9's design note: "re-express as an explicit
// 'interpreter' context passed by exclusive mutable reference to every
// statement handler; the dispatcher is a function on (ctx, cursor) ->
// ctx"). Grounded on the teacher's VM struct in vm/vm.go and its
// NewVirtualMachine/RunProgram pair in vm/run.go.
type Interp struct {
	Program *Program
	Stack   *Stack
	Heap    *Heap
	StringHeap *StringHeap
	Sym     *SymbolSpace
	Window  *ByteWindow
	OffHeap *OffHeapArena
	Errors  *ErrorController

	resolver *Resolver

	DataCursor int // index into Program.DataItems of the next item READ consumes

	Out io.Writer
	In  *bufio.Reader

	Trace bool
	Log   *logrus.Logger

	escape *EscapeWatcher

	exitCode int
	wantExit bool

	// pendingFnResult carries a FN's "=expr" value from stmtFnReturn to
	// execUntilFnReturn, since the dispatch loop's return value is a
	// cursor address, not an expression result.
	pendingFnResult *evalResult
}

// NewInterp builds an interpreter over program, sized per cfg.
// Grounded on the teacher's NewVirtualMachine, which takes the same
// kind of fixed capacity arguments (register count, stack size).
func NewInterp(program *Program, cfg *Config, out io.Writer, in io.Reader) *Interp {
	it := &Interp{
		Program:    program,
		Stack:      newStack(cfg.StackFrames),
		Heap:       newHeap(),
		StringHeap: newStringHeap(),
		Sym:        newSymbolSpace(cfg.SymbolBuckets),
		Window:     newByteWindow(cfg.ByteWindowBytes),
		OffHeap:    newOffHeapArena(),
		Errors:     newErrorController(),
		resolver:   newResolver(),
		Out:        out,
		In:         bufio.NewReader(in),
		Log:        logrus.StandardLogger(),
		escape:     newEscapeWatcher(),
	}
	it.resolver.CascadeIF = cfg.CascadeIF
	return it
}

// Run executes the program from its first token until END/STOP/QUIT or
// an unrecovered error, returning the process exit code (§6.2: "other
// values from QUIT n"). Grounded on the teacher's RunProgram in
// vm/run.go, including its GOGC-disable-during-run trick — full GC is
// suspended for the run's duration since the interpreter's heap and
// stack are bump-allocated arenas the collector gains little from
// scanning mid-run.
func (it *Interp) Run() (code int, err error) {
	old := debug.SetGCPercent(-1)
	defer debug.SetGCPercent(old)

	defer func() {
		if r := recover(); r != nil {
			be, ok := r.(*BasicError)
			if !ok {
				panic(r)
			}
			if be.Kind == ErrBroken {
				err = be
				return
			}
			it.Errors.Last = be
			code = 1
			err = be
		}
	}()

	addr := 0
	if len(it.Program.Tokens) > 0 {
		addr = it.Program.Lines[0].BodyStart
	}
	for {
		if it.wantExit {
			return it.exitCode, nil
		}
		if addr >= len(it.Program.Tokens) || it.Program.Tokens[addr].Op == OpEndOfProgram {
			return 0, nil
		}
		addr = it.stepTop(addr)
	}
}

// stepTop calls step, catching an fnErrorUnwind sentinel that has
// propagated all the way out of every enclosing FN call (see
// stmtFnReturn's stepFn): since Run's own loop has no FN base depth to
// honor, it always resumes at the sentinel's address, which is exactly
// the installed handler's own statement.
func (it *Interp) stepTop(addr int) (next int) {
	defer func() {
		if r := recover(); r != nil {
			fw, ok := r.(*fnErrorUnwind)
			if !ok {
				panic(r)
			}
			next = fw.resumeAddr
		}
	}()
	return it.step(addr)
}

// step executes exactly one token's handler, recovering BasicError
// panics that have an active handler installed and resuming at that
// handler's address; errors with no active handler propagate to Run's
// outer recover (the "REPL restart point" of §5).
func (it *Interp) step(addr int) (next int) {
	defer func() {
		if r := recover(); r != nil {
			be, ok := r.(*BasicError)
			if !ok {
				panic(r)
			}
			if be.Kind == ErrBroken {
				panic(be)
			}
			handler, ok := it.Errors.Active()
			if !ok {
				panic(be)
			}
			it.Errors.Last = be
			it.unwindToHandler(handler)
			next = handler.HandlerAddr
		}
	}()

	tok := &it.Program.Tokens[addr]
	if it.Trace {
		it.Log.WithFields(logrus.Fields{"addr": addr, "op": tok.Op, "line": tok.Line}).Trace("exec")
	}
	h := dispatchTable[tok.Op]
	if h == nil {
		raise(ErrUnsupportedFeature, "")
	}
	return h(it, addr)
}

// unwindToHandler resets the Value Stack to the snapshot captured when
// handler was installed, per §7: "the stack is reset to the snapshot
// the handler was installed with". Frames discarded in the process run
// their normal cleanup (LOCAL restores variables, LOCARRAY/LOCSTRING
// release heap payloads, ERROR pops the matching local handler),
// matching the silent-unwind contract of §4.2. A LOCAL handler's own
// ERROR frame sits directly above its StackSnapshot (stmtOnErrorLocal
// records the snapshot before pushing it), so this loop always reaches
// and discards it — along with any other ON ERROR LOCAL frames nested
// above it — without a separate explicit pop.
func (it *Interp) unwindToHandler(handler *ErrorHandler) {
	for it.Stack.Depth() > handler.StackSnapshot {
		f := it.Stack.frames[len(it.Stack.frames)-1]
		it.Stack.frames = it.Stack.frames[:len(it.Stack.frames)-1]
		it.Stack.cleanupFrame(f, it.Heap, it.StringHeap, it.Errors)
	}
}

// checkEscape is called at every suspension point named in §5 (loop
// back-edges, before ENDWHILE/NEXT/UNTIL, GOSUB/PROC entry) and raises
// ESCAPE if the watcher has latched an interrupt.
func (it *Interp) checkEscape() {
	if it.escape.Triggered() {
		it.escape.Reset()
		raise(ErrEscape, "")
	}
}

// requestExit is called by END/STOP/QUIT handlers.
func (it *Interp) requestExit(code int) {
	it.wantExit = true
	it.exitCode = code
}

// RunDebugMode is a single-step interactive loop grounded directly on
// the teacher's execProgramDebugMode in main.go: n/next executes one
// statement, r/run free-runs to completion or the next breakpoint, b
// <line> toggles a breakpoint on a source line number, and program
// lists the token stream's line numbers. dbgIn/dbgOut are the debug
// console, separate from the program's own Out/In streams.
func (it *Interp) RunDebugMode(dbgIn *bufio.Reader, dbgOut io.Writer) (code int, err error) {
	old := debug.SetGCPercent(-1)
	defer debug.SetGCPercent(old)

	defer func() {
		if r := recover(); r != nil {
			be, ok := r.(*BasicError)
			if !ok {
				panic(r)
			}
			it.Errors.Last = be
			code = 1
			err = be
		}
	}()

	breakpoints := make(map[int]struct{})
	addr := 0
	if len(it.Program.Tokens) > 0 {
		addr = it.Program.Lines[0].BodyStart
	}
	waitForInput := true

	for {
		if it.wantExit {
			return it.exitCode, nil
		}
		if addr >= len(it.Program.Tokens) || it.Program.Tokens[addr].Op == OpEndOfProgram {
			return 0, nil
		}

		if !waitForInput {
			if _, hit := breakpoints[it.Program.Tokens[addr].Line]; hit {
				fmt.Fprintln(dbgOut, "breakpoint")
				waitForInput = true
			}
		}

		if waitForInput {
			fmt.Fprint(dbgOut, "->")
			line, _ := dbgIn.ReadString('\n')
			cmd := strings.ToLower(strings.TrimSpace(line))
			switch {
			case cmd == "n" || cmd == "next":
				addr = it.stepTop(addr)
				continue
			case cmd == "r" || cmd == "run":
				waitForInput = false
				continue
			case cmd == "program":
				for _, li := range it.Program.Lines {
					fmt.Fprintf(dbgOut, "%d\n", li.Number)
				}
				continue
			case strings.HasPrefix(cmd, "b"):
				n, perr := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(cmd, "b")))
				if perr != nil {
					fmt.Fprintln(dbgOut, "unknown line number:", perr)
					continue
				}
				if _, ok := breakpoints[n]; ok {
					delete(breakpoints, n)
				} else {
					breakpoints[n] = struct{}{}
				}
				continue
			default:
				continue
			}
		}

		addr = it.stepTop(addr)
	}
}
