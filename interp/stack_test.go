package interp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStackPushPopNumber(t *testing.T) {
	s := newStack(8)
	s.PushNumber(NumI32(42))
	require.Equal(t, int32(42), s.PopNumber().I32)
}

func TestStackFullRaises(t *testing.T) {
	s := newStack(1)
	s.PushI32(1)
	require.PanicsWithError(t, "Stack full", func() { s.PushI32(2) })
}

func TestStackPopKindMismatchIsBroken(t *testing.T) {
	s := newStack(4)
	s.PushControl(Frame{Kind: FrameFor})
	defer func() {
		r := recover()
		be, ok := r.(*BasicError)
		require.True(t, ok)
		require.Equal(t, ErrBroken, be.Kind)
	}()
	s.Pop(FrameWhile)
}

func TestUnwindToRestoresLocal(t *testing.T) {
	heap := newHeap()
	strHeap := newStringHeap()
	h := heap.AllocVar(&VarRecord{Name: "x%", Tag: KindInt32, I32: 10})

	s := newStack(8)
	s.PushControl(Frame{Kind: FrameProc})
	old := snapshotValue(heap.Var(h))
	s.PushControl(Frame{Kind: FrameLocal, SavedVar: h, SavedValue: old})

	heap.Var(h).I32 = 99

	s.UnwindTo(FrameProc, heap, strHeap, newErrorController())
	require.Equal(t, int32(10), heap.Var(h).I32)
	require.Equal(t, 0, s.Depth())
}

func TestUnwindToPopsErrorHandler(t *testing.T) {
	heap := newHeap()
	strHeap := newStringHeap()
	ec := newErrorController()
	handler := &ErrorHandler{HandlerAddr: 100, Local: true}
	ec.PushLocal(handler)

	s := newStack(8)
	s.PushControl(Frame{Kind: FrameProc})
	s.PushControl(Frame{Kind: FrameError, Handler: handler})

	s.UnwindTo(FrameProc, heap, strHeap, ec)
	_, ok := ec.Active()
	require.False(t, ok)
}

func TestFindFrameLocatesNearestMatchingKind(t *testing.T) {
	s := newStack(8)
	s.PushControl(Frame{Kind: FrameFor})
	s.PushControl(Frame{Kind: FrameWhile})
	require.Equal(t, 1, s.FindFrame(FrameWhile))
	require.Equal(t, 0, s.FindFrame(FrameFor))
	require.Equal(t, -1, s.FindFrame(FrameRepeat))
}
