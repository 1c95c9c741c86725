package interp

import (
	"encoding/binary"
	"math"
)

// ByteWindow is the flat byte array representing BASIC's workspace
// (§4.1). Indirection operators (?, !, $, |) translate directly to its
// load/store calls. Grounded on the teacher's loadpX/storepX helpers in
// vm/exec.go, widened from 32-bit-only to the full u8/i32/i64/f64 set.
type ByteWindow struct {
	mem []byte
}

func newByteWindow(size int) *ByteWindow {
	return &ByteWindow{mem: make([]byte, size)}
}

func (w *ByteWindow) Len() int { return len(w.mem) }

func (w *ByteWindow) bounds(offset, width int) {
	if offset < 0 || offset+width > len(w.mem) {
		raiseBroken("ByteWindow: out of range access", 0)
	}
}

func (w *ByteWindow) ReadU8(offset int) uint8 {
	w.bounds(offset, 1)
	return w.mem[offset]
}

func (w *ByteWindow) WriteU8(offset int, v uint8) {
	w.bounds(offset, 1)
	w.mem[offset] = v
}

func (w *ByteWindow) ReadI32LE(offset int) int32 {
	w.bounds(offset, 4)
	return int32(binary.LittleEndian.Uint32(w.mem[offset:]))
}

func (w *ByteWindow) WriteI32LE(offset int, v int32) {
	w.bounds(offset, 4)
	binary.LittleEndian.PutUint32(w.mem[offset:], uint32(v))
}

func (w *ByteWindow) ReadI64LE(offset int) int64 {
	w.bounds(offset, 8)
	return int64(binary.LittleEndian.Uint64(w.mem[offset:]))
}

func (w *ByteWindow) WriteI64LE(offset int, v int64) {
	w.bounds(offset, 8)
	binary.LittleEndian.PutUint64(w.mem[offset:], uint64(v))
}

func (w *ByteWindow) ReadF64(offset int) float64 {
	w.bounds(offset, 8)
	return math.Float64frombits(binary.LittleEndian.Uint64(w.mem[offset:]))
}

func (w *ByteWindow) WriteF64(offset int, v float64) {
	w.bounds(offset, 8)
	binary.LittleEndian.PutUint64(w.mem[offset:], math.Float64bits(v))
}

// CStringLen returns the number of bytes up to the first carriage-return
// terminator starting at offset, per §4.1.
func (w *ByteWindow) CStringLen(offset int) int {
	n := 0
	for offset+n < len(w.mem) && w.mem[offset+n] != '\r' {
		n++
	}
	return n
}

// Slice exposes the raw bytes in [offset, offset+n) for callers that need
// to hand a span to the string heap or to aliasing code. The engine
// performs no aliasing checks (§5): the byte window may alias the
// tokenized program or variable storage, and corrupting writes are
// undefined by contract.
func (w *ByteWindow) Slice(offset, n int) []byte {
	w.bounds(offset, n)
	return w.mem[offset : offset+n]
}
