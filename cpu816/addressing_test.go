package cpu816

import (
	"testing"

	"github.com/arl/m65816/interp"
)

// newAddrEmitter builds a fresh prologue at (pc,pbr) against st, ready for
// an addressing-mode function to be called directly against it.
func newAddrEmitter(t *testing.T, st *interp.State, pc uint16, pbr uint8) *Emitter {
	t.Helper()
	e := NewEmitter()
	e.beginPrologue(pc, pbr)
	if err := interp.Partial(e.Arena, st, 0); err != nil {
		t.Fatalf("prologue: %v", err)
	}
	return e
}

func TestAbsolute(t *testing.T) {
	st := newTestState()
	mem := st.Mem.(*interp.FlatMemory)
	writeProgram(t, mem, 0x00, 0xC000, []byte{0x34, 0x12}) // offset $1234

	if err := st.Regs.Write8(uint32(DBR), 0x7E); err != nil {
		t.Fatalf("Write8(DBR): %v", err)
	}
	if err := st.Regs.Write16(uint32(PC), 0xC000); err != nil {
		t.Fatalf("Write16(PC): %v", err)
	}

	e := newAddrEmitter(t, st, 0xC000, 0x00)
	bodyStart := e.Arena.Len()
	addr := Absolute(e)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	got, _ := st.Value(addr)
	want := uint64(0x7E1234)
	if got != want {
		t.Errorf("Absolute = $%06X, want $%06X", got, want)
	}

	pc, err := st.Regs.Read16(uint32(PC))
	if err != nil {
		t.Fatalf("Read16(PC): %v", err)
	}
	if pc != 0xC000 {
		t.Errorf("register bus PC = $%04X, want unchanged $%04X (Absolute doesn't finalize)", pc, 0xC000)
	}
}

func TestAbsoluteLong(t *testing.T) {
	st := newTestState()
	mem := st.Mem.(*interp.FlatMemory)
	writeProgram(t, mem, 0x00, 0xC000, []byte{0x34, 0x12, 0x7E}) // $7E1234

	e := newAddrEmitter(t, st, 0xC000, 0x00)
	bodyStart := e.Arena.Len()
	addr := AbsoluteLong(e)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	got, _ := st.Value(addr)
	if want := uint64(0x7E1234); got != want {
		t.Errorf("AbsoluteLong = $%06X, want $%06X", got, want)
	}
}

func TestAbsoluteIndexXPageCross(t *testing.T) {
	st := newTestState()
	mem := st.Mem.(*interp.FlatMemory)
	writeProgram(t, mem, 0x00, 0xC000, []byte{0xFF, 0x12}) // offset $12FF

	if err := st.Regs.Write8(uint32(X), 0x01); err != nil {
		t.Fatalf("Write8(X): %v", err)
	}

	e := newAddrEmitter(t, st, 0xC000, 0x00)
	cycleBefore, _ := st.Value(e.Regs[CYCLE])

	bodyStart := e.Arena.Len()
	addr := AbsoluteIndexX(e, false)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	got, _ := st.Value(addr)
	if want := uint64(0x001300); got != want {
		t.Errorf("AbsoluteIndexX = $%06X, want $%06X", got, want)
	}

	epilogueStart := e.Arena.Len()
	e.finalize()
	if err := interp.Partial(e.Arena, st, epilogueStart); err != nil {
		t.Fatalf("epilogue: %v", err)
	}
	cycleAfter, err := st.Regs.Read64(uint32(CYCLE))
	if err != nil {
		t.Fatalf("Read64(CYCLE): %v", err)
	}
	if cycleAfter-cycleBefore != 3 { // 2 operand fetches + 1 page-cross
		t.Errorf("page-cross cycle penalty: got delta %d, want 3", cycleAfter-cycleBefore)
	}
}

func TestAbsoluteIndexXStoreAlwaysPaysCycle(t *testing.T) {
	st := newTestState()
	mem := st.Mem.(*interp.FlatMemory)
	writeProgram(t, mem, 0x00, 0xC000, []byte{0x00, 0x12}) // offset $1200, no page cross on +1

	if err := st.Regs.Write8(uint32(X), 0x01); err != nil {
		t.Fatalf("Write8(X): %v", err)
	}

	e := newAddrEmitter(t, st, 0xC000, 0x00)
	bodyStart := e.Arena.Len()
	AbsoluteIndexX(e, true)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	epilogueStart := e.Arena.Len()
	e.finalize()
	if err := interp.Partial(e.Arena, st, epilogueStart); err != nil {
		t.Fatalf("epilogue: %v", err)
	}
	cycle, err := st.Regs.Read64(uint32(CYCLE))
	if err != nil {
		t.Fatalf("Read64(CYCLE): %v", err)
	}
	if cycle != 3 { // 2 operand fetches + 1 store cycle
		t.Errorf("store cycle penalty: CYCLE = %d, want 3", cycle)
	}
}

func TestDirect(t *testing.T) {
	st := newTestState()
	mem := st.Mem.(*interp.FlatMemory)
	writeProgram(t, mem, 0x00, 0xC000, []byte{0x10}) // offset $10

	if err := st.Regs.Write16(uint32(D), 0x0200); err != nil {
		t.Fatalf("Write16(D): %v", err)
	}

	e := newAddrEmitter(t, st, 0xC000, 0x00)
	bodyStart := e.Arena.Len()
	addr := Direct(e)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	got, _ := st.Value(addr)
	if want := uint64(0x000210); got != want {
		t.Errorf("Direct = $%06X, want $%06X", got, want)
	}
}

func TestDirectPageOverflowPenalty(t *testing.T) {
	st := newTestState()
	mem := st.Mem.(*interp.FlatMemory)
	writeProgram(t, mem, 0x00, 0xC000, []byte{0x10})

	if err := st.Regs.Write16(uint32(D), 0x0201); err != nil { // nonzero low byte
		t.Fatalf("Write16(D): %v", err)
	}

	e := newAddrEmitter(t, st, 0xC000, 0x00)
	bodyStart := e.Arena.Len()
	Direct(e)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	epilogueStart := e.Arena.Len()
	e.finalize()
	if err := interp.Partial(e.Arena, st, epilogueStart); err != nil {
		t.Fatalf("epilogue: %v", err)
	}
	cycle, err := st.Regs.Read64(uint32(CYCLE))
	if err != nil {
		t.Fatalf("Read64(CYCLE): %v", err)
	}
	if cycle != 2 { // 1 operand fetch + 1 penalty
		t.Errorf("D-low-byte-nonzero penalty: CYCLE = %d, want 2", cycle)
	}
}

func TestDirectIndexXWrapUnderE(t *testing.T) {
	st := newTestState()
	mem := st.Mem.(*interp.FlatMemory)
	writeProgram(t, mem, 0x00, 0xC000, []byte{0xFF}) // offset $FF

	if err := st.Regs.Write16(uint32(D), 0x0200); err != nil {
		t.Fatalf("Write16(D): %v", err)
	}
	if err := st.Regs.Write8(uint32(X), 0x02); err != nil {
		t.Fatalf("Write8(X): %v", err)
	}
	if err := st.Regs.Write8(uint32(FlagE), 1); err != nil {
		t.Fatalf("Write8(FlagE): %v", err)
	}

	e := newAddrEmitter(t, st, 0xC000, 0x00)
	bodyStart := e.Arena.Len()
	addr := DirectIndexX(e)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	got, _ := st.Value(addr)
	// D($0200) low byte zero so no overflow; under E, X-indexed offset
	// ($FF+$02=$101) wraps within the direct page to $01, giving $0201.
	if want := uint64(0x000201); got != want {
		t.Errorf("DirectIndexX = $%06X, want $%06X", got, want)
	}
}

func TestIndirectDirect(t *testing.T) {
	st := newTestState()
	mem := st.Mem.(*interp.FlatMemory)
	writeProgram(t, mem, 0x00, 0xC000, []byte{0x10})

	if err := st.Regs.Write16(uint32(D), 0x0200); err != nil {
		t.Fatalf("Write16(D): %v", err)
	}
	if err := st.Regs.Write8(uint32(DBR), 0x7E); err != nil {
		t.Fatalf("Write8(DBR): %v", err)
	}
	// pointer lives at $000210 (D+offset), pointing at $7E:5678
	if err := mem.Write8(0x000210, 0x78); err != nil {
		t.Fatalf("Write8: %v", err)
	}
	if err := mem.Write8(0x000211, 0x56); err != nil {
		t.Fatalf("Write8: %v", err)
	}

	e := newAddrEmitter(t, st, 0xC000, 0x00)
	bodyStart := e.Arena.Len()
	addr := IndirectDirect(e)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	got, _ := st.Value(addr)
	if want := uint64(0x7E5678); got != want {
		t.Errorf("IndirectDirect = $%06X, want $%06X", got, want)
	}
}

func TestIndirectDirectLong(t *testing.T) {
	st := newTestState()
	mem := st.Mem.(*interp.FlatMemory)
	writeProgram(t, mem, 0x00, 0xC000, []byte{0x10})

	if err := st.Regs.Write16(uint32(D), 0x0200); err != nil {
		t.Fatalf("Write16(D): %v", err)
	}
	// pointer at $000210: a 24-bit address $01ABCD
	for i, b := range []byte{0xCD, 0xAB, 0x01} {
		if err := mem.Write8(uint32(0x000210+i), b); err != nil {
			t.Fatalf("Write8: %v", err)
		}
	}

	e := newAddrEmitter(t, st, 0xC000, 0x00)
	bodyStart := e.Arena.Len()
	addr := IndirectDirectLong(e)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	got, _ := st.Value(addr)
	if want := uint64(0x01ABCD); got != want {
		t.Errorf("IndirectDirectLong = $%06X, want $%06X", got, want)
	}
}

func TestIndexYIndirectDirectPageCross(t *testing.T) {
	st := newTestState()
	mem := st.Mem.(*interp.FlatMemory)
	writeProgram(t, mem, 0x00, 0xC000, []byte{0x10})

	if err := st.Regs.Write16(uint32(D), 0x0200); err != nil {
		t.Fatalf("Write16(D): %v", err)
	}
	if err := st.Regs.Write8(uint32(DBR), 0x00); err != nil {
		t.Fatalf("Write8(DBR): %v", err)
	}
	if err := st.Regs.Write8(uint32(Y), 0x01); err != nil {
		t.Fatalf("Write8(Y): %v", err)
	}
	// pointer at $000210 -> $00:12FF, +Y($01) crosses into $1300
	if err := mem.Write8(0x000210, 0xFF); err != nil {
		t.Fatalf("Write8: %v", err)
	}
	if err := mem.Write8(0x000211, 0x12); err != nil {
		t.Fatalf("Write8: %v", err)
	}

	e := newAddrEmitter(t, st, 0xC000, 0x00)
	cycleBefore, _ := st.Value(e.Regs[CYCLE])

	bodyStart := e.Arena.Len()
	addr := IndexYIndirectDirect(e, false)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	got, _ := st.Value(addr)
	if want := uint64(0x001300); got != want {
		t.Errorf("IndexYIndirectDirect = $%06X, want $%06X", got, want)
	}

	epilogueStart := e.Arena.Len()
	e.finalize()
	if err := interp.Partial(e.Arena, st, epilogueStart); err != nil {
		t.Fatalf("epilogue: %v", err)
	}
	cycleAfter, err := st.Regs.Read64(uint32(CYCLE))
	if err != nil {
		t.Fatalf("Read64(CYCLE): %v", err)
	}
	if cycleAfter-cycleBefore != 4 { // 1 operand fetch + 2 pointer reads + 1 page-cross
		t.Errorf("page-cross cycle penalty: got delta %d, want 4", cycleAfter-cycleBefore)
	}
}

func TestIndirectAbsolute(t *testing.T) {
	st := newTestState()
	mem := st.Mem.(*interp.FlatMemory)
	writeProgram(t, mem, 0x00, 0xC000, []byte{0x00, 0x02}) // pointer at $0200

	if err := mem.Write8(0x000200, 0x00); err != nil {
		t.Fatalf("Write8: %v", err)
	}
	if err := mem.Write8(0x000201, 0xC2); err != nil {
		t.Fatalf("Write8: %v", err)
	}

	e := newAddrEmitter(t, st, 0xC000, 0x00)
	bodyStart := e.Arena.Len()
	addr := IndirectAbsolute(e)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	got, _ := st.Value(addr)
	if want := uint64(0x00C200); got != want {
		t.Errorf("IndirectAbsolute = $%06X, want $%06X", got, want)
	}
}

func TestStackRelative(t *testing.T) {
	st := newTestState()
	mem := st.Mem.(*interp.FlatMemory)
	writeProgram(t, mem, 0x00, 0xC000, []byte{0x05, 0x00}) // offset $0005

	if err := st.Regs.Write16(uint32(S), 0x01F0); err != nil {
		t.Fatalf("Write16(S): %v", err)
	}

	e := newAddrEmitter(t, st, 0xC000, 0x00)
	bodyStart := e.Arena.Len()
	addr := StackRelative(e)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	got, _ := st.Value(addr)
	if want := uint64(0x01F5); got != want {
		t.Errorf("StackRelative = $%04X, want $%04X", got, want)
	}
}
