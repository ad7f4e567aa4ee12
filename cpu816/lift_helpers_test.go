package cpu816

import (
	"testing"

	"github.com/arl/m65816/interp"
)

// stepOne lifts and runs exactly one opcode at (pc, pbr), the same sequence
// Compile's loop body runs per iteration, but without looping again for the
// next opcode — useful for exercising a single straight-line instruction
// (one that never calls e.End()) in isolation, since Compile itself keeps
// extending a block until a branch/jump/return ends it.
func stepOne(t *testing.T, st *interp.State, pc uint16, pbr uint8) *Block {
	t.Helper()

	e := NewEmitter()
	e.beginPrologue(pc, pbr)
	if err := interp.Partial(e.Arena, st, 0); err != nil {
		t.Fatalf("prologue: %v", err)
	}

	opStart := e.Arena.Len()
	opcodeAddr := e.Cat(e.Regs[PBR], e.Regs[PC])
	opcodeHandle := e.Read(opcodeAddr)
	if err := interp.Partial(e.Arena, st, opStart); err != nil {
		t.Fatalf("opcode fetch: %v", err)
	}
	opcodeVal, _ := st.Value(opcodeHandle)
	opcodeByte := uint8(opcodeVal)

	name, fn, ok := dispatchFor(opcodeByte)
	if !ok {
		t.Fatalf("opcode $%02X at $%02X:%04X has no lifter", opcodeByte, pbr, pc)
	}
	t.Logf("lifting %s ($%02X)", name, opcodeByte)

	bodyStart := e.Arena.Len()
	e.IncPC()
	e.IncCycle()
	e.Assert(opcodeHandle, e.Const8(uint32(opcodeByte)))
	e.ResetZeroChain()

	fn(e)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	epilogueStart := e.Arena.Len()
	e.finalize()
	if err := interp.Partial(e.Arena, st, epilogueStart); err != nil {
		t.Fatalf("epilogue: %v", err)
	}

	return &Block{Arena: e.Arena, PC: pc, PBR: pbr, Ops: []string{name}}
}

// newTestState builds a zeroed register bus and 16MiB flat memory, both
// ready for a fresh block's prologue.
func newTestState() *interp.State {
	return interp.NewState(interp.NewRegisters(NumRegs), interp.NewFlatMemory())
}

func setFlag(t *testing.T, regs *interp.Registers, r Reg, v bool) {
	t.Helper()
	b := uint8(0)
	if v {
		b = 1
	}
	if err := regs.Write8(uint32(r), b); err != nil {
		t.Fatalf("Write8(%v): %v", r, err)
	}
}

func writeProgram(t *testing.T, mem *interp.FlatMemory, pbr uint8, pc uint16, bytes []byte) {
	t.Helper()
	base := uint32(pbr)<<16 | uint32(pc)
	for i, b := range bytes {
		if err := mem.Write8(base+uint32(i), b); err != nil {
			t.Fatalf("Write8: %v", err)
		}
	}
}
