package cpu816

import (
	"github.com/go-faster/errors"

	"github.com/arl/m65816/interp"
	"github.com/arl/m65816/ir"
	"github.com/arl/m65816/log"
)

// ErrUnimplementedOpcode is returned when the opcode byte read at PC has no
// registered lifter (see dispatchFor's unimplemented set). Fatal: the
// caller should treat this like any other interpreter error, not retry.
var ErrUnimplementedOpcode = errors.New("cpu816: unimplemented opcode")

var blockLog = log.ModCPU

// Block is one compiled basic block: its arena and the PC/PBR it starts
// from, kept around for re-entry and tracing.
type Block struct {
	Arena *ir.Arena
	PC    uint16
	PBR   uint8
	Ops   []string // opcode mnemonics in emission order, for tracing
}

// Compile lifts instructions starting at (pc, pbr) until one of them ends
// the block (branch, jump, return), partially interpreting each one's IR
// against st as it's emitted — the opcode byte dispatch itself depends on
// concrete memory contents, which only the interpreter has (C8).
//
// st.Regs must already hold the 65C816 register file the prologue reads
// from; st.Mem is the guest address space instructions read/write.
func Compile(pc uint16, pbr uint8, st *interp.State) (*Block, error) {
	e := NewEmitter()
	e.beginPrologue(pc, pbr)
	if err := interp.Partial(e.Arena, st, 0); err != nil {
		return nil, err
	}

	blk := &Block{Arena: e.Arena, PC: pc, PBR: pbr}

	for {
		opStart := e.Arena.Len()

		opcodeAddr := e.Cat(e.Regs[PBR], e.Regs[PC])
		opcodeHandle := e.Read(opcodeAddr)
		if err := interp.Partial(e.Arena, st, opStart); err != nil {
			return nil, err
		}
		opcodeVal, _ := st.Value(opcodeHandle)
		opcodeByte := uint8(opcodeVal)

		name, fn, ok := dispatchFor(opcodeByte)
		if !ok {
			curPC, _ := st.Value(e.Regs[PC])
			blockLog.WarnZ("unimplemented opcode").Hex8("opcode", opcodeByte).Hex16("pc", uint16(curPC)).End()
			return nil, errors.Wrapf(ErrUnimplementedOpcode, "opcode $%02X at $%02X:%04X", opcodeByte, pbr, uint16(curPC))
		}

		bodyStart := e.Arena.Len()
		e.IncPC()
		e.IncCycle()
		e.Assert(opcodeHandle, e.Const8(uint32(opcodeByte)))
		e.ResetZeroChain()

		fn(e)
		if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
			return nil, err
		}

		blk.Ops = append(blk.Ops, name)

		if e.Ending() {
			break
		}
	}

	epilogueStart := e.Arena.Len()
	e.finalize()
	if err := interp.Partial(e.Arena, st, epilogueStart); err != nil {
		return nil, err
	}

	return blk, nil
}

// NextPC reads back the register-bus PC/PBR after a block has run, for the
// driver to know where to compile next.
func NextPC(regs *interp.Registers) (pc uint16, pbr uint8, err error) {
	pc, err = regs.Read16(uint32(PC))
	if err != nil {
		return 0, 0, err
	}
	pbrByte, err := regs.Read8(uint32(PBR))
	if err != nil {
		return 0, 0, err
	}
	return pc, pbrByte, nil
}

// BlockDriver repeatedly compiles and executes one block at a time against
// a single live register/memory state, advancing (PC,PBR) after each one —
// the thin re-entry loop a trace front-end needs (cmd/m65816trace, §6),
// distinct from Compile itself which only handles a single block.
type BlockDriver struct {
	St *interp.State
}

// NewBlockDriver wraps an already-populated register/memory state (the
// caller is responsible for resetting E/native-mode/PC as needed before the
// first Step).
func NewBlockDriver(st *interp.State) *BlockDriver {
	return &BlockDriver{St: st}
}

// Step compiles and runs exactly one block starting at the register bus's
// current PC/PBR, then reads back the next PC/PBR for the following call.
func (d *BlockDriver) Step() (*Block, error) {
	pc, pbr, err := NextPC(d.St.Regs)
	if err != nil {
		return nil, err
	}
	return Compile(pc, pbr, d.St)
}

// Registers exposes the live register bus, for a trace front-end to read
// A/X/Y/P/S/PC after each step.
func (d *BlockDriver) Registers() *interp.Registers {
	return d.St.Regs
}
