package cpu816

import "github.com/arl/m65816/ir"

// Emitter is the 65C816-aware builder: the generic SSA-construction
// machinery lives in ir.Emitter, register-bus-width-aware conveniences
// (IncPC, IncCycle, Read/Write against the memory bus) live here.
type Emitter struct {
	*ir.Emitter[Reg]

	// initializerEndMarker is the arena length right after the prologue's
	// register loads; Finalize only stores back registers whose current
	// handle is at or beyond it.
	initializerEndMarker ir.SSA

	// ending is set by any lifter that terminates the block (branch, jump,
	// return); the driver checks it after each opcode.
	ending bool
}

// NewEmitter constructs an Emitter ready for a block's prologue.
func NewEmitter() *Emitter {
	return &Emitter{Emitter: ir.NewEmitter(CYCLE)}
}

// Const8/16/24/64 are typed convenience wrappers over the generic
// Emitter.Const, sparing call sites from repeating the width argument.
func (e *Emitter) Const1(v uint32) ir.SSA  { return e.Const(v, 1, false) }
func (e *Emitter) Const8(v uint32) ir.SSA  { return e.Const(v, 8, false) }
func (e *Emitter) Const16(v uint32) ir.SSA { return e.Const(v, 16, false) }
func (e *Emitter) Const24(v uint32) ir.SSA { return e.Const(v, 24, false) }
func (e *Emitter) Const64(v uint64) ir.SSA { return e.Const(uint32(v), 64, false) }

// IncPC increments the prologue-loaded PC register-state entry by one
// (16-bit arithmetic).
func (e *Emitter) IncPC() ir.SSA {
	v := e.AddImm(e.Regs[PC], 1, 16)
	e.Regs[PC] = v
	return v
}

// IncCycle increments the running cycle counter by one (64-bit arithmetic).
func (e *Emitter) IncCycle() ir.SSA {
	v := e.AddImm(e.Regs[CYCLE], 1, 64)
	e.Regs[CYCLE] = v
	return v
}

// Read/Write are the 8-bit guest-memory accessors the lifter uses almost
// everywhere; wider operations are always expressed as two or more 8-bit
// accesses (per §6: "reads/writes are one byte per operation").
func (e *Emitter) Read(addr ir.SSA) ir.SSA      { return e.Read8(addr) }
func (e *Emitter) Write(addr, v ir.SSA) ir.SSA  { return e.Write8(addr, v) }

// ReadPc reads one byte at (PBR,PC), advances PC and the cycle counter.
func (e *Emitter) ReadPc() ir.SSA {
	addr := e.Cat(e.Regs[PBR], e.Regs[PC])
	data := e.Read(addr)
	e.IncPC()
	e.IncCycle()
	return data
}

// ReadPc16 reads two consecutive PC bytes, low byte first, and concatenates
// them into a 16-bit value.
func (e *Emitter) ReadPc16() ir.SSA {
	lo := e.ReadPc()
	hi := e.ReadPc()
	return e.Cat(hi, lo)
}

// End marks the block as ending after the current opcode: only branches,
// jumps, and returns may call this (the Block-End rule of §4.7).
func (e *Emitter) End() { e.ending = true }

// Ending reports whether the block has been marked as ending.
func (e *Emitter) Ending() bool { return e.ending }

// beginPrologue loads every register's initial SSA from the register bus,
// except PC and PBR which are burnt into the IR as compile-time constants
// (their values are known at Emitter construction, per the original
// Emitter(u32 pc) constructor). It then records initializerEndMarker.
func (e *Emitter) beginPrologue(pc uint16, pbr uint8) {
	e.Regs[PC] = e.Const16(uint32(pc))
	e.Regs[PBR] = e.Const8(uint32(pbr))

	restore := e.SetBus(ir.RegBus)
	defer restore()

	for r := Reg(0); r < Reg(numRegs); r++ {
		if r == PC || r == PBR {
			continue
		}
		w := r.Width()
		addr := e.Const8(uint32(r))
		var h ir.SSA
		switch {
		case w == 1:
			// Flags sit in a wider bus slot; narrow them to their 1-bit
			// width so Not/And/Or on a flag stay within one bit.
			h = e.Extract(e.Read8(addr), 0, 1)
		case w <= 8:
			h = e.Read8(addr)
		case w == 16:
			h = e.Read16(addr)
		default:
			h = e.Read64(addr)
		}
		e.Regs[r] = h
	}
	e.initializerEndMarker = ir.SSA(e.Arena.Len())
}

// finalize stores back every register whose current SSA handle is at or
// beyond initializerEndMarker, i.e. was written during this block (P4).
func (e *Emitter) finalize() {
	restore := e.SetBus(ir.RegBus)
	defer restore()

	for r := Reg(0); r < Reg(numRegs); r++ {
		h := e.Regs[r]
		if h < e.initializerEndMarker {
			continue
		}
		addr := e.Const8(uint32(r))
		switch w := r.Width(); {
		case w <= 8:
			e.Write8(addr, h)
		case w == 16:
			e.Write16(addr, h)
		default:
			e.Write64(addr, h)
		}
	}
}
