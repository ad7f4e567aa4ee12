package cpu816

import "github.com/arl/m65816/ir"

// memOp is the shape of a Universal-A-memory-family operation: it reads
// and/or writes reg (A for the low half, B for the high half) against addr.
// Grounded on original_source/m65816_utils.cpp's inner_fn.
type memOp func(e *Emitter, reg Reg, addr ir.SSA)

// applyMemoryOperation applies operation to A at address, then — when M is
// clear — again to B at address+1, each half paying its own bus cycle.
func applyMemoryOperation(e *Emitter, operation memOp, address ir.SSA) {
	operation(e, A, address)
	e.IncCycle()

	e.If(e.Not(e.Regs[FlagM]), func() {
		address2 := e.AddImm(address, 1, 24)
		operation(e, B, address2)
		e.IncCycle()
	})
}

// applyImmediate applies operation to the one or two bytes immediately
// following the opcode (the operand itself, not a memory address).
func applyImmediate(e *Emitter, operation memOp) {
	immAddr := e.Cat(e.Regs[PBR], e.Regs[PC])
	e.IncPC()
	e.IncCycle()
	operation(e, A, immAddr)

	e.If(e.Not(e.Regs[FlagM]), func() {
		immAddr2 := e.AddImm(immAddr, 1, 24)
		e.IncPC()
		e.IncCycle()
		operation(e, B, immAddr2)
	})
}

// rmwOp is a read-modify-write operation's core: given the current value
// and its width (8 or 16), return the new value. Flags are set inside.
type rmwOp func(e *Emitter, value ir.SSA, width uint8) ir.SSA

// applyAcc applies an RMW operation directly to the accumulator, selecting
// the 8-bit or 16-bit path by M via two If arms (both are emitted; the
// interpreter's Ternary merge picks the live one at runtime).
func applyAcc(e *Emitter, operation rmwOp) {
	e.IncCycle()

	e.If(e.Regs[FlagM], func() {
		e.Regs[A] = operation(e, e.Regs[A], 8)
	})
	e.If(e.Not(e.Regs[FlagM]), func() {
		result := operation(e, e.Cat(e.Regs[B], e.Regs[A]), 16)
		e.Regs[A] = e.Extract(result, 0, 8)
		e.Regs[B] = e.Extract(result, 8, 8)
		e.IncCycle()
	})
}

// applyModify performs a read-write-modify against address, with the
// appropriate extra cycles in each width.
func applyModify(e *Emitter, operation rmwOp, address ir.SSA) {
	low := e.Read(address)
	e.IncCycle()

	e.If(e.Regs[FlagM], func() {
		result := operation(e, low, 8)
		e.IncCycle() // dummy read of the same address
		e.Write(address, result)
		e.IncCycle()
	})

	e.If(e.Not(e.Regs[FlagM]), func() {
		highAddr := e.AddImm(address, 1, 24)
		high := e.Read(highAddr)
		value := e.Cat(high, low)
		e.IncCycle()

		result := operation(e, value, 16)
		e.IncCycle() // dummy read of the same address

		e.Write(highAddr, e.Extract(result, 8, 8))
		e.IncCycle()
		e.Write(address, e.Extract(result, 0, 8))
		e.IncCycle()
	})
}

func setNZByWidth(e *Emitter, result ir.SSA, width uint8) {
	if width == 8 {
		nzFlags(e, result)
		return
	}
	nzFlags16(e, result)
}

// Shift/rotate/increment/decrement RMW cores (C7's ASL/ROL/LSR/ROR/INC/DEC
// family). Each works uniformly at width 8 or 16 via ir.Extract/Cat rather
// than a fixed-width mask, so the same closure serves both ApplyAcc and
// ApplyModify.

func aslOp(e *Emitter, value ir.SSA, width uint8) ir.SSA {
	e.Regs[FlagC] = e.Extract(value, width-1, 1)
	shifted := e.ShiftLeft(value, e.Const8(1))
	result := e.Extract(shifted, 0, width)
	setNZByWidth(e, result, width)
	return result
}

func rolOp(e *Emitter, value ir.SSA, width uint8) ir.SSA {
	carryIn := e.Regs[FlagC]
	carryOut := e.Extract(value, width-1, 1)
	shifted := e.ShiftLeft(value, e.Const8(1))
	withCarry := e.Or(shifted, e.Zext(carryIn, width+1))
	result := e.Extract(withCarry, 0, width)
	e.Regs[FlagC] = carryOut
	setNZByWidth(e, result, width)
	return result
}

func lsrOp(e *Emitter, value ir.SSA, width uint8) ir.SSA {
	carryOut := e.Extract(value, 0, 1)
	shifted := e.ShiftRight(value, e.Const8(1))
	result := e.Zext(shifted, width)
	e.Regs[FlagC] = carryOut
	setNZByWidth(e, result, width)
	return result
}

func rorOp(e *Emitter, value ir.SSA, width uint8) ir.SSA {
	carryIn := e.Regs[FlagC]
	carryOut := e.Extract(value, 0, 1)
	shifted := e.ShiftRight(value, e.Const8(1))
	top := e.ShiftLeft(carryIn, e.Const8(uint32(width-1)))
	result := e.Or(e.Zext(shifted, width), top)
	e.Regs[FlagC] = carryOut
	setNZByWidth(e, result, width)
	return result
}

func incOp(e *Emitter, value ir.SSA, width uint8) ir.SSA {
	result := e.AddImm(value, 1, width)
	setNZByWidth(e, result, width)
	return result
}

func decOp(e *Emitter, value ir.SSA, width uint8) ir.SSA {
	result := e.SubImm(value, 1, width)
	setNZByWidth(e, result, width)
	return result
}
