package cpu816

import "github.com/arl/m65816/ir"

// Each addressing-mode function is a pure function over the Emitter
// returning the SSA handle of a 24-bit effective address (bank:8,
// offset:16). isStore signals the store-specific cycle penalty: stores pay
// a fixed extra bus cycle rather than the optional page-cross cycle a read
// pays (grounded on original_source/m65816_addressing.cpp, extended to the
// isStore distinction §4.5 describes but the draft never implements for
// every mode).

// addIndexReg adds an index register to address, taking an extra cycle
// when required: reads pay it on a page cross or when the index is 16-bit
// (Flag_X clear); stores always pay it unconditionally.
func addIndexReg(e *Emitter, reg Reg, address ir.SSA, isStore bool) ir.SSA {
	index := e.Regs[reg]
	newAddress := e.Add(address, index)

	if isStore {
		e.IncCycle()
		return newAddress
	}

	mask := e.Const16(0xff00)
	pageCross := e.Neq(e.And(newAddress, mask), e.And(address, mask))
	e.If(e.Or(pageCross, e.Not(e.Regs[FlagX])), func() {
		e.IncCycle()
	})
	return newAddress
}

// Absolute: two PC reads form a 16-bit offset; prepend DBR.
func Absolute(e *Emitter) ir.SSA {
	return e.Cat(e.Regs[DBR], e.ReadPc16())
}

// AbsoluteLong: three PC reads form a 24-bit address.
func AbsoluteLong(e *Emitter) ir.SSA {
	low := e.ReadPc16()
	high := e.ReadPc()
	return e.Cat(high, low)
}

// AbsoluteIndexX: Absolute + X, with the page-cross/store penalty.
func AbsoluteIndexX(e *Emitter, isStore bool) ir.SSA {
	return e.Cat(e.Regs[DBR], addIndexReg(e, X, e.ReadPc16(), isStore))
}

// AbsoluteIndexY: Absolute + Y, with the page-cross/store penalty.
func AbsoluteIndexY(e *Emitter, isStore bool) ir.SSA {
	return e.Cat(e.Regs[DBR], addIndexReg(e, Y, e.ReadPc16(), isStore))
}

// AbsoluteLongX: AbsoluteLong + X, no page-cross logic (bank can roll over).
func AbsoluteLongX(e *Emitter) ir.SSA {
	return e.Add(AbsoluteLong(e), e.Cat(e.Const8(0), e.Regs[X]))
}

// directOverflowPenalty pays one extra cycle when D's low byte is nonzero,
// per every direct-page mode.
func directOverflowPenalty(e *Emitter) ir.SSA {
	overflow := e.Neq(e.Const16(0x0000), e.And(e.Regs[D], e.Const16(0x00ff)))
	e.If(overflow, func() {
		e.IncCycle()
	})
	return overflow
}

// Direct: one PC read; effective address is (bank 0, D + offset).
func Direct(e *Emitter) ir.SSA {
	offset := e.ReadPc()
	directOverflowPenalty(e)
	return e.Cat(e.Const8(0), e.Add(e.Regs[D], offset))
}

// directIndex shares the DirectIndex<X|Y> logic: adds the index to D+offset,
// wrapping the result within the direct page when emulation mode (E) is set
// and D's low byte is zero.
func directIndex(e *Emitter, reg Reg) ir.SSA {
	offset := e.ReadPc()
	overflow := e.Neq(e.Const16(0x0000), e.And(e.Regs[D], e.Const16(0x00ff)))
	wrap := e.And(e.Not(overflow), e.Regs[FlagE])

	unwrapped := e.Add(e.Regs[D], e.Add(e.Regs[reg], offset))
	wrapped := e.Or(e.And(e.Regs[D], e.Const16(0xff00)),
		e.And(e.Const16(0x00ff), unwrapped))
	indexed := e.Ternary(wrap, wrapped, unwrapped)

	e.IncCycle() // cycle to perform the add

	e.If(overflow, func() {
		e.IncCycle()
	})

	return e.Cat(e.Const8(0), indexed)
}

// DirectIndexX: Direct + X, wrapping within the direct page under E.
func DirectIndexX(e *Emitter) ir.SSA { return directIndex(e, X) }

// DirectIndexY: Direct + Y, wrapping within the direct page under E.
func DirectIndexY(e *Emitter) ir.SSA { return directIndex(e, Y) }

// IndirectDirect: (d) — two sequential reads assemble a 16-bit pointer,
// prepended with DBR.
func IndirectDirect(e *Emitter) ir.SSA {
	location := Direct(e)
	e.IncCycle()

	low := e.Read(location)
	nextLoc := e.Add(location, e.Const24(1))
	e.IncCycle()
	high := e.Read(nextLoc)

	return e.Cat(e.Regs[DBR], e.Cat(high, low))
}

// IndirectDirectLong: [d] — three sequential reads assemble a 24-bit
// pointer.
func IndirectDirectLong(e *Emitter) ir.SSA {
	location := Direct(e)
	e.IncCycle()

	low := e.Read(location)
	nextLoc := e.Add(location, e.Const24(1))
	nextNextLoc := e.Add(location, e.Const24(2))

	e.IncCycle()
	high := e.Read(nextLoc)
	e.IncCycle()
	highest := e.Read(nextNextLoc)

	return e.Cat(highest, e.Cat(high, low))
}

// IndirectDirectIndexX: (d,x) — X is added to D+offset before the indirect
// fetch, same direct-page wrap rule as DirectIndex.
func IndirectDirectIndexX(e *Emitter) ir.SSA {
	pointer := directIndex(e, X)
	e.IncCycle()

	low := e.Read(pointer)
	nextLoc := e.Add(pointer, e.Const24(1))
	e.IncCycle()
	high := e.Read(nextLoc)

	return e.Cat(e.Regs[DBR], e.Cat(high, low))
}

// IndexYIndirectDirect: (d),y — the pointer is fetched first, then Y is
// added to it; pays a page-cross cycle on reads and an unconditional cycle
// on stores, same as the other Y-indexed modes.
func IndexYIndirectDirect(e *Emitter, isStore bool) ir.SSA {
	location := Direct(e)
	e.IncCycle()

	low := e.Read(location)
	nextLoc := e.Add(location, e.Const24(1))
	e.IncCycle()
	high := e.Read(nextLoc)

	pointer := e.Cat(e.Regs[DBR], e.Cat(high, low))
	return addIndexReg(e, Y, pointer, isStore)
}

// IndirectAbsolute: (a) — used only by JMP (abs); two sequential reads
// assemble a 16-bit pointer within bank 0.
func IndirectAbsolute(e *Emitter) ir.SSA {
	pointerAddr := e.Cat(e.Const8(0), e.ReadPc16())
	e.IncCycle()

	low := e.Read(pointerAddr)
	nextAddr := e.Add(pointerAddr, e.Const24(1))
	e.IncCycle()
	high := e.Read(nextAddr)

	return e.Cat(e.Const8(0), e.Cat(high, low))
}

// StackRelative: d,s — a 16-bit offset (two PC reads) added to S, in bank 0.
func StackRelative(e *Emitter) ir.SSA {
	offset := e.ReadPc16()
	e.IncCycle() // internal cycle to do the add
	return e.Cat(e.Const8(0), e.Add(e.Regs[S], offset))
}
