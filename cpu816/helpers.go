package cpu816

import "github.com/arl/m65816/ir"

// zeroFlag computes the zero flag for an 8-bit result and chains it through
// the emitter's zero-chain stash to produce a correct 16-bit Z across two
// 8-bit halves (low half first). Reset at the start of every opcode.
func zeroFlag(e *Emitter, result ir.SSA) {
	zero := e.Eq(result, e.Const8(0))
	if e.HasZeroChain() {
		e.Regs[FlagZ] = e.TakeZeroChain(zero)
		return
	}
	e.StashZeroChain(zero)
	e.Regs[FlagZ] = zero
}

// nzFlags sets N from bit 7 and Z from the zero-chain, for 8-bit (or
// 8-bit-half-of-16-bit) results.
func nzFlags(e *Emitter, result ir.SSA) {
	e.Regs[FlagN] = e.Extract(result, 7, 1)
	zeroFlag(e, result)
}

// nzFlags16 sets N from bit 15 and Z from a direct 16-bit comparison — used
// when the full 16-bit result is available in one shot (not built from two
// 8-bit halves).
func nzFlags16(e *Emitter, result ir.SSA) {
	e.Regs[FlagN] = e.Extract(result, 15, 1)
	e.Regs[FlagZ] = e.Eq(result, e.Const16(0))
}

// nvzFlags sets N (bit 7), V (bit 6), and chains Z, for BIT/memory-style
// operations.
func nvzFlags(e *Emitter, result ir.SSA) {
	e.Regs[FlagN] = e.Extract(result, 7, 1)
	e.Regs[FlagV] = e.Extract(result, 6, 1)
	zeroFlag(e, result)
}

// addCarryOverflow performs dst + val + C at width 9 via Zext<9>, updating
// C/V and truncating dst back to 8 bits. Matches ADC; SBC reuses it via
// subtractBorrow. Decimal mode (Flag_D) is not applied (§9 open question).
func addCarryOverflow(e *Emitter, dst ir.SSA, val ir.SSA) ir.SSA {
	signA := e.Extract(dst, 7, 1)
	signB := e.Extract(val, 7, 1)

	result := e.Add(e.Zext(dst, 9), e.Add(e.Zext(val, 9), e.Zext(e.Regs[FlagC], 9)))
	e.Regs[FlagC] = e.Extract(result, 8, 1)
	newDst := e.Extract(result, 0, 8)

	signOut := e.Extract(newDst, 7, 1)
	e.Regs[FlagV] = e.And(e.Xor(signA, signOut), e.Xor(signB, signOut))
	return newDst
}

// subtractBorrow equals addCarryOverflow(dst, ~val).
func subtractBorrow(e *Emitter, dst, val ir.SSA) ir.SSA {
	return addCarryOverflow(e, dst, e.Xor(e.Const8(0xff), val))
}

// compare is like subtractBorrow with an implicit borrow-in of 1; it sets
// N, Z, C but never writes dst.
func compare(e *Emitter, dst, val ir.SSA) {
	inverted := e.Xor(e.Const8(0xff), val)
	result := e.Add(e.Zext(dst, 9), e.Add(e.Zext(inverted, 9), e.Const(1, 9, false)))
	e.Regs[FlagC] = e.Extract(result, 8, 1)
	nzFlags(e, e.Extract(result, 0, 8))
}

// modifyStack updates S by ±1 (dir), clamping the high byte to 0x01
// whenever Flag_E is set (P5: the emulation-mode stack-page lock).
func modifyStack(e *Emitter, dir int) ir.SSA {
	nativeStack := e.AddImm(e.Regs[S], uint32(uint16(dir)), 16)
	emulatedStack := e.Cat(e.Const8(0x01), e.Extract(nativeStack, 0, 8))
	e.Regs[S] = e.Ternary(e.Regs[FlagE], emulatedStack, nativeStack)
	return e.Regs[S]
}

// loadReg16 reads a 16-bit value from reg, papering over the M/X width
// games: A always returns B:A concatenated; X/Y zero-extend the low byte
// when Flag_X is set (unless force16); PBR/DBR are always 8-bit zero
// extended; S/D are always 16-bit.
func loadReg16(e *Emitter, reg Reg, force16 bool) ir.SSA {
	switch reg {
	case A:
		return e.Cat(e.Regs[B], e.Regs[A])
	case X, Y:
		if force16 {
			return e.Regs[reg]
		}
		return e.Ternary(e.Regs[FlagX],
			e.Cat(e.Const8(0), e.Extract(e.Regs[reg], 0, 8)),
			e.Regs[reg])
	case PBR, DBR:
		return e.Cat(e.Const8(0), e.Regs[reg])
	case S, D:
		return e.Regs[reg]
	default:
		panic("loadReg16: unsupported register " + reg.String())
	}
}

// storeReg16 writes a 16-bit value to reg, per the same M/X rules as
// loadReg16, and updates NZ flags (writing S leaves the flags unchanged).
// force16 forces the full 16-bit write
// (used by accumulator-width-forced paths such as PLA/PLX/PLY).
func storeReg16(e *Emitter, reg Reg, value ir.SSA, force16 bool) {
	switch reg {
	case A:
		low := e.Extract(value, 0, 8)
		high := e.Extract(value, 8, 8)
		e.Regs[A] = low

		if force16 {
			e.Regs[B] = high
			nzFlags16(e, value)
			return
		}
		nzFlags(e, low)
		e.If(e.Not(e.Regs[FlagM]), func() {
			e.Regs[B] = high
			nzFlags(e, high)
		})

	case X, Y:
		oldUpper := e.Extract(e.Regs[reg], 8, 8)
		e.Regs[reg] = value
		nzFlags16(e, value)
		if force16 {
			return
		}
		e.If(e.Regs[FlagX], func() {
			low := e.Extract(value, 0, 8)
			e.Regs[reg] = e.Cat(oldUpper, low)
			nzFlags(e, low)
		})

	case PBR, DBR:
		low := e.Extract(value, 0, 8)
		e.Regs[reg] = low
		nzFlags(e, low)

	case S:
		low := e.Extract(value, 0, 8)
		e.Regs[reg] = e.Ternary(e.Regs[FlagE], e.Cat(e.Const8(0x01), low), value)

	case D:
		e.Regs[reg] = value
		nzFlags16(e, value)

	default:
		panic("storeReg16: unsupported register " + reg.String())
	}
}

// packFlags packs the nine flag bits into the canonical 8-bit P register
// (N V M X D I Z C, bit 7 to bit 0), forcing M and X to 1 when E is set.
func packFlags(e *Emitter) ir.SSA {
	n := e.ShiftLeft(e.Regs[FlagN], e.Const8(7))
	v := e.Zext(e.ShiftLeft(e.Regs[FlagV], e.Const8(6)), 8)
	m := e.Zext(e.ShiftLeft(e.Ternary(e.Regs[FlagE], e.Const1(1), e.Regs[FlagM]), e.Const8(5)), 8)
	x := e.Zext(e.ShiftLeft(e.Ternary(e.Regs[FlagE], e.Const1(1), e.Regs[FlagX]), e.Const8(4)), 8)
	d := e.Zext(e.ShiftLeft(e.Regs[FlagD], e.Const8(3)), 8)
	i := e.Zext(e.ShiftLeft(e.Regs[FlagI], e.Const8(2)), 8)
	z := e.Zext(e.ShiftLeft(e.Regs[FlagZ], e.Const8(1)), 8)
	c := e.Zext(e.Regs[FlagC], 8)

	return e.Or(e.Or(e.Or(n, v), e.Or(m, x)), e.Or(e.Or(d, i), e.Or(z, c)))
}

// unpackFlags unpacks val into the nine flag-bit register-state entries.
// M/X are refused changes when E is set (emulation-mode lock).
func unpackFlags(e *Emitter, val ir.SSA) {
	e.Regs[FlagN] = e.Extract(val, 7, 1)
	e.Regs[FlagV] = e.Extract(val, 6, 1)
	e.Regs[FlagM] = e.Ternary(e.Regs[FlagE], e.Regs[FlagM], e.Extract(val, 5, 1))
	e.Regs[FlagX] = e.Ternary(e.Regs[FlagE], e.Regs[FlagX], e.Extract(val, 4, 1))
	e.Regs[FlagD] = e.Extract(val, 3, 1)
	e.Regs[FlagI] = e.Extract(val, 2, 1)
	e.Regs[FlagZ] = e.Extract(val, 1, 1)
	e.Regs[FlagC] = e.Extract(val, 0, 1)
}
