package cpu816

import "github.com/arl/m65816/ir"

// opdef names one of the 256 primary opcodes. The dispatch table mirrors
// the shape of hw/cpugen's generated [256]opdef table, but — since every
// entry here closes over cpu816 addressing/helper functions rather than
// NES-specific ones — it is hand-authored directly rather than routed
// through a generator (see cpu816/cpugen for the nominal generator and
// DESIGN.md for why its output isn't produced mechanically in this tree).
type opdef struct {
	name string
	fn   func(e *Emitter)
}

var dispatch [256]*opdef

func op(name string, fn func(e *Emitter)) *opdef {
	return &opdef{name: name, fn: fn}
}

// dispatchFor looks up the lifter registered for opcode, or nil for any
// opcode with no lifter registered (among them the §9 Open Questions set:
// TRB, TSB, JMP (a,x), JSL, JML, BRK/COP, MVN/MVP, WAI/STP, and the
// (d,s),y / [d],y indexed variants; REP/SEP, BRL, PER, PEA, PEI, RTL and
// WDM are unregistered as well).
// The driver (block.go) owns reading the opcode byte — that requires a
// partial interpret, since the byte's value isn't known at pure
// IR-construction time — and the Assert/zero-chain-reset bookkeeping
// around calling the returned lifter.
func dispatchFor(opcode uint8) (name string, fn func(e *Emitter), ok bool) {
	def := dispatch[opcode]
	if def == nil {
		return "", nil, false
	}
	return def.name, def.fn, true
}

func init() {
	registerUniversalFamily()
	registerIndexMemoryFamily()
	registerBitAndStz()
	registerShiftFamily()
	registerImplicitIndexFamily()
	registerTransferFamily()
	registerMiscSingleByte()
	registerFlagFamily()
	registerStackFamily()
	registerControlFlowFamily()
	registerBranchFamily()
}

// registerUniversalFamily wires ORA/AND/EOR/ADC/STA/LDA/CMP/SBC across the
// thirteen addressing modes this tree implements, following the real
// 65816 opcode-map convention: each instruction occupies a fixed 0x20
// block, and each addressing mode a fixed low-nibble offset within it.
// (d,s),y and [d],y are left unregistered per the open addressing gaps.
func registerUniversalFamily() {
	type entry struct {
		offset uint8
		addr   func(e *Emitter) ir.SSA
	}
	// modesFor takes isStore since three of the thirteen modes (the two
	// abs,index forms and (d),y) charge a store's unconditional extra cycle
	// rather than a read's conditional page-cross cycle.
	modesFor := func(isStore bool) []entry {
		return []entry{
			{0x01, IndirectDirectIndexX},
			{0x03, StackRelative},
			{0x05, Direct},
			{0x07, IndirectDirectLong},
			{0x0D, Absolute},
			{0x0F, AbsoluteLong},
			{0x11, func(e *Emitter) ir.SSA { return IndexYIndirectDirect(e, isStore) }},
			{0x12, IndirectDirect},
			{0x15, DirectIndexX},
			{0x19, func(e *Emitter) ir.SSA { return AbsoluteIndexY(e, isStore) }},
			{0x1D, func(e *Emitter) ir.SSA { return AbsoluteIndexX(e, isStore) }},
			{0x1F, AbsoluteLongX},
		}
	}

	families := []struct {
		base         uint8
		name         string
		op           memOp
		hasImmediate bool
	}{
		{0x00, "ORA", oraOp, true},
		{0x20, "AND", andOp, true},
		{0x40, "EOR", eorOp, true},
		{0x60, "ADC", adcOp, true},
		{0x80, "STA", staOp, false},
		{0xA0, "LDA", ldaOp, true},
		{0xC0, "CMP", cmpOp, true},
		{0xE0, "SBC", sbcOp, true},
	}

	for _, fam := range families {
		fam := fam
		isStore := fam.name == "STA"
		for _, m := range modesFor(isStore) {
			m := m
			opcode := fam.base + m.offset
			dispatch[opcode] = op(fam.name, func(e *Emitter) {
				applyMemoryOperation(e, fam.op, m.addr(e))
			})
		}
		if fam.hasImmediate {
			opcode := fam.base + 0x09
			dispatch[opcode] = op(fam.name, func(e *Emitter) {
				applyImmediate(e, fam.op)
			})
		}
	}
}

func ldaOp(e *Emitter, reg Reg, addr ir.SSA) {
	v := e.Read(addr)
	e.Regs[reg] = v
	nzFlags(e, v)
}

func staOp(e *Emitter, reg Reg, addr ir.SSA) {
	e.Write(addr, e.Regs[reg])
}

func oraOp(e *Emitter, reg Reg, addr ir.SSA) {
	v := e.Or(e.Regs[reg], e.Read(addr))
	e.Regs[reg] = v
	nzFlags(e, v)
}

func andOp(e *Emitter, reg Reg, addr ir.SSA) {
	v := e.And(e.Regs[reg], e.Read(addr))
	e.Regs[reg] = v
	nzFlags(e, v)
}

func eorOp(e *Emitter, reg Reg, addr ir.SSA) {
	v := e.Xor(e.Regs[reg], e.Read(addr))
	e.Regs[reg] = v
	nzFlags(e, v)
}

// adcOp/sbcOp add an explicit NZ update on top of addCarryOverflow's C/V,
// which the original draft left silent about — needed to satisfy ordinary
// add/subtract semantics (a carried-in A=0x7F+1 must raise N and clear Z).
func adcOp(e *Emitter, reg Reg, addr ir.SSA) {
	result := addCarryOverflow(e, e.Regs[reg], e.Read(addr))
	e.Regs[reg] = result
	nzFlags(e, result)
}

func sbcOp(e *Emitter, reg Reg, addr ir.SSA) {
	result := subtractBorrow(e, e.Regs[reg], e.Read(addr))
	e.Regs[reg] = result
	nzFlags(e, result)
}

func cmpOp(e *Emitter, reg Reg, addr ir.SSA) {
	compare(e, e.Regs[reg], e.Read(addr))
}

// registerIndexMemoryFamily wires LDX/LDY/STX/STY/CPX/CPY, which operate
// on X/Y's full loadReg16/storeReg16 width rather than the A/B split the
// universal family uses.
func registerIndexMemoryFamily() {
	ldx := func(e *Emitter, addr ir.SSA) {
		low := e.Read(addr)
		e.If(e.Not(e.Regs[FlagX]), func() {
			highAddr := e.AddImm(addr, 1, 24)
			high := e.Read(highAddr)
			storeReg16(e, X, e.Cat(high, low), false)
		})
		e.If(e.Regs[FlagX], func() {
			storeReg16(e, X, e.Cat(e.Const8(0), low), false)
		})
	}
	ldy := func(e *Emitter, addr ir.SSA) {
		low := e.Read(addr)
		e.If(e.Not(e.Regs[FlagX]), func() {
			highAddr := e.AddImm(addr, 1, 24)
			high := e.Read(highAddr)
			storeReg16(e, Y, e.Cat(high, low), false)
		})
		e.If(e.Regs[FlagX], func() {
			storeReg16(e, Y, e.Cat(e.Const8(0), low), false)
		})
	}
	stx := func(e *Emitter, addr ir.SSA) {
		v := loadReg16(e, X, false)
		e.Write(addr, e.Extract(v, 0, 8))
		e.If(e.Not(e.Regs[FlagX]), func() {
			e.Write(e.AddImm(addr, 1, 24), e.Extract(v, 8, 8))
		})
	}
	sty := func(e *Emitter, addr ir.SSA) {
		v := loadReg16(e, Y, false)
		e.Write(addr, e.Extract(v, 0, 8))
		e.If(e.Not(e.Regs[FlagX]), func() {
			e.Write(e.AddImm(addr, 1, 24), e.Extract(v, 8, 8))
		})
	}
	cpx := func(e *Emitter, addr ir.SSA) {
		compare(e, e.Extract(loadReg16(e, X, false), 0, 8), e.Read(addr))
	}
	cpy := func(e *Emitter, addr ir.SSA) {
		compare(e, e.Extract(loadReg16(e, Y, false), 0, 8), e.Read(addr))
	}

	dispatch[0xA2] = op("LDX", func(e *Emitter) {
		immAddr := e.Cat(e.Regs[PBR], e.Regs[PC])
		e.IncPC()
		e.IncCycle()
		ldx(e, immAddr)
		e.If(e.Not(e.Regs[FlagX]), func() { e.IncPC(); e.IncCycle() })
	})
	dispatch[0xA6] = op("LDX", func(e *Emitter) { ldx(e, Direct(e)); e.IncCycle() })
	dispatch[0xAE] = op("LDX", func(e *Emitter) { ldx(e, Absolute(e)); e.IncCycle() })
	dispatch[0xB6] = op("LDX", func(e *Emitter) { ldx(e, DirectIndexY(e)); e.IncCycle() })
	dispatch[0xBE] = op("LDX", func(e *Emitter) { ldx(e, AbsoluteIndexY(e, false)); e.IncCycle() })

	dispatch[0xA0] = op("LDY", func(e *Emitter) {
		immAddr := e.Cat(e.Regs[PBR], e.Regs[PC])
		e.IncPC()
		e.IncCycle()
		ldy(e, immAddr)
		e.If(e.Not(e.Regs[FlagX]), func() { e.IncPC(); e.IncCycle() })
	})
	dispatch[0xA4] = op("LDY", func(e *Emitter) { ldy(e, Direct(e)); e.IncCycle() })
	dispatch[0xAC] = op("LDY", func(e *Emitter) { ldy(e, Absolute(e)); e.IncCycle() })
	dispatch[0xB4] = op("LDY", func(e *Emitter) { ldy(e, DirectIndexX(e)); e.IncCycle() })
	dispatch[0xBC] = op("LDY", func(e *Emitter) { ldy(e, AbsoluteIndexX(e, false)); e.IncCycle() })

	dispatch[0x86] = op("STX", func(e *Emitter) { stx(e, Direct(e)); e.IncCycle() })
	dispatch[0x8E] = op("STX", func(e *Emitter) { stx(e, Absolute(e)); e.IncCycle() })
	dispatch[0x96] = op("STX", func(e *Emitter) { stx(e, DirectIndexY(e)); e.IncCycle() })

	dispatch[0x84] = op("STY", func(e *Emitter) { sty(e, Direct(e)); e.IncCycle() })
	dispatch[0x8C] = op("STY", func(e *Emitter) { sty(e, Absolute(e)); e.IncCycle() })
	dispatch[0x94] = op("STY", func(e *Emitter) { sty(e, DirectIndexX(e)); e.IncCycle() })

	dispatch[0xE0] = op("CPX", func(e *Emitter) {
		v := e.ReadPc()
		compare(e, e.Extract(loadReg16(e, X, false), 0, 8), v)
	})
	dispatch[0xE4] = op("CPX", func(e *Emitter) { cpx(e, Direct(e)); e.IncCycle() })
	dispatch[0xEC] = op("CPX", func(e *Emitter) { cpx(e, Absolute(e)); e.IncCycle() })

	dispatch[0xC0] = op("CPY", func(e *Emitter) {
		v := e.ReadPc()
		compare(e, e.Extract(loadReg16(e, Y, false), 0, 8), v)
	})
	dispatch[0xC4] = op("CPY", func(e *Emitter) { cpy(e, Direct(e)); e.IncCycle() })
	dispatch[0xCC] = op("CPY", func(e *Emitter) { cpy(e, Absolute(e)); e.IncCycle() })
}

// registerBitAndStz wires BIT (dp/abs/dp,x/abs,x/#imm) and STZ
// (dp/abs/dp,x/abs,x).
func registerBitAndStz() {
	bitMem := func(e *Emitter, addr ir.SSA) {
		v := e.Read(addr)
		result := e.And(e.Regs[A], v)
		e.Regs[FlagN] = e.Extract(v, 7, 1)
		e.Regs[FlagV] = e.Extract(v, 6, 1)
		zeroFlag(e, result)
	}
	dispatch[0x24] = op("BIT", func(e *Emitter) { bitMem(e, Direct(e)); e.IncCycle() })
	dispatch[0x2C] = op("BIT", func(e *Emitter) { bitMem(e, Absolute(e)); e.IncCycle() })
	dispatch[0x34] = op("BIT", func(e *Emitter) { bitMem(e, DirectIndexX(e)); e.IncCycle() })
	dispatch[0x3C] = op("BIT", func(e *Emitter) { bitMem(e, AbsoluteIndexX(e, false)); e.IncCycle() })
	dispatch[0x89] = op("BIT", func(e *Emitter) {
		v := e.ReadPc()
		result := e.And(e.Regs[A], v)
		zeroFlag(e, result)
	})

	stz := func(e *Emitter, addr ir.SSA) {
		e.Write(addr, e.Const8(0))
		e.If(e.Not(e.Regs[FlagM]), func() {
			e.Write(e.AddImm(addr, 1, 24), e.Const8(0))
		})
	}
	dispatch[0x64] = op("STZ", func(e *Emitter) { stz(e, Direct(e)); e.IncCycle() })
	dispatch[0x9C] = op("STZ", func(e *Emitter) { stz(e, Absolute(e)); e.IncCycle() })
	dispatch[0x74] = op("STZ", func(e *Emitter) { stz(e, DirectIndexX(e)); e.IncCycle() })
	dispatch[0x9E] = op("STZ", func(e *Emitter) { stz(e, AbsoluteIndexX(e, true)); e.IncCycle() })
}

// registerShiftFamily wires ASL/ROL/LSR/ROR/INC/DEC across direct,
// absolute, direct,x, absolute,x and accumulator addressing. INC A/DEC A
// use the 65C816's irregular encodings 0x1A/0x3A.
func registerShiftFamily() {
	type fam struct {
		name  string
		rmw   rmwOp
		base  [4]uint8 // dp, abs, dp,x, abs,x
		accOp uint8
	}
	fams := []fam{
		{"ASL", aslOp, [4]uint8{0x06, 0x0E, 0x16, 0x1E}, 0x0A},
		{"ROL", rolOp, [4]uint8{0x26, 0x2E, 0x36, 0x3E}, 0x2A},
		{"LSR", lsrOp, [4]uint8{0x46, 0x4E, 0x56, 0x5E}, 0x4A},
		{"ROR", rorOp, [4]uint8{0x66, 0x6E, 0x76, 0x7E}, 0x6A},
		{"INC", incOp, [4]uint8{0xE6, 0xEE, 0xF6, 0xFE}, 0x1A},
		{"DEC", decOp, [4]uint8{0xC6, 0xCE, 0xD6, 0xDE}, 0x3A},
	}
	for _, f := range fams {
		f := f
		dispatch[f.base[0]] = op(f.name, func(e *Emitter) { applyModify(e, f.rmw, Direct(e)) })
		dispatch[f.base[1]] = op(f.name, func(e *Emitter) { applyModify(e, f.rmw, Absolute(e)) })
		dispatch[f.base[2]] = op(f.name, func(e *Emitter) { applyModify(e, f.rmw, DirectIndexX(e)) })
		dispatch[f.base[3]] = op(f.name, func(e *Emitter) { applyModify(e, f.rmw, AbsoluteIndexX(e, true)) })
		dispatch[f.accOp] = op(f.name, func(e *Emitter) { applyAcc(e, f.rmw) })
	}
}

// registerImplicitIndexFamily wires INX/INY/DEX/DEY.
func registerImplicitIndexFamily() {
	incDec := func(e *Emitter, reg Reg, dir int) {
		e.IncCycle()
		newVal := e.AddImm(e.Regs[reg], uint32(uint16(int16(dir))), 16)
		storeReg16(e, reg, newVal, false)
	}
	dispatch[0xE8] = op("INX", func(e *Emitter) { incDec(e, X, 1) })
	dispatch[0xC8] = op("INY", func(e *Emitter) { incDec(e, Y, 1) })
	dispatch[0xCA] = op("DEX", func(e *Emitter) { incDec(e, X, -1) })
	dispatch[0x88] = op("DEY", func(e *Emitter) { incDec(e, Y, -1) })
}

// registerTransferFamily wires TAX/TAY/TXA/TYA/TXS/TSX/TXY/TYX/TCD/TCS/
// TDC/TSC. TXS and TCS never touch the flags, matching real hardware.
func registerTransferFamily() {
	xfer := func(name string, opcode uint8, from, to Reg, force16From, force16To, setsFlags bool) {
		dispatch[opcode] = op(name, func(e *Emitter) {
			v := loadReg16(e, from, force16From)
			if setsFlags {
				storeReg16(e, to, v, force16To)
			} else {
				e.Regs[to] = v
			}
			e.IncCycle()
		})
	}
	xfer("TAX", 0xAA, A, X, true, false, true)
	xfer("TAY", 0xA8, A, Y, true, false, true)
	xfer("TXA", 0x8A, X, A, true, true, true)
	xfer("TYA", 0x98, Y, A, true, true, true)
	xfer("TSX", 0xBA, S, X, true, false, true)
	xfer("TXY", 0x9B, X, Y, true, false, true)
	xfer("TYX", 0xBB, Y, X, true, false, true)
	xfer("TCD", 0x5B, A, D, true, true, true)
	xfer("TDC", 0x7B, D, A, true, true, true)
	xfer("TSC", 0x3B, S, A, true, true, true)

	dispatch[0x9A] = op("TXS", func(e *Emitter) {
		v := loadReg16(e, X, true)
		e.Regs[S] = e.Ternary(e.Regs[FlagE], e.Cat(e.Const8(0x01), e.Extract(v, 0, 8)), v)
		e.IncCycle()
	})
	dispatch[0x1B] = op("TCS", func(e *Emitter) {
		v := loadReg16(e, A, true)
		e.Regs[S] = e.Ternary(e.Regs[FlagE], e.Cat(e.Const8(0x01), e.Extract(v, 0, 8)), v)
		e.IncCycle()
	})
}

// registerMiscSingleByte wires XBA and XCE.
func registerMiscSingleByte() {
	dispatch[0xEB] = op("XBA", func(e *Emitter) {
		oldA, oldB := e.Regs[A], e.Regs[B]
		// Copied through Extract so both get handles past the prologue
		// marker; finalize only writes those back.
		e.Regs[A] = e.Extract(oldB, 0, 8)
		e.Regs[B] = e.Extract(oldA, 0, 8)
		e.IncCycle()
		e.IncCycle()
		nzFlags(e, e.Regs[A])
	})

	dispatch[0xFB] = op("XCE", func(e *Emitter) {
		oldC, oldE := e.Regs[FlagC], e.Regs[FlagE]
		// Copied through Extract so both get handles past the prologue
		// marker; finalize only writes those back.
		e.Regs[FlagC] = e.Extract(oldE, 0, 1)
		e.Regs[FlagE] = e.Extract(oldC, 0, 1)
		// Entering emulation mode forces M/X high (P5's partner rule).
		e.If(e.Regs[FlagE], func() {
			e.Regs[FlagM] = e.Const1(1)
			e.Regs[FlagX] = e.Const1(1)
		})
		e.IncCycle()
	})
}

// registerFlagFamily wires CLC/SEC/CLI/SEI/CLV/CLD/SED.
func registerFlagFamily() {
	set := func(name string, opcode uint8, reg Reg, val uint32) {
		dispatch[opcode] = op(name, func(e *Emitter) {
			// Const1(1) is memoized before the prologue marker (it is the
			// emitter's alive predicate), so wrap it in a fresh node that
			// finalize will write back.
			e.Regs[reg] = e.Zext(e.Const1(val), 1)
			e.IncCycle()
		})
	}
	set("CLC", 0x18, FlagC, 0)
	set("SEC", 0x38, FlagC, 1)
	set("CLI", 0x58, FlagI, 0)
	set("SEI", 0x78, FlagI, 1)
	set("CLV", 0xB8, FlagV, 0)
	set("CLD", 0xD8, FlagD, 0)
	set("SED", 0xF8, FlagD, 1)
}

// registerStackFamily wires PHP/PLP/PHA/PLA/PHX/PLX/PHY/PLY/PHD/PLD/PHK/
// PHB/PLB.
func registerStackFamily() {
	dispatch[0x08] = op("PHP", func(e *Emitter) { pushByte(e, packFlags(e)) })
	dispatch[0x28] = op("PLP", func(e *Emitter) { unpackFlags(e, pullByte(e)); e.IncCycle() })

	dispatch[0x48] = op("PHA", func(e *Emitter) {
		e.If(e.Regs[FlagM], func() { pushByte(e, e.Regs[A]) })
		e.If(e.Not(e.Regs[FlagM]), func() { push16(e, e.Cat(e.Regs[B], e.Regs[A])) })
	})
	dispatch[0x68] = op("PLA", func(e *Emitter) {
		e.If(e.Regs[FlagM], func() {
			v := pullByte(e)
			e.Regs[A] = v
			nzFlags(e, v)
		})
		e.If(e.Not(e.Regs[FlagM]), func() {
			storeReg16(e, A, pull16(e), true)
		})
		e.IncCycle()
	})

	dispatch[0xDA] = op("PHX", func(e *Emitter) {
		e.If(e.Regs[FlagX], func() { pushByte(e, e.Extract(loadReg16(e, X, true), 0, 8)) })
		e.If(e.Not(e.Regs[FlagX]), func() { push16(e, loadReg16(e, X, true)) })
	})
	dispatch[0xFA] = op("PLX", func(e *Emitter) {
		e.If(e.Regs[FlagX], func() {
			v := pullByte(e)
			storeReg16(e, X, e.Cat(e.Const8(0), v), false)
		})
		e.If(e.Not(e.Regs[FlagX]), func() { storeReg16(e, X, pull16(e), true) })
		e.IncCycle()
	})

	dispatch[0x5A] = op("PHY", func(e *Emitter) {
		e.If(e.Regs[FlagX], func() { pushByte(e, e.Extract(loadReg16(e, Y, true), 0, 8)) })
		e.If(e.Not(e.Regs[FlagX]), func() { push16(e, loadReg16(e, Y, true)) })
	})
	dispatch[0x7A] = op("PLY", func(e *Emitter) {
		e.If(e.Regs[FlagX], func() {
			v := pullByte(e)
			storeReg16(e, Y, e.Cat(e.Const8(0), v), false)
		})
		e.If(e.Not(e.Regs[FlagX]), func() { storeReg16(e, Y, pull16(e), true) })
		e.IncCycle()
	})

	dispatch[0x0B] = op("PHD", func(e *Emitter) { push16(e, e.Regs[D]) })
	dispatch[0x2B] = op("PLD", func(e *Emitter) { storeReg16(e, D, pull16(e), true); e.IncCycle() })
	dispatch[0x4B] = op("PHK", func(e *Emitter) { pushByte(e, e.Regs[PBR]) })
	dispatch[0x8B] = op("PHB", func(e *Emitter) { pushByte(e, e.Regs[DBR]) })
	dispatch[0xAB] = op("PLB", func(e *Emitter) {
		v := pullByte(e)
		e.Regs[DBR] = v
		nzFlags(e, v)
		e.IncCycle()
	})
}

// registerControlFlowFamily wires JMP abs/al/(abs), JSR abs, RTS, RTI.
// JSL, JML [abs] and JMP (a,x) are left unregistered (see dispatchFor).
func registerControlFlowFamily() {
	dispatch[0x4C] = op("JMP", func(e *Emitter) {
		e.Regs[PC] = e.ReadPc16()
		e.End()
	})
	dispatch[0x5C] = op("JMP", func(e *Emitter) {
		low := e.ReadPc16()
		bank := e.ReadPc()
		e.Regs[PC] = low
		e.Regs[PBR] = bank
		e.End()
	})
	dispatch[0x6C] = op("JMP", func(e *Emitter) {
		target := IndirectAbsolute(e)
		e.Regs[PC] = e.Extract(target, 0, 16)
		e.End()
	})

	dispatch[0x20] = op("JSR", func(e *Emitter) {
		targetLow := e.ReadPc()
		targetHigh := e.ReadPc()
		target := e.Cat(targetHigh, targetLow)
		retAddr := e.SubImm(e.Regs[PC], 1, 16)
		e.IncCycle() // internal cycle computing the return address
		push16(e, retAddr)
		e.Regs[PC] = target
		e.End()
	})

	dispatch[0x60] = op("RTS", func(e *Emitter) {
		e.IncCycle()
		retAddr := pull16(e)
		e.Regs[PC] = e.AddImm(retAddr, 1, 16)
		e.IncCycle()
		e.End()
	})

	dispatch[0x40] = op("RTI", func(e *Emitter) {
		e.IncCycle()
		unpackFlags(e, pullByte(e))
		e.Regs[PC] = pull16(e)
		e.If(e.Not(e.Regs[FlagE]), func() {
			e.Regs[PBR] = pullByte(e)
		})
		e.End()
	})
}

// registerBranchFamily wires BPL/BMI/BVC/BVS/BRA/BCC/BCS/BNE/BEQ and NOP.
func registerBranchFamily() {
	flagIs := func(e *Emitter, flag Reg, want uint32) ir.SSA {
		return e.Eq(e.Regs[flag], e.Const1(want))
	}
	branch := func(name string, opcode uint8, cond func(e *Emitter) ir.SSA) {
		dispatch[opcode] = op(name, func(e *Emitter) {
			disp := e.ReadPc()
			e.If(cond(e), func() {
				signBit := e.Extract(disp, 7, 1)
				highFill := e.Ternary(signBit, e.Const8(0xff), e.Const8(0x00))
				disp16 := e.Cat(highFill, disp)
				oldPC := e.Regs[PC]
				newPC := e.Add(oldPC, disp16)
				e.Regs[PC] = newPC
				e.IncCycle()
				e.If(e.And(e.Regs[FlagE], e.Neq(e.Extract(oldPC, 8, 8), e.Extract(newPC, 8, 8))), func() {
					e.IncCycle()
				})
			})
			e.End()
		})
	}
	branch("BPL", 0x10, func(e *Emitter) ir.SSA { return flagIs(e, FlagN, 0) })
	branch("BMI", 0x30, func(e *Emitter) ir.SSA { return flagIs(e, FlagN, 1) })
	branch("BVC", 0x50, func(e *Emitter) ir.SSA { return flagIs(e, FlagV, 0) })
	branch("BVS", 0x70, func(e *Emitter) ir.SSA { return flagIs(e, FlagV, 1) })
	branch("BCC", 0x90, func(e *Emitter) ir.SSA { return flagIs(e, FlagC, 0) })
	branch("BCS", 0xB0, func(e *Emitter) ir.SSA { return flagIs(e, FlagC, 1) })
	branch("BNE", 0xD0, func(e *Emitter) ir.SSA { return flagIs(e, FlagZ, 0) })
	branch("BEQ", 0xF0, func(e *Emitter) ir.SSA { return flagIs(e, FlagZ, 1) })
	branch("BRA", 0x80, func(e *Emitter) ir.SSA { return e.Const1(1) })

	dispatch[0xEA] = op("NOP", func(e *Emitter) { e.IncCycle() })
}
