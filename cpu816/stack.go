package cpu816

import "github.com/arl/m65816/ir"

// The hardware stack always lives in bank 0, addressed directly by S
// (P5 already keeps S's high byte pinned to 0x01 in emulation mode).

func stackAddr(e *Emitter) ir.SSA {
	return e.Cat(e.Const8(0), e.Regs[S])
}

// pushByte writes value at the current S, then decrements S.
func pushByte(e *Emitter, value ir.SSA) {
	e.Write(stackAddr(e), value)
	e.IncCycle()
	modifyStack(e, -1)
}

// pullByte increments S, then reads the byte now at S.
func pullByte(e *Emitter) ir.SSA {
	modifyStack(e, 1)
	v := e.Read(stackAddr(e))
	e.IncCycle()
	return v
}

// push16 pushes a 16-bit value high byte first, then low byte, matching
// the order pull16 expects to unwind.
func push16(e *Emitter, value ir.SSA) {
	pushByte(e, e.Extract(value, 8, 8))
	pushByte(e, e.Extract(value, 0, 8))
}

// pull16 pulls a 16-bit value, low byte first then high byte.
func pull16(e *Emitter) ir.SSA {
	low := pullByte(e)
	high := pullByte(e)
	return e.Cat(high, low)
}
