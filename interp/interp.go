// Package interp implements the sequential SSA evaluator (C3): given an
// arena built by package ir, it produces a parallel (value, width) pair per
// node, dispatching memory ops against caller-supplied register and main
// memory arrays.
package interp

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/arl/m65816/ir"
	"github.com/arl/m65816/log"
)

var interpLog = log.ModInterp

// Bus widths: a 19-slot register file (bus 0) and a 24-bit byte-addressable
// guest memory (bus 1).
const MemorySize = 1 << 24

// ErrAssertFailed is returned when an Assert node's two operands disagree at
// interpret time — the opcode baked into the IR no longer matches runtime
// memory (self-modifying code). Recoverable: the caller should invalidate
// and re-lift the block.
var ErrAssertFailed = errors.New("interp: assertion failed")

// ErrUnimplemented marks an opcode the interpreter has no case for. Fatal by
// design (§7): a well-formed lifter never emits one.
var ErrUnimplemented = errors.New("interp: unimplemented opcode")

// ErrOutOfRange marks an out-of-bounds memory or register-file access.
// Fatal by design.
var ErrOutOfRange = errors.New("interp: address out of range")

// ErrStructural marks a malformed arena: an argument referencing a node at
// or after its own index, a memory op whose first argument is not a
// MemState, or an unknown bus. Operand widths are not checked.
// Should never fire on well-formed lifter output; debug-assert territory.
var ErrStructural = errors.New("interp: structural IR error")

// Memory is the external byte-addressable store backing bus 1.
type Memory interface {
	Read8(addr uint32) (uint8, error)
	Write8(addr uint32, v uint8) error
}

// FlatMemory is a bounds-checked []byte-backed Memory of MemorySize bytes.
type FlatMemory struct {
	Bytes []byte
}

// NewFlatMemory allocates a zeroed MemorySize-byte guest address space.
func NewFlatMemory() *FlatMemory {
	return &FlatMemory{Bytes: make([]byte, MemorySize)}
}

func (m *FlatMemory) Read8(addr uint32) (uint8, error) {
	if int(addr) >= len(m.Bytes) {
		return 0, errors.Wrapf(ErrOutOfRange, "read $%06X", addr)
	}
	return m.Bytes[addr], nil
}

func (m *FlatMemory) Write8(addr uint32, v uint8) error {
	if int(addr) >= len(m.Bytes) {
		return errors.Wrapf(ErrOutOfRange, "write $%06X", addr)
	}
	m.Bytes[addr] = v
	return nil
}

// Registers is the external register-file array backing bus 0, indexed by
// the cpu816.Reg ordinal (kept generic here as a plain uint32 address so
// this package has no 65C816-specific knowledge).
type Registers struct {
	Slots []uint64
}

// NewRegisters allocates n register-bus slots.
func NewRegisters(n int) *Registers { return &Registers{Slots: make([]uint64, n)} }

func (r *Registers) Read8(addr uint32) (uint8, error) {
	if int(addr) >= len(r.Slots) {
		return 0, errors.Wrapf(ErrOutOfRange, "register %d", addr)
	}
	return uint8(r.Slots[addr]), nil
}

func (r *Registers) Write8(addr uint32, v uint8) error {
	if int(addr) >= len(r.Slots) {
		return errors.Wrapf(ErrOutOfRange, "register %d", addr)
	}
	r.Slots[addr] = uint64(v)
	return nil
}

func (r *Registers) Read16(addr uint32) (uint16, error) {
	v, err := r.read(addr, 16)
	return uint16(v), err
}

func (r *Registers) Write16(addr uint32, v uint16) error {
	return r.write(addr, uint64(v), 16)
}

func (r *Registers) Read64(addr uint32) (uint64, error) {
	return r.read(addr, 64)
}

func (r *Registers) Write64(addr uint32, v uint64) error {
	return r.write(addr, v, 64)
}

func (r *Registers) read(addr uint32, width uint8) (uint64, error) {
	if int(addr) >= len(r.Slots) {
		return 0, errors.Wrapf(ErrOutOfRange, "register %d", addr)
	}
	return r.Slots[addr] & mask(width), nil
}

func (r *Registers) write(addr uint32, v uint64, width uint8) error {
	if int(addr) >= len(r.Slots) {
		return errors.Wrapf(ErrOutOfRange, "register %d", addr)
	}
	r.Slots[addr] = v & mask(width)
	return nil
}

// State holds the parallel evaluation arrays alongside the external buses
// they dispatch against; it is sized to an arena and may be reused across
// continuing blocks (partial-interpret) for debuggability.
type State struct {
	Values []uint64
	Widths []uint8

	Regs *Registers
	Mem  Memory
}

// NewState allocates an empty State; Interpret/Partial grow its arrays to
// match the arena being evaluated.
func NewState(regs *Registers, mem Memory) *State {
	return &State{Regs: regs, Mem: mem}
}

func mask(width uint8) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

// Interpret evaluates the whole arena from scratch.
func Interpret(a *ir.Arena, st *State) error {
	return Partial(a, st, 0)
}

// Partial evaluates only arena nodes from offset onward, reusing st.Values/
// st.Widths for any earlier indices already computed on a prior pass. This
// supports the block driver's read-eval loop: emit one instruction, replay
// only the new tail, read back observable registers, repeat.
func Partial(a *ir.Arena, st *State, offset int) error {
	n := a.Len()
	if cap(st.Values) < n {
		grown := make([]uint64, n)
		copy(grown, st.Values)
		st.Values = grown
		grownW := make([]uint8, n)
		copy(grownW, st.Widths)
		st.Widths = grownW
	} else {
		st.Values = st.Values[:n]
		st.Widths = st.Widths[:n]
	}

	for i := offset; i < n; i++ {
		node := a.At(ir.SSA(i))
		if err := evalOne(a, st, ir.SSA(i), node); err != nil {
			return err
		}
		// Trace mode: costs one bitmask check (interpLog.DebugZ returns nil,
		// a no-op builder) when ModInterp's debug level isn't enabled.
		if z := interpLog.DebugZ("eval"); z != nil {
			z.String("node", Sprint(a, st, ir.SSA(i))).End()
		}
	}
	return nil
}

func (st *State) widthOf(h ir.SSA) uint8 {
	if h == ir.Sentinel {
		return 0
	}
	return st.Widths[h]
}

func (st *State) valueOf(h ir.SSA) uint64 {
	if h == ir.Sentinel {
		return 0
	}
	return st.Values[h]
}

func (st *State) set(i ir.SSA, value uint64, width uint8) {
	st.Values[i] = value & mask(width)
	st.Widths[i] = width
}

func checkArgInBounds(self, arg ir.SSA) error {
	if arg != ir.Sentinel && arg >= self {
		return errors.Wrapf(ErrStructural, "node %d references %d, not strictly earlier", self, arg)
	}
	return nil
}

// memAddress resolves a Load/Store's (memstate, address) pair into the bus
// tag and the external 32-bit address to use, per §4.3: the bus is the
// MemState node's first argument (bus 0 = register file, bus 1 = guest
// memory).
func (st *State) memAddress(a *ir.Arena, msHandle, addrHandle ir.SSA) (bus uint8, addr uint32, err error) {
	ms := a.At(msHandle)
	if ms.Op() != ir.MemState {
		return 0, 0, errors.Wrapf(ErrStructural, "node %d is not a MemState", msHandle)
	}
	bus = uint8(st.valueOf(ms.Arg1()))
	addr = uint32(st.valueOf(addrHandle))
	return bus, addr, nil
}

func evalOne(a *ir.Arena, st *State, i ir.SSA, n ir.Node) error {
	op := n.Op()

	if op == ir.Const {
		st.set(i, uint64(n.ConstValue()), n.ConstBits())
		return nil
	}

	arg1, arg2, arg3 := n.Arg1(), n.Arg2(), n.Arg3()
	for _, arg := range [...]ir.SSA{arg1, arg2, arg3} {
		if err := checkArgInBounds(i, arg); err != nil {
			return err
		}
	}

	switch op {
	case ir.Not:
		w := st.widthOf(arg1)
		st.set(i, ^st.valueOf(arg1), w)

	case ir.Add:
		w := st.widthOf(arg1)
		st.set(i, st.valueOf(arg1)+st.valueOf(arg2), w)

	case ir.Sub:
		w := st.widthOf(arg1)
		st.set(i, st.valueOf(arg1)-st.valueOf(arg2), w)

	case ir.And:
		w := st.widthOf(arg1)
		st.set(i, st.valueOf(arg1)&st.valueOf(arg2), w)

	case ir.Or:
		w := st.widthOf(arg1)
		st.set(i, st.valueOf(arg1)|st.valueOf(arg2), w)

	case ir.Xor:
		w := st.widthOf(arg1)
		st.set(i, st.valueOf(arg1)^st.valueOf(arg2), w)

	case ir.ShiftLeft:
		k := st.valueOf(arg2)
		w := st.widthOf(arg1) + uint8(k)
		st.set(i, st.valueOf(arg1)<<k, w)

	case ir.ShiftRight:
		k := st.valueOf(arg2)
		w := st.widthOf(arg1) - uint8(k)
		st.set(i, st.valueOf(arg1)>>k, w)

	case ir.Cat:
		w2 := st.widthOf(arg2)
		w := st.widthOf(arg1) + w2
		st.set(i, st.valueOf(arg2)|(st.valueOf(arg1)<<w2), w)

	case ir.Extract:
		shift := st.valueOf(arg2)
		outWidth := uint8(st.valueOf(arg3))
		st.set(i, st.valueOf(arg1)>>shift, outWidth)

	case ir.Zext:
		outWidth := uint8(st.valueOf(arg2))
		st.set(i, st.valueOf(arg1), outWidth)

	case ir.Eq:
		v := uint64(0)
		if st.valueOf(arg1) == st.valueOf(arg2) {
			v = 1
		}
		st.set(i, v, 1)

	case ir.Neq:
		v := uint64(0)
		if st.valueOf(arg1) != st.valueOf(arg2) {
			v = 1
		}
		st.set(i, v, 1)

	case ir.Ternary:
		if st.valueOf(arg1) != 0 {
			st.set(i, st.valueOf(arg2), st.widthOf(arg2))
		} else {
			st.set(i, st.valueOf(arg3), st.widthOf(arg3))
		}

	case ir.Assert:
		if st.valueOf(arg1) != st.valueOf(arg2) {
			return errors.Wrapf(ErrAssertFailed, "node %d: %d != %d", i, st.valueOf(arg1), st.valueOf(arg2))
		}
		st.set(i, 0, 0)

	case ir.MemState:
		// Carries no evaluated value of its own; consumed by Load/Store via
		// memAddress.
		st.set(i, 0, 0)

	case ir.Load8, ir.Load16, ir.Load32, ir.Load64:
		bus, addr, err := st.memAddress(a, arg1, arg2)
		if err != nil {
			return err
		}
		v, w, err := st.loadBus(bus, addr, op)
		if err != nil {
			return errors.Wrapf(err, "node %d", i)
		}
		st.set(i, v, w)

	case ir.Store8, ir.Store16, ir.Store32, ir.Store64:
		bus, addr, err := st.memAddress(a, arg1, arg2)
		if err != nil {
			return err
		}
		val := st.valueOf(arg3)
		w, err := st.storeBus(bus, addr, val, op)
		if err != nil {
			return errors.Wrapf(err, "node %d", i)
		}
		st.set(i, val, w) // stores produce a value only for debuggability

	case ir.StateRead:
		// Reserved namespace for memory-mapped devices; identical to memory
		// at a distinct address space. No device bus is wired yet, so this
		// always reads zero.
		outWidth := uint8(st.valueOf(arg2))
		st.set(i, 0, outWidth)

	case ir.StateWrite:
		val := st.valueOf(arg3)
		outWidth := uint8(st.valueOf(arg2))
		st.set(i, val, outWidth)

	default:
		return errors.Wrapf(ErrUnimplemented, "opcode %v at node %d", op, i)
	}
	return nil
}

func (st *State) loadBus(bus uint8, addr uint32, op ir.Opcode) (uint64, uint8, error) {
	switch bus {
	case 0:
		w := widthForOp(op)
		v, err := st.Regs.read(addr, w)
		return v, w, err
	case 1:
		return st.loadMemBytes(addr, op)
	default:
		return 0, 0, errors.Wrapf(ErrStructural, "unknown bus %d", bus)
	}
}

func (st *State) storeBus(bus uint8, addr uint32, val uint64, op ir.Opcode) (uint8, error) {
	switch bus {
	case 0:
		w := widthForOp(op)
		return w, st.Regs.write(addr, val, w)
	case 1:
		return st.storeMemBytes(addr, val, op)
	default:
		return 0, errors.Wrapf(ErrStructural, "unknown bus %d", bus)
	}
}

func widthForOp(op ir.Opcode) uint8 {
	switch op {
	case ir.Load8, ir.Store8:
		return 8
	case ir.Load16, ir.Store16:
		return 16
	case ir.Load32, ir.Store32:
		return 32
	case ir.Load64, ir.Store64:
		return 64
	}
	return 0
}

func (st *State) loadMemBytes(addr uint32, op ir.Opcode) (uint64, uint8, error) {
	nbytes := int(widthForOp(op) / 8)
	var v uint64
	for b := 0; b < nbytes; b++ {
		byt, err := st.Mem.Read8(addr + uint32(b))
		if err != nil {
			return 0, 0, err
		}
		v |= uint64(byt) << (8 * b)
	}
	return v, widthForOp(op), nil
}

func (st *State) storeMemBytes(addr uint32, val uint64, op ir.Opcode) (uint8, error) {
	nbytes := int(widthForOp(op) / 8)
	for b := 0; b < nbytes; b++ {
		byt := uint8(val >> (8 * b))
		if err := st.Mem.Write8(addr+uint32(b), byt); err != nil {
			return 0, err
		}
	}
	return widthForOp(op), nil
}

// Value returns the evaluated (value, width) pair for handle h, for callers
// reading back observable state after a partial interpret.
func (st *State) Value(h ir.SSA) (uint64, uint8) {
	return st.Values[h], st.Widths[h]
}

// Sprint renders a node for trace/debug output in the original disassembly
// style: index, opcode name, evaluated value and width.
func Sprint(a *ir.Arena, st *State, h ir.SSA) string {
	n := a.At(h)
	v, w := st.Value(h)
	return fmt.Sprintf("%5d: %s = %#x:%d", h, n, v, w)
}
