package ir

// RegBus and MemBus name the two abstract buses every MemState selects
// between: the register file and byte-addressable guest memory.
const (
	RegBus = 0
	MemBus = 1
)

type constKey struct {
	value  uint32
	width  uint8
	signed bool
}

// Emitter is the append-only SSA builder (C2): it owns an Arena, a
// per-block constant memoization cache, and the mutable register-state map
// that lifter closures mutate by side effect. K is the register-key type
// (cpu816.Reg in the lifter); the Emitter itself has no 65C816-specific
// knowledge beyond which key names the CYCLE register, so it stays generic
// arena-building machinery — register-width-aware helpers live a layer up.
type Emitter[K comparable] struct {
	Arena *Arena

	// Regs is the current register-state map: each key's value is the SSA
	// handle of that register's current, most-recently-written value.
	Regs map[K]SSA

	cycleKey K
	cache    map[constKey]SSA

	bus   SSA // current MemState bus selector (RegBus or MemBus, as a Const)
	alive SSA // current memory-conditional predicate

	zeroLow SSA // zero-chain stash; Sentinel when not carrying one
}

// NewEmitter constructs an Emitter over a fresh Arena. cycleKey names the
// register-state entry holding the running cycle counter, used to build
// MemState tokens; the caller (cpu816) is expected to have already seeded
// Regs[cycleKey] during the block prologue.
func NewEmitter[K comparable](cycleKey K) *Emitter[K] {
	a := NewArena()
	e := &Emitter[K]{
		Arena:    a,
		Regs:     make(map[K]SSA, 24),
		cycleKey: cycleKey,
		cache:    make(map[constKey]SSA, 32),
		zeroLow:  Sentinel,
	}
	e.alive = e.Const(1, 1, false)
	e.bus = e.Const(MemBus, 8, false)
	return e
}

// Const returns the SSA handle for (value, width), reusing a prior handle
// from this block if one was already emitted for the same (value, width)
// pair (P2: constant memoization).
func (e *Emitter[K]) Const(value uint32, width uint8, signed bool) SSA {
	k := constKey{value: value, width: width, signed: signed}
	if h, ok := e.cache[k]; ok {
		return h
	}
	h := e.Arena.Const(value, width, signed)
	e.cache[k] = h
	return h
}

// SetBus switches the MemState bus used by subsequent Read/Write calls;
// callers must restore the prior value themselves (the block prologue/
// epilogue toggle to RegBus around register-file access, body code leaves
// it at MemBus).
func (e *Emitter[K]) SetBus(bus int) (restore func()) {
	prev := e.bus
	e.bus = e.Const(uint32(bus), 8, false)
	return func() { e.bus = prev }
}

// memState builds (or would build, were this not re-derived per access) the
// MemState token for the current bus/cycle/predicate triple. Every load and
// store consumes a freshly emitted MemState so that a surrounding If's
// predicate swap is visible to it.
func (e *Emitter[K]) memState() SSA {
	cycle, ok := e.Regs[e.cycleKey]
	if !ok {
		cycle = e.Const(0, 64, false)
	}
	return e.Arena.MemState(e.bus, cycle, e.alive)
}

func (e *Emitter[K]) Read8(addr SSA) SSA  { return e.Arena.Load8(e.memState(), addr) }
func (e *Emitter[K]) Read16(addr SSA) SSA { return e.Arena.Load16(e.memState(), addr) }
func (e *Emitter[K]) Read32(addr SSA) SSA { return e.Arena.Load32(e.memState(), addr) }
func (e *Emitter[K]) Read64(addr SSA) SSA { return e.Arena.Load64(e.memState(), addr) }

func (e *Emitter[K]) Write8(addr, v SSA) SSA  { return e.Arena.Store8(e.memState(), addr, v) }
func (e *Emitter[K]) Write16(addr, v SSA) SSA { return e.Arena.Store16(e.memState(), addr, v) }
func (e *Emitter[K]) Write32(addr, v SSA) SSA { return e.Arena.Store32(e.memState(), addr, v) }
func (e *Emitter[K]) Write64(addr, v SSA) SSA { return e.Arena.Store64(e.memState(), addr, v) }

// Arithmetic/logic/compare/select wrappers: thin passthroughs to the arena,
// kept on Emitter so lifter code never touches the Arena directly and so a
// future change to memoize these too has one call site.
func (e *Emitter[K]) Not(x SSA) SSA             { return e.Arena.Not(x) }
func (e *Emitter[K]) Add(x, y SSA) SSA          { return e.Arena.Add(x, y) }
func (e *Emitter[K]) Sub(x, y SSA) SSA          { return e.Arena.Sub(x, y) }
func (e *Emitter[K]) And(x, y SSA) SSA          { return e.Arena.And(x, y) }
func (e *Emitter[K]) Or(x, y SSA) SSA           { return e.Arena.Or(x, y) }
func (e *Emitter[K]) Xor(x, y SSA) SSA          { return e.Arena.Xor(x, y) }
func (e *Emitter[K]) ShiftLeft(x, k SSA) SSA    { return e.Arena.ShiftLeft(x, k) }
func (e *Emitter[K]) ShiftRight(x, k SSA) SSA   { return e.Arena.ShiftRight(x, k) }
func (e *Emitter[K]) Cat(hi, lo SSA) SSA        { return e.Arena.Cat(hi, lo) }
func (e *Emitter[K]) Eq(x, y SSA) SSA           { return e.Arena.Eq(x, y) }
func (e *Emitter[K]) Neq(x, y SSA) SSA          { return e.Arena.Neq(x, y) }
func (e *Emitter[K]) Ternary(cond, t, f SSA) SSA { return e.Arena.Ternary(cond, t, f) }

// Extract/Zext take shift/width as plain ints rather than pre-built Const
// handles, to keep lifter call sites terse; the constants themselves are
// still memoized through e.Const.
func (e *Emitter[K]) Extract(x SSA, shift, width uint8) SSA {
	return e.Arena.Extract(x, e.Const(uint32(shift), 8, false), e.Const(uint32(width), 8, false))
}

func (e *Emitter[K]) Zext(x SSA, width uint8) SSA {
	return e.Arena.Zext(x, e.Const(uint32(width), 8, false))
}

// AddImm/SubImm etc. autobox an integer immediate via Const, matching the
// source emitter's implicit-immediate convenience without needing a
// sum-typed operand.
func (e *Emitter[K]) AddImm(x SSA, imm uint32, width uint8) SSA {
	return e.Add(x, e.Const(imm, width, false))
}

func (e *Emitter[K]) SubImm(x SSA, imm uint32, width uint8) SSA {
	return e.Sub(x, e.Const(imm, width, false))
}

// Assert records an Assert(value, expected) invariant node; no value is
// produced.
func (e *Emitter[K]) Assert(value, expected SSA) SSA {
	return e.Arena.Assert(value, expected)
}

// StashZeroChain records the low-byte zero test of the first half of a
// 16-bit operation; TakeZeroChain consumes it to AND with the second half's
// zero test, producing a correct 16-bit Z. ResetZeroChain must be called at
// the start of every opcode (C7's dispatch does this).
func (e *Emitter[K]) ResetZeroChain() { e.zeroLow = Sentinel }

func (e *Emitter[K]) StashZeroChain(lowIsZero SSA) { e.zeroLow = lowIsZero }

func (e *Emitter[K]) HasZeroChain() bool { return e.zeroLow != Sentinel }

func (e *Emitter[K]) TakeZeroChain(highIsZero SSA) SSA {
	if e.zeroLow == Sentinel {
		return highIsZero
	}
	return e.And(e.zeroLow, highIsZero)
}

// If implements the predicated-scope primitive of §4.2:
//  1. snapshot the register-state map
//  2. snapshot+replace the memory-conditional predicate with cond
//  3. run body, which may mutate Regs and append nodes
//  4. for every key whose handle changed, rewrite it to Ternary(cond, new, old)
//  5. restore the predicate
//
// Nesting holds: alive is swapped to the innermost cond for the body's
// duration and always restored, so nested Ifs never conjoin predicates —
// the outer predicate is already baked into outer-scope memory nodes.
func (e *Emitter[K]) If(cond SSA, body func()) {
	before := make(map[K]SSA, len(e.Regs))
	for k, v := range e.Regs {
		before[k] = v
	}

	savedAlive := e.alive
	e.alive = cond
	defer func() { e.alive = savedAlive }()

	body()

	for k, newVal := range e.Regs {
		oldVal, existed := before[k]
		if !existed {
			// A key introduced inside the body has no outer value to merge
			// against; leave it as-is, it cannot have "diverged".
			continue
		}
		if newVal != oldVal {
			e.Regs[k] = e.Ternary(cond, newVal, oldVal)
		}
	}
}
