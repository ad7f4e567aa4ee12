package ir

import "testing"

type regKey int

const (
	regA regKey = iota
	regCycle
)

func TestConstMemoization(t *testing.T) {
	e := NewEmitter(regCycle)
	h1 := e.Const(0x42, 8, false)
	h2 := e.Const(0x42, 8, false)
	if h1 != h2 {
		t.Errorf("Const(0x42,8) returned distinct handles %v, %v", h1, h2)
	}

	h3 := e.Const(0x42, 16, false)
	if h3 == h1 {
		t.Errorf("Const with a different width must not share a handle")
	}
}

func TestIfScopeMerge(t *testing.T) {
	e := NewEmitter(regCycle)
	e.Regs[regCycle] = e.Const(0, 64, false)

	before := e.Const(0x10, 8, false)
	e.Regs[regA] = before

	cond := e.Const(1, 1, false)
	var bodyNew SSA
	e.If(cond, func() {
		bodyNew = e.AddImm(e.Regs[regA], 1, 8)
		e.Regs[regA] = bodyNew
	})

	got := e.Arena.At(e.Regs[regA])
	if got.Op() != Ternary {
		t.Fatalf("after If, regA = %v, want a Ternary merge", got)
	}
	if got.Arg1() != cond || got.Arg2() != bodyNew || got.Arg3() != before {
		t.Errorf("Ternary(%v,%v,%v), want (%v,%v,%v)", got.Arg1(), got.Arg2(), got.Arg3(), cond, bodyNew, before)
	}
}

func TestIfScopeNoChangeLeavesValue(t *testing.T) {
	e := NewEmitter(regCycle)
	e.Regs[regCycle] = e.Const(0, 64, false)

	before := e.Const(0x10, 8, false)
	e.Regs[regA] = before

	cond := e.Const(1, 1, false)
	e.If(cond, func() {
		// body reads but never reassigns regA
		_ = e.Regs[regA]
	})

	if e.Regs[regA] != before {
		t.Errorf("untouched key should not be rewritten, got %v want %v", e.Regs[regA], before)
	}
}

func TestIfRestoresPredicate(t *testing.T) {
	e := NewEmitter(regCycle)
	e.Regs[regCycle] = e.Const(0, 64, false)
	outerAlive := e.alive

	cond := e.Const(1, 1, false)
	e.If(cond, func() {
		if e.alive != cond {
			t.Errorf("inside If, alive = %v, want cond %v", e.alive, cond)
		}
	})

	if e.alive != outerAlive {
		t.Errorf("after If, alive = %v, want restored %v", e.alive, outerAlive)
	}
}

func TestZeroChainResetPerOpcode(t *testing.T) {
	e := NewEmitter(regCycle)
	lowZero := e.Const(1, 1, false)
	e.StashZeroChain(lowZero)
	if !e.HasZeroChain() {
		t.Fatalf("expected zero chain to be stashed")
	}

	highZero := e.Const(1, 1, false)
	combined := e.TakeZeroChain(highZero)
	if e.Arena.At(combined).Op() != And {
		t.Errorf("TakeZeroChain with a stash should And, got %v", e.Arena.At(combined).Op())
	}

	e.ResetZeroChain()
	if e.HasZeroChain() {
		t.Errorf("ResetZeroChain should clear the stash")
	}
	if got := e.TakeZeroChain(highZero); got != highZero {
		t.Errorf("without a stash, TakeZeroChain should return its argument unchanged")
	}
}

func TestMemStateRebuildsPerAccess(t *testing.T) {
	e := NewEmitter(regCycle)
	e.Regs[regCycle] = e.Const(0, 64, false)

	addr := e.Const(0x0010, 24, false)
	firstLoad := e.Read8(addr)
	restore := e.SetBus(RegBus)
	secondLoad := e.Read8(addr)
	restore()

	firstMemState := e.Arena.At(e.Arena.At(firstLoad).Arg1())
	secondMemState := e.Arena.At(e.Arena.At(secondLoad).Arg1())
	memBusNode := e.Arena.At(firstMemState.Arg1())
	regBusNode := e.Arena.At(secondMemState.Arg1())

	if memBusNode.ConstValue() != MemBus {
		t.Errorf("first Read8's MemState.bus = %d, want MemBus", memBusNode.ConstValue())
	}
	if regBusNode.ConstValue() != RegBus {
		t.Errorf("second Read8's MemState.bus = %d, want RegBus", regBusNode.ConstValue())
	}
}
