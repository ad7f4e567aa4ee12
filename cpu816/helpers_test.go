package cpu816

import (
	"testing"

	"github.com/arl/m65816/interp"
)

// newFlagEmitter builds an emitter at $00:C000, emits the prologue and
// partially interprets it against st, so e.Regs is ready for testing pure
// combinational helpers like packFlags/unpackFlags. Callers interpret the
// body they emit themselves.
func newFlagEmitter(t *testing.T, st *interp.State) *Emitter {
	t.Helper()
	e := NewEmitter()
	e.beginPrologue(0xC000, 0x00)
	if err := interp.Partial(e.Arena, st, 0); err != nil {
		t.Fatalf("prologue: %v", err)
	}
	return e
}

func TestPackFlagsNativeMode(t *testing.T) {
	st := newTestState()

	// Native mode (E=0), so M/X come through exactly as set:
	// N=1 V=0 M=1 X=1 D=0 I=1 Z=1 C=1
	for _, r := range []Reg{FlagN, FlagM, FlagX, FlagI, FlagZ, FlagC} {
		if err := st.Regs.Write8(uint32(r), 1); err != nil {
			t.Fatalf("Write8(%v): %v", r, err)
		}
	}

	e := newFlagEmitter(t, st)
	bodyStart := e.Arena.Len()
	packed := packFlags(e)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	got, _ := st.Value(packed)
	want := uint64(0b10110111) // N V M X D I Z C = 1 0 1 1 0 1 1 1
	if got != want {
		t.Errorf("packFlags = %#010b, want %#010b", got, want)
	}
}

func TestPackFlagsForcesMXUnderE(t *testing.T) {
	st := newTestState()
	if err := st.Regs.Write8(uint32(FlagE), 1); err != nil {
		t.Fatalf("Write8(FlagE): %v", err)
	}
	// M and X left clear, but E is set so packFlags must report them as 1.

	e := newFlagEmitter(t, st)
	bodyStart := e.Arena.Len()
	packed := packFlags(e)
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}

	got, _ := st.Value(packed)
	if got&0b00110000 != 0b00110000 {
		t.Errorf("packFlags under E = %#010b, want M/X bits (0x30) set", got)
	}
}

func TestUnpackFlagsRefusesMXUnderE(t *testing.T) {
	st := newTestState()
	if err := st.Regs.Write8(uint32(FlagE), 1); err != nil {
		t.Fatalf("Write8(FlagE): %v", err)
	}
	if err := st.Regs.Write8(uint32(FlagM), 0); err != nil {
		t.Fatalf("Write8(FlagM): %v", err)
	}

	e := newFlagEmitter(t, st)
	bodyStart := e.Arena.Len()
	// PLP-style: unpack a value with M/X set into a state where E is set
	// and M is clear.
	unpackFlags(e, e.Const8(0x30))
	epilogueStart := e.Arena.Len()
	e.finalize()
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}
	if err := interp.Partial(e.Arena, st, epilogueStart); err != nil {
		t.Fatalf("epilogue: %v", err)
	}

	m, err := st.Regs.Read8(uint32(FlagM))
	if err != nil {
		t.Fatalf("Read8(FlagM): %v", err)
	}
	if m != 0 {
		t.Errorf("FlagM = %d, want unchanged 0 under E (unpackFlags must refuse M/X writes)", m)
	}
}

func TestPush16Pull16RoundTrip(t *testing.T) {
	st := newTestState()
	if err := st.Regs.Write16(uint32(S), 0x01FD); err != nil {
		t.Fatalf("Write16(S): %v", err)
	}
	if err := st.Regs.Write8(uint32(FlagE), 1); err != nil {
		t.Fatalf("Write8(FlagE): %v", err)
	}

	e := newFlagEmitter(t, st)
	bodyStart := e.Arena.Len()
	push16(e, e.Const16(0xC042))
	pulled := pull16(e)
	epilogueStart := e.Arena.Len()
	e.finalize()
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}
	if err := interp.Partial(e.Arena, st, epilogueStart); err != nil {
		t.Fatalf("epilogue: %v", err)
	}

	got, _ := st.Value(pulled)
	if want := uint64(0xC042); got != want {
		t.Errorf("pull16 after push16 = $%04X, want $%04X", got, want)
	}

	s, err := st.Regs.Read16(uint32(S))
	if err != nil {
		t.Fatalf("Read16(S): %v", err)
	}
	if s != 0x01FD {
		t.Errorf("S after push16+pull16 = $%04X, want restored $%04X", s, 0x01FD)
	}
}

func TestPushByteStackPageLockUnderE(t *testing.T) {
	st := newTestState()
	if err := st.Regs.Write16(uint32(S), 0x0100); err != nil { // about to underflow
		t.Fatalf("Write16(S): %v", err)
	}
	if err := st.Regs.Write8(uint32(FlagE), 1); err != nil {
		t.Fatalf("Write8(FlagE): %v", err)
	}

	e := newFlagEmitter(t, st)
	bodyStart := e.Arena.Len()
	pushByte(e, e.Const8(0x42))
	epilogueStart := e.Arena.Len()
	e.finalize()
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}
	if err := interp.Partial(e.Arena, st, epilogueStart); err != nil {
		t.Fatalf("epilogue: %v", err)
	}

	s, err := st.Regs.Read16(uint32(S))
	if err != nil {
		t.Fatalf("Read16(S): %v", err)
	}
	if s != 0x01FF {
		t.Errorf("S after push underflow under E = $%04X, want page-locked $%04X", s, 0x01FF)
	}
}

func TestStoreReg16AccumulatorEightBit(t *testing.T) {
	st := newTestState()
	if err := st.Regs.Write8(uint32(FlagM), 1); err != nil { // 8-bit A
		t.Fatalf("Write8(FlagM): %v", err)
	}
	if err := st.Regs.Write8(uint32(B), 0x99); err != nil { // pre-existing hidden high byte
		t.Fatalf("Write8(B): %v", err)
	}

	e := newFlagEmitter(t, st)
	bodyStart := e.Arena.Len()
	storeReg16(e, A, e.Const16(0x1280), false)
	epilogueStart := e.Arena.Len()
	e.finalize()
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}
	if err := interp.Partial(e.Arena, st, epilogueStart); err != nil {
		t.Fatalf("epilogue: %v", err)
	}

	a, err := st.Regs.Read8(uint32(A))
	if err != nil {
		t.Fatalf("Read8(A): %v", err)
	}
	if a != 0x80 {
		t.Errorf("A = $%02X, want low byte $80", a)
	}
	b, err := st.Regs.Read8(uint32(B))
	if err != nil {
		t.Fatalf("Read8(B): %v", err)
	}
	if b != 0x99 {
		t.Errorf("B = $%02X, want untouched $99 (8-bit store must not touch the hidden high byte)", b)
	}
	n, err := st.Regs.Read8(uint32(FlagN))
	if err != nil {
		t.Fatalf("Read8(FlagN): %v", err)
	}
	if n != 1 {
		t.Errorf("FlagN = %d, want 1 (low byte $80 has bit 7 set)", n)
	}
}

func TestStoreReg16XWrapsToEightBitOnFlagX(t *testing.T) {
	st := newTestState()
	if err := st.Regs.Write8(uint32(FlagX), 1); err != nil { // 8-bit X/Y
		t.Fatalf("Write8(FlagX): %v", err)
	}
	if err := st.Regs.Write16(uint32(X), 0x3400); err != nil { // pre-existing hidden high byte
		t.Fatalf("Write16(X): %v", err)
	}

	e := newFlagEmitter(t, st)
	bodyStart := e.Arena.Len()
	storeReg16(e, X, e.Const16(0x0042), false)
	epilogueStart := e.Arena.Len()
	e.finalize()
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}
	if err := interp.Partial(e.Arena, st, epilogueStart); err != nil {
		t.Fatalf("epilogue: %v", err)
	}

	x, err := st.Regs.Read16(uint32(X))
	if err != nil {
		t.Fatalf("Read16(X): %v", err)
	}
	if x != 0x3442 {
		t.Errorf("X = $%04X, want hidden high byte preserved as $3442", x)
	}
}

func TestCompareSetsFlagsWithoutWritingDst(t *testing.T) {
	st := newTestState()
	if err := st.Regs.Write8(uint32(A), 0x40); err != nil {
		t.Fatalf("Write8(A): %v", err)
	}

	e := newFlagEmitter(t, st)
	bodyStart := e.Arena.Len()
	compare(e, e.Regs[A], e.Const8(0x40))
	epilogueStart := e.Arena.Len()
	e.finalize()
	if err := interp.Partial(e.Arena, st, bodyStart); err != nil {
		t.Fatalf("body: %v", err)
	}
	if err := interp.Partial(e.Arena, st, epilogueStart); err != nil {
		t.Fatalf("epilogue: %v", err)
	}

	z, err := st.Regs.Read8(uint32(FlagZ))
	if err != nil {
		t.Fatalf("Read8(FlagZ): %v", err)
	}
	if z != 1 {
		t.Errorf("FlagZ after CMP equal operands = %d, want 1", z)
	}
	c, err := st.Regs.Read8(uint32(FlagC))
	if err != nil {
		t.Fatalf("Read8(FlagC): %v", err)
	}
	if c != 1 {
		t.Errorf("FlagC after CMP equal operands = %d, want 1 (no borrow)", c)
	}
	a, err := st.Regs.Read8(uint32(A))
	if err != nil {
		t.Fatalf("Read8(A): %v", err)
	}
	if a != 0x40 {
		t.Errorf("A after compare = $%02X, want unchanged $40", a)
	}
}
