package cpu816

import "github.com/arl/m65816/interp"

// Snapshot is one trace line's worth of register-bus state, read directly
// off the register bus (not through the IR) for a front-end to format.
type Snapshot struct {
	PC    uint16
	PBR   uint8
	Op    uint8
	A     uint8
	X     uint8
	Y     uint8
	P     uint8
	SP    uint16
	Cycle uint64
}

// ReadSnapshot reads the register bus into a Snapshot, packing the nine
// flag bits the same way packFlags does in IR (N V M X D I Z C, forcing
// M/X to 1 under emulation mode). CYC/SL are derived from the running
// cycle counter by the Snapshot's CYC and SL methods.
func ReadSnapshot(regs *interp.Registers, op uint8) (Snapshot, error) {
	readFlag := func(r Reg) (uint8, error) { return regs.Read8(uint32(r)) }

	pc, err := regs.Read16(uint32(PC))
	if err != nil {
		return Snapshot{}, err
	}
	pbr, err := regs.Read8(uint32(PBR))
	if err != nil {
		return Snapshot{}, err
	}
	a, err := regs.Read8(uint32(A))
	if err != nil {
		return Snapshot{}, err
	}
	x, err := regs.Read8(uint32(X))
	if err != nil {
		return Snapshot{}, err
	}
	y, err := regs.Read8(uint32(Y))
	if err != nil {
		return Snapshot{}, err
	}
	sp, err := regs.Read16(uint32(S))
	if err != nil {
		return Snapshot{}, err
	}
	cycle, err := regs.Read64(uint32(CYCLE))
	if err != nil {
		return Snapshot{}, err
	}

	n, err := readFlag(FlagN)
	if err != nil {
		return Snapshot{}, err
	}
	v, err := readFlag(FlagV)
	if err != nil {
		return Snapshot{}, err
	}
	m, err := readFlag(FlagM)
	if err != nil {
		return Snapshot{}, err
	}
	xf, err := readFlag(FlagX)
	if err != nil {
		return Snapshot{}, err
	}
	d, err := readFlag(FlagD)
	if err != nil {
		return Snapshot{}, err
	}
	i, err := readFlag(FlagI)
	if err != nil {
		return Snapshot{}, err
	}
	z, err := readFlag(FlagZ)
	if err != nil {
		return Snapshot{}, err
	}
	c, err := readFlag(FlagC)
	if err != nil {
		return Snapshot{}, err
	}
	e, err := readFlag(FlagE)
	if err != nil {
		return Snapshot{}, err
	}

	if e != 0 {
		m, xf = 1, 1
	}

	p := n<<7 | v<<6 | m<<5 | xf<<4 | d<<3 | i<<2 | z<<1 | c

	return Snapshot{
		PC: pc, PBR: pbr, Op: op,
		A: a, X: x, Y: y, P: p, SP: sp,
		Cycle: cycle,
	}, nil
}

// CYC and SL are the PPU dot/scanline positions implied by a running CPU
// cycle count, per §6: three PPU dots per CPU cycle, 341 dots per
// scanline, 262 scanlines per frame; cycle 0 falls on scanline 241.
func (s Snapshot) CYC() uint64 {
	return (s.Cycle * 3) % 341
}

func (s Snapshot) SL() int64 {
	return int64((341*242+s.Cycle*3)/341%262) - 1
}
