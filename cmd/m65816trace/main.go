// Command m65816trace lifts and runs an iNES-packaged 65C816 test ROM one
// block at a time, printing an execution trace in the format external tools
// (e.g. a cycle-accurate reference emulator) can diff against.
//
// It is a test-driver, not part of the lifter itself (§1's core never loads
// files or prints anything): see DESIGN.md for why it's kept as an external
// collaborator rather than a core package.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/arl/m65816/cpu816"
	"github.com/arl/m65816/ines"
	"github.com/arl/m65816/interp"
	"github.com/arl/m65816/log"
)

func main() {
	cfg := parseArgs(os.Args[1:])

	rom, err := ines.Open(cfg.RomPath)
	checkf(err, "failed to open rom")

	mem := interp.NewFlatMemory()
	checkf(rom.LoadInto(mem), "failed to load rom")

	regs := interp.NewRegisters(cpu816.NumRegs)
	checkf(regs.Write8(uint32(cpu816.FlagE), 1), "failed to reset register bus")
	checkf(regs.Write8(uint32(cpu816.FlagM), 1), "failed to reset register bus")
	checkf(regs.Write8(uint32(cpu816.FlagX), 1), "failed to reset register bus")
	checkf(regs.Write16(uint32(cpu816.S), 0x01FD), "failed to reset register bus")
	checkf(regs.Write16(uint32(cpu816.PC), 0xC000), "failed to reset register bus")

	driver := cpu816.NewBlockDriver(interp.NewState(regs, mem))

	trace := cfg.Trace
	if trace == nil {
		trace = &outfile{}
		checkf(trace.set("stdout"), "failed to open trace output")
	}
	defer trace.Close()

	w := bufio.NewWriter(trace)
	defer w.Flush()

	for i := 0; i < cfg.Blocks; i++ {
		blk, err := driver.Step()
		if err != nil {
			log.ModDriver.ErrorZ("block lift failed").Err("err", err).End()
			break
		}
		if err := writeTrace(w, driver, blk); err != nil {
			fatalf("failed to write trace: %s", err)
		}
	}
}

// writeTrace prints one line per opcode in blk, in the §6 format:
//
//	PC(4 hex)  OP(2 hex)  A:xx X:xx Y:xx P:xx SP:xx CYC:ddd SL:i
//
// The OP column prints the lifted mnemonic, not the opcode byte.
// Block doesn't keep a per-instruction register snapshot (only the lifted
// mnemonics, blk.Ops) — this prints the register bus as it stands once the
// whole block has run, once per mnemonic, which is exact for single-opcode
// blocks (the common case once a branch/jump ends the block) and an
// approximation for any instruction before the last one in a longer block.
func writeTrace(w *bufio.Writer, driver *cpu816.BlockDriver, blk *cpu816.Block) error {
	snap, err := cpu816.ReadSnapshot(driver.Registers(), 0)
	if err != nil {
		return err
	}
	for _, name := range blk.Ops {
		_, err = fmt.Fprintf(w, "%04X  %-4s A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%03d SL:%d\n",
			snap.PC, name, snap.A, snap.X, snap.Y, snap.P, uint8(snap.SP), snap.CYC(), snap.SL())
		if err != nil {
			return err
		}
	}
	return nil
}
