package main

import (
	"github.com/BurntSushi/toml"
)

// fileConfig mirrors emu.Config's shape (teacher's emu/config.go): a plain,
// toml-tagged struct decoded directly, kept separate from CLI since CLI's
// Trace/Log fields use kong's MapperValue decoding instead of toml's.
// Log isn't threaded through from here: logModMask.Decode needs a live
// kong.DecodeContext to scan its token, which a config file read doesn't
// have, so --log stays a command-line-only flag.
type fileConfig struct {
	RomPath string `toml:"rom"`
	Blocks  int    `toml:"blocks"`
	Trace   string `toml:"trace"`
}

// loadConfig reads path and seeds a CLI with its values; command-line flags
// parsed afterwards by kong still take precedence.
func loadConfig(path string) (CLI, error) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return CLI{}, err
	}

	var cfg CLI
	cfg.RomPath = fc.RomPath
	if fc.Blocks != 0 {
		cfg.Blocks = fc.Blocks
	}
	if fc.Trace != "" {
		cfg.Trace = &outfile{}
		if err := cfg.Trace.set(fc.Trace); err != nil {
			return CLI{}, err
		}
	}
	return cfg, nil
}
