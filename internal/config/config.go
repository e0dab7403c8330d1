// Package config loads the runtime's small set of environment-driven
// tunables: stack size, JIT trace threshold, and color forcing. None of
// these affect program semantics, only resource limits and diagnostics, so
// they are read once at startup rather than threaded through every call.
package config

import "github.com/caarlos0/env/v6"

// Config holds every tunable the CLI and runtime read from the environment,
// all under the EMBER_ prefix (e.g. EMBER_STACK_SIZE).
type Config struct {
	// StackSize is the number of value.Value slots the interpreter's shared
	// value stack reserves up front.
	StackSize int `env:"EMBER_STACK_SIZE" envDefault:"8192"`

	// HotLoopThreshold is how many times a LOOP instruction's backward
	// branch must fire before the interpreter starts recording a trace for
	// it (see lang/interp's hot-loop counter table).
	HotLoopThreshold int `env:"EMBER_HOT_LOOP_THRESHOLD" envDefault:"50"`

	// HotLoopTableSize is the number of entries in the hot-loop counter
	// table; it must be a power of two since the interpreter indexes it with
	// a bitmask.
	HotLoopTableSize int `env:"EMBER_HOT_LOOP_TABLE_SIZE" envDefault:"1024"`

	// ForceColor overrides the terminal auto-detection used to decide
	// whether CLI diagnostics are colorized.
	ForceColor *bool `env:"EMBER_FORCE_COLOR"`
}

// Load reads a Config from the process environment, applying defaults for
// anything unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
