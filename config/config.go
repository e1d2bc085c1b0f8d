// Package config loads Lakesis's tunable engine parameters: arena and
// stack sizing and which natives are enabled. Values default to the
// constants the original engine compiled in and may be overridden by
// an optional TOML file (cmd/lakesis reads lakesis.toml from the
// working directory unless given another path).
//
// Grounded on chazu-maggie/manifest/manifest.go's toml.Unmarshal +
// os.ReadFile loading pattern, using the same github.com/BurntSushi/toml
// dependency; defaults are sourced from
// _examples/original_source/src/interpreter/mod.rs's STACK_SIZE
// constant (WORD_BYTE_SIZE * 0xFF) and from the INITIAL_MEMORY_SIZE /
// MAX_MEMORY_SIZE constants referenced by interpreter/memory.rs.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable of a Lakesis run.
type Config struct {
	// Heap sizes the arena: its starting byte size and growth ceiling.
	Heap HeapConfig `toml:"heap"`
	// StackSize is the byte size of the typed stack region.
	StackSize uint64 `toml:"stack-size"`
	// Native enables or disables individual entries of the native
	// table by index; absent entries default to enabled.
	Native NativeConfig `toml:"native"`
}

// HeapConfig sizes the heap arena and its growth ceiling.
type HeapConfig struct {
	InitialSize uint64 `toml:"initial-size"`
	MaxSize     uint64 `toml:"max-size"`
}

// NativeConfig toggles individual natives off for a hardened run.
type NativeConfig struct {
	DisablePrint  bool `toml:"disable-print"`
	DisableRandom bool `toml:"disable-random"`
	DisableSleep  bool `toml:"disable-sleep"`
}

// Default mirrors the reference engine's compiled-in constants:
// STACK_SIZE = WORD_BYTE_SIZE * 0xFF (255 words), a modest initial
// heap that grows by doubling up to a 64MiB ceiling.
func Default() Config {
	return Config{
		Heap: HeapConfig{
			InitialSize: 64 * 1024,
			MaxSize:     64 * 1024 * 1024,
		},
		StackSize: 8 * 0xFF,
	}
}

// Load reads path (typically "lakesis.toml") and overlays it onto
// Default(). A missing file is not an error — the caller runs with
// built-in defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse error in %s: %w", path, err)
	}

	return cfg, nil
}
