package interp

// Config sizes the engine's fixed-capacity regions, loaded from TOML
// via cmd entry point. Grounded on the teacher's package-level size
// constants (numRegisters, stackSize) in vm/vm.go, generalized into a
// loadable struct rather than compile-time constants since a BASIC
// program's working-set is not known until run time.
type Config struct {
	StackFrames     int  `toml:"stack_frames"`
	ByteWindowBytes int  `toml:"byte_window_bytes"`
	SymbolBuckets   int  `toml:"symbol_buckets"`
	CascadeIF       bool `toml:"cascade_if"`
}

// DefaultConfig mirrors the teacher's vm.go defaults in spirit (modest
// fixed sizes suitable for a single in-process run).
func DefaultConfig() *Config {
	return &Config{
		StackFrames:     4096,
		ByteWindowBytes: 1 << 20,
		SymbolBuckets:   97,
		CascadeIF:       false,
	}
}
