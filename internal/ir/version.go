package ir

// Version constants for the descriptor schema and compiler.
const (
	// IRVersion is the descriptor schema version.
	IRVersion = "1"

	// CompilerVersion is the rulecc compiler version.
	CompilerVersion = "0.1.0"
)
