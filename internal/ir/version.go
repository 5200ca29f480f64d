package ir

// Version constants reported by the CLI and embedded in exported namespaces.
const (
	// FormatVersion is the exported namespace payload schema version.
	FormatVersion = "1"

	// Version is the dotrain tooling version.
	Version = "0.1.0"
)
