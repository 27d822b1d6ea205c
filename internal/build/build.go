// Package build holds build-time metadata.
package build

var (
	// Slug is the command name.
	Slug = "dagr"
	// Version is set at build time via ldflags.
	Version = "0.0.0"
)
