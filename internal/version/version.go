// Package version holds the application version string reported by the
// system endpoints. Overridden at build time via -ldflags.
package version

// Version is the current application version.
var Version = "0.4.0"
