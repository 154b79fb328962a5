// Package version carries the build version shown in page footers.
package version

// Version is overridden at build time via -ldflags "-X quickserve/internal/version.Version=...".
var Version = "dev"
