// Package bizunit identifies the service build
package bizunit

// Name is the service name reported by health checks and logs
const Name = "bizunit"

// Version is replaced at build time via -ldflags
var Version = "dev"
