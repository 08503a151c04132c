// Package oir is the public API surface (spec.md §4.1-§4.8 / C9): a
// System facade combining the polygon rasterizer, the spatial/temporal
// OIR index, and the owner/allow-list authorization layer behind the
// entry points spec.md §6.3 names. No RPC or HTTP transport is part of
// this module — the host embedding System is responsible for exposing
// these calls over whatever transport it runs.
package oir

import "github.com/meridian-air/oirindex/internal/version"

// BuildVersion returns the module's build identity (version string and
// git commit), for a host to surface in its own status/health output.
func BuildVersion() (ver, gitSHA string) {
	return version.Version, version.GitSHA
}
