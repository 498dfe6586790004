// Package update decides whether installing a toolchain release should go
// ahead given the release already installed.
//
// It performs no downloads, extraction or filesystem changes.
//
// Version model
//   - Upstream tags look like "13.2.0-rt_v11-rev1": a GCC version, a
//     MinGW-w64 runtime generation and a packaging revision. Tags are ordered
//     by GCC version (SemVer precedence), then runtime, then revision.
//   - Tags that do not follow that shape are compared as plain semver when
//     possible and are otherwise treated as non-comparable, in which case the
//     install proceeds.
//   - An empty current version means nothing is installed.
package update
