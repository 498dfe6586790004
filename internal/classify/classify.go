// Package classify decides whether a mingw-builds archive can run on a host.
package classify

import (
	"fmt"
	"strings"

	"github.com/3leaps/mingwup/internal/model"
)

const minNameFields = 7

// ParseAssetName splits an archive name into its positional fields. Names
// with fewer than seven hyphen-separated fields are not parsable.
func ParseAssetName(filename string) (model.AssetNameTuple, bool) {
	parts := strings.Split(filename, "-")
	if len(parts) < minNameFields {
		return model.AssetNameTuple{}, false
	}
	return model.AssetNameTuple{
		Architecture:    parts[0],
		CompilerVersion: parts[1],
		BuildType:       parts[2],
		ThreadModel:     parts[3],
		ExceptionModel:  parts[4],
		CRTVariant:      parts[5],
		Revision:        parts[6],
	}, true
}

// Compatible reports whether filename names a toolchain usable on host:
// same architecture, seh on 64-bit or dwarf on 32-bit, ucrt runtime and
// posix threads. Unparsable names are never compatible.
func Compatible(filename string, host model.HostDescriptor) bool {
	t, ok := ParseAssetName(filename)
	if !ok {
		return false
	}
	if t.Architecture != string(host.Architecture) {
		return false
	}
	if !exceptionModelFits(t.ExceptionModel, host.WordSize) {
		return false
	}
	return t.CRTVariant == "ucrt" && t.ThreadModel == "posix"
}

func exceptionModelFits(model string, wordSize int) bool {
	switch wordSize {
	case 64:
		return model == "seh"
	case 32:
		return model == "dwarf"
	default:
		return false
	}
}

// Describe is the banner shown next to highlighted entries.
func Describe(host model.HostDescriptor) string {
	return fmt.Sprintf("Versions compatible with your %d-bit %s system are highlighted.", host.WordSize, host.Architecture)
}
