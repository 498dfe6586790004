// Package hostenv describes the machine mingwup runs on.
package hostenv

import (
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/3leaps/mingwup/internal/model"
)

// Detect reports the host architecture. The kernel's view is preferred so
// a 32-bit build running on a 64-bit kernel still picks 64-bit toolchains.
func Detect() model.HostDescriptor {
	machine, err := host.KernelArch()
	if err != nil || strings.TrimSpace(machine) == "" {
		machine = runtime.GOARCH
	}
	return FromMachine(machine)
}

// FromMachine maps a machine name such as "x86_64", "AMD64", "aarch64" or
// "i686" onto the two toolchain families published upstream. Anything
// ending in 64 is treated as x86_64; everything else as i686.
func FromMachine(machine string) model.HostDescriptor {
	if strings.HasSuffix(strings.TrimSpace(machine), "64") {
		return model.HostDescriptor{Architecture: model.ArchX86_64, WordSize: 64}
	}
	return model.HostDescriptor{Architecture: model.ArchI686, WordSize: 32}
}
