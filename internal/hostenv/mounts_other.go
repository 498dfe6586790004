//go:build !linux

package hostenv

func readMounts() []mount { return nil }
