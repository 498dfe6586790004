//go:build windows

package envpath

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/3leaps/mingwup/internal/model"
)

const (
	envKey   = `Environment`
	pathName = "Path"

	hwndBroadcast   = 0xffff
	wmSettingChange = 0x001A
	smtoAbortIfHung = 0x0002
	notifyTimeoutMs = 5000
)

var procSendMessageTimeout = windows.NewLazySystemDLL("user32.dll").NewProc("SendMessageTimeoutW")

// Registry is the per-user Path value under HKCU\Environment.
type Registry struct{}

func (Registry) Separator() string { return ";" }

func (Registry) ReadPath() (string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, envKey, registry.QUERY_VALUE)
	if err != nil {
		return "", model.E(model.KindRegistry, `open HKCU\Environment`, err)
	}
	defer k.Close()

	value, _, err := k.GetStringValue(pathName)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", nil
		}
		return "", model.E(model.KindRegistry, "read Path", err)
	}
	return value, nil
}

func (Registry) WritePath(value string) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, envKey, registry.SET_VALUE)
	if err != nil {
		return model.E(model.KindRegistry, `open HKCU\Environment`, err)
	}
	defer k.Close()

	if err := k.SetExpandStringValue(pathName, value); err != nil {
		return model.E(model.KindRegistry, "write Path", err)
	}
	return nil
}

// Notify broadcasts WM_SETTINGCHANGE so new shells pick up the value.
func (Registry) Notify() error {
	param, err := windows.UTF16PtrFromString(envKey)
	if err != nil {
		return model.E(model.KindRegistry, "broadcast environment change", err)
	}

	var result uintptr
	r, _, callErr := procSendMessageTimeout.Call(
		hwndBroadcast,
		wmSettingChange,
		0,
		uintptr(unsafe.Pointer(param)),
		smtoAbortIfHung,
		notifyTimeoutMs,
		uintptr(unsafe.Pointer(&result)),
	)
	if r == 0 {
		return model.E(model.KindRegistry, "broadcast environment change", callErr)
	}
	return nil
}

// Default returns the store for this platform: the user registry Path.
func Default() (Store, error) {
	return Registry{}, nil
}

// Describe names where Default stores the list.
func Describe(s Store) string {
	if _, ok := s.(Registry); ok {
		return `HKCU\Environment\Path`
	}
	return "PATH"
}
