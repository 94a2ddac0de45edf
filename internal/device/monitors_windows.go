//go:build windows

package device

import (
	"fmt"
	"syscall"
	"unsafe"
)

var (
	user32                  = syscall.NewLazyDLL("user32.dll")
	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")
)

const monitorinfofPrimary = 0x00000001

type rect struct {
	Left, Top, Right, Bottom int32
}

type monitorInfoEx struct {
	Size    uint32
	Monitor rect
	Work    rect
	Flags   uint32
	Device  [32]uint16
}

// ListMonitors enumerates connected displays in virtual-screen
// coordinates. The primary monitor is listed first.
func ListMonitors() ([]MonitorInfo, error) {
	var monitors []MonitorInfo
	var enumErr error

	cb := syscall.NewCallback(func(hMonitor, hdc, lprc, lparam uintptr) uintptr {
		var info monitorInfoEx
		info.Size = uint32(unsafe.Sizeof(info))
		ret, _, _ := procGetMonitorInfoW.Call(hMonitor, uintptr(unsafe.Pointer(&info)))
		if ret == 0 {
			enumErr = fmt.Errorf("GetMonitorInfoW failed for monitor %#x", hMonitor)
			return 0
		}
		monitors = append(monitors, MonitorInfo{
			ID:        len(monitors),
			Name:      syscall.UTF16ToString(info.Device[:]),
			Width:     int(info.Monitor.Right - info.Monitor.Left),
			Height:    int(info.Monitor.Bottom - info.Monitor.Top),
			Left:      int(info.Monitor.Left),
			Top:       int(info.Monitor.Top),
			IsPrimary: info.Flags&monitorinfofPrimary != 0,
		})
		return 1
	})

	ret, _, err := procEnumDisplayMonitors.Call(0, 0, cb, 0)
	if ret == 0 {
		if enumErr != nil {
			return nil, enumErr
		}
		return nil, fmt.Errorf("EnumDisplayMonitors failed: %w", err)
	}

	// Primary first so index 0 is a sane default target.
	for i, m := range monitors {
		if m.IsPrimary && i != 0 {
			monitors[0], monitors[i] = monitors[i], monitors[0]
			break
		}
	}
	for i := range monitors {
		monitors[i].ID = i
	}
	return monitors, nil
}
