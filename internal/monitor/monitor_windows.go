//go:build windows

package monitor

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSystemParametersInfoW = user32.NewProc("SystemParametersInfoW")
	procGetSystemMetrics      = user32.NewProc("GetSystemMetrics")
	procGetDpiForSystem       = user32.NewProc("GetDpiForSystem")
	procEnumDisplayMonitors   = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW       = user32.NewProc("GetMonitorInfoW")

	shcore               = windows.NewLazySystemDLL("shcore.dll")
	procGetDpiForMonitor = shcore.NewProc("GetDpiForMonitor")
)

const (
	spiGetWorkArea = 0x0030
	smCXScreen     = 0
	smCYScreen     = 1
	defaultDPI     = 96

	monitorInfoPrimary = 0x1
	mdtEffectiveDPI    = 0
)

type rect struct{ Left, Top, Right, Bottom int32 }

func (r rect) toRect() Rect {
	return Rect{X: int(r.Left), Y: int(r.Top), Width: int(r.Right - r.Left), Height: int(r.Bottom - r.Top)}
}

type monitorInfo struct {
	Size    uint32
	Monitor rect
	Work    rect
	Flags   uint32
}

// EnumDisplayMonitors reports through a callback; callbacks are a
// limited resource, so one is created and its results collected here.
var (
	enumMu       sync.Mutex
	enumFound    []Info
	enumCallback = windows.NewCallback(enumMonitor)
)

func enumMonitor(hmon, _, _, _ uintptr) uintptr {
	mi := monitorInfo{}
	mi.Size = uint32(unsafe.Sizeof(mi))
	if r, _, _ := procGetMonitorInfoW.Call(hmon, uintptr(unsafe.Pointer(&mi))); r == 0 {
		return 1
	}
	scale := 0.0
	if procGetDpiForMonitor.Find() == nil {
		var dpiX, dpiY uint32
		hr, _, _ := procGetDpiForMonitor.Call(hmon, mdtEffectiveDPI,
			uintptr(unsafe.Pointer(&dpiX)), uintptr(unsafe.Pointer(&dpiY)))
		if hr == 0 && dpiX != 0 {
			scale = float64(dpiX) / defaultDPI
		}
	}
	enumFound = append(enumFound, Info{
		Bounds:   mi.Monitor.toRect(),
		WorkArea: mi.Work.toRect(),
		Scale:    scale,
		Primary:  mi.Flags&monitorInfoPrimary != 0,
	})
	return 1
}

func all() ([]Info, bool) {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumFound = nil
	r, _, _ := procEnumDisplayMonitors.Call(0, 0, enumCallback, 0)
	list := enumFound
	enumFound = nil
	return list, r != 0
}

func primary() (Info, bool) {
	var wa rect
	r, _, _ := procSystemParametersInfoW.Call(spiGetWorkArea, 0, uintptr(unsafe.Pointer(&wa)), 0)
	if r == 0 {
		return Info{}, false
	}
	cx, _, _ := procGetSystemMetrics.Call(smCXScreen)
	cy, _, _ := procGetSystemMetrics.Call(smCYScreen)

	scale := 1.0
	if procGetDpiForSystem.Find() == nil {
		if dpi, _, _ := procGetDpiForSystem.Call(); dpi != 0 {
			scale = float64(dpi) / defaultDPI
		}
	}
	return Info{
		Bounds:   Rect{Width: int(int32(cx)), Height: int(int32(cy))},
		WorkArea: wa.toRect(),
		Scale:    scale,
		Primary:  true,
	}, true
}
