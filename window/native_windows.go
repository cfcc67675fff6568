//go:build windows

package window

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"golang.org/x/sys/windows"

	"github.com/gogpu/overlay"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procRegisterClassExW              = user32.NewProc("RegisterClassExW")
	procCreateWindowExW               = user32.NewProc("CreateWindowExW")
	procDefWindowProcW                = user32.NewProc("DefWindowProcW")
	procDestroyWindow                 = user32.NewProc("DestroyWindow")
	procShowWindow                    = user32.NewProc("ShowWindow")
	procSetWindowPos                  = user32.NewProc("SetWindowPos")
	procPeekMessageW                  = user32.NewProc("PeekMessageW")
	procTranslateMessage              = user32.NewProc("TranslateMessage")
	procDispatchMessageW              = user32.NewProc("DispatchMessageW")
	procUpdateLayeredWindow           = user32.NewProc("UpdateLayeredWindow")
	procScreenToClient                = user32.NewProc("ScreenToClient")
	procClientToScreen                = user32.NewProc("ClientToScreen")
	procLoadCursorW                   = user32.NewProc("LoadCursorW")
	procGetDC                         = user32.NewProc("GetDC")
	procReleaseDC                     = user32.NewProc("ReleaseDC")
	procGetDpiForWindow               = user32.NewProc("GetDpiForWindow")
	procSetProcessDpiAwarenessContext = user32.NewProc("SetProcessDpiAwarenessContext")
	procSetProcessDPIAware            = user32.NewProc("SetProcessDPIAware")
	procCreateCompatibleDC            = gdi32.NewProc("CreateCompatibleDC")
	procCreateDIBSection              = gdi32.NewProc("CreateDIBSection")
	procSelectObject                  = gdi32.NewProc("SelectObject")
	procDeleteDC                      = gdi32.NewProc("DeleteDC")
	procDeleteObject                  = gdi32.NewProc("DeleteObject")
	procGetModuleHandleW              = kernel32.NewProc("GetModuleHandleW")
)

const (
	wsPopup         = 0x80000000
	wsExLayered     = 0x00080000
	wsExTopmost     = 0x00000008
	wsExToolWindow  = 0x00000080
	swHide          = 0
	swShowNoActive  = 4
	swpNoSize       = 0x0001
	swpNoMove       = 0x0002
	swpNoZOrder     = 0x0004
	swpNoActivate   = 0x0010
	pmRemove        = 0x0001
	ulwAlpha        = 0x00000002
	acSrcOver       = 0x00
	acSrcAlpha      = 0x01
	dibRGBColors    = 0
	biRGB           = 0
	idcArrow        = 32512
	htTransparent   = ^uintptr(0) // -1
	htClient        = 1
	mkLButton       = 0x0001
	mkRButton       = 0x0002
	mkMButton       = 0x0010
	defaultDPI      = 96
	classNameString = "GogpuOverlayWindow"

	wmDestroy       = 0x0002
	wmClose         = 0x0010
	wmQuit          = 0x0012
	wmDisplayChange = 0x007E
	wmNCHitTest     = 0x0084
	wmMouseMove     = 0x0200
	wmLButtonDown   = 0x0201
	wmLButtonUp     = 0x0202
	wmRButtonDown   = 0x0204
	wmRButtonUp     = 0x0205
	wmMButtonDown   = 0x0207
	wmMButtonUp     = 0x0208

	errClassAlreadyExists = syscall.Errno(1410)
)

var (
	hwndTopmost   = ^uintptr(0) // HWND_TOPMOST (-1)
	hwndNoTopmost = ^uintptr(1) // HWND_NOTOPMOST (-2)

	// DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2 (-4)
	dpiPerMonitorAwareV2 = ^uintptr(3)
)

type point struct{ X, Y int32 }

type size struct{ CX, CY int32 }

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
	Private uint32
}

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   uintptr
	Icon       uintptr
	Cursor     uintptr
	Background uintptr
	MenuName   *uint16
	ClassName  *uint16
	IconSm     uintptr
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

type blendFunction struct {
	BlendOp             byte
	BlendFlags          byte
	SourceConstantAlpha byte
	AlphaFormat         byte
}

var (
	classOnce sync.Once
	classErr  error
	className *uint16
	instance  uintptr

	// Windows are looked up by HWND in the window procedure. creating holds
	// the window under construction until CreateWindowExW returns.
	windowsMu sync.Mutex
	byHandle  = map[uintptr]*win32Window{}
	creating  *win32Window
)

func newPlatformNative() Native { return &win32Window{} }

// win32Window is a WS_EX_LAYERED popup composited with
// UpdateLayeredWindow from a top-down 32-bit DIB section.
type win32Window struct {
	hwnd uintptr
	cb   Callbacks

	selected *Surface
	surfaces map[*Surface]*dibSection
	quit     bool
}

// dibSection is the GDI side of a Surface: a memory DC with the DIB
// selected into it.
type dibSection struct {
	memDC   uintptr
	dib     uintptr
	prevBmp uintptr
}

func (d *dibSection) release() {
	if d.memDC != 0 {
		if d.prevBmp != 0 {
			procSelectObject.Call(d.memDC, d.prevBmp)
		}
		procDeleteDC.Call(d.memDC)
	}
	if d.dib != 0 {
		procDeleteObject.Call(d.dib)
	}
	*d = dibSection{}
}

func registerClass() error {
	classOnce.Do(func() {
		// Best effort; older systems fall back to system DPI awareness.
		if procSetProcessDpiAwarenessContext.Find() == nil {
			procSetProcessDpiAwarenessContext.Call(dpiPerMonitorAwareV2)
		} else if procSetProcessDPIAware.Find() == nil {
			procSetProcessDPIAware.Call()
		}

		instance, _, _ = procGetModuleHandleW.Call(0)
		className, classErr = windows.UTF16PtrFromString(classNameString)
		if classErr != nil {
			return
		}
		cursor, _, _ := procLoadCursorW.Call(0, idcArrow)
		wc := wndClassEx{
			WndProc:   windows.NewCallback(wndProc),
			Instance:  instance,
			Cursor:    cursor,
			ClassName: className,
		}
		wc.Size = uint32(unsafe.Sizeof(wc))
		r, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
		if r == 0 && !errors.Is(err, errClassAlreadyExists) {
			classErr = fmt.Errorf("window: RegisterClassExW: %w", err)
		}
	})
	return classErr
}

func (w *win32Window) Create(cfg Config, cb Callbacks) error {
	if w.hwnd != 0 {
		return errors.New("window: native window already created")
	}
	if err := registerClass(); err != nil {
		return err
	}
	title, err := windows.UTF16PtrFromString(cfg.Title)
	if err != nil {
		return fmt.Errorf("window: title: %w", err)
	}

	exStyle := uintptr(wsExLayered)
	if cfg.AlwaysOnTop {
		exStyle |= wsExTopmost
	}
	if cfg.ToolWindow {
		exStyle |= wsExToolWindow
	}

	w.cb = cb
	windowsMu.Lock()
	creating = w
	windowsMu.Unlock()

	hwnd, _, callErr := procCreateWindowExW.Call(
		exStyle,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(title)),
		wsPopup,
		uintptr(cfg.X), uintptr(cfg.Y),
		uintptr(cfg.Width), uintptr(cfg.Height),
		0, 0, instance, 0,
	)

	windowsMu.Lock()
	creating = nil
	if hwnd != 0 {
		byHandle[hwnd] = w
	}
	windowsMu.Unlock()

	if hwnd == 0 {
		return fmt.Errorf("window: CreateWindowExW: %w", callErr)
	}
	w.hwnd = hwnd
	overlay.Logger().Debug("window: HWND created", "hwnd", hwnd)
	return nil
}

func (w *win32Window) AllocSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}

	screen, _, _ := procGetDC.Call(0)
	if screen == 0 {
		return nil, errors.New("window: GetDC failed")
	}
	memDC, _, err := procCreateCompatibleDC.Call(screen)
	procReleaseDC.Call(0, screen)
	if memDC == 0 {
		return nil, fmt.Errorf("window: CreateCompatibleDC: %w", err)
	}

	bmi := bitmapInfo{Header: bitmapInfoHeader{
		Width:       int32(width),
		Height:      -int32(height), // top-down
		Planes:      1,
		BitCount:    32,
		Compression: biRGB,
		SizeImage:   uint32(width * height * 4),
	}}
	bmi.Header.Size = uint32(unsafe.Sizeof(bmi.Header))

	var bits unsafe.Pointer
	dib, _, err := procCreateDIBSection.Call(
		memDC,
		uintptr(unsafe.Pointer(&bmi)),
		dibRGBColors,
		uintptr(unsafe.Pointer(&bits)),
		0, 0,
	)
	if dib == 0 || bits == nil {
		procDeleteDC.Call(memDC)
		return nil, fmt.Errorf("window: CreateDIBSection %dx%d: %w", width, height, err)
	}

	sec := &dibSection{memDC: memDC, dib: dib}
	sec.prevBmp, _, _ = procSelectObject.Call(memDC, dib)
	s := &Surface{
		Pixels: unsafe.Slice((*byte)(bits), width*height*4),
		Width:  width,
		Height: height,
	}
	clear(s.Pixels)
	if w.surfaces == nil {
		w.surfaces = make(map[*Surface]*dibSection)
	}
	w.surfaces[s] = sec
	return s, nil
}

func (w *win32Window) SelectSurface(s *Surface) { w.selected = s }

func (w *win32Window) FreeSurface(s *Surface) {
	sec, ok := w.surfaces[s]
	if !ok {
		return
	}
	delete(w.surfaces, s)
	if w.selected == s {
		w.selected = nil
	}
	sec.release()
	s.Pixels = nil
}

func (w *win32Window) Present(x, y int, alpha uint8) error {
	if w.hwnd == 0 {
		return ErrNotInitialized
	}
	s := w.selected
	sec, ok := w.surfaces[s]
	if !ok {
		return errors.New("window: no surface to present")
	}
	dst := point{int32(x), int32(y)}
	src := point{}
	sz := size{int32(s.Width), int32(s.Height)}
	blend := blendFunction{
		BlendOp:             acSrcOver,
		SourceConstantAlpha: alpha,
		AlphaFormat:         acSrcAlpha,
	}
	r, _, err := procUpdateLayeredWindow.Call(
		w.hwnd,
		0,
		uintptr(unsafe.Pointer(&dst)),
		uintptr(unsafe.Pointer(&sz)),
		sec.memDC,
		uintptr(unsafe.Pointer(&src)),
		0,
		uintptr(unsafe.Pointer(&blend)),
		ulwAlpha,
	)
	if r == 0 {
		return fmt.Errorf("window: UpdateLayeredWindow: %w", err)
	}
	return nil
}

func (w *win32Window) Move(x, y int) error {
	if w.hwnd == 0 {
		return ErrNotInitialized
	}
	r, _, err := procSetWindowPos.Call(w.hwnd, 0, uintptr(x), uintptr(y), 0, 0,
		swpNoSize|swpNoZOrder|swpNoActivate)
	if r == 0 {
		return fmt.Errorf("window: SetWindowPos: %w", err)
	}
	return nil
}

func (w *win32Window) SetTopmost(on bool) error {
	if w.hwnd == 0 {
		return ErrNotInitialized
	}
	after := hwndNoTopmost
	if on {
		after = hwndTopmost
	}
	r, _, err := procSetWindowPos.Call(w.hwnd, after, 0, 0, 0, 0,
		swpNoMove|swpNoSize|swpNoActivate)
	if r == 0 {
		return fmt.Errorf("window: SetWindowPos: %w", err)
	}
	return nil
}

func (w *win32Window) SetVisible(on bool) {
	if w.hwnd == 0 {
		return
	}
	cmd := uintptr(swHide)
	if on {
		cmd = swShowNoActive
	}
	procShowWindow.Call(w.hwnd, cmd)
}

func (w *win32Window) Pump() bool {
	var m msg
	for {
		r, _, _ := procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmRemove)
		if r == 0 {
			break
		}
		if m.Message == wmQuit {
			w.quit = true
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
	return !w.quit
}

func (w *win32Window) ScaleFactor() float64 {
	if w.hwnd == 0 || procGetDpiForWindow.Find() != nil {
		return 1
	}
	dpi, _, _ := procGetDpiForWindow.Call(w.hwnd)
	if dpi == 0 {
		return 1
	}
	return float64(dpi) / defaultDPI
}

func (w *win32Window) Handle() uintptr { return w.hwnd }

func (w *win32Window) Destroy() {
	for s := range w.surfaces {
		w.FreeSurface(s)
	}
	if w.hwnd == 0 {
		return
	}
	windowsMu.Lock()
	delete(byHandle, w.hwnd)
	windowsMu.Unlock()
	procDestroyWindow.Call(w.hwnd)
	w.hwnd = 0
}

func lookup(hwnd uintptr) *win32Window {
	windowsMu.Lock()
	defer windowsMu.Unlock()
	if w, ok := byHandle[hwnd]; ok {
		return w
	}
	if creating != nil {
		byHandle[hwnd] = creating
		return creating
	}
	return nil
}

func wndProc(hwnd, message, wParam, lParam uintptr) uintptr {
	w := lookup(hwnd)
	if w == nil {
		r, _, _ := procDefWindowProcW.Call(hwnd, message, wParam, lParam)
		return r
	}

	switch message {
	case wmNCHitTest:
		p := point{X: int32(int16(lParam & 0xffff)), Y: int32(int16((lParam >> 16) & 0xffff))}
		procScreenToClient.Call(hwnd, uintptr(unsafe.Pointer(&p)))
		if w.cb.HitTest != nil && w.cb.HitTest(int(p.X), int(p.Y)) {
			return htTransparent
		}
		return htClient

	case wmLButtonDown, wmRButtonDown, wmMButtonDown,
		wmLButtonUp, wmRButtonUp, wmMButtonUp, wmMouseMove:
		if w.cb.Pointer != nil {
			w.cb.Pointer(w.pointerEvent(uint32(message), wParam, lParam))
		}
		return 0

	case wmClose:
		overlay.Logger().Info("window: close requested")
		if w.cb.Close != nil {
			w.cb.Close()
		}
		// The owner decides when to destroy.
		return 0

	case wmDestroy:
		return 0

	case wmDisplayChange:
		overlay.Logger().Info("window: display configuration changed")
		return 0
	}

	r, _, _ := procDefWindowProcW.Call(hwnd, message, wParam, lParam)
	return r
}

func (w *win32Window) pointerEvent(message uint32, wParam, lParam uintptr) Event {
	cx := int32(int16(lParam & 0xffff))
	cy := int32(int16((lParam >> 16) & 0xffff))

	ev := gpucontext.PointerEvent{
		PointerID:   1,
		X:           float64(cx),
		Y:           float64(cy),
		Button:      gpucontext.ButtonNone,
		PointerType: gpucontext.PointerTypeMouse,
		IsPrimary:   true,
		Width:       1,
		Height:      1,
	}
	switch message {
	case wmLButtonDown, wmRButtonDown, wmMButtonDown:
		ev.Type = gpucontext.PointerDown
	case wmLButtonUp, wmRButtonUp, wmMButtonUp:
		ev.Type = gpucontext.PointerUp
	default:
		ev.Type = gpucontext.PointerMove
	}
	switch message {
	case wmLButtonDown, wmLButtonUp:
		ev.Button = gpucontext.ButtonLeft
	case wmRButtonDown, wmRButtonUp:
		ev.Button = gpucontext.ButtonRight
	case wmMButtonDown, wmMButtonUp:
		ev.Button = gpucontext.ButtonMiddle
	}
	if wParam&mkLButton != 0 {
		ev.Buttons |= gpucontext.ButtonsLeft
	}
	if wParam&mkRButton != 0 {
		ev.Buttons |= gpucontext.ButtonsRight
	}
	if wParam&mkMButton != 0 {
		ev.Buttons |= gpucontext.ButtonsMiddle
	}

	sp := point{cx, cy}
	clientToScreen(w.hwnd, &sp)
	return Event{PointerEvent: ev, ScreenX: float64(sp.X), ScreenY: float64(sp.Y)}
}

func clientToScreen(hwnd uintptr, p *point) {
	procClientToScreen.Call(hwnd, uintptr(unsafe.Pointer(p)))
}
