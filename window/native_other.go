//go:build !windows

package window

// Layered windows are a Win32 feature; elsewhere the window runs headless.
func newPlatformNative() Native { return NewHeadless() }
