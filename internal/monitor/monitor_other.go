//go:build !windows

package monitor

func primary() (Info, bool) { return Info{}, false }

func all() ([]Info, bool) { return nil, false }
