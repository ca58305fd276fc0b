//go:build tinygo

package core

import (
	"sync/atomic"
	"time"
)

var (
	bootTime   = time.Now()
	tickOffset atomic.Uint32
)

// getSystemTicks derives milliseconds from the runtime's monotonic clock
func getSystemTicks() uint32 {
	return uint32(time.Since(bootTime)/time.Millisecond) + tickOffset.Load()
}

func setSystemTicks(ms uint32) {
	now := uint32(time.Since(bootTime) / time.Millisecond)
	tickOffset.Store(ms - now)
}
