package core

// GetTime returns the system time in milliseconds
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the system time (tests, or a target without a running clock)
func SetTime(ms uint32) {
	setSystemTicks(ms)
}

// ProcessTimers runs the timers that are due. Target main loops call it.
func ProcessTimers() {
	currentTime = GetTime()
	TimerDispatch()
}
