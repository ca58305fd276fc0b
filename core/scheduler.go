package core

// Timer is a scheduled callback. WakeTime is in milliseconds of GetTime.
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

// Handler results
const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var (
	timerList   *Timer
	currentTime uint32
)

// before compares wake times across counter wraparound
func before(a, b uint32) bool {
	return int32(a-b) < 0
}

// ScheduleTimer adds a timer to the schedule
func ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	insertTimer(t)
}

// CancelTimer removes t if it is scheduled
func CancelTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	for p := &timerList; *p != nil; p = &(*p).Next {
		if *p == t {
			*p = t.Next
			t.Next = nil
			return
		}
	}
}

// Scheduled reports whether t is in the timer list
func Scheduled(t *Timer) bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	for c := timerList; c != nil; c = c.Next {
		if c == t {
			return true
		}
	}
	return false
}

// insertTimer inserts a timer in sorted order by WakeTime
func insertTimer(t *Timer) {
	if timerList == nil || before(t.WakeTime, timerList.WakeTime) {
		t.Next = timerList
		timerList = t
		return
	}

	current := timerList
	for current.Next != nil && !before(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// TimerDispatch runs every timer due at currentTime. Handlers run with
// interrupts enabled; a handler returning SF_RESCHEDULE must have advanced
// its WakeTime.
func TimerDispatch() {
	for {
		state := disableInterrupts()
		if timerList == nil || before(currentTime, timerList.WakeTime) {
			restoreInterrupts(state)
			return
		}
		timer := timerList
		timerList = timer.Next
		timer.Next = nil
		restoreInterrupts(state)

		if timer.Handler(timer) == SF_RESCHEDULE {
			ScheduleTimer(timer)
		}
	}
}

// resetTimers empties the schedule
func resetTimers() {
	state := disableInterrupts()
	timerList = nil
	restoreInterrupts(state)
}
