package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"tivago/board"
)

func TestTimerDispatchOrder(t *testing.T) {
	newTestChip(t, board.EKTM4C123GXL)
	var fired []uint32
	handler := func(tm *Timer) uint8 {
		fired = append(fired, tm.WakeTime)
		return SF_DONE
	}
	timers := []*Timer{
		{WakeTime: 30, Handler: handler},
		{WakeTime: 10, Handler: handler},
		{WakeTime: 20, Handler: handler},
	}
	for _, tm := range timers {
		ScheduleTimer(tm)
	}

	SetTime(25)
	ProcessTimers()
	if diff := cmp.Diff([]uint32{10, 20}, fired); diff != "" {
		t.Errorf("Fired timers mismatch (-want +got):\n%s", diff)
	}
	if !Scheduled(timers[0]) {
		t.Error("Timer at 30 should still be pending")
	}

	SetTime(30)
	ProcessTimers()
	if diff := cmp.Diff([]uint32{10, 20, 30}, fired); diff != "" {
		t.Errorf("Fired timers mismatch (-want +got):\n%s", diff)
	}
}

func TestTimerReschedule(t *testing.T) {
	newTestChip(t, board.EKTM4C123GXL)
	count := 0
	tm := &Timer{WakeTime: 5, Handler: func(tm *Timer) uint8 {
		count++
		tm.WakeTime += 5
		return SF_RESCHEDULE
	}}
	ScheduleTimer(tm)

	SetTime(22)
	ProcessTimers()
	if count != 4 {
		t.Errorf("Expected 4 runs by t=22, got %d", count)
	}
	if tm.WakeTime != 25 {
		t.Errorf("Expected next wake at 25, got %d", tm.WakeTime)
	}

	CancelTimer(tm)
	SetTime(100)
	ProcessTimers()
	if count != 4 {
		t.Errorf("Cancelled timer ran, count %d", count)
	}
}

func TestTimerWraparound(t *testing.T) {
	newTestChip(t, board.EKTM4C123GXL)
	var fired []uint32
	handler := func(tm *Timer) uint8 {
		fired = append(fired, tm.WakeTime)
		return SF_DONE
	}
	ScheduleTimer(&Timer{WakeTime: 5, Handler: handler})
	ScheduleTimer(&Timer{WakeTime: 0xFFFFFFF0, Handler: handler})

	SetTime(0xFFFFFFF8)
	ProcessTimers()
	if diff := cmp.Diff([]uint32{0xFFFFFFF0}, fired); diff != "" {
		t.Errorf("Fired timers mismatch (-want +got):\n%s", diff)
	}

	SetTime(6)
	ProcessTimers()
	if diff := cmp.Diff([]uint32{0xFFFFFFF0, 5}, fired); diff != "" {
		t.Errorf("Fired timers mismatch (-want +got):\n%s", diff)
	}
}
