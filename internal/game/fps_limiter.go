package game

import (
	"runtime"
	"time"
)

const (
	// Frame cap used while the window is minimised.
	idleFPSLimit = 30
	// The last stretch before a deadline is spun instead of slept, since
	// sleeps overshoot by about this much.
	spinWindow = 200 * time.Microsecond
)

// FPSLimiter paces the frame loop to a cap read every frame, so a changed
// setting applies from the next frame on.
type FPSLimiter struct {
	limit   func() int // frames per second, <= 0 uncapped
	idleCap int

	now   func() time.Time
	sleep func(time.Duration)

	deadline time.Time
}

func NewFPSLimiter(limit func() int) *FPSLimiter {
	return &FPSLimiter{
		limit:   limit,
		idleCap: idleFPSLimit,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// budget is the frame time for the current cap, 0 when uncapped.
func (f *FPSLimiter) budget(idle bool) time.Duration {
	limit := f.limit()
	if idle && (limit <= 0 || limit > f.idleCap) {
		limit = f.idleCap
	}
	if limit <= 0 {
		return 0
	}
	return time.Second / time.Duration(limit)
}

// Wait blocks until the current frame's deadline and returns how long it
// waited. Deadlines advance by one budget per frame, so a slightly late
// frame is made up by a shorter wait; a frame more than a whole budget
// late restarts the schedule instead of rushing the frames after it.
func (f *FPSLimiter) Wait(idle bool) time.Duration {
	budget := f.budget(idle)
	if budget == 0 {
		f.deadline = time.Time{}
		return 0
	}

	start := f.now()
	if f.deadline.IsZero() || start.Sub(f.deadline) > budget {
		f.deadline = start.Add(budget)
	} else {
		f.deadline = f.deadline.Add(budget)
	}

	for {
		remaining := f.deadline.Sub(f.now())
		if remaining <= 0 {
			break
		}
		if remaining > spinWindow {
			f.sleep(remaining - spinWindow)
		} else {
			runtime.Gosched()
		}
	}
	return f.now().Sub(start)
}
