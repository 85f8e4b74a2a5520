package tracing

import (
	"sync"
	"time"

	"github.com/sarchlab/ecibridge/hooking"
	"github.com/sarchlab/ecibridge/simulation"
)

// StepTimeTracer measures the wall time the model spends inside steps.
type StepTimeTracer struct {
	lock      sync.Mutex
	now       func() time.Time
	stepStart time.Time
	inStep    bool
	numSteps  uint64
	total     time.Duration
	longest   time.Duration
}

// NewStepTimeTracer creates a StepTimeTracer.
func NewStepTimeTracer() *StepTimeTracer {
	return &StepTimeTracer{now: time.Now}
}

// Func starts or stops the step timer.
func (t *StepTimeTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case simulation.HookPosBeforeStep:
		t.lock.Lock()
		t.stepStart = t.now()
		t.inStep = true
		t.lock.Unlock()
	case simulation.HookPosAfterStep:
		t.lock.Lock()
		defer t.lock.Unlock()

		if !t.inStep {
			return
		}

		d := t.now().Sub(t.stepStart)
		t.total += d
		t.numSteps++
		t.inStep = false

		if d > t.longest {
			t.longest = d
		}
	}
}

// NumSteps returns the number of completed steps.
func (t *StepTimeTracer) NumSteps() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.numSteps
}

// TotalTime returns the time spent in completed steps.
func (t *StepTimeTracer) TotalTime() time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.total
}

// AverageTime returns the mean step time, or 0 before the first step.
func (t *StepTimeTracer) AverageTime() time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.numSteps == 0 {
		return 0
	}

	return t.total / time.Duration(t.numSteps)
}

// LongestTime returns the longest step seen.
func (t *StepTimeTracer) LongestTime() time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.longest
}
