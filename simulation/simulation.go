// Package simulation drives a model: it configures and starts the blocks in
// model order, steps them, and tears them down.
package simulation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/ecibridge/blocks"
	"github.com/sarchlab/ecibridge/bustype"
	"github.com/sarchlab/ecibridge/datarecording"
	"github.com/sarchlab/ecibridge/eci"
	"github.com/sarchlab/ecibridge/hooking"
	"github.com/sarchlab/ecibridge/monitoring"
	"github.com/sarchlab/ecibridge/reporting"
	"github.com/sarchlab/ecibridge/slot"
)

// HookPosBeforeStep marks the start of a step, before any block runs.
var HookPosBeforeStep = &hooking.HookPos{Name: "Before Step"}

// HookPosAfterStep marks the end of a step, after every block ran.
var HookPosAfterStep = &hooking.HookPos{Name: "After Step"}

// A Simulation owns the blocks of a model and the services they share.
type Simulation struct {
	hooking.HookableBase

	id       string
	logger   *logrus.Logger
	slots    *slot.Registry
	types    bustype.Resolver
	reporter reporting.Reporter

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor

	blocks         []blocks.Block
	blockNameIndex map[string]int

	state blocks.State
	step  atomic.Uint64

	stepLock     sync.Mutex
	pauseLock    sync.Mutex
	isPaused     bool
	isPausedLock sync.Mutex
}

// ID returns the unique ID of the run.
func (s *Simulation) ID() string {
	return s.id
}

// Slots returns the slot registry of the model.
func (s *Simulation) Slots() *slot.Registry {
	return s.slots
}

// BusTypes returns the bus type resolver of the model.
func (s *Simulation) BusTypes() bustype.Resolver {
	return s.types
}

// Reporter returns the reporter event blocks report to by default.
func (s *Simulation) Reporter() reporting.Reporter {
	return s.reporter
}

// GetDataRecorder returns the data recorder, or nil if the run is not
// recorded.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor, or nil if monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// State returns the lifecycle state of the model as a whole.
func (s *Simulation) State() blocks.State {
	return s.state
}

// AddBlock appends a block to the model. Blocks run in the order they are
// added.
func (s *Simulation) AddBlock(b blocks.Block) {
	if s.state != blocks.Unconfigured {
		log.Panicf("cannot add block %s to a %s simulation",
			b.Name(), s.state)
	}

	name := b.Name()
	if _, found := s.blockNameIndex[name]; found {
		panic("block " + name + " already registered")
	}

	s.blocks = append(s.blocks, b)
	s.blockNameIndex[name] = len(s.blocks) - 1
}

// Blocks returns the blocks in model order.
func (s *Simulation) Blocks() []blocks.Block {
	return s.blocks
}

// GetBlockByName returns the block with the given name.
func (s *Simulation) GetBlockByName(name string) (blocks.Block, bool) {
	i, found := s.blockNameIndex[name]
	if !found {
		return nil, false
	}

	return s.blocks[i], true
}

// Configure validates every block. If any block fails, every block is
// terminated and the error is returned; the model cannot be used any more.
func (s *Simulation) Configure() error {
	s.mustBeIn("configure", blocks.Unconfigured)

	for _, b := range s.blocks {
		s.logger.WithField("block", b.Name()).Debug("configuring")

		err := b.Configure()
		if err != nil {
			s.logger.WithError(err).Error("configuration failed")
			s.Terminate()

			return err
		}
	}

	s.state = blocks.Configured

	return nil
}

// Start allocates and publishes the storage of every block. If any block
// fails, every block is terminated and the error is returned.
func (s *Simulation) Start() error {
	s.mustBeIn("start", blocks.Configured)

	env := blocks.StartEnv{
		Slots:    s.slots,
		Types:    s.types,
		Reporter: s.reporter,
		Clock:    s,
	}

	for _, b := range s.blocks {
		s.logger.WithField("block", b.Name()).Debug("starting")

		err := b.Start(env)
		if err != nil {
			s.logger.WithError(err).Error("start failed")
			s.Terminate()

			return err
		}
	}

	s.state = blocks.Started

	s.logger.WithFields(logrus.Fields{
		"blocks":    len(s.blocks),
		"published": len(s.slots.Published()),
	}).Info("simulation started")

	return nil
}

// CurrentStep returns the number of the step being run, or of the last step
// run. Steps are numbered from 1.
func (s *Simulation) CurrentStep() uint64 {
	return s.step.Load()
}

// Step runs every block once, in model order.
func (s *Simulation) Step() {
	s.mustBeIn("step", blocks.Started, blocks.Running)

	s.pauseLock.Lock()
	defer s.pauseLock.Unlock()

	s.stepLock.Lock()
	defer s.stepLock.Unlock()

	s.state = blocks.Running

	ctx := hooking.HookCtx{
		Domain: s,
		Pos:    HookPosBeforeStep,
		Step:   s.step.Add(1),
	}
	s.InvokeHook(ctx)

	for _, b := range s.blocks {
		b.Step()
	}

	ctx.Pos = HookPosAfterStep
	s.InvokeHook(ctx)
}

// Run steps the model n times. Before each step, the inputs the stimulus
// lists for that step are applied. Run stops early if ctx is done.
func (s *Simulation) Run(ctx context.Context, n uint64, stim Stimulus) error {
	err := stim.Validate(s)
	if err != nil {
		return err
	}

	var bar *monitoring.ProgressBar
	if s.monitor != nil {
		bar = s.monitor.CreateProgressBar("Steps", n)
		defer s.monitor.CompleteProgressBar(bar)
	}

	for i := uint64(0); i < n; i++ {
		err := ctx.Err()
		if err != nil {
			return fmt.Errorf("simulation: stopped after %d steps: %w",
				s.CurrentStep(), err)
		}

		s.BetweenSteps(func() {
			err = stim.apply(s, s.CurrentStep()+1)
		})
		if err != nil {
			return err
		}

		s.Step()

		if bar != nil {
			bar.IncrementFinished(1)
		}
	}

	return nil
}

// BetweenSteps runs fn while no step is running. Observers outside the step
// loop reach block storage only through it.
func (s *Simulation) BetweenSteps(fn func()) {
	s.stepLock.Lock()
	defer s.stepLock.Unlock()

	fn()
}

// Pause blocks further steps until Continue is called.
func (s *Simulation) Pause() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if s.isPaused {
		return
	}

	s.pauseLock.Lock()
	s.isPaused = true
}

// Continue lets a paused simulation step again.
func (s *Simulation) Continue() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if !s.isPaused {
		return
	}

	s.pauseLock.Unlock()
	s.isPaused = false
}

// IsPaused tells if the simulation is paused.
func (s *Simulation) IsPaused() bool {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	return s.isPaused
}

// ECITable builds the lookup tables of the started model.
func (s *Simulation) ECITable() (*eci.Table, error) {
	var (
		t   *eci.Table
		err error
	)

	s.BetweenSteps(func() {
		t, err = eci.Build(s.blocks)
	})

	return t, err
}

// Terminate releases every block, flushes the recording and stops the
// monitor. Calling it again does nothing.
func (s *Simulation) Terminate() {
	if s.state == blocks.Terminated {
		return
	}

	s.stepLock.Lock()
	for _, b := range s.blocks {
		b.Terminate()
	}
	s.state = blocks.Terminated
	s.stepLock.Unlock()

	if s.monitor != nil {
		err := s.monitor.StopServer(context.Background())
		if err != nil {
			s.logger.WithError(err).Warn("stopping monitor")
		}
	}

	if s.dataRecorder != nil {
		err := s.dataRecorder.Close()
		if err != nil {
			s.logger.WithError(err).Warn("closing recording")
		}
	}

	s.logger.WithField("steps", s.CurrentStep()).Info("simulation terminated")
}

func (s *Simulation) mustBeIn(op string, states ...blocks.State) {
	for _, st := range states {
		if s.state == st {
			return
		}
	}

	log.Panicf("simulation: cannot %s in state %s", op, s.state)
}
