package simulation

import (
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/ecibridge/blocks"
	"github.com/sarchlab/ecibridge/bustype"
	"github.com/sarchlab/ecibridge/datarecording"
	"github.com/sarchlab/ecibridge/monitoring"
	"github.com/sarchlab/ecibridge/reporting"
	"github.com/sarchlab/ecibridge/slot"
)

// Builder can be used to build a simulation.
type Builder struct {
	logger       *logrus.Logger
	slots        *slot.Registry
	types        bustype.Resolver
	reporter     reporting.Reporter
	dataRecorder datarecording.DataRecorder

	monitorOn       bool
	monitorPort     int
	monitorStepping bool
}

// MakeBuilder creates a new builder. By default, events go to the standard
// logrus logger, bus types are only the builtin scalars, and there is no
// recording and no monitoring.
func MakeBuilder() Builder {
	return Builder{}
}

// WithLogger sets the logger of the simulation and of the default reporter.
func (b Builder) WithLogger(logger *logrus.Logger) Builder {
	b.logger = logger
	return b
}

// WithSlotRegistry sets the registry that owns block storage.
func (b Builder) WithSlotRegistry(reg *slot.Registry) Builder {
	b.slots = reg
	return b
}

// WithBusTypes sets the bus type resolver.
func (b Builder) WithBusTypes(types bustype.Resolver) Builder {
	b.types = types
	return b
}

// WithReporter sets where event blocks report to.
func (b Builder) WithReporter(r reporting.Reporter) Builder {
	b.reporter = r
	return b
}

// WithDataRecorder records event reports into the recorder, in addition to
// the reporter. The simulation closes the recorder when it terminates.
func (b Builder) WithDataRecorder(rec datarecording.DataRecorder) Builder {
	b.dataRecorder = rec
	return b
}

// WithMonitor turns on the monitoring server.
func (b Builder) WithMonitor() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithMonitorStepping lets monitor clients run steps.
func (b Builder) WithMonitorStepping() Builder {
	b.monitorStepping = true
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && (b.monitorPort != 0 || b.monitorStepping) {
		panic("monitor options cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:             xid.New().String(),
		logger:         b.logger,
		slots:          b.slots,
		types:          b.types,
		reporter:       b.reporter,
		dataRecorder:   b.dataRecorder,
		blockNameIndex: make(map[string]int),
		state:          blocks.Unconfigured,
	}

	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}

	if s.slots == nil {
		s.slots = slot.NewRegistry()
	}

	if s.types == nil {
		s.types = bustype.NewRegistry()
	}

	if s.reporter == nil {
		s.reporter = reporting.NewLogReporter(s.logger)
	}

	if s.dataRecorder != nil {
		s.reporter = reporting.Multi{
			s.reporter,
			reporting.NewRecordingReporter(s.dataRecorder),
		}
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}

		if b.monitorStepping {
			s.monitor.WithStepping()
		}

		s.monitor.RegisterTarget(s)
		s.monitor.StartServer()
	}

	return s
}
