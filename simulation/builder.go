package simulation

import (
	"github.com/rs/xid"

	"github.com/sarchlab/vmsim/sim"
	"github.com/sarchlab/vmsim/vm"
)

// Builder can be used to build a Simulation.
type Builder struct {
	engine              sim.Engine
	strategy            Strategy
	totalFrames         int
	maxFramesPerProcess int
	log2PageSize        uint64
	verbose             bool
}

// MakeBuilder creates a new Builder with the default configuration: 512
// physical frames, a quota of 10 frames per process, 1KiB pages, FIFO
// replacement.
func MakeBuilder() Builder {
	return Builder{
		strategy:            StrategyFIFO,
		totalFrames:         512,
		maxFramesPerProcess: 10,
		log2PageSize:        10,
	}
}

// WithEngine sets the engine that drives the replay. A SerialEngine is
// created when none is given.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithStrategy sets the replacement strategy.
func (b Builder) WithStrategy(strategy Strategy) Builder {
	b.strategy = strategy
	return b
}

// WithTotalFrames sets the number of physical frames in the simulated
// machine.
func (b Builder) WithTotalFrames(n int) Builder {
	b.totalFrames = n
	return b
}

// WithMaxFramesPerProcess sets the frame quota of each process.
func (b Builder) WithMaxFramesPerProcess(n int) Builder {
	b.maxFramesPerProcess = n
	return b
}

// WithLog2PageSize sets the page-size exponent used to split virtual
// addresses into page number and offset.
func (b Builder) WithLog2PageSize(exp uint64) Builder {
	b.log2PageSize = exp
	return b
}

// WithVerbose enables offset validation and marks the run as traced
// per-access.
func (b Builder) WithVerbose() Builder {
	b.verbose = true
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.totalFrames <= 0 {
		panic("total frame count must be positive")
	}

	if b.maxFramesPerProcess <= 0 {
		panic("per-process frame quota must be positive")
	}

	if b.log2PageSize >= 64 {
		panic("page-size exponent must be smaller than 64")
	}
}

// Build builds the Simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:                  xid.New().String(),
		strategy:            b.strategy,
		totalFrames:         b.totalFrames,
		maxFramesPerProcess: b.maxFramesPerProcess,
		log2PageSize:        b.log2PageSize,
		verbose:             b.verbose,
		processes:           make(map[vm.PID]*vm.Process),
	}

	s.engine = b.engine
	if s.engine == nil {
		s.engine = sim.NewSerialEngine()
	}

	s.frames = make([]Frame, b.totalFrames)
	s.freeFrames = make([]int, 0, b.totalFrames)
	for i := 0; i < b.totalFrames; i++ {
		s.freeFrames = append(s.freeFrames, i)
	}
	s.numFreeFrames = uint64(b.totalFrames)

	return s
}
