// Package simulation drives the replay of a virtual-address trace against a
// fixed pool of physical frames, resolving every access to a hit or a page
// fault and evicting under the configured strategy when a process exhausts
// its frame quota.
package simulation

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/sarchlab/vmsim/sim"
	"github.com/sarchlab/vmsim/trace"
	"github.com/sarchlab/vmsim/vm"
)

// A Frame records which (process, page) pair currently owns a physical
// frame. A frame is either free, sitting in the global free pool, or owned
// by exactly one pair.
type Frame struct {
	PID   vm.PID
	Page  uint64
	Owned bool
}

// A Simulation owns all the state of one replay: the processes, the physical
// frame pool, the logical clock (through the engine) and the fault counters.
// All mutation happens on the goroutine that calls Run; the atomic progress
// counters exist only so that a monitor can read them from the side.
type Simulation struct {
	sim.HookableBase

	id     string
	engine sim.Engine

	strategy            Strategy
	totalFrames         int
	maxFramesPerProcess int
	log2PageSize        uint64
	verbose             bool

	processes map[vm.PID]*vm.Process
	accesses  []vm.VirtualAddress

	frames     []Frame
	freeFrames []int

	numAccessesDone uint64
	numPageFaults   uint64
	numFreeFrames   uint64
}

// HookPosAccessDone is the hook position triggered after every processed
// access, with an AccessRecord as the item.
var HookPosAccessDone = &sim.HookPos{Name: "AccessDone"}

// An AccessRecord describes the outcome of one processed access. It is what
// tracers and recorders see.
type AccessRecord struct {
	Time        sim.VTime
	Address     vm.VirtualAddress
	PageFault   bool
	EvictedPage int
	Physical    vm.PhysicalAddress
	RSS         int
}

type accessEvent struct {
	sim.EventBase
	addr vm.VirtualAddress
}

// ID returns the unique ID of this run.
func (s *Simulation) ID() string {
	return s.id
}

// Engine returns the engine that drives the replay.
func (s *Simulation) Engine() sim.Engine {
	return s.engine
}

// Strategy returns the configured replacement strategy.
func (s *Simulation) Strategy() Strategy {
	return s.strategy
}

// Load populates the simulation from a parsed simulation file, creating the
// processes and splitting every trace entry into page number and offset. Any
// malformed address or unknown PID fails the load before anything is
// replayed.
func (s *Simulation) Load(f *trace.SimulationFile) error {
	for _, pid := range f.PIDs {
		if _, ok := s.processes[pid]; ok {
			return fmt.Errorf("duplicate process with PID %d", pid)
		}
		s.processes[pid] = vm.NewProcess(pid, f.PageSizes[pid])
	}

	for _, access := range f.Accesses {
		if _, ok := s.processes[access.PID]; !ok {
			return fmt.Errorf(
				"trace references unknown PID %d", access.PID)
		}

		addr, err := vm.ParseVirtualAddress(
			access.PID, access.Address, s.log2PageSize)
		if err != nil {
			return err
		}

		s.accesses = append(s.accesses, addr)
	}

	return nil
}

// Run replays the whole trace, one access per tick. It returns nil on normal
// completion, or the fatal condition that aborted the replay: an
// invalid-page or invalid-offset segfault, or frame pool exhaustion.
func (s *Simulation) Run() error {
	for i, addr := range s.accesses {
		s.engine.Schedule(accessEvent{
			EventBase: sim.NewEventBase(sim.VTime(i), s),
			addr:      addr,
		})
	}

	return s.engine.Run()
}

// Handle processes one access event. It implements sim.Handler.
func (s *Simulation) Handle(e sim.Event) error {
	evt := e.(accessEvent)
	return s.performMemoryAccess(evt.addr)
}

func (s *Simulation) performMemoryAccess(addr vm.VirtualAddress) error {
	proc := s.processes[addr.PID]
	proc.MemoryAccesses++

	if !proc.IsValidPage(addr.Page) {
		return vm.InvalidPageError{PID: addr.PID, Page: addr.Page}
	}

	now := s.engine.CurrentTime()
	record := AccessRecord{
		Time:        now,
		Address:     addr,
		EvictedPage: vm.InvalidPage,
	}

	row := &proc.Table.Rows[addr.Page]
	if row.Present {
		row.LastAccessedAt = now
	} else {
		record.PageFault = true
		evicted, err := s.handlePageFault(proc, addr.Page, now)
		if err != nil {
			return err
		}
		record.EvictedPage = evicted
	}

	if s.verbose && !proc.IsValidOffset(addr.Page, addr.Offset) {
		return vm.InvalidOffsetError{
			PID:    addr.PID,
			Page:   addr.Page,
			Offset: addr.Offset,
		}
	}

	record.Physical = vm.PhysicalAddress{
		Frame:  proc.Table.Rows[addr.Page].Frame,
		Offset: addr.Offset,
	}
	record.RSS = proc.RSS()

	atomic.AddUint64(&s.numAccessesDone, 1)

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosAccessDone,
		Item:   record,
	})

	return nil
}

// handlePageFault brings the faulting page into a frame. Below quota, the
// frame that has been free the longest is taken from the global pool. At
// quota, the strategy picks a victim and its frame is recycled within the
// process; the global pool is never touched on that path, so fault counts
// stay comparable with the reference behavior.
func (s *Simulation) handlePageFault(
	proc *vm.Process,
	page uint64,
	now sim.VTime,
) (evicted int, err error) {
	atomic.AddUint64(&s.numPageFaults, 1)
	proc.PageFaults++

	if proc.RSS() < s.maxFramesPerProcess {
		if len(s.freeFrames) == 0 {
			return vm.InvalidPage, fmt.Errorf(
				"out of physical frames: "+
					"process %d faulted with the free pool empty",
				proc.ID)
		}

		frame := s.freeFrames[0]
		s.freeFrames = s.freeFrames[1:]
		atomic.AddUint64(&s.numFreeFrames, ^uint64(0))

		s.loadPage(proc, page, frame, now)

		return vm.InvalidPage, nil
	}

	victim := vm.InvalidPage
	switch s.strategy {
	case StrategyFIFO:
		victim = proc.Table.OldestLoadedPage()
	case StrategyLRU:
		victim = proc.Table.LeastRecentlyUsedPage()
	}

	if victim == vm.InvalidPage {
		panic("no resident page to evict")
	}

	victimRow := &proc.Table.Rows[victim]
	victimRow.Present = false

	s.loadPage(proc, page, victimRow.Frame, now)

	return victim, nil
}

func (s *Simulation) loadPage(
	proc *vm.Process,
	page uint64,
	frame int,
	now sim.VTime,
) {
	s.frames[frame] = Frame{PID: proc.ID, Page: page, Owned: true}

	row := &proc.Table.Rows[page]
	row.Frame = frame
	row.Present = true
	row.LoadedAt = now
	row.LastAccessedAt = now
}

// Process returns the process with the given PID, nil when unknown.
func (s *Simulation) Process(pid vm.PID) *vm.Process {
	return s.processes[pid]
}

// Processes returns all processes in ascending PID order.
func (s *Simulation) Processes() []*vm.Process {
	procs := make([]*vm.Process, 0, len(s.processes))
	for _, proc := range s.processes {
		procs = append(procs, proc)
	}

	sort.Slice(procs, func(i, j int) bool {
		return procs[i].ID < procs[j].ID
	})

	return procs
}

// Accesses returns the parsed trace in replay order.
func (s *Simulation) Accesses() []vm.VirtualAddress {
	return s.accesses
}

// FreeFrameCount returns the number of frames in the global free pool.
func (s *Simulation) FreeFrameCount() int {
	return len(s.freeFrames)
}

// Frames returns the ownership table of all physical frames.
func (s *Simulation) Frames() []Frame {
	return s.frames
}
