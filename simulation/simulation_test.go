package simulation_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmsim/sim"
	"github.com/sarchlab/vmsim/simulation"
	"github.com/sarchlab/vmsim/trace"
	"github.com/sarchlab/vmsim/vm"
)

// access encodes one trace entry for a 10-bit page offset.
func access(pid vm.PID, page, offset uint64) trace.Access {
	return trace.Access{
		PID:     pid,
		Address: fmt.Sprintf("%04x", page<<10|offset),
	}
}

// singleProcessFile builds a single-process simulation file with the given
// page sizes and access sequence.
func singleProcessFile(
	pageSizes []uint64,
	accesses ...trace.Access,
) *trace.SimulationFile {
	return &trace.SimulationFile{
		PageSizes: map[vm.PID][]uint64{0: pageSizes},
		PIDs:      []vm.PID{0},
		Accesses:  accesses,
	}
}

func pages(n int) []uint64 {
	sizes := make([]uint64, n)
	for i := range sizes {
		sizes[i] = 1024
	}
	return sizes
}

type recordingHook struct {
	records []simulation.AccessRecord
}

func (h *recordingHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != simulation.HookPosAccessDone {
		return
	}
	h.records = append(h.records, ctx.Item.(simulation.AccessRecord))
}

var _ = Describe("Simulation", func() {
	It("should evict the first-loaded page under FIFO", func() {
		s := simulation.MakeBuilder().
			WithStrategy(simulation.StrategyFIFO).
			WithMaxFramesPerProcess(2).
			Build()

		file := singleProcessFile(pages(3),
			access(0, 0, 0), access(0, 1, 0), access(0, 2, 0))
		Expect(s.Load(file)).To(Succeed())
		Expect(s.Run()).To(Succeed())

		proc := s.Process(0)
		Expect(proc.Table.Rows[0].Present).To(BeFalse())
		Expect(proc.Table.Rows[1].Present).To(BeTrue())
		Expect(proc.Table.Rows[2].Present).To(BeTrue())
		Expect(proc.PageFaults).To(Equal(uint64(3)))
	})

	It("should not refresh LoadedAt on a hit", func() {
		s := simulation.MakeBuilder().
			WithStrategy(simulation.StrategyFIFO).
			WithMaxFramesPerProcess(2).
			Build()

		// Page 0 is re-accessed, but FIFO still evicts it: re-access
		// never changes LoadedAt.
		file := singleProcessFile(pages(3),
			access(0, 0, 0), access(0, 1, 0),
			access(0, 0, 0), access(0, 2, 0))
		Expect(s.Load(file)).To(Succeed())
		Expect(s.Run()).To(Succeed())

		proc := s.Process(0)
		Expect(proc.Table.Rows[0].Present).To(BeFalse())
		Expect(proc.Table.Rows[1].Present).To(BeTrue())
		Expect(proc.Table.Rows[2].Present).To(BeTrue())
	})

	It("should evict the least recently used page under LRU", func() {
		s := simulation.MakeBuilder().
			WithStrategy(simulation.StrategyLRU).
			WithMaxFramesPerProcess(2).
			Build()

		// Touching page 0 again makes page 1 the LRU victim.
		file := singleProcessFile(pages(3),
			access(0, 0, 0), access(0, 1, 0),
			access(0, 0, 0), access(0, 2, 0))
		Expect(s.Load(file)).To(Succeed())
		Expect(s.Run()).To(Succeed())

		proc := s.Process(0)
		Expect(proc.Table.Rows[0].Present).To(BeTrue())
		Expect(proc.Table.Rows[1].Present).To(BeFalse())
		Expect(proc.Table.Rows[2].Present).To(BeTrue())
	})

	It("should advance LastAccessedAt to the clock on a hit", func() {
		s := simulation.MakeBuilder().Build()

		file := singleProcessFile(pages(2),
			access(0, 0, 0), access(0, 1, 0), access(0, 0, 0))
		Expect(s.Load(file)).To(Succeed())
		Expect(s.Run()).To(Succeed())

		proc := s.Process(0)
		Expect(proc.Table.Rows[0].LoadedAt).To(Equal(sim.VTime(0)))
		Expect(proc.Table.Rows[0].LastAccessedAt).To(Equal(sim.VTime(2)))
		Expect(proc.Table.Rows[1].LastAccessedAt).To(Equal(sim.VTime(1)))
	})

	It("should abort on an invalid page and stop the replay", func() {
		s := simulation.MakeBuilder().Build()

		file := singleProcessFile(pages(2),
			access(0, 5, 0), access(0, 0, 0))
		Expect(s.Load(file)).To(Succeed())

		err := s.Run()
		Expect(err).To(MatchError(
			vm.InvalidPageError{PID: 0, Page: 5}))

		// The faulting access is counted, the one after it is never
		// processed.
		Expect(s.Process(0).MemoryAccesses).To(Equal(uint64(1)))
	})

	It("should abort on an invalid offset only in verbose mode", func() {
		file := singleProcessFile([]uint64{50},
			access(0, 0, 49), access(0, 0, 60))

		quiet := simulation.MakeBuilder().Build()
		Expect(quiet.Load(file)).To(Succeed())
		Expect(quiet.Run()).To(Succeed())

		verbose := simulation.MakeBuilder().WithVerbose().Build()
		Expect(verbose.Load(file)).To(Succeed())
		Expect(verbose.Run()).To(MatchError(
			vm.InvalidOffsetError{PID: 0, Page: 0, Offset: 60}))
	})

	It("should never evict when the quota covers all pages", func() {
		s := simulation.MakeBuilder().
			WithTotalFrames(8).
			WithMaxFramesPerProcess(3).
			Build()

		file := singleProcessFile(pages(3),
			access(0, 0, 0), access(0, 1, 0), access(0, 2, 0),
			access(0, 0, 0), access(0, 1, 0), access(0, 2, 0))
		Expect(s.Load(file)).To(Succeed())
		Expect(s.Run()).To(Succeed())

		proc := s.Process(0)
		Expect(proc.PageFaults).To(Equal(uint64(3)))
		Expect(proc.RSS()).To(Equal(3))
		Expect(s.FreeFrameCount()).To(Equal(5))
	})

	It("should hand out the longest-free frame below quota", func() {
		s := simulation.MakeBuilder().
			WithTotalFrames(8).
			WithMaxFramesPerProcess(4).
			Build()

		file := singleProcessFile(pages(3),
			access(0, 0, 0), access(0, 1, 0), access(0, 2, 0))
		Expect(s.Load(file)).To(Succeed())
		Expect(s.Run()).To(Succeed())

		proc := s.Process(0)
		Expect(proc.Table.Rows[0].Frame).To(Equal(0))
		Expect(proc.Table.Rows[1].Frame).To(Equal(1))
		Expect(proc.Table.Rows[2].Frame).To(Equal(2))
	})

	It("should recycle the victim frame inside the process", func() {
		s := simulation.MakeBuilder().
			WithTotalFrames(8).
			WithMaxFramesPerProcess(2).
			Build()

		file := singleProcessFile(pages(3),
			access(0, 0, 0), access(0, 1, 0), access(0, 2, 0))
		Expect(s.Load(file)).To(Succeed())
		Expect(s.Run()).To(Succeed())

		// The victim's frame moves to the faulting page; the global
		// pool is untouched by the eviction.
		proc := s.Process(0)
		Expect(proc.Table.Rows[2].Frame).To(Equal(0))
		Expect(s.FreeFrameCount()).To(Equal(6))
	})

	It("should keep frames + resident pages constant through the replay",
		func() {
			s := simulation.MakeBuilder().
				WithTotalFrames(8).
				WithMaxFramesPerProcess(2).
				Build()

			hook := &invariantHook{s: s, total: 8}
			s.AcceptHook(hook)

			file := &trace.SimulationFile{
				PageSizes: map[vm.PID][]uint64{
					0: pages(3),
					1: pages(2),
				},
				PIDs: []vm.PID{0, 1},
				Accesses: []trace.Access{
					access(0, 0, 0), access(1, 0, 0),
					access(0, 1, 0), access(1, 1, 0),
					access(0, 2, 0), access(1, 0, 0),
				},
			}
			Expect(s.Load(file)).To(Succeed())
			Expect(s.Run()).To(Succeed())
			Expect(hook.checked).To(BeNumerically(">", 0))
		})

	It("should produce identical results on identical input", func() {
		run := func() (simulation.Stats, []simulation.Frame) {
			s := simulation.MakeBuilder().
				WithStrategy(simulation.StrategyLRU).
				WithTotalFrames(8).
				WithMaxFramesPerProcess(2).
				Build()

			file := singleProcessFile(pages(4),
				access(0, 0, 0), access(0, 1, 1),
				access(0, 2, 2), access(0, 0, 3),
				access(0, 3, 4), access(0, 1, 5))
			Expect(s.Load(file)).To(Succeed())
			Expect(s.Run()).To(Succeed())

			return s.Stats(), s.Frames()
		}

		statsA, framesA := run()
		statsB, framesB := run()

		Expect(statsA).To(Equal(statsB))
		Expect(framesA).To(Equal(framesB))
	})

	It("should report stats within bounds", func() {
		s := simulation.MakeBuilder().
			WithMaxFramesPerProcess(2).
			Build()

		file := singleProcessFile(pages(3),
			access(0, 0, 0), access(0, 1, 0), access(0, 0, 0),
			access(0, 2, 0), access(0, 2, 0))
		Expect(s.Load(file)).To(Succeed())
		Expect(s.Run()).To(Succeed())

		stats := s.Stats()
		Expect(stats.TotalAccesses).To(Equal(uint64(5)))
		Expect(stats.Processes).To(HaveLen(1))

		p := stats.Processes[0]
		Expect(p.Faults).To(BeNumerically("<=", p.Accesses))
		Expect(p.FaultPercent).To(BeNumerically(">=", 0))
		Expect(p.FaultPercent).To(BeNumerically("<=", 100))
		Expect(p.FaultPercent).To(BeNumerically("~", 60.0, 1e-9))
	})

	It("should describe each access through the hook", func() {
		s := simulation.MakeBuilder().
			WithMaxFramesPerProcess(2).
			Build()

		hook := &recordingHook{}
		s.AcceptHook(hook)

		file := singleProcessFile(pages(3),
			access(0, 0, 7), access(0, 0, 8), access(0, 1, 0),
			access(0, 2, 0))
		Expect(s.Load(file)).To(Succeed())
		Expect(s.Run()).To(Succeed())

		Expect(hook.records).To(HaveLen(4))

		Expect(hook.records[0].PageFault).To(BeTrue())
		Expect(hook.records[0].EvictedPage).To(Equal(vm.InvalidPage))

		Expect(hook.records[1].PageFault).To(BeFalse())
		Expect(hook.records[1].Physical.Offset).To(Equal(uint64(8)))
		Expect(hook.records[1].RSS).To(Equal(1))

		Expect(hook.records[3].PageFault).To(BeTrue())
		Expect(hook.records[3].EvictedPage).To(Equal(0))
	})

	It("should fail the load on an unknown PID in the trace", func() {
		s := simulation.MakeBuilder().Build()

		file := singleProcessFile(pages(1), access(7, 0, 0))

		Expect(s.Load(file)).To(
			MatchError(ContainSubstring("unknown PID 7")))
	})

	It("should fail the load on a malformed address", func() {
		s := simulation.MakeBuilder().Build()

		file := singleProcessFile(pages(1),
			trace.Access{PID: 0, Address: "not-hex"})

		Expect(s.Load(file)).To(HaveOccurred())
	})

	It("should panic on a non-positive quota", func() {
		Expect(func() {
			simulation.MakeBuilder().
				WithMaxFramesPerProcess(0).
				Build()
		}).To(Panic())
	})
})

// invariantHook checks frame conservation after every access: pool frames
// plus resident pages always cover the whole physical memory.
type invariantHook struct {
	s       *simulation.Simulation
	total   int
	checked int
}

func (h *invariantHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != simulation.HookPosAccessDone {
		return
	}

	resident := 0
	for _, proc := range h.s.Processes() {
		resident += proc.RSS()
	}

	Expect(h.s.FreeFrameCount() + resident).To(Equal(h.total))
	h.checked++
}
