package simulation

import (
	"sync/atomic"

	"github.com/sarchlab/vmsim/vm"
)

// ProcessStats is the per-process slice of the final report.
type ProcessStats struct {
	PID          vm.PID
	Accesses     uint64
	Faults       uint64
	FaultPercent float64
	RSS          int
}

// Stats is the material of the final report: one entry per process, PIDs
// ascending, plus the aggregate counters.
type Stats struct {
	Processes     []ProcessStats
	TotalAccesses uint64
	TotalFaults   uint64
	FreeFrames    int
}

// Stats collects the statistics of the run so far.
func (s *Simulation) Stats() Stats {
	stats := Stats{
		TotalAccesses: uint64(len(s.accesses)),
		TotalFaults:   atomic.LoadUint64(&s.numPageFaults),
		FreeFrames:    len(s.freeFrames),
	}

	for _, proc := range s.Processes() {
		stats.Processes = append(stats.Processes, ProcessStats{
			PID:          proc.ID,
			Accesses:     proc.MemoryAccesses,
			Faults:       proc.PageFaults,
			FaultPercent: proc.FaultPercent(),
			RSS:          proc.RSS(),
		})
	}

	return stats
}

// Progress is a point-in-time snapshot of a running replay. It is safe to
// read from another goroutine while Run is in flight.
type Progress struct {
	TotalAccesses uint64 `json:"total_accesses"`
	AccessesDone  uint64 `json:"accesses_done"`
	PageFaults    uint64 `json:"page_faults"`
	FreeFrames    uint64 `json:"free_frames"`
}

// Progress reports how far the replay has come.
func (s *Simulation) Progress() Progress {
	return Progress{
		TotalAccesses: uint64(len(s.accesses)),
		AccessesDone:  atomic.LoadUint64(&s.numAccessesDone),
		PageFaults:    atomic.LoadUint64(&s.numPageFaults),
		FreeFrames:    atomic.LoadUint64(&s.numFreeFrames),
	}
}
