package tracing

import (
	"github.com/sarchlab/vmsim/datarecording"
	"github.com/sarchlab/vmsim/sim"
	"github.com/sarchlab/vmsim/simulation"
)

// accessEntry represents one processed memory access in the database.
type accessEntry struct {
	Time        int64
	PID         uint32
	Page        uint64
	Offset      uint64
	PageFault   bool
	EvictedPage int64
	Frame       int64
	RSS         int64
}

// A DBTracer is a hook that streams every access record into a data
// recorder.
type DBTracer struct {
	dataRecorder datarecording.DataRecorder
}

// NewDBTracer creates a DBTracer and its backing table.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{dataRecorder: dataRecorder}

	t.dataRecorder.CreateTable("memory_accesses", accessEntry{})

	return t
}

// Func records one access. It implements sim.Hook.
func (t *DBTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != simulation.HookPosAccessDone {
		return
	}

	r := ctx.Item.(simulation.AccessRecord)

	t.dataRecorder.InsertData("memory_accesses", accessEntry{
		Time:        int64(r.Time),
		PID:         uint32(r.Address.PID),
		Page:        r.Address.Page,
		Offset:      r.Address.Offset,
		PageFault:   r.PageFault,
		EvictedPage: int64(r.EvictedPage),
		Frame:       int64(r.Physical.Frame),
		RSS:         int64(r.RSS),
	})
}
