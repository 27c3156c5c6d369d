package tracing

import (
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/vmsim/sim"
	"github.com/sarchlab/vmsim/simulation"
)

// CSVTraceBackend is a hook that stores every access record into a CSV file.
type CSVTraceBackend struct {
	path string
	file *os.File

	records    []simulation.AccessRecord
	bufferSize int
}

// NewCSVTraceBackend creates a new CSVTraceBackend.
func NewCSVTraceBackend(path string) *CSVTraceBackend {
	return &CSVTraceBackend{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the trace csv file. If the file already exists, it will be
// overwritten.
func (t *CSVTraceBackend) Init() {
	file, err := os.Create(t.path)
	if err != nil {
		panic(err)
	}
	t.file = file

	fmt.Fprintf(file, "Time, PID, Page, Offset, Fault, Frame, RSS\n")

	atexit.Register(func() {
		t.Flush()
		err := t.file.Close()
		if err != nil {
			panic(err)
		}
	})
}

// Func buffers one access record. It implements sim.Hook.
func (t *CSVTraceBackend) Func(ctx sim.HookCtx) {
	if ctx.Pos != simulation.HookPosAccessDone {
		return
	}

	t.records = append(t.records, ctx.Item.(simulation.AccessRecord))
	if len(t.records) >= t.bufferSize {
		t.Flush()
	}
}

// Flush flushes the buffered records to the CSV file.
func (t *CSVTraceBackend) Flush() {
	for _, r := range t.records {
		fmt.Fprintf(t.file, "%d, %d, %d, %d, %t, %d, %d\n",
			r.Time,
			r.Address.PID,
			r.Address.Page,
			r.Address.Offset,
			r.PageFault,
			r.Physical.Frame,
			r.RSS,
		)
	}

	t.records = nil
}
