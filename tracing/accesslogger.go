// Package tracing provides hooks that observe the replay: a verbose
// per-access logger, a CSV trace backend, and a tracer that streams access
// records into a data recorder.
package tracing

import (
	"fmt"
	"io"

	"github.com/sarchlab/vmsim/sim"
	"github.com/sarchlab/vmsim/simulation"
)

// An AccessLogger is a hook that prints one block per processed access, in
// the style of the verbose run mode:
//
//	PID 0, page 1, offset 200
//		-> PAGE FAULT
//		-> physical address frame 3, offset 200
//		-> RSS: 2
type AccessLogger struct {
	w io.Writer
}

// NewAccessLogger creates an AccessLogger that writes to w.
func NewAccessLogger(w io.Writer) *AccessLogger {
	return &AccessLogger{w: w}
}

// Func writes the access block. It implements sim.Hook.
func (l *AccessLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != simulation.HookPosAccessDone {
		return
	}

	record := ctx.Item.(simulation.AccessRecord)

	fmt.Fprintf(l.w, "%s\n", record.Address)

	if record.PageFault {
		fmt.Fprintf(l.w, "\t-> PAGE FAULT\n")
	} else {
		fmt.Fprintf(l.w, "\t-> IN MEMORY\n")
	}

	fmt.Fprintf(l.w, "\t-> physical address %s\n", record.Physical)
	fmt.Fprintf(l.w, "\t-> RSS: %d\n\n", record.RSS)
}
