// Package reporting formats the end-of-run summary, either as aligned text
// or as CSV rows.
package reporting

import (
	"fmt"
	"io"

	"github.com/sarchlab/vmsim/simulation"
)

// WriteText writes the summary in the aligned human-readable layout.
func WriteText(w io.Writer, stats simulation.Stats) {
	for _, p := range stats.Processes {
		fmt.Fprintf(w,
			"Process %3d:  "+
				"ACCESSES: %-6d "+
				"FAULTS: %-6d "+
				"FAULT RATE: %-8.2f "+
				"RSS: %-6d\n",
			p.PID, p.Accesses, p.Faults, p.FaultPercent, p.RSS)
	}

	fmt.Fprintf(w, "\n%-25s %12d\n", "Total memory accesses:",
		stats.TotalAccesses)
	fmt.Fprintf(w, "%-25s %12d\n", "Total page faults:",
		stats.TotalFaults)
	fmt.Fprintf(w, "%-25s %12d\n", "Free frames remaining:",
		stats.FreeFrames)
}

// WriteCSV writes the summary as comma-separated rows: one row per process,
// then the three aggregate counters padded to the same column count.
func WriteCSV(w io.Writer, stats simulation.Stats) {
	for _, p := range stats.Processes {
		fmt.Fprintf(w, "%d,%d,%d,%.2f,%d\n",
			p.PID, p.Accesses, p.Faults, p.FaultPercent, p.RSS)
	}

	fmt.Fprintf(w, "%d,,,,\n", stats.TotalAccesses)
	fmt.Fprintf(w, "%d,,,,\n", stats.TotalFaults)
	fmt.Fprintf(w, "%d,,,,\n", stats.FreeFrames)
}
