package vm

import (
	"math"

	"github.com/sarchlab/vmsim/sim"
)

// InvalidPage is returned by the victim-selection queries when no row is
// resident.
const InvalidPage = -1

// A PageTableRow records the residency state of one page. Frame is only
// meaningful while Present is set; after an eviction the old frame number is
// retained transiently so that the fault handler can recycle it.
type PageTableRow struct {
	Present        bool
	Frame          int
	LoadedAt       sim.VTime
	LastAccessedAt sim.VTime
}

// A PageTable holds one row per page of the owning process. The row count is
// fixed when the process image is loaded.
//
// The table only answers queries. Marking rows resident or absent and
// updating the timestamps is the caller's job, which keeps the victim
// decision separate from the state mutation.
type PageTable struct {
	Rows []PageTableRow
}

// NewPageTable creates a PageTable with one row per page, all absent.
func NewPageTable(numPages int) *PageTable {
	return &PageTable{
		Rows: make([]PageTableRow, numPages),
	}
}

// PresentCount returns the number of rows currently marked resident.
func (t *PageTable) PresentCount() int {
	present := 0
	for _, row := range t.Rows {
		if row.Present {
			present++
		}
	}
	return present
}

// OldestLoadedPage returns the resident page with the smallest LoadedAt, the
// FIFO victim. Ties break toward the lowest page index. Returns InvalidPage
// when no row is resident.
func (t *PageTable) OldestLoadedPage() int {
	victim := InvalidPage
	oldest := sim.VTime(math.MaxInt64)

	for i, row := range t.Rows {
		if row.Present && row.LoadedAt < oldest {
			victim = i
			oldest = row.LoadedAt
		}
	}

	return victim
}

// LeastRecentlyUsedPage returns the resident page with the smallest
// LastAccessedAt, the LRU victim. Ties break toward the lowest page index.
// Returns InvalidPage when no row is resident.
func (t *PageTable) LeastRecentlyUsedPage() int {
	victim := InvalidPage
	oldest := sim.VTime(math.MaxInt64)

	for i, row := range t.Rows {
		if row.Present && row.LastAccessedAt < oldest {
			victim = i
			oldest = row.LastAccessedAt
		}
	}

	return victim
}
