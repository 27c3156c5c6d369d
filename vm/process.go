package vm

// A Process owns one page table plus the counters the report is built from.
// The identity and the page layout are fixed at load time; only the table
// rows and the counters change during a replay.
type Process struct {
	ID       PID
	Table    *PageTable
	pageSize []uint64
	numBytes uint64

	// MemoryAccesses and PageFaults are incremented by the simulation
	// driver, once per processed access and once per miss respectively.
	MemoryAccesses uint64
	PageFaults     uint64
}

// NewProcess creates a Process from the ordered page byte-sizes of its image.
func NewProcess(id PID, pageSizes []uint64) *Process {
	p := &Process{
		ID:       id,
		Table:    NewPageTable(len(pageSizes)),
		pageSize: pageSizes,
	}

	for _, size := range pageSizes {
		p.numBytes += size
	}

	return p
}

// Size returns the total byte size of the process image.
func (p *Process) Size() uint64 {
	return p.numBytes
}

// NumPages returns the number of pages in the process image.
func (p *Process) NumPages() int {
	return len(p.pageSize)
}

// IsValidPage tells if the page number falls inside the page table. A false
// result signals an invalid-page fault to the caller.
func (p *Process) IsValidPage(page uint64) bool {
	return page < uint64(len(p.pageSize))
}

// IsValidOffset tells if the offset falls inside the byte extent of the given
// page. The page must be valid.
func (p *Process) IsValidOffset(page, offset uint64) bool {
	return offset < p.pageSize[page]
}

// RSS returns the resident set size, the number of pages currently held in
// physical frames.
func (p *Process) RSS() int {
	return p.Table.PresentCount()
}

// FaultPercent returns the page-fault rate in percent, 0 when the process has
// not been accessed yet.
func (p *Process) FaultPercent() float64 {
	if p.MemoryAccesses == 0 {
		return 0
	}
	return float64(p.PageFaults) / float64(p.MemoryAccesses) * 100
}
