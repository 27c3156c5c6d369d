// Package vm defines the virtual-memory model that the simulator replays
// accesses against: virtual and physical addresses, per-process page tables,
// and processes with their access counters.
package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// PID stands for Process ID.
type PID uint32

// A VirtualAddress identifies one byte in a process's address space. The low
// bits of the raw address (as many as the page-size exponent) form the offset
// within the page, the remaining high bits form the page number.
type VirtualAddress struct {
	PID    PID
	Page   uint64
	Offset uint64
}

// ParseVirtualAddress parses a hexadecimal address string into a
// VirtualAddress, splitting page number and offset at log2PageSize bits.
func ParseVirtualAddress(
	pid PID,
	s string,
	log2PageSize uint64,
) (VirtualAddress, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "0x")

	addr, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return VirtualAddress{},
			fmt.Errorf("cannot parse virtual address %q: %w", s, err)
	}

	return VirtualAddress{
		PID:    pid,
		Page:   addr >> log2PageSize,
		Offset: addr & ((1 << log2PageSize) - 1),
	}, nil
}

func (a VirtualAddress) String() string {
	return fmt.Sprintf("PID %d, page %d, offset %d", a.PID, a.Page, a.Offset)
}

// A PhysicalAddress is the frame-relative location an access resolves to. It
// is derived from the page table on every access and never stored.
type PhysicalAddress struct {
	Frame  int
	Offset uint64
}

func (a PhysicalAddress) String() string {
	return fmt.Sprintf("frame %d, offset %d", a.Frame, a.Offset)
}
