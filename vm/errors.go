package vm

import "fmt"

// An InvalidPageError reports an access to a page number outside the owning
// process's page table. It is fatal: the replay stops at the faulting access.
type InvalidPageError struct {
	PID  PID
	Page uint64
}

func (e InvalidPageError) Error() string {
	return fmt.Sprintf("segfault: process %d referenced invalid page %d",
		e.PID, e.Page)
}

// An InvalidOffsetError reports an access whose offset lies outside the byte
// extent of an otherwise valid page. It is fatal and reported separately from
// an invalid page.
type InvalidOffsetError struct {
	PID    PID
	Page   uint64
	Offset uint64
}

func (e InvalidOffsetError) Error() string {
	return fmt.Sprintf(
		"segfault: process %d referenced invalid offset %d in page %d",
		e.PID, e.Offset, e.Page)
}
