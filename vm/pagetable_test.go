package vm

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PageTable", func() {
	var table *PageTable

	BeforeEach(func() {
		table = NewPageTable(4)
	})

	It("should start with nothing resident", func() {
		Expect(table.PresentCount()).To(Equal(0))
		Expect(table.OldestLoadedPage()).To(Equal(InvalidPage))
		Expect(table.LeastRecentlyUsedPage()).To(Equal(InvalidPage))
	})

	It("should count resident rows", func() {
		table.Rows[0].Present = true
		table.Rows[2].Present = true

		Expect(table.PresentCount()).To(Equal(2))
	})

	It("should pick the earliest-loaded resident page", func() {
		table.Rows[1] = PageTableRow{Present: true, LoadedAt: 5}
		table.Rows[2] = PageTableRow{Present: true, LoadedAt: 3}
		table.Rows[3] = PageTableRow{Present: true, LoadedAt: 9}

		Expect(table.OldestLoadedPage()).To(Equal(2))
	})

	It("should skip absent rows with older load times", func() {
		table.Rows[0] = PageTableRow{Present: false, LoadedAt: 0}
		table.Rows[1] = PageTableRow{Present: true, LoadedAt: 8}

		Expect(table.OldestLoadedPage()).To(Equal(1))
	})

	It("should break load-time ties toward the lowest index", func() {
		table.Rows[1] = PageTableRow{Present: true, LoadedAt: 4}
		table.Rows[3] = PageTableRow{Present: true, LoadedAt: 4}

		Expect(table.OldestLoadedPage()).To(Equal(1))
	})

	It("should pick the least recently used resident page", func() {
		table.Rows[0] = PageTableRow{
			Present: true, LoadedAt: 0, LastAccessedAt: 7,
		}
		table.Rows[1] = PageTableRow{
			Present: true, LoadedAt: 1, LastAccessedAt: 2,
		}
		table.Rows[2] = PageTableRow{
			Present: true, LoadedAt: 2, LastAccessedAt: 5,
		}

		Expect(table.LeastRecentlyUsedPage()).To(Equal(1))
	})

	It("should break access-time ties toward the lowest index", func() {
		table.Rows[2] = PageTableRow{Present: true, LastAccessedAt: 6}
		table.Rows[3] = PageTableRow{Present: true, LastAccessedAt: 6}

		Expect(table.LeastRecentlyUsedPage()).To(Equal(2))
	})
})
