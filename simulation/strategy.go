package simulation

import (
	"fmt"
	"strings"
)

// A Strategy selects the victim page when a process faults with its frame
// quota exhausted.
type Strategy int

const (
	// StrategyFIFO evicts the resident page that was loaded the earliest.
	StrategyFIFO Strategy = iota

	// StrategyLRU evicts the resident page that was accessed the least
	// recently.
	StrategyLRU
)

// ParseStrategy converts a strategy name to a Strategy. Names are
// case-insensitive to match command-line usage.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToUpper(name) {
	case "FIFO":
		return StrategyFIFO, nil
	case "LRU":
		return StrategyLRU, nil
	}

	return 0, fmt.Errorf("unknown replacement strategy %q", name)
}

func (s Strategy) String() string {
	switch s {
	case StrategyFIFO:
		return "FIFO"
	case StrategyLRU:
		return "LRU"
	}

	return fmt.Sprintf("Strategy(%d)", int(s))
}
