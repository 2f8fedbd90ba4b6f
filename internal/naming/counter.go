package naming

import (
	"strconv"
	"sync/atomic"
)

// CounterNamer names pages as base + "_" + n, where n starts at 1 and grows
// by one for every name issued in the session.
type CounterNamer struct {
	next atomic.Int64
}

// NewCounterNamer creates a CounterNamer starting at 1.
func NewCounterNamer() *CounterNamer {
	return &CounterNamer{}
}

// Name returns the next numbered name. sourceURL is not used.
func (n *CounterNamer) Name(title, _ string) string {
	return Base(title) + "_" + strconv.FormatInt(n.next.Add(1), 10)
}
