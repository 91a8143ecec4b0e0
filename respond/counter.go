package respond

import "sync/atomic"

// UnreadCounter tracks the viewer's unread message total shown in the
// navigation badge. The authoritative value comes from the backend; local
// read receipts and incoming new-message events adjust it between refreshes.
type UnreadCounter struct {
	n atomic.Int64
}

// Set installs the backend-reported total.
func (c *UnreadCounter) Set(n int64) {
	if n < 0 {
		n = 0
	}
	c.n.Store(n)
}

// Increment records an incoming unread message.
func (c *UnreadCounter) Increment() {
	c.n.Add(1)
}

// Decrement records a message becoming read, never going below zero.
func (c *UnreadCounter) Decrement() {
	for {
		cur := c.n.Load()
		if cur <= 0 {
			return
		}
		if c.n.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// Value returns the current unread total.
func (c *UnreadCounter) Value() int64 {
	return c.n.Load()
}
