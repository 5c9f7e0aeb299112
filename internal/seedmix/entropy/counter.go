package entropy

import "sync/atomic"

// Counter hands out 1, 2, 3, ... within a day. Call sites that used to pass a
// constant seed component take Next instead so repeated calls differ.
type Counter struct {
	n atomic.Int64
}

func (c *Counter) Next() float64 {
	return float64(c.n.Add(1))
}

// Reset starts the next day at 1 again.
func (c *Counter) Reset() {
	c.n.Store(0)
}
