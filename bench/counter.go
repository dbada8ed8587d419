package bench

import "sync/atomic"

// Counter hands out nonces to workers. Claims are never handed back, a
// worker that draws past the budget simply stops, so the final count can
// sit above the budget by up to one claim per worker.
type Counter struct {
	n atomic.Uint32
}

func (c *Counter) Next() uint32 {
	return c.n.Add(1) - 1
}

// Claimed number of nonces handed out so far, including overshoot
func (c *Counter) Claimed() uint32 {
	return c.n.Load()
}
