package timer

import (
	"sync"
	"time"
)

// Countdown runs a study session clock. It reports the remaining time on
// every tick and calls the expiry callback at most once. Stop cancels it;
// after Stop no callback fires.
type Countdown struct {
	duration time.Duration
	interval time.Duration

	mu       sync.Mutex
	deadline time.Time
	started  bool
	finished bool
	stop     chan struct{}
	done     chan struct{}
}

func NewCountdown(duration, interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{
		duration: duration,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins counting down. onTick and onExpire may be nil. Calling Start
// twice is a no-op.
func (c *Countdown) Start(onTick func(remaining time.Duration), onExpire func()) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.deadline = time.Now().Add(c.duration)
	c.mu.Unlock()

	go c.run(onTick, onExpire)
}

func (c *Countdown) run(onTick func(time.Duration), onExpire func()) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		remaining := c.Remaining()
		if remaining <= 0 {
			if c.finish() && onExpire != nil {
				onExpire()
			}
			return
		}
		if onTick != nil {
			onTick(remaining)
		}

		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}
	}
}

// finish marks the countdown as over and reports whether this call did so.
func (c *Countdown) finish() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.stop:
		return false
	default:
	}
	if c.finished {
		return false
	}
	c.finished = true
	return true
}

// Stop cancels the countdown. It is safe to call more than once and before
// Start.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return
	}
	c.finished = true
	close(c.stop)
	if !c.started {
		c.started = true
		close(c.done)
	}
}

// Remaining returns the time left, never negative. Before Start it is the
// full duration.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return c.duration
	}
	if left := time.Until(c.deadline); left > 0 {
		return left
	}
	return 0
}

// Done is closed once the countdown has expired or been stopped.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}
