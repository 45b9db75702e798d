package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/dudu/livecam/internal/camera"
)

// State is the capture state machine
type State int

const (
	StatePaused State = iota
	StateRunning
	StateOnce
	StateExit
)

func (s State) String() string {
	switch s {
	case StatePaused:
		return "paused"
	case StateRunning:
		return "running"
	case StateOnce:
		return "once"
	case StateExit:
		return "exit"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Request tells the capture stage to produce one frame
type Request struct {
	// Config is the pending update taken with this request, if any
	Config *camera.ConfigUpdate
}

// Controller decides when the next capture happens. The capture stage is its
// only consumer; every other method may be called from any goroutine.
type Controller struct {
	mu      sync.Mutex
	cond    *sync.Cond
	state   State
	shots   int
	pending *camera.ConfigUpdate

	minInterval time.Duration
	last        time.Time
	now         func() time.Time
}

// NewController returns a paused controller. A positive minInterval caps the
// request rate.
func NewController(minInterval time.Duration) *Controller {
	c := &Controller{
		state:       StatePaused,
		minInterval: minInterval,
		now:         time.Now,
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState replaces the state and wakes the waiter. Exit is terminal.
// Setting StateOnce is the same as calling Once.
func (c *Controller) SetState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateExit {
		return
	}
	if s == StateOnce {
		c.shots++
	} else {
		c.shots = 0
	}
	c.state = s
	c.cond.Broadcast()
}

// Once asks for a single frame. Calls made before the capture stage catches
// up are each honoured with their own frame.
func (c *Controller) Once() {
	c.SetState(StateOnce)
}

// SetConfig replaces the pending update. An update that has not been picked
// up yet is discarded.
func (c *Controller) SetConfig(update camera.ConfigUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = &update
	c.cond.Broadcast()
}

// NextRequest blocks until a frame should be captured. ok is false once the
// controller has reached StateExit.
func (c *Controller) NextRequest() (req Request, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.throttle()

	for c.state == StatePaused {
		c.cond.Wait()
	}

	switch c.state {
	case StateExit:
		return Request{}, false
	case StateOnce:
		c.shots--
		if c.shots <= 0 {
			c.shots = 0
			c.state = StatePaused
		}
	}

	req.Config = c.pending
	c.pending = nil
	c.last = c.now()
	return req, true
}

// throttle waits out the rest of the minimum interval since the previous
// request. Exit cuts the wait short. Callers hold mu.
func (c *Controller) throttle() {
	if c.minInterval <= 0 || c.last.IsZero() {
		return
	}
	wait := c.minInterval - c.now().Sub(c.last)
	if wait <= 0 {
		return
	}

	expired := false
	timer := time.AfterFunc(wait, func() {
		c.mu.Lock()
		expired = true
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer timer.Stop()

	for !expired && c.state != StateExit {
		c.cond.Wait()
	}
}
