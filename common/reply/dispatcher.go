package reply

import (
	"errors"
	"sync"

	"gopkg.in/tomb.v2"

	"github.com/mongodb/mongo-reply-tools/common/log"
)

// ErrDispatcherStopped is returned by Submit once the dispatcher no longer
// accepts work, and is the transport error handed to callbacks whose replies
// were still queued when the dispatcher was killed.
var ErrDispatcherStopped = errors.New("reply dispatcher stopped")

// Completion is one reply, or transport error, waiting for its callback.
type Completion struct {
	Envelope *Envelope
	Err      error
	Callback Completer
}

func (c Completion) run() {
	c.Callback.Complete(c.Envelope, c.Err)
}

// abandon completes c with ErrDispatcherStopped so the envelope is still
// released and the sink still hears back.
func (c Completion) abandon() {
	c.Callback.Complete(c.Envelope, ErrDispatcherStopped)
}

// Dispatcher runs reply callbacks on a single goroutine, in submission
// order, the way a connection's read loop completes requests.
type Dispatcher struct {
	t      tomb.Tomb
	queue  chan Completion
	mutex  sync.Mutex
	closed bool
}

// NewDispatcher starts a dispatcher that buffers up to depth completions.
func NewDispatcher(depth int) *Dispatcher {
	if depth < 0 {
		panic("cannot create a Dispatcher with a negative queue depth")
	}
	d := &Dispatcher{queue: make(chan Completion, depth)}
	d.t.Go(d.loop)
	return d
}

func (d *Dispatcher) loop() error {
	for {
		select {
		case <-d.t.Dying():
			d.drain()
			return nil
		default:
		}
		select {
		case c, ok := <-d.queue:
			if !ok {
				return nil
			}
			c.run()
		case <-d.t.Dying():
			d.drain()
			return nil
		}
	}
}

// drain abandons everything left in the queue. Kill closes the queue after
// killing the tomb, so the range ends.
func (d *Dispatcher) drain() {
	abandoned := 0
	for c := range d.queue {
		c.abandon()
		abandoned++
	}
	log.Logvf(log.DebugLow, "reply dispatcher abandoned %v queued replies", abandoned)
}

// Submit queues c, blocking while the queue is full. If the dispatcher has
// been closed or killed, c is completed on the caller's goroutine with
// ErrDispatcherStopped and that error is returned.
func (d *Dispatcher) Submit(c Completion) error {
	if d.enqueue(c) {
		return nil
	}
	c.abandon()
	return ErrDispatcherStopped
}

func (d *Dispatcher) enqueue(c Completion) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- c:
		return true
	case <-d.t.Dying():
		return false
	}
}

// Close stops accepting completions and lets the queued ones run. Use Wait
// to block until they have.
func (d *Dispatcher) Close() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.queue)
}

// Kill stops the dispatcher without running queued completions; each is
// completed with ErrDispatcherStopped instead.
func (d *Dispatcher) Kill() {
	d.t.Kill(nil)
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
}

// Dying is closed once Kill has been called or the dispatcher has run
// everything queued before Close.
func (d *Dispatcher) Dying() <-chan struct{} {
	return d.t.Dying()
}

// Wait blocks until the dispatcher's goroutine has exited.
func (d *Dispatcher) Wait() error {
	return d.t.Wait()
}
