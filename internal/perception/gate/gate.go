// Package gate releases the decision loop once per completed cycle.
package gate

import "sync"

// Gate holds a single readiness token. Signals that arrive while the token
// is already set coalesce into one wake-up. Once terminated, Await returns
// false without blocking.
type Gate struct {
	ready chan struct{}
	done  chan struct{}
	once  sync.Once
}

// New returns a gate in the waiting state.
func New() *Gate {
	return &Gate{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Signal marks the next cycle ready. It never blocks.
func (g *Gate) Signal() {
	select {
	case g.ready <- struct{}{}:
	default:
	}
}

// Terminate ends the match. Safe to call more than once.
func (g *Gate) Terminate() {
	g.once.Do(func() { close(g.done) })
}

// Await blocks until the next cycle is ready and consumes it. It returns
// false once the gate has been terminated.
func (g *Gate) Await() bool {
	select {
	case <-g.done:
		return false
	default:
	}
	select {
	case <-g.ready:
		return true
	case <-g.done:
		return false
	}
}

// Done is closed on termination.
func (g *Gate) Done() <-chan struct{} { return g.done }
