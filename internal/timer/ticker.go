package timer

import (
	"context"
	"time"
)

// tickLoop is the local handle for periodic reconciliation. Its goroutine
// holds no state of its own; losing it loses nothing but the next pass.
type tickLoop struct {
	stop chan struct{}
}

func (e *Engine) armLocked() {
	if e.loop != nil {
		return
	}
	loop := &tickLoop{stop: make(chan struct{})}
	e.loop = loop
	go e.run(loop)
}

// stopLoopLocked unregisters the loop. A tick already waiting on the mutex
// sees it is no longer the registered loop and does nothing.
func (e *Engine) stopLoopLocked() {
	if e.loop == nil {
		return
	}
	close(e.loop.stop)
	e.loop = nil
}

func (e *Engine) run(loop *tickLoop) {
	ticker := time.NewTicker(e.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-loop.stop:
			return
		case <-ticker.C:
			e.tick(loop)
		}
	}
}

func (e *Engine) tick(loop *tickLoop) {
	ctx := context.Background()

	e.mu.Lock()
	if e.loop != loop {
		e.mu.Unlock()
		return
	}
	notes, err := e.reconcileLocked(ctx, e.options.Clock())
	e.mu.Unlock()

	if err != nil {
		e.logger.Error().Err(err).Msg("reconciliation failed, will retry on next tick")
	}
	e.dispatch(ctx, notes)
}
