package roomchat

import "sync"

// loop runs every state mutation as a discrete turn on a single goroutine.
// Transport goroutines and timers only post turns; they never touch state.
type loop struct {
	tasks chan func()
	done  chan struct{}
	stop  sync.Once
	exit  chan struct{}
}

func newLoop(buffer int) *loop {
	l := &loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
		exit:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *loop) run() {
	defer close(l.exit)
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.done:
			return
		}
	}
}

// post queues fn without waiting. It returns false once the loop is stopped.
func (l *loop) post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// call runs fn on the loop and waits for it to finish.
// It must not be used from inside a turn.
func (l *loop) call(fn func()) error {
	finished := make(chan struct{})
	if !l.post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-l.exit:
		// the loop may have stopped with our task still queued
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// shutdown stops the loop after the turn in progress. Queued turns are discarded.
func (l *loop) shutdown() {
	l.stop.Do(func() { close(l.done) })
	<-l.exit
}
