package game

import "time"

// completionBuffer bounds how many finished requests can wait for Update.
const completionBuffer = 64

// Queue runs blocking work off the game loop and hands the results back to
// it. Work runs through the runner (a goroutine by default); the closure the
// work returns is queued and executed by Drain, which Update calls. All
// session state is therefore touched from one goroutine only.
type Queue struct {
	done chan func()
	run  func(task func())
}

// NewQueue returns a queue that runs work on goroutines.
func NewQueue() *Queue {
	return NewQueueWithRunner(func(task func()) { go task() })
}

// NewQueueWithRunner returns a queue using run to execute work. Tests pass a
// runner that calls the task inline.
func NewQueueWithRunner(run func(task func())) *Queue {
	return &Queue{done: make(chan func(), completionBuffer), run: run}
}

// Go executes work through the runner and queues its completion.
func (q *Queue) Go(work func() func()) {
	q.run(func() {
		if f := work(); f != nil {
			q.done <- f
		}
	})
}

// Post queues f to run on the next Drain.
func (q *Queue) Post(f func()) {
	q.done <- f
}

// After queues f once d has elapsed.
func (q *Queue) After(d time.Duration, f func()) {
	time.AfterFunc(d, func() { q.Post(f) })
}

// Drain runs every queued completion without blocking and returns how many
// ran. Completions may queue further work.
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case f := <-q.done:
			f()
			n++
		default:
			return n
		}
	}
}
