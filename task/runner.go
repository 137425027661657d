package task

import "sync"

// Runner executes tasks one at a time on its own goroutine. The compositor
// uses one Runner as its impl thread so a frame's prepare, draw and did-draw
// steps never interleave with another frame.
type Runner struct {
	tasks     []*Task
	condition *sync.Cond
	needsQuit bool
	done      chan struct{}
	started   bool
}

func NewRunner() *Runner {
	return &Runner{
		tasks:     make([]*Task, 0),
		condition: sync.NewCond(&sync.Mutex{}),
		done:      make(chan struct{}),
	}
}

func (r *Runner) ScheduleTask(t *Task) {
	r.condition.L.Lock()
	r.tasks = append(r.tasks, t)
	r.condition.Broadcast()
	r.condition.L.Unlock()
}

func (r *Runner) ClearPendingTasks() {
	r.condition.L.Lock()
	clear(r.tasks)
	r.tasks = r.tasks[:0]
	r.condition.L.Unlock()
}

func (r *Runner) Pending() int {
	r.condition.L.Lock()
	defer r.condition.L.Unlock()
	return len(r.tasks)
}

func (r *Runner) Run() {
	defer close(r.done)
	for {
		r.condition.L.Lock()
		for len(r.tasks) == 0 && !r.needsQuit {
			r.condition.Wait()
		}
		if r.needsQuit {
			r.condition.L.Unlock()
			return
		}
		t := r.tasks[0]
		r.tasks[0] = nil
		r.tasks = r.tasks[1:]
		r.condition.L.Unlock()

		t.Run()
	}
}

// Start runs the loop on a new goroutine. Calling it twice is a no-op.
func (r *Runner) Start() {
	r.condition.L.Lock()
	defer r.condition.L.Unlock()
	if r.started {
		return
	}
	r.started = true
	go r.Run()
}

// SetNeedsQuit stops the loop after the task currently running; queued
// tasks are dropped.
func (r *Runner) SetNeedsQuit() {
	r.condition.L.Lock()
	r.needsQuit = true
	r.condition.Broadcast()
	r.condition.L.Unlock()
}

// Wait blocks until the loop has exited.
func (r *Runner) Wait() {
	<-r.done
}

// Drain schedules a quit behind every task already queued and waits for
// the loop to reach it.
func (r *Runner) Drain() {
	r.ScheduleTask(Func(r.SetNeedsQuit))
	r.Wait()
}
