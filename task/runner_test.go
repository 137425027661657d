package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskPassesArguments(t *testing.T) {
	var got []any
	tsk := New(func(args ...any) { got = args }, 1, "two")
	tsk.Run()
	assert.Equal(t, []any{1, "two"}, got)
}

func TestRunnerRunsTasksInOrder(t *testing.T) {
	r := NewRunner()
	var order []int
	for i := range 5 {
		r.ScheduleTask(New(func(args ...any) {
			order = append(order, args[0].(int))
		}, i))
	}
	r.Start()
	r.Drain()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestRunnerClearPendingTasks(t *testing.T) {
	r := NewRunner()
	ran := false
	r.ScheduleTask(Func(func() { ran = true }))
	r.ClearPendingTasks()
	assert.Equal(t, 0, r.Pending())

	r.Start()
	r.Drain()
	assert.False(t, ran)
}

func TestSetNeedsQuitStopsIdleRunner(t *testing.T) {
	r := NewRunner()
	r.Start()
	r.SetNeedsQuit()
	r.Wait()
}
