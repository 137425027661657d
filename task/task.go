package task

type Task struct {
	code func(...any)
	args []any
}

func New(code func(...any), args ...any) *Task {
	return &Task{
		code: code,
		args: args,
	}
}

// Func wraps a closure that takes no arguments.
func Func(fn func()) *Task {
	return New(func(...any) { fn() })
}

func (t *Task) Run() {
	t.code(t.args...)
	t.code = nil
	t.args = nil
}
