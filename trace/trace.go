// Package trace records Chrome trace-event JSON ("about:tracing" /
// Perfetto) for the compositor's frame stages.
package trace

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

type event struct {
	Name  string         `json:"name"`
	Phase string         `json:"ph"`
	Cat   string         `json:"cat"`
	TS    int64          `json:"ts"`
	PID   int            `json:"pid"`
	TID   int            `json:"tid"`
	Scope string         `json:"s,omitempty"`
	Args  map[string]any `json:"args,omitempty"`
}

// Tracer writes events as they happen. A nil *Tracer is valid and records
// nothing, so callers never need to check.
type Tracer struct {
	w       io.Writer
	closer  io.Closer
	lock    sync.Mutex
	written int
	now     func() time.Time
	err     error
}

func New(w io.Writer) *Tracer {
	t := &Tracer{w: w, now: time.Now}
	if c, ok := w.(io.Closer); ok {
		t.closer = c
	}
	io.WriteString(w, `{"traceEvents": [`)
	t.emit(event{
		Name:  "process_name",
		Phase: "M",
		Cat:   "__metadata",
		TS:    t.now().UnixMicro(),
		PID:   1,
		Args:  map[string]any{"name": "Compositor"},
	})
	return t
}

// Create opens path and returns a tracer writing to it.
func Create(path string) (*Tracer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return New(file), nil
}

func (t *Tracer) Begin(name string) {
	t.record(name, "B", nil)
}

func (t *Tracer) End(name string) {
	t.record(name, "E", nil)
}

// Scoped begins name and returns the matching End, for use with defer.
func (t *Tracer) Scoped(name string) func() {
	t.Begin(name)
	return func() { t.End(name) }
}

func (t *Tracer) Instant(name string, args map[string]any) {
	if t == nil {
		return
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.emit(event{Name: name, Phase: "i", Cat: "cc", TS: t.now().UnixMicro(), PID: 1, TID: 1, Scope: "t", Args: args})
}

func (t *Tracer) Counter(name string, values map[string]any) {
	t.record(name, "C", values)
}

// Finish terminates the JSON document and closes the writer if it can be
// closed. It returns the first write error seen.
func (t *Tracer) Finish() error {
	if t == nil {
		return nil
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	if _, err := io.WriteString(t.w, "]}"); err != nil && t.err == nil {
		t.err = err
	}
	if t.closer != nil {
		if err := t.closer.Close(); err != nil && t.err == nil {
			t.err = err
		}
	}
	return t.err
}

func (t *Tracer) record(name, phase string, args map[string]any) {
	if t == nil {
		return
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	// note: goroutine ids are not available, everything lands on tid 1
	t.emit(event{Name: name, Phase: phase, Cat: "cc", TS: t.now().UnixMicro(), PID: 1, TID: 1, Args: args})
}

func (t *Tracer) emit(e event) {
	data, err := json.Marshal(e)
	if err != nil {
		t.err = err
		return
	}
	if t.written > 0 {
		data = append([]byte(", "), data...)
	}
	if _, err := t.w.Write(data); err != nil && t.err == nil {
		t.err = err
	}
	t.written++
}
