package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// PlainRenderer prints one line per progress update, suitable for pipes
// and CI logs where a redrawing TUI would just produce escape-code noise.
type PlainRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlainRenderer builds a PlainRenderer writing to out.
func NewPlainRenderer(out io.Writer) *PlainRenderer {
	return &PlainRenderer{out: out}
}

func (r *PlainRenderer) Start(ctx context.Context) error { return nil }

func (r *PlainRenderer) Update(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.Total > 0 {
		fmt.Fprintf(r.out, "[%s] %d/%d %s\n", event.Stage, event.Current, event.Total, event.CurrentFile)
		return
	}
	fmt.Fprintf(r.out, "[%s] %s\n", event.Stage, event.CurrentFile)
}

func (r *PlainRenderer) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "done in %s: %d added, %d modified, %d deleted", s.Duration, s.Added, s.Modified, s.Deleted)
	if s.Failed > 0 {
		fmt.Fprintf(r.out, " (%d failed)", s.Failed)
	}
	fmt.Fprintln(r.out)
}

func (r *PlainRenderer) Stop() error { return nil }
