package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// TUIRenderer renders index-pass progress as an inline bubbletea program
// on os.Stdout: a spinner while scanning, a progress bar once the total file
// count is known, and a summary line on completion.
type TUIRenderer struct {
	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	started bool
}

// NewTUIRenderer builds a TUIRenderer. out is only checked for being a
// terminal (an error is returned if it is not, so callers can fall back to
// PlainRenderer); the program itself always renders to os.Stdout.
func NewTUIRenderer(out io.Writer) (*TUIRenderer, error) {
	if !IsTTY(out) {
		return nil, fmt.Errorf("output is not a TTY")
	}
	return &TUIRenderer{done: make(chan struct{})}, nil
}

func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	m := newModel()
	r.program = tea.NewProgram(m, tea.WithOutput(os.Stdout))
	r.started = true
	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

func (r *TUIRenderer) Update(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		r.program.Send(progressMsg(event))
	}
}

func (r *TUIRenderer) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		r.program.Send(completeMsg(s))
	}
}

func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program == nil {
		return nil
	}
	r.program.Quit()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
	}
	return nil
}

type progressMsg ProgressEvent
type completeMsg Summary

type model struct {
	styles   styles
	spinner  spinner.Model
	bar      progress.Model
	stage    Stage
	current  int
	total    int
	file     string
	summary  *Summary
	finished bool
}

func newModel() model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	st := defaultStyles()
	sp.Style = st.stage
	return model{
		styles:  st,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case progressMsg:
		m.stage = msg.Stage
		m.current = msg.Current
		m.total = msg.Total
		m.file = msg.CurrentFile
		return m, nil
	case completeMsg:
		s := Summary(msg)
		m.finished = true
		m.summary = &s
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.finished && m.summary != nil {
		s := m.summary
		line := fmt.Sprintf("done in %s: %d added, %d modified, %d deleted", s.Duration, s.Added, s.Modified, s.Deleted)
		if s.Failed > 0 {
			return m.styles.warn.Render(line+fmt.Sprintf(" (%d failed)", s.Failed)) + "\n"
		}
		return m.styles.ok.Render(line) + "\n"
	}

	header := m.styles.header.Render("glyph index")
	stage := m.styles.stage.Render(m.stage.String())

	if m.total > 0 {
		pct := float64(m.current) / float64(m.total)
		bar := m.bar.ViewAs(pct)
		return fmt.Sprintf("%s\n%s %s  %d/%d\n%s\n%s", header, m.spinner.View(), stage, m.current, m.total, bar, m.styles.dim.Render(m.file))
	}
	return fmt.Sprintf("%s\n%s %s\n%s", header, m.spinner.View(), stage, m.styles.dim.Render(m.file))
}
