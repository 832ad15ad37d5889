package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

type StepStatus int

const (
	StatusPending StepStatus = iota
	StatusRunning
	StatusComplete
	StatusFailed
	StatusSkipped
)

// Step is one scoring stage shown by the tracker.
type Step struct {
	Name   string
	Status StepStatus
	Detail string
}

// StageModel is the Bubble Tea model behind StageTracker: a fixed list of
// stages, a spinner on the running one and the stage detail once done.
type StageModel struct {
	spinner  spinner.Model
	title    string
	steps    []Step
	index    map[string]int
	done     bool
	err      error
	quitting bool
}

func NewStageModel(title string, stages []string) StageModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorSecondary)

	m := StageModel{spinner: s, title: title, index: make(map[string]int, len(stages))}
	for i, name := range stages {
		m.steps = append(m.steps, Step{Name: name})
		m.index[name] = i
	}
	return m
}

// StageMsg moves the named stage to Status.
type StageMsg struct {
	Name   string
	Status StepStatus
	Detail string
}

// DoneMsg ends the program; Err is shown in an error box.
type DoneMsg struct {
	Err error
}

func (m StageModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m StageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if s := msg.String(); s == "q" || s == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case StageMsg:
		if i, ok := m.index[msg.Name]; ok {
			m.steps[i].Status = msg.Status
			m.steps[i].Detail = msg.Detail
		}
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m StageModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	return tea.NewView(m.render())
}

func (m StageModel) render() string {
	var b strings.Builder
	if m.title != "" {
		b.WriteString(Title.Render(m.title))
		b.WriteString("\n\n")
	}
	for i, step := range m.steps {
		var icon string
		style := StepPending
		switch step.Status {
		case StatusPending:
			icon = Muted.Render("○")
		case StatusRunning:
			icon = m.spinner.View()
			style = StepRunning
		case StatusComplete:
			icon = GetCheckMark()
			style = StepComplete
		case StatusFailed:
			icon = GetCrossMark()
			style = StepFailed
		case StatusSkipped:
			icon = Warning.Render("⊘")
			style = StepSkipped
		}
		b.WriteString(icon + " " + style.Render(step.Name))
		if step.Detail != "" && step.Status != StatusRunning {
			b.WriteString(Dim.Render(" → " + step.Detail))
		}
		if i < len(m.steps)-1 {
			b.WriteString("\n")
		}
	}

	if m.done {
		b.WriteString("\n\n")
		if m.err != nil {
			b.WriteString(ErrorBox.Render(GetCrossMark() + " " + m.err.Error()))
		} else {
			b.WriteString(Success.Render(fmt.Sprintf("✓ Completed %d/%d stages", m.completed(), len(m.steps))))
		}
	}
	return b.String()
}

func (m StageModel) completed() int {
	n := 0
	for _, s := range m.steps {
		if s.Status == StatusComplete {
			n++
		}
	}
	return n
}

// StageTracker drives a StageModel program from ordinary code. It is used
// when a single batch is scored on a terminal.
type StageTracker struct {
	program *tea.Program
	model   StageModel
	out     io.Writer
	mu      sync.Mutex
	running bool
	exited  chan struct{}
}

func NewStageTracker(w io.Writer, title string, stages []string) *StageTracker {
	return &StageTracker{model: NewStageModel(title, stages), out: w}
}

func (st *StageTracker) Start() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.running {
		return
	}
	st.program = tea.NewProgram(st.model,
		tea.WithOutput(st.out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	st.running = true
	st.exited = make(chan struct{})
	go func() {
		defer close(st.exited)
		_, _ = st.program.Run()
	}()
}

// Update moves a stage to status.
func (st *StageTracker) Update(stage string, status StepStatus, detail string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.running {
		return
	}
	st.program.Send(StageMsg{Name: stage, Status: status, Detail: detail})
}

// Complete renders the final state and waits for the program to exit.
func (st *StageTracker) Complete(err error) {
	st.mu.Lock()
	if !st.running {
		st.mu.Unlock()
		return
	}
	st.running = false
	st.program.Send(DoneMsg{Err: err})
	st.mu.Unlock()
	<-st.exited
}

// Stop quits without the completion line.
func (st *StageTracker) Stop() {
	st.mu.Lock()
	if !st.running {
		st.mu.Unlock()
		return
	}
	st.running = false
	st.program.Quit()
	st.mu.Unlock()
	<-st.exited
}
