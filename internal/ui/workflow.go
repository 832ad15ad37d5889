package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskDone
	TaskFailed
	TaskSkipped
)

// Task is one line of a Workflow.
type Task struct {
	Name    string
	Status  TaskStatus
	Message string // shown while running, or the failure/skip reason
	Details string // shown once done
}

// Workflow renders a list of tasks in place, redrawing every tick while
// started. All methods are safe for concurrent use, so batches scored in
// parallel can report into the same workflow.
type Workflow struct {
	writer     io.Writer
	title      string
	tasks      []*Task
	mu         sync.Mutex
	spinnerIdx int
	stopChan   chan struct{}
	running    bool
	lastRender string
	startTime  time.Time
}

func NewWorkflow(w io.Writer, title string) *Workflow {
	return &Workflow{
		writer:   w,
		title:    title,
		stopChan: make(chan struct{}),
	}
}

// AddTask appends a pending task and returns its index.
func (wf *Workflow) AddTask(name string) int {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	wf.tasks = append(wf.tasks, &Task{Name: name})
	return len(wf.tasks) - 1
}

func (wf *Workflow) update(idx int, fn func(t *Task)) {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	if idx >= 0 && idx < len(wf.tasks) {
		fn(wf.tasks[idx])
	}
}

func (wf *Workflow) StartTask(idx int, message string) {
	wf.update(idx, func(t *Task) { t.Status, t.Message = TaskRunning, message })
}

func (wf *Workflow) UpdateMessage(idx int, message string) {
	wf.update(idx, func(t *Task) { t.Message = message })
}

func (wf *Workflow) CompleteTask(idx int, details string) {
	wf.update(idx, func(t *Task) { t.Status, t.Details = TaskDone, details })
}

func (wf *Workflow) FailTask(idx int, errMsg string) {
	wf.update(idx, func(t *Task) { t.Status, t.Message = TaskFailed, errMsg })
}

func (wf *Workflow) SkipTask(idx int, reason string) {
	wf.update(idx, func(t *Task) { t.Status, t.Message = TaskSkipped, reason })
}

// Counts returns how many tasks finished, failed and were skipped.
func (wf *Workflow) Counts() (done, failed, skipped int) {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	for _, t := range wf.tasks {
		switch t.Status {
		case TaskDone:
			done++
		case TaskFailed:
			failed++
		case TaskSkipped:
			skipped++
		}
	}
	return done, failed, skipped
}

// Start prints the title and begins redrawing every 80ms.
func (wf *Workflow) Start() {
	wf.mu.Lock()
	if wf.running {
		wf.mu.Unlock()
		return
	}
	wf.running = true
	wf.startTime = time.Now()
	if wf.title != "" {
		fmt.Fprintln(wf.writer, Title.Render(wf.title))
	}
	wf.mu.Unlock()

	go func() {
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-wf.stopChan:
				return
			case <-ticker.C:
				wf.mu.Lock()
				if !wf.running {
					wf.mu.Unlock()
					return
				}
				wf.spinnerIdx = (wf.spinnerIdx + 1) % len(spinnerFrames)
				wf.draw(false)
				wf.mu.Unlock()
			}
		}
	}()
}

// Stop halts the animation and prints the final state with details.
func (wf *Workflow) Stop() {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	if !wf.running {
		return
	}
	wf.running = false
	close(wf.stopChan)
	wf.draw(true)
}

// Elapsed is the time since Start.
func (wf *Workflow) Elapsed() time.Duration {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	if wf.startTime.IsZero() {
		return 0
	}
	return time.Since(wf.startTime)
}

// draw must be called with mu held.
func (wf *Workflow) draw(final bool) {
	var b strings.Builder
	if wf.lastRender != "" {
		for range strings.Count(wf.lastRender, "\n") + 1 {
			b.WriteString("\033[A\033[K")
		}
	}
	for _, t := range wf.tasks {
		b.WriteString(wf.renderTask(t, final))
		b.WriteString("\n")
	}
	out := b.String()
	if final {
		wf.lastRender = ""
	} else {
		wf.lastRender = strings.TrimSuffix(out, "\n")
	}
	fmt.Fprint(wf.writer, out)
}

func (wf *Workflow) renderTask(t *Task, final bool) string {
	var icon string
	name, msg := StepPending, Dim
	switch t.Status {
	case TaskPending:
		icon = Muted.Render("○")
	case TaskRunning:
		if final {
			icon = Muted.Render("○")
			break
		}
		icon = Secondary.Render(spinnerFrames[wf.spinnerIdx])
		name, msg = StepRunning, Secondary
	case TaskDone:
		icon = GetCheckMark()
		name = StepComplete
	case TaskFailed:
		icon = GetCrossMark()
		name, msg = StepFailed, Error
	case TaskSkipped:
		icon = Warning.Render("⊘")
		name, msg = StepSkipped, Warning
	}

	line := icon + " " + name.Render(t.Name)
	switch {
	case final && t.Status == TaskDone && t.Details != "":
		line += " " + Dim.Render("→ "+t.Details)
	case final && (t.Status == TaskFailed || t.Status == TaskSkipped) && t.Message != "":
		line += " " + msg.Render("→ "+t.Message)
	case !final && t.Message != "":
		line += " " + msg.Render(t.Message)
	}
	return line
}

// SimpleSpinner is a single-line spinner for short blocking steps such as
// loading payload files.
type SimpleSpinner struct {
	writer   io.Writer
	message  string
	stopChan chan struct{}
	doneChan chan struct{}
	running  bool
	mu       sync.Mutex
	frame    int
}

func NewSimpleSpinner(w io.Writer, message string) *SimpleSpinner {
	return &SimpleSpinner{
		writer:   w,
		message:  message,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

func (s *SimpleSpinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		defer close(s.doneChan)
		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.mu.Lock()
				s.frame = (s.frame + 1) % len(spinnerFrames)
				fmt.Fprintf(s.writer, "\r\033[K%s %s", Secondary.Render(spinnerFrames[s.frame]), s.message)
				s.mu.Unlock()
			}
		}
	}()
}

// Stop clears the spinner line and prints finalMessage with a check or
// cross mark.
func (s *SimpleSpinner) Stop(success bool, finalMessage string) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)
	<-s.doneChan

	fmt.Fprint(s.writer, "\r\033[K")
	if success {
		fmt.Fprintf(s.writer, "%s %s\n", GetCheckMark(), finalMessage)
		return
	}
	fmt.Fprintf(s.writer, "%s %s\n", GetCrossMark(), Error.Render(finalMessage))
}

func (s *SimpleSpinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}
