package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ScoreUI shows scoring progress. A single batch gets the full stage list
// (StageTracker); several batches get one workflow line each, showing the
// stage currently running.
//
// StageStarted and StageDone may be called from concurrent batches.
type ScoreUI struct {
	writer      io.Writer
	quiet       bool
	interactive bool
	stages      []string
	title       string

	tracker  *StageTracker
	workflow *Workflow
	tasks    map[string]int

	mu        sync.Mutex
	startTime time.Time
}

// NewScoreUI returns a progress display for the given stage names.
// interactive selects the Bubble Tea tracker for single batches; otherwise
// the plain redrawing workflow is used.
func NewScoreUI(w io.Writer, quiet, interactive bool, stages []string) *ScoreUI {
	return &ScoreUI{
		writer:      w,
		quiet:       quiet,
		interactive: interactive,
		stages:      stages,
		title:       "Scoring institutional evidence",
		tasks:       map[string]int{},
		startTime:   time.Now(),
	}
}

// Start lays out the display for batchIDs.
func (s *ScoreUI) Start(batchIDs []string) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTime = time.Now()

	if len(batchIDs) == 1 && s.interactive {
		s.tracker = NewStageTracker(s.writer, s.title+" "+Dim.Render(batchIDs[0]), s.stages)
		s.tracker.Start()
		return
	}

	s.workflow = NewWorkflow(s.writer, s.title)
	for _, id := range batchIDs {
		s.tasks[id] = s.workflow.AddTask("batch " + id)
	}
	s.workflow.Start()
}

func (s *ScoreUI) StageStarted(batchID, stage string) {
	if s.quiet {
		return
	}
	if s.tracker != nil {
		s.tracker.Update(stage, StatusRunning, "")
		return
	}
	if idx, ok := s.taskIndex(batchID); ok {
		s.workflow.StartTask(idx, stage)
	}
}

// StageDone records a finished stage. The last stage completes the batch.
func (s *ScoreUI) StageDone(batchID, stage, detail string) {
	if s.quiet {
		return
	}
	if s.tracker != nil {
		s.tracker.Update(stage, StatusComplete, detail)
		return
	}
	idx, ok := s.taskIndex(batchID)
	if !ok {
		return
	}
	if len(s.stages) > 0 && stage == s.stages[len(s.stages)-1] {
		s.workflow.CompleteTask(idx, detail)
		return
	}
	s.workflow.UpdateMessage(idx, Dim.Render(stage+": "+detail))
}

// FailBatch marks a batch that could not be scored.
func (s *ScoreUI) FailBatch(batchID string, err error) {
	if s.quiet || s.workflow == nil {
		return
	}
	if idx, ok := s.taskIndex(batchID); ok {
		s.workflow.FailTask(idx, err.Error())
	}
}

func (s *ScoreUI) taskIndex(batchID string) (int, bool) {
	if s.workflow == nil {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.tasks[batchID]
	return idx, ok
}

// Finish stops the display, showing err when scoring failed.
func (s *ScoreUI) Finish(err error) {
	if s.quiet {
		return
	}
	if s.tracker != nil {
		s.tracker.Complete(err)
		fmt.Fprintln(s.writer)
	}
	if s.workflow != nil {
		s.workflow.Stop()
	}
}

// PrintSummary prints the closing box: batch count, where results went and
// how long it took. Empty destinations are left out.
func (s *ScoreUI) PrintSummary(batches int, output, database string) {
	if s.quiet {
		return
	}
	var sb strings.Builder
	sb.WriteString(Success.Bold(true).Render("Scoring Complete"))
	sb.WriteString("\n\n")
	sb.WriteString(FormatKeyValue("Batches scored", fmt.Sprintf("%d", batches)))
	if output != "" {
		sb.WriteString("\n")
		sb.WriteString(FormatKeyValue("Results written", output))
	}
	if database != "" {
		sb.WriteString("\n")
		sb.WriteString(FormatKeyValue("Saved to", database))
	}
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Duration", time.Since(s.startTime).Round(time.Millisecond).String()))
	fmt.Fprintln(s.writer)
	fmt.Fprintln(s.writer, SuccessBox.Render(sb.String()))
}

// LogStep prints a single status line outside the workflow.
func (s *ScoreUI) LogStep(status, message string) {
	if s.quiet {
		return
	}
	fmt.Fprintln(s.writer, FormatStatus(status, message))
}

// PrintBanner prints the application banner.
func PrintBanner(w io.Writer) {
	fmt.Fprintln(w, RenderBanner())
}
