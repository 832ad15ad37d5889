package pipeline

type Stage string

const (
	StageEnrich      Stage = "Normalize fields"
	StageEvidence    Stage = "Locate evidence"
	StageQuality     Stage = "Classify block quality"
	StageSufficiency Stage = "Compute sufficiency"
	StageKPI         Stage = "Compute KPIs"
	StageCompliance  Stage = "Check compliance"
	StageApproval    Stage = "Check approval readiness"
)

// Stages lists the stages in the order Run executes them.
var Stages = []Stage{StageEnrich, StageEvidence, StageQuality, StageSufficiency, StageKPI, StageCompliance, StageApproval}

// Observer is notified as a batch moves through the stages. Implementations
// must be safe for concurrent use when batches run in parallel.
type Observer interface {
	StageStarted(batchID string, stage Stage)
	StageDone(batchID string, stage Stage, detail string)
}

type nopObserver struct{}

func (nopObserver) StageStarted(string, Stage)       {}
func (nopObserver) StageDone(string, Stage, string) {}
