package ledger

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Outcome is the result recorded for one clip.
type Outcome string

const (
	OutcomeDone    Outcome = "done"
	OutcomeEmpty   Outcome = "empty"
	OutcomeFailed  Outcome = "failed"
	OutcomePlanned Outcome = "planned"
)

// Run is one invocation of the realignment pipeline.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Status       RunStatus
	CSVPath      string
	SplitFilter  string
	DryRun       bool
	Resume       bool
	Counts       Counts
	ErrorMessage string
}

// Counts tallies group outcomes for a run.
type Counts struct {
	Total   int
	Done    int
	Empty   int
	Skipped int
	Failed  int
}

// Elapsed returns the run's wall time, measured to now while it is still running.
func (r Run) Elapsed() time.Duration {
	if r.StartedAt.IsZero() {
		return 0
	}
	end := r.FinishedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(r.StartedAt)
}

// GroupRecord is the outcome of one clip within a run.
type GroupRecord struct {
	ID               int64
	RunID            string
	Split            string
	DialogueID       int
	UtteranceID      int
	Outcome          Outcome
	OutputPath       string
	Segments         int
	FPS              float64
	ExpectedSeconds  float64
	ActualSeconds    float64
	DurationMismatch bool
	ErrorKind        string
	ErrorMessage     string
	RecordedAt       time.Time
}

// SplitSummary aggregates the latest outcome of every clip in a split.
type SplitSummary struct {
	Split  string
	Done   int
	Empty  int
	Failed int
	// Mismatched counts done clips whose measured duration missed the expected one.
	Mismatched int
}
