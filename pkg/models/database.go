package models

// Analysis statuses.
const (
	AnalysisRunning   = "running"
	AnalysisSucceeded = "succeeded"
	AnalysisFailed    = "failed"
)

// Progress checkpoints reported while an analysis runs.
const (
	ProgressParsed    = 10
	ProgressStatic    = 40
	ProgressTask      = 80
	ProgressPredicted = 100
)
