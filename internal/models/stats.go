package models

// OutcomeStatus is the per-file result of one sort attempt.
type OutcomeStatus string

const (
	// OutcomeSorted means the file was placed at its destination.
	OutcomeSorted OutcomeStatus = "sorted"
	// OutcomeSkipped means an existing destination blocked the file under
	// the skip policy.
	OutcomeSkipped OutcomeStatus = "skipped"
	// OutcomeFailed means a filesystem or resolution error stopped the file.
	OutcomeFailed OutcomeStatus = "failed"
)

// SortOutcome describes what happened to a single file.
type SortOutcome struct {
	Source      string
	Status      OutcomeStatus
	Category    string
	Destination string // set when Status == OutcomeSorted
	Reason      string // set when Status is OutcomeSkipped or OutcomeFailed
	Method      Method
}

// RunStatistics aggregates the outcomes of one full sort run. It is the
// single return contract of a run, consumable by the CLI, the HTTP API,
// and automation.
type RunStatistics struct {
	Total          int            `json:"total"`
	Sorted         int            `json:"sorted"`
	Skipped        int            `json:"skipped"`
	Failed         int            `json:"failed"`
	ByCategory     map[string]int `json:"by_category"`
	MethodUsed     string         `json:"method_used"` // "ML", "rules", or "none"
	MLCount        int            `json:"ml_count"`
	RulesCount     int            `json:"rules_count"`
	ConflictPolicy string         `json:"conflict_resolution"`
}

// DominantMethod reports which classifier carried the run: "ML" when more
// files were ML-classified than rule-classified, "rules" when any files
// were rule-classified otherwise, "none" for an empty run.
func DominantMethod(mlCount, rulesCount int) string {
	switch {
	case mlCount > rulesCount:
		return "ML"
	case rulesCount > 0:
		return "rules"
	default:
		return "none"
	}
}
