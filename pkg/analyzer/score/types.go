package score

// Check names a validation check. Checks run in the order listed.
type Check string

const (
	CheckDuplicateID        Check = "duplicate-id"
	CheckEmptyField         Check = "empty-field"
	CheckOrphanedCriterion  Check = "orphaned-criterion"
	CheckOversizedFeature   Check = "oversized-feature"
	CheckUndefinedActor     Check = "undefined-actor"
	CheckCircularDependency Check = "circular-dependency"
)

// AllChecks lists checks in execution order.
var AllChecks = []Check{
	CheckDuplicateID,
	CheckEmptyField,
	CheckOrphanedCriterion,
	CheckOversizedFeature,
	CheckUndefinedActor,
	CheckCircularDependency,
}

// Severity separates defects that invalidate a document from those that only
// lower its score.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Severity returns whether a failed check is an error or a warning.
func (c Check) Severity() Severity {
	switch c {
	case CheckDuplicateID, CheckEmptyField:
		return SeverityError
	default:
		return SeverityWarning
	}
}

// Defect is one failed check instance.
type Defect struct {
	Check   Check  `json:"check" toon:"check"`
	Message string `json:"message" toon:"message"`
	Penalty int    `json:"penalty" toon:"penalty"`
}

// ThresholdResult tracks pass/fail status for a minimum score.
type ThresholdResult struct {
	Min    int  `json:"min" toon:"min"`
	Score  int  `json:"score" toon:"score"`
	Passed bool `json:"passed" toon:"passed"`
}

// CheckThreshold compares a score against a minimum. A minimum of 0 always passes.
func CheckThreshold(score, minScore int) ThresholdResult {
	return ThresholdResult{
		Min:    minScore,
		Score:  score,
		Passed: score >= minScore,
	}
}
