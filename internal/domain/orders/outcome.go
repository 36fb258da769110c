package orders

import "time"

// Outcome is the result of one fulfillment attempt. It is logged, never persisted.
type Outcome string

const (
	OutcomePrinted                         Outcome = "printed"
	OutcomeSkippedNotEligible              Outcome = "skipped_not_eligible"
	OutcomeSkippedDeclinedOrUnknownPayment Outcome = "skipped_declined_or_unknown_payment"
	OutcomeSkippedAlreadyPrinted           Outcome = "skipped_already_printed"
	OutcomeFailed                          Outcome = "failed"
)

// IsSkip reports whether the outcome is a designed skip rather than a success or failure.
func (o Outcome) IsSkip() bool {
	switch o {
	case OutcomeSkippedNotEligible, OutcomeSkippedDeclinedOrUnknownPayment, OutcomeSkippedAlreadyPrinted:
		return true
	default:
		return false
	}
}

// Stage names the pipeline step an outcome was decided at.
type Stage string

const (
	StageDecode   Stage = "decode"
	StageDedup    Stage = "dedup"
	StageRetrieve Stage = "retrieve"
	StageFilter   Stage = "filter"
	StageGenerate Stage = "generate"
	StagePrint    Stage = "print"
)

// Record is one line of the outcome log.
type Record struct {
	Time    time.Time
	OrderID string
	Stage   Stage
	Outcome Outcome
	Error   string
}
