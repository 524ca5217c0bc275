package models

type ChatOutcome string

const (
	OutcomeAnswered         ChatOutcome = "answered"
	OutcomeNoData           ChatOutcome = "no_data"
	OutcomeExtractionFailed ChatOutcome = "extraction_failed"
	OutcomeExecutionFailed  ChatOutcome = "execution_failed"
)

// ChatResult is what a single question resolves to. Response is the only part shown to users.
type ChatResult struct {
	Response string      `json:"response"`
	Outcome  ChatOutcome `json:"outcome"`
	Column   string      `json:"column,omitempty"`
	SQL      string      `json:"sql,omitempty"`
}
