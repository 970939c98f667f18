package domain

import "time"

// Severity ranks emitted signals.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Rank orders severities for sorting (lower sorts first).
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	}
	return 2
}

// SignalType identifies what analytic produced a signal.
type SignalType string

const (
	SignalFlowVelocity       SignalType = "FLOW_VELOCITY"
	SignalSDDelta            SignalType = "SD_DELTA"
	SignalPriceMovement      SignalType = "PRICE_MOVEMENT"
	SignalConcentrationShift SignalType = "CONCENTRATION_SHIFT"
	SignalNewEntrant         SignalType = "COUNTERPARTY_NEW_ENTRANT"
	SignalWithdrawal         SignalType = "COUNTERPARTY_WITHDRAWAL"
	SignalVolumeSurge        SignalType = "COUNTERPARTY_VOLUME_SURGE"
	SignalPossibleDuplicate  SignalType = "ENTITY_POSSIBLE_DUPLICATE"
	SignalReferenceDataStale SignalType = "REFERENCE_DATA_STALE"
)

// Signal is an immutable emitted fact. Only the Acknowledged flag is
// mutable, and only by the consuming UI, never by the engine.
type Signal struct {
	ID           string         `json:"id"`
	Type         SignalType     `json:"type"`
	Severity     Severity       `json:"severity"`
	Headline     string         `json:"headline"`
	Detail       map[string]any `json:"detail,omitempty"`
	HCTID        string         `json:"hct_id,omitempty"`
	Corridor     string         `json:"corridor,omitempty"`
	EmittedAt    time.Time      `json:"emitted_at"`
	Acknowledged bool           `json:"acknowledged"`
}
