package survey

// State of a participant as evaluated on entry.
type State int

const (
	StateInvalidKey State = iota
	StateNew
	StateInProgress
	StateAwaitingOutro
	StateComplete
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StateInvalidKey:
		return "invalid_key"
	case StateNew:
		return "new"
	case StateInProgress:
		return "in_progress"
	case StateAwaitingOutro:
		return "awaiting_outro"
	case StateComplete:
		return "complete"
	case StateSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Outcome tells the caller what to do after a screen, selection, intro or outro operation.
type Outcome int

const (
	// OutcomeServe renders the page that was asked for.
	OutcomeServe Outcome = iota
	OutcomeThankYou
	OutcomeOutro
	// OutcomeFallback renders the generic fallback view.
	OutcomeFallback
	// OutcomeNextScreen moves on to the screen in the result.
	OutcomeNextScreen
)

func (o Outcome) String() string {
	switch o {
	case OutcomeServe:
		return "serve"
	case OutcomeThankYou:
		return "thankyou"
	case OutcomeOutro:
		return "outro"
	case OutcomeFallback:
		return "fallback"
	case OutcomeNextScreen:
		return "next_screen"
	default:
		return "unknown"
	}
}
