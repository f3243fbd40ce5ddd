package perception

// Clarification thresholds. The bands are contiguous on [0,1]: every
// confidence value maps to exactly one directive.
const (
	ProceedThreshold = 0.85
	SoftThreshold    = 0.65
)

// Directive tells the orchestrator how much to trust a classification.
type Directive int

const (
	// DirectiveNone: proceed without hedging.
	DirectiveNone Directive = iota
	// DirectiveSoftConfirm: proceed, but hedge ("just to confirm...").
	DirectiveSoftConfirm
	// DirectiveHardClarify: ask an open clarifying question and do not
	// invoke any tool this turn.
	DirectiveHardClarify
)

// String implements fmt.Stringer for log output.
func (d Directive) String() string {
	switch d {
	case DirectiveNone:
		return "none"
	case DirectiveSoftConfirm:
		return "soft_confirm"
	case DirectiveHardClarify:
		return "hard_clarify"
	}
	return "unknown"
}

// Gate maps a confidence score to a clarification directive. It is a total
// pure function on [0,1].
func Gate(confidence float64) Directive {
	switch {
	case confidence >= ProceedThreshold:
		return DirectiveNone
	case confidence >= SoftThreshold:
		return DirectiveSoftConfirm
	default:
		return DirectiveHardClarify
	}
}
