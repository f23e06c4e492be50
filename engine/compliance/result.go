package compliance

import (
	"github.com/go-playground/validator/v10"
)

// State classifies a question's compliance outcome.
type State string

const (
	FullyCompliant     State = "Fully Compliant"
	PartiallyCompliant State = "Partially Compliant"
	NonCompliant       State = "Non-Compliant"
)

// Valid reports whether the state is one of the three allowed values.
func (s State) Valid() bool {
	switch s {
	case FullyCompliant, PartiallyCompliant, NonCompliant:
		return true
	}
	return false
}

// Result is the answer for one compliance question. By the time a Result
// reaches a caller, state and confidence agree with the policy
// thresholds; the model's raw claim is never trusted verbatim.
type Result struct {
	Question       string   `json:"compliance_question" validate:"required"`
	State          State    `json:"compliance_state"    validate:"required,oneof='Fully Compliant' 'Partially Compliant' 'Non-Compliant'"`
	Confidence     int      `json:"confidence"          validate:"gte=0,lte=100"`
	RelevantQuotes []string `json:"relevant_quotes"`
	Rationale      string   `json:"rationale"           validate:"min=30"`
}

var resultValidator = validator.New()

// Validate checks the result against the fixed schema.
func (r *Result) Validate() error {
	return resultValidator.Struct(r)
}
