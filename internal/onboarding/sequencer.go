package onboarding

import "onboarding-service/internal/models"

// Step names one wizard screen.
type Step string

const (
	StepWelcome         Step = "welcome"
	StepBusinessProfile Step = "businessProfile"
	StepCustomers       Step = "customers"
	StepBankConnect     Step = "bankConnect"
	StepInvoices        Step = "invoices"
	StepReview          Step = "review"
	StepAgreement       Step = "agreement"
)

// Steps is the wizard order. Navigation is derived from positions in this
// list, so steps can be inserted without touching the transitions.
var Steps = []Step{
	StepWelcome,
	StepBusinessProfile,
	StepCustomers,
	StepBankConnect,
	StepInvoices,
	StepReview,
	StepAgreement,
}

func ParseStep(s string) (Step, bool) {
	for _, st := range Steps {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Section returns the draft section the step owns, if any.
func (s Step) Section() (models.SectionKey, bool) {
	switch s {
	case StepBusinessProfile:
		return models.SectionBusinessProfile, true
	case StepCustomers:
		return models.SectionCustomers, true
	case StepBankConnect:
		return models.SectionBankConnection, true
	case StepInvoices:
		return models.SectionInvoices, true
	case StepAgreement:
		return models.SectionFactoringAgreement, true
	}
	return "", false
}

func position(s Step) int {
	for i, st := range Steps {
		if st == s {
			return i
		}
	}
	return -1
}

// stepAt clamps i into the wizard.
func stepAt(i int) Step {
	if i < 0 {
		return Steps[0]
	}
	if i >= len(Steps) {
		return Steps[len(Steps)-1]
	}
	return Steps[i]
}

func terminalStep() Step {
	return Steps[len(Steps)-1]
}

// Transition tells the caller what a navigation request resulted in.
type Transition string

const (
	// TransitionMoved means Current changed.
	TransitionMoved Transition = "moved"
	// TransitionNone means the request did not apply and state is unchanged.
	TransitionNone Transition = "none"
	// TransitionSubmit means the terminal step completed; the caller must run
	// the submission gate.
	TransitionSubmit Transition = "submit"
	// TransitionExit means the applicant left the wizard early.
	TransitionExit Transition = "exit"
)

// State is the persisted navigation state of one wizard run.
type State struct {
	Current        Step `json:"current"`
	ReturnToReview bool `json:"returnToReview"`
	Exited         bool `json:"exited"`
	Completed      bool `json:"completed"`
}

// Ended reports whether the run is over, by skip or by submission.
func (s State) Ended() bool {
	return s.Exited || s.Completed
}

// Sequencer is the wizard navigation state machine. It never returns errors:
// requests that do not apply leave the state unchanged.
type Sequencer struct {
	state State
}

func NewSequencer() *Sequencer {
	return &Sequencer{state: State{Current: Steps[0]}}
}

// RestoreSequencer resumes a persisted run. An unknown step restarts at the
// first step, and an ended run starts a fresh one.
func RestoreSequencer(st State) *Sequencer {
	if st.Ended() || position(st.Current) < 0 {
		return NewSequencer()
	}
	if st.ReturnToReview && position(st.Current) >= position(StepReview) {
		st.ReturnToReview = false
	}
	return &Sequencer{state: st}
}

func (s *Sequencer) State() State {
	return s.state
}

func (s *Sequencer) Current() Step {
	return s.state.Current
}

// Advance moves forward one step. With a pending return-to-review it jumps
// back to Review instead. At the terminal step it does not move and asks for
// submission.
func (s *Sequencer) Advance() Transition {
	if s.state.Ended() {
		return TransitionNone
	}
	if s.state.ReturnToReview {
		s.state.ReturnToReview = false
		s.state.Current = StepReview
		return TransitionMoved
	}
	if s.state.Current == terminalStep() {
		return TransitionSubmit
	}
	s.state.Current = stepAt(position(s.state.Current) + 1)
	return TransitionMoved
}

// Skip leaves the wizard. The caller persists the draft first.
func (s *Sequencer) Skip() Transition {
	if s.state.Ended() {
		return TransitionNone
	}
	s.state.Exited = true
	s.state.ReturnToReview = false
	return TransitionExit
}

// EditFrom jumps from Review back to an earlier step and arms the
// return-to-review flag. Any other request is a no-op.
func (s *Sequencer) EditFrom(step Step) Transition {
	if s.state.Ended() || s.state.Current != StepReview {
		return TransitionNone
	}
	target := position(step)
	if target < 0 || target >= position(StepReview) {
		return TransitionNone
	}
	s.state.Current = step
	s.state.ReturnToReview = true
	return TransitionMoved
}

// MarkCompleted ends the run after a successful submission.
func (s *Sequencer) MarkCompleted() {
	s.state.Completed = true
	s.state.ReturnToReview = false
}
