package onboarding

import (
	"testing"

	"onboarding-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func advanceTo(t *testing.T, s *Sequencer, target Step) {
	t.Helper()
	for s.Current() != target {
		if tr := s.Advance(); tr != TransitionMoved {
			t.Fatalf("advance stopped at %s with %s", s.Current(), tr)
		}
	}
}

func TestSequencer_AdvanceWalksStepsInOrder(t *testing.T) {
	s := NewSequencer()
	assert.Equal(t, StepWelcome, s.Current())

	for i := 1; i < len(Steps); i++ {
		assert.Equal(t, TransitionMoved, s.Advance())
		assert.Equal(t, Steps[i], s.Current())
	}

	assert.Equal(t, TransitionSubmit, s.Advance())
	assert.Equal(t, StepAgreement, s.Current(), "terminal step does not move")
}

func TestSequencer_EditFromReviewReturnsToReview(t *testing.T) {
	s := NewSequencer()
	advanceTo(t, s, StepReview)

	assert.Equal(t, TransitionMoved, s.EditFrom(StepBankConnect))
	assert.Equal(t, StepBankConnect, s.Current())
	assert.True(t, s.State().ReturnToReview)

	assert.Equal(t, TransitionMoved, s.Advance())
	assert.Equal(t, StepReview, s.Current(), "must return to review, not continue to invoices")
	assert.False(t, s.State().ReturnToReview)

	assert.Equal(t, TransitionMoved, s.Advance())
	assert.Equal(t, StepAgreement, s.Current())
}

func TestSequencer_EditFromIsNoOpOutsideContract(t *testing.T) {
	s := NewSequencer()
	advanceTo(t, s, StepCustomers)
	assert.Equal(t, TransitionNone, s.EditFrom(StepWelcome), "only allowed from review")
	assert.Equal(t, StepCustomers, s.Current())

	advanceTo(t, s, StepReview)
	for _, target := range []Step{StepReview, StepAgreement, Step("unknown")} {
		assert.Equal(t, TransitionNone, s.EditFrom(target))
		assert.Equal(t, StepReview, s.Current())
		assert.False(t, s.State().ReturnToReview)
	}

	assert.Equal(t, TransitionMoved, s.EditFrom(StepWelcome))
	assert.Equal(t, StepWelcome, s.Current())
}

func TestSequencer_SkipEndsRun(t *testing.T) {
	s := NewSequencer()
	advanceTo(t, s, StepCustomers)

	assert.Equal(t, TransitionExit, s.Skip())
	assert.True(t, s.State().Exited)
	assert.Equal(t, TransitionNone, s.Advance())
	assert.Equal(t, TransitionNone, s.Skip())
}

func TestRestoreSequencer(t *testing.T) {
	s := RestoreSequencer(State{Current: StepBankConnect, ReturnToReview: true})
	assert.Equal(t, StepBankConnect, s.Current())
	assert.Equal(t, TransitionMoved, s.Advance())
	assert.Equal(t, StepReview, s.Current())

	assert.Equal(t, StepWelcome, RestoreSequencer(State{Current: "nowhere"}).Current())
	assert.Equal(t, StepWelcome, RestoreSequencer(State{Current: StepInvoices, Exited: true}).Current())
	assert.Equal(t, StepWelcome, RestoreSequencer(State{Current: StepAgreement, Completed: true}).Current())
	assert.False(t, RestoreSequencer(State{Current: StepAgreement, ReturnToReview: true}).State().ReturnToReview)
}

func TestStep_Section(t *testing.T) {
	key, ok := StepBankConnect.Section()
	assert.True(t, ok)
	assert.Equal(t, models.SectionBankConnection, key)

	_, ok = StepWelcome.Section()
	assert.False(t, ok)
	_, ok = StepReview.Section()
	assert.False(t, ok)

	st, ok := ParseStep("invoices")
	assert.True(t, ok)
	assert.Equal(t, StepInvoices, st)
	_, ok = ParseStep("5")
	assert.False(t, ok)
}

func TestStepAt_Clamps(t *testing.T) {
	assert.Equal(t, StepWelcome, stepAt(-3))
	assert.Equal(t, StepAgreement, stepAt(99))
	assert.Equal(t, StepReview, stepAt(position(StepReview)))
}
