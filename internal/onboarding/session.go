package onboarding

import (
	"context"
	"time"

	"onboarding-service/internal/common/errors"
	"onboarding-service/internal/common/logger"
	"onboarding-service/internal/common/metrics"
	"onboarding-service/internal/common/validation"
	"onboarding-service/internal/models"
)

// Limits are the tunable rules the session enforces.
type Limits struct {
	MaxInvoiceSize   int64
	AgreementVersion string
}

type Dependencies struct {
	Drafts   *DraftStore
	Progress *ProgressStore
	Gate     *SubmissionGate
	Bank     *BankConnector
	Limits   Limits
	Logger   logger.Logger
}

// SessionManager opens per-applicant onboarding sessions.
type SessionManager struct {
	drafts   *DraftStore
	progress *ProgressStore
	gate     *SubmissionGate
	bank     *BankConnector
	limits   Limits
	now      func() time.Time
	logger   logger.Logger
}

func NewSessionManager(deps Dependencies) *SessionManager {
	limits := deps.Limits
	if limits.MaxInvoiceSize <= 0 {
		limits.MaxInvoiceSize = DefaultMaxInvoiceSize
	}
	return &SessionManager{
		drafts:   deps.Drafts,
		progress: deps.Progress,
		gate:     deps.Gate,
		bank:     deps.Bank,
		limits:   limits,
		now:      time.Now,
		logger:   deps.Logger.WithFields(map[string]interface{}{"component": "session-manager"}),
	}
}

func (m *SessionManager) Gate() *SubmissionGate {
	return m.gate
}

func (m *SessionManager) Limits() Limits {
	return m.limits
}

// Open loads the applicant's draft and wizard position.
func (m *SessionManager) Open(ctx context.Context, userEmail string) *Session {
	return &Session{
		m:         m,
		userEmail: userEmail,
		draft:     m.drafts.Load(ctx, userEmail),
		seq:       m.progress.Load(ctx, userEmail),
		logger:    m.logger.WithFields(map[string]interface{}{"userEmail": userEmail}),
	}
}

// Session is one applicant's view of the wizard. It is not safe for
// concurrent use; each request opens its own.
type Session struct {
	m         *SessionManager
	userEmail string
	draft     models.Draft
	seq       *Sequencer
	logger    logger.Logger
}

// StepResult is the outcome of completing a step.
type StepResult struct {
	Transition  Transition          `json:"transition"`
	State       State               `json:"state"`
	Application *models.Application `json:"application,omitempty"`
}

func (s *Session) UserEmail() string {
	return s.userEmail
}

func (s *Session) Draft() models.Draft {
	return s.draft.Clone()
}

func (s *Session) State() State {
	return s.seq.State()
}

func (s *Session) HasOnboardingData() bool {
	return s.draft.HasOnboardingData()
}

// SaveSection replaces one section without advancing. Field errors are
// returned for display but never block the save. The bankConnection section
// is refused here; ConnectBank is its only writer.
func (s *Session) SaveSection(ctx context.Context, key models.SectionKey, value interface{}) (validation.FieldErrors, error) {
	if key == models.SectionBankConnection {
		return nil, errors.NewInvalidPayloadError("bankConnection is written only by the bank connect flow")
	}
	return s.saveSection(ctx, key, value)
}

func (s *Session) saveSection(ctx context.Context, key models.SectionKey, value interface{}) (validation.FieldErrors, error) {
	next, err := s.m.drafts.MergeSection(ctx, s.userEmail, s.draft, key, value)
	if err != nil {
		return nil, err
	}
	s.draft = next
	fe, _ := ValidateSection(key, value, s.m.limits.MaxInvoiceSize)
	return fe, nil
}

// CompleteStep validates and merges value into the current step's section,
// then advances. A nil value validates the section already in the draft.
// At BankConnect the value is ignored and the stored connection is checked.
// Completing the terminal step submits the application.
func (s *Session) CompleteStep(ctx context.Context, value interface{}) (StepResult, error) {
	step := s.seq.Current()
	if key, ok := step.Section(); ok {
		if value == nil || key == models.SectionBankConnection {
			value, _ = s.draft.Section(key)
		}
		if key == models.SectionFactoringAgreement {
			value = s.stampAgreement(value)
		}
		fe, ok := ValidateSection(key, value, s.m.limits.MaxInvoiceSize)
		if !ok {
			return s.result(TransitionNone, nil), errors.NewInvalidSectionError(string(key))
		}
		if fe.HasErrors() {
			metrics.SectionValidationFailures.WithLabelValues(string(step)).Inc()
			return s.result(TransitionNone, nil), errors.NewSectionValidationError(string(key), fe)
		}
		next, err := s.m.drafts.MergeSection(ctx, s.userEmail, s.draft, key, value)
		if err != nil {
			return s.result(TransitionNone, nil), err
		}
		s.draft = next
	}
	return s.Advance(ctx)
}

// Advance moves the sequencer without touching the draft. At the terminal
// step it runs the submission gate.
func (s *Session) Advance(ctx context.Context) (StepResult, error) {
	t := s.seq.Advance()
	if t != TransitionSubmit {
		s.recordTransition(ctx, "advance", t)
		return s.result(t, nil), nil
	}

	app, err := s.submit(ctx)
	if err != nil {
		return s.result(TransitionNone, nil), err
	}
	return s.result(TransitionSubmit, app), nil
}

// Skip persists the draft exactly as it is and leaves the wizard.
func (s *Session) Skip(ctx context.Context) Transition {
	s.m.drafts.Save(ctx, s.userEmail, s.draft)
	t := s.seq.Skip()
	s.recordTransition(ctx, "skip", t)
	return t
}

// EditFrom jumps from Review back to step. Requests that do not apply leave
// the wizard where it is.
func (s *Session) EditFrom(ctx context.Context, step Step) Transition {
	t := s.seq.EditFrom(step)
	s.recordTransition(ctx, "edit", t)
	return t
}

// RemoveCustomer drops customers[index], keeping the order of the rest.
func (s *Session) RemoveCustomer(ctx context.Context, index int) error {
	customers := s.draft.Customers
	if index < 0 || index >= len(customers) {
		return errors.NewIndexOutOfRangeError("customers", index, len(customers))
	}
	next := make([]models.Customer, 0, len(customers)-1)
	next = append(next, customers[:index]...)
	next = append(next, customers[index+1:]...)
	_, err := s.SaveSection(ctx, models.SectionCustomers, next)
	return err
}

// AddInvoice validates an upload and appends its metadata. The file content
// is not retained.
func (s *Session) AddInvoice(ctx context.Context, upload InvoiceUpload) (models.Invoice, error) {
	if fe := ValidateInvoiceUpload(upload, s.m.limits.MaxInvoiceSize); fe.HasErrors() {
		return models.Invoice{}, errors.NewInvoiceRejectedError(upload.Name, fe.Fields()[0]).
			WithMetadata("fieldErrors", map[string]string(fe))
	}
	inv := models.Invoice{Name: upload.Name, Size: upload.Size}
	invoices := append(append([]models.Invoice{}, s.draft.Invoices...), inv)
	if _, err := s.SaveSection(ctx, models.SectionInvoices, invoices); err != nil {
		return models.Invoice{}, err
	}
	return inv, nil
}

// RemoveInvoice drops invoices[index], keeping the order of the rest.
func (s *Session) RemoveInvoice(ctx context.Context, index int) error {
	invoices := s.draft.Invoices
	if index < 0 || index >= len(invoices) {
		return errors.NewIndexOutOfRangeError("invoices", index, len(invoices))
	}
	next := make([]models.Invoice, 0, len(invoices)-1)
	next = append(next, invoices[:index]...)
	next = append(next, invoices[index+1:]...)
	_, err := s.SaveSection(ctx, models.SectionInvoices, next)
	return err
}

// ConnectBank links a partner bank or records a manual entry, and stores
// the result as the bankConnection section.
func (s *Session) ConnectBank(ctx context.Context, req BankConnectRequest) (models.BankConnection, error) {
	if fe := ValidateBankConnectRequest(req); fe.HasErrors() {
		return models.BankConnection{}, errors.NewSectionValidationError(string(models.SectionBankConnection), fe)
	}

	var conn models.BankConnection
	if req.Manual != nil {
		conn = models.BankConnection{BankName: req.Manual.BankName, IsManual: true}
	} else {
		var err error
		conn, err = s.m.bank.Connect(ctx, req.BankID)
		if err != nil {
			return models.BankConnection{}, err
		}
	}

	if _, err := s.saveSection(ctx, models.SectionBankConnection, conn); err != nil {
		return models.BankConnection{}, err
	}
	return conn, nil
}

// SignAgreement records the signed agreement with the current timestamp and
// agreement version. It does not advance.
func (s *Session) SignAgreement(ctx context.Context, agreed bool, signature string) (models.FactoringAgreement, error) {
	fa := models.FactoringAgreement{Agreed: agreed, Signature: signature}
	if fe := ValidateAgreement(fa); fe.HasErrors() {
		return models.FactoringAgreement{}, errors.NewSectionValidationError(string(models.SectionFactoringAgreement), fe)
	}
	fa.SignedAt = s.m.now().UTC().Format(time.RFC3339)
	fa.AgreementVersion = s.m.limits.AgreementVersion

	if _, err := s.SaveSection(ctx, models.SectionFactoringAgreement, fa); err != nil {
		return models.FactoringAgreement{}, err
	}
	return fa, nil
}

// Submit sends the draft through the submission gate regardless of the
// current step.
func (s *Session) Submit(ctx context.Context) (*models.Application, error) {
	return s.submit(ctx)
}

func (s *Session) submit(ctx context.Context) (*models.Application, error) {
	s.m.drafts.Save(ctx, s.userEmail, s.draft)
	app, err := s.m.gate.Submit(ctx, s.userEmail, s.draft)
	if err != nil {
		return nil, err
	}
	s.seq.MarkCompleted()
	s.recordTransition(ctx, "submit", TransitionSubmit)
	return app, nil
}

// stampAgreement fills in signedAt and the agreement version when the
// client did not supply them.
func (s *Session) stampAgreement(value interface{}) interface{} {
	var fa models.FactoringAgreement
	switch v := value.(type) {
	case models.FactoringAgreement:
		fa = v
	case *models.FactoringAgreement:
		if v == nil {
			return value
		}
		fa = *v
	default:
		return value
	}
	if fa.SignedAt == "" {
		fa.SignedAt = s.m.now().UTC().Format(time.RFC3339)
	}
	if fa.AgreementVersion == "" {
		fa.AgreementVersion = s.m.limits.AgreementVersion
	}
	return fa
}

func (s *Session) recordTransition(ctx context.Context, action string, t Transition) {
	if t != TransitionNone {
		metrics.StepTransitions.WithLabelValues(action, string(s.seq.Current())).Inc()
	}
	s.m.progress.Save(ctx, s.userEmail, s.seq.State())
	s.logger.Debug("wizard transition", map[string]interface{}{
		"action":     action,
		"transition": string(t),
		"step":       string(s.seq.Current()),
	})
}

func (s *Session) result(t Transition, app *models.Application) StepResult {
	return StepResult{Transition: t, State: s.seq.State(), Application: app}
}
