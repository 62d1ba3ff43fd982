package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"onboarding-service/internal/common/auth"
	"onboarding-service/internal/common/errors"
	"onboarding-service/internal/common/validation"
	"onboarding-service/internal/models"
	"onboarding-service/internal/onboarding"

	"github.com/go-chi/chi/v5"
)

// sniffLen matches the number of bytes mimetype reads by default.
const sniffLen = 3072

type onboardingView struct {
	Draft             models.Draft           `json:"draft"`
	State             onboarding.State       `json:"state"`
	HasOnboardingData bool                   `json:"hasOnboardingData"`
	FieldErrors       validation.FieldErrors `json:"fieldErrors,omitempty"`
}

type stepView struct {
	onboarding.StepResult
	Draft models.Draft `json:"draft"`
}

func (h *Handler) session(r *http.Request) (*onboarding.Session, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil, false
	}
	return h.manager.Open(r.Context(), id.UserEmail), true
}

// withSession opens the caller's session or answers 401.
func (h *Handler) withSession(w http.ResponseWriter, r *http.Request) (*onboarding.Session, bool) {
	s, ok := h.session(r)
	if !ok {
		writeError(h.logger, w, errors.NewUnauthenticatedError("no identity on request"))
	}
	return s, ok
}

func view(s *onboarding.Session, fe validation.FieldErrors) onboardingView {
	return onboardingView{
		Draft:             s.Draft(),
		State:             s.State(),
		HasOnboardingData: s.HasOnboardingData(),
		FieldErrors:       fe,
	}
}

func (h *Handler) getOnboarding(w http.ResponseWriter, r *http.Request) {
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	writeJSON(h.logger, w, http.StatusOK, view(s, nil))
}

// saveSection stores one section without advancing. Field errors are
// returned alongside the saved draft.
func (h *Handler) saveSection(w http.ResponseWriter, r *http.Request) {
	key, ok := models.ParseSectionKey(chi.URLParam(r, "section"))
	if !ok {
		writeError(h.logger, w, errors.NewInvalidSectionError(chi.URLParam(r, "section")))
		return
	}
	if key == models.SectionBankConnection {
		writeError(h.logger, w, errBankConnectionViaConnect())
		return
	}
	raw, err := readBody(w, r, draftPatchSchema)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	patch, err := parseDraftPatch(raw)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	value, present, err := patch.section(key)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	if !present {
		writeError(h.logger, w, errors.NewInvalidPayloadError(fmt.Sprintf("body must contain %q", key)))
		return
	}

	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	fe, err := s.SaveSection(r.Context(), key, value)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, view(s, fe))
}

// completeStep validates the current step's section, taken from the body
// when present, then advances. A bankConnection in the body is ignored.
func (h *Handler) completeStep(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r, draftPatchSchema)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	patch, err := parseDraftPatch(raw)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}

	s, ok := h.withSession(w, r)
	if !ok {
		return
	}

	var value interface{}
	if key, ok := s.State().Current.Section(); ok && key != models.SectionBankConnection {
		v, present, err := patch.section(key)
		if err != nil {
			writeError(h.logger, w, err)
			return
		}
		if present {
			value = v
		}
	}

	res, err := s.CompleteStep(r.Context(), value)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, stepView{StepResult: res, Draft: s.Draft()})
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	res, err := s.Advance(r.Context())
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, stepView{StepResult: res, Draft: s.Draft()})
}

func (h *Handler) skip(w http.ResponseWriter, r *http.Request) {
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	t := s.Skip(r.Context())
	writeJSON(h.logger, w, http.StatusOK, onboarding.StepResult{Transition: t, State: s.State()})
}

func (h *Handler) editFrom(w http.ResponseWriter, r *http.Request) {
	step, ok := onboarding.ParseStep(chi.URLParam(r, "step"))
	if !ok {
		writeError(h.logger, w, errors.NewInvalidStepError(chi.URLParam(r, "step")))
		return
	}
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	t := s.EditFrom(r.Context(), step)
	writeJSON(h.logger, w, http.StatusOK, onboarding.StepResult{Transition: t, State: s.State()})
}

func (h *Handler) removeCustomer(w http.ResponseWriter, r *http.Request) {
	h.removeAt(w, r, (*onboarding.Session).RemoveCustomer)
}

func (h *Handler) removeInvoice(w http.ResponseWriter, r *http.Request) {
	h.removeAt(w, r, (*onboarding.Session).RemoveInvoice)
}

func (h *Handler) removeAt(w http.ResponseWriter, r *http.Request, remove func(*onboarding.Session, context.Context, int) error) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(h.logger, w, errors.NewInvalidPayloadError("index must be an integer"))
		return
	}
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	if err := remove(s, r.Context(), index); err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, view(s, nil))
}

// addInvoice accepts a multipart upload in the "file" field. Only the name
// and size are kept; the content is read just far enough to detect its type.
func (h *Handler) addInvoice(w http.ResponseWriter, r *http.Request) {
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	maxSize := h.manager.Limits().MaxInvoiceSize

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+maxJSONBody)
	if err := r.ParseMultipartForm(maxJSONBody); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			msg := fmt.Sprintf("File exceeds the %d MB limit", maxSize/(1024*1024))
			writeError(h.logger, w, errors.NewInvoiceRejectedError("upload", msg).
				WithMetadata("fieldErrors", map[string]string{"size": msg}))
			return
		}
		writeError(h.logger, w, errors.NewInvalidPayloadError(err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(h.logger, w, errors.NewInvalidPayloadError("multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !stderrors.Is(err, io.ErrUnexpectedEOF) && !stderrors.Is(err, io.EOF) {
		writeError(h.logger, w, errors.NewInvalidPayloadError(err.Error()))
		return
	}

	inv, err := s.AddInvoice(r.Context(), onboarding.InvoiceUpload{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Head:        head[:n],
	})
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusCreated, map[string]interface{}{
		"invoice": inv,
		"draft":   s.Draft(),
	})
}

func (h *Handler) listBanks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, map[string]interface{}{"banks": onboarding.BankPartners})
}

func (h *Handler) connectBank(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r, bankConnectSchema)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	var req onboarding.BankConnectRequest
	if raw != nil {
		if err := json.Unmarshal(raw, &req); err != nil {
			writeError(h.logger, w, errors.NewInvalidPayloadError(err.Error()))
			return
		}
	}

	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	conn, err := s.ConnectBank(r.Context(), req)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]interface{}{"bankConnection": conn})
}

func (h *Handler) signAgreement(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r, agreementSchema)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	if raw == nil {
		writeError(h.logger, w, errors.NewInvalidPayloadError("body is required"))
		return
	}
	var req struct {
		Agreed    bool   `json:"agreed"`
		Signature string `json:"signature"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(h.logger, w, errors.NewInvalidPayloadError(err.Error()))
		return
	}

	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	fa, err := s.SignAgreement(r.Context(), req.Agreed, req.Signature)
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]interface{}{"factoringAgreement": fa})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.withSession(w, r)
	if !ok {
		return
	}
	app, err := s.Submit(r.Context())
	if err != nil {
		writeError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusCreated, app)
}

// getApplication reports the applicant's status, and the application once
// one has been submitted.
func (h *Handler) getApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, errors.NewUnauthenticatedError("no identity on request"))
		return
	}
	gate := h.manager.Gate()
	app, err := gate.Application(r.Context(), id.UserEmail)
	if err != nil {
		if stdErr, ok := errors.AsStandardError(err); ok && stdErr.Code == errors.ErrCodeApplicationMissing {
			writeJSON(h.logger, w, http.StatusOK, map[string]interface{}{"status": models.StatusPending})
			return
		}
		writeError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"status":      app.Status,
		"application": app,
	})
}
