package rest

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidleathers/campaign-dialer/internal/domain/consent"
	"github.com/davidleathers/campaign-dialer/internal/domain/dnc"
	"github.com/davidleathers/campaign-dialer/internal/service/compliance"
)

// ComplianceHandler serves DNC, consent and opt-out endpoints
type ComplianceHandler struct {
	*baseHandler
	compliance ComplianceService
}

func newComplianceHandler(base *baseHandler, svc ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{baseHandler: base, compliance: svc}
}

// AddDNC puts a number on the organization's DNC list
func (h *ComplianceHandler) AddDNC(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.org(w, r)
	if !ok {
		return
	}

	var req AddDNCRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	source, err := dnc.ParseSource(req.Source)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	entry, err := h.compliance.AddToDNC(r.Context(), compliance.AddDNCRequest{
		OrganizationID: orgID,
		Phone:          req.Phone,
		Source:         source,
		Reason:         req.Reason,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, entry)
}

// RemoveDNC deletes a number from the DNC list
func (h *ComplianceHandler) RemoveDNC(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.org(w, r)
	if !ok {
		return
	}

	if err := h.compliance.RemoveFromDNC(r.Context(), r.PathValue("phone"), orgID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckDNC reports whether a number is blocked
func (h *ComplianceHandler) CheckDNC(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.org(w, r)
	if !ok {
		return
	}

	result, err := h.compliance.CheckDNC(r.Context(), r.PathValue("phone"), orgID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, result)
}

// Scrub partitions a phone list into callable and blocked numbers
func (h *ComplianceHandler) Scrub(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.org(w, r)
	if !ok {
		return
	}

	var req ScrubRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.compliance.ScrubContacts(r.Context(), req.Phones, orgID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, result)
}

// RecordConsent appends a consent record
func (h *ComplianceHandler) RecordConsent(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.org(w, r)
	if !ok {
		return
	}

	var req RecordConsentRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctype, err := consent.ParseType(req.Type)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	method, err := consent.ParseMethod(req.Method)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.compliance.RecordConsent(r.Context(), compliance.RecordConsentRequest{
		OrganizationID: orgID,
		Phone:          req.Phone,
		Type:           ctype,
		Method:         method,
		Text:           req.Text,
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, c)
}

// RevokeConsent revokes every active consent for a number
func (h *ComplianceHandler) RevokeConsent(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.org(w, r)
	if !ok {
		return
	}

	phone := r.PathValue("phone")
	n, err := h.compliance.RevokeConsent(r.Context(), phone, orgID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, RevokeConsentResponse{Phone: phone, Revoked: n})
}

// CheckConsent reports the active consent for a number
func (h *ComplianceHandler) CheckConsent(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.org(w, r)
	if !ok {
		return
	}

	result, err := h.compliance.CheckConsent(r.Context(), r.PathValue("phone"), orgID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, result)
}

// OptOut handles an opt-out reported by call result ingestion. A transcript
// without an opt-out phrase changes nothing.
func (h *ComplianceHandler) OptOut(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.org(w, r)
	if !ok {
		return
	}

	var req OptOutRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if req.Transcript != "" && !compliance.DetectOptOut(req.Transcript) {
		h.writeJSON(w, r, http.StatusOK, OptOutResponse{Handled: false})
		return
	}

	result, err := h.compliance.HandleOptOutRequest(r.Context(), compliance.OptOutRequest{
		Phone:          req.Phone,
		OrganizationID: orgID,
		CallID:         req.CallID,
		Transcript:     req.Transcript,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("Opt-out handled",
		zap.String("org_id", orgID.String()),
		zap.Int64("contacts_marked", result.ContactsMarked),
		zap.Int64("consents_revoked", result.ConsentsRevoked))
	h.writeJSON(w, r, http.StatusOK, OptOutResponse{Handled: true, Result: result})
}

func (h *ComplianceHandler) org(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orgID, err := orgFromContext(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return uuid.Nil, false
	}
	return orgID, true
}
