package rest

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	campaignpkg "github.com/davidleathers/campaign-dialer/internal/domain/campaign"
	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
)

// CampaignHandler serves the campaign control endpoints
type CampaignHandler struct {
	*baseHandler
	executor  CampaignController
	campaigns CampaignReader
	// runCtx bounds background runs; it outlives individual requests
	runCtx context.Context
}

func newCampaignHandler(base *baseHandler, executor CampaignController, campaigns CampaignReader, runCtx context.Context) *CampaignHandler {
	return &CampaignHandler{baseHandler: base, executor: executor, campaigns: campaigns, runCtx: runCtx}
}

// Start validates the campaign and runs it in the background
func (h *CampaignHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, orgID, ok := h.ids(w, r)
	if !ok {
		return
	}

	if err := h.executor.Launch(h.runCtx, id, orgID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("Campaign start accepted",
		zap.String("campaign_id", id.String()),
		zap.String("org_id", orgID.String()))
	h.writeJSON(w, r, http.StatusAccepted, CampaignActionResponse{CampaignID: id, Action: "start"})
}

// Pause asks a running campaign to halt after the current contact
func (h *CampaignHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, "pause", h.executor.Pause)
}

// Stop asks a running campaign to exit
func (h *CampaignHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, "stop", h.executor.Stop)
}

// Resume flips a paused runner back to running. A campaign whose loop already
// exited must be started again.
func (h *CampaignHandler) Resume(w http.ResponseWriter, r *http.Request) {
	id, orgID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if _, err := h.owned(r.Context(), id, orgID); err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, running := h.executor.GetState(r.Context(), id); !running {
		h.writeError(w, r, errors.NewConflictError("CAMPAIGN_NOT_RUNNING",
			"Campaign is not running; start it to continue dialing"))
		return
	}

	if err := h.executor.Resume(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusAccepted, CampaignActionResponse{CampaignID: id, Action: "resume"})
}

// State reports the run state and persisted stats of a campaign
func (h *CampaignHandler) State(w http.ResponseWriter, r *http.Request) {
	id, orgID, ok := h.ids(w, r)
	if !ok {
		return
	}
	camp, err := h.owned(r.Context(), id, orgID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := CampaignStateResponse{
		CampaignID: id,
		Status:     camp.Status.String(),
		Stats:      camp.Stats,
	}
	if state, running := h.executor.GetState(r.Context(), id); running {
		resp.Running = true
		resp.RunState = state.String()
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *CampaignHandler) control(w http.ResponseWriter, r *http.Request, action string, fn func(context.Context, uuid.UUID) error) {
	id, orgID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if _, err := h.owned(r.Context(), id, orgID); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := fn(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusAccepted, CampaignActionResponse{CampaignID: id, Action: action})
}

func (h *CampaignHandler) ids(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	orgID, err := orgFromContext(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	return id, orgID, true
}

// owned loads the campaign and hides campaigns of other organizations
func (h *CampaignHandler) owned(ctx context.Context, id, orgID uuid.UUID) (*campaignpkg.Campaign, error) {
	camp, err := h.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !camp.BelongsTo(orgID) {
		return nil, errors.ErrCampaignNotFound
	}
	return camp, nil
}
