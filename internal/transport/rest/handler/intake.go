package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"feedbackdesk/internal/model"
	"feedbackdesk/internal/service"
)

// IntakeHandler serves the respondent flow
type IntakeHandler struct {
	intakeSvc *service.IntakeService
	logger    *slog.Logger
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(intakeSvc *service.IntakeService, logger *slog.Logger) *IntakeHandler {
	return &IntakeHandler{
		intakeSvc: intakeSvc,
		logger:    logger,
	}
}

// AccessRequest is the gate input
type AccessRequest struct {
	PIN  string `json:"pin"`
	Live bool   `json:"live"`
}

// SubmitRequest carries raw control values keyed by question id
type SubmitRequest struct {
	Answers map[string]interface{} `json:"answers"`
}

// Start handles POST /v1/sessions
func (h *IntakeHandler) Start(w http.ResponseWriter, r *http.Request) {
	view, err := h.intakeSvc.Bootstrap(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, service.MsgReloadPrompt, nil)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Get handles GET /v1/sessions/{id}
func (h *IntakeHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.intakeSvc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err, service.MsgReloadPrompt, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// End handles DELETE /v1/sessions/{id}
func (h *IntakeHandler) End(w http.ResponseWriter, r *http.Request) {
	if err := h.intakeSvc.End(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.logger, err, service.MsgReloadPrompt, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Form handles GET /v1/sessions/{id}/form
func (h *IntakeHandler) Form(w http.ResponseWriter, r *http.Request) {
	view, err := h.intakeSvc.Form(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err, service.MsgReloadPrompt, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Access handles POST /v1/sessions/{id}/access
func (h *IntakeHandler) Access(w http.ResponseWriter, r *http.Request) {
	var req AccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, service.MsgInvalidBody)
		return
	}

	view, err := h.intakeSvc.EnterAccess(r.Context(), mux.Vars(r)["id"], req.PIN, req.Live)
	if err != nil {
		writeServiceError(w, h.logger, err, service.MsgReloadPrompt, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Submit handles POST /v1/sessions/{id}/submit
func (h *IntakeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, service.MsgInvalidBody)
		return
	}
	if req.Answers == nil {
		req.Answers = map[string]interface{}{}
	}

	result, err := h.intakeSvc.Submit(r.Context(), mux.Vars(r)["id"], req.Answers)
	if err != nil {
		var session *model.IntakeSession
		if result != nil {
			session = result.Session
		}
		writeServiceError(w, h.logger, err, service.MsgPersistFailed, session)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Reset handles POST /v1/sessions/{id}/reset
func (h *IntakeHandler) Reset(w http.ResponseWriter, r *http.Request) {
	view, err := h.intakeSvc.Reset(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err, service.MsgReloadPrompt, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
