package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"feedbackdesk/internal/model"
	"feedbackdesk/internal/service"
	"feedbackdesk/internal/transport/rest/middleware"
)

// AdminHandler handles question administration and the access secret
type AdminHandler struct {
	adminSvc *service.AdminService
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminSvc *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		adminSvc: adminSvc,
		logger:   logger,
	}
}

// ChangePINRequest is the body of PUT /v1/admin/access-pin
type ChangePINRequest struct {
	Current string `json:"current"`
	New     string `json:"new"`
	Confirm string `json:"confirm"`
}

type messageResponse struct {
	Message  string          `json:"message"`
	Question *model.Question `json:"question,omitempty"`
}

// ListQuestions handles GET /v1/admin/questions
func (h *AdminHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.adminSvc.ListQuestions(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, service.MsgReloadPrompt, nil)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// CreateQuestion handles POST /v1/admin/questions
func (h *AdminHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var in service.QuestionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, service.MsgInvalidBody)
		return
	}

	q, err := h.adminSvc.CreateQuestion(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.logger, err, service.MsgActionFailed, nil)
		return
	}
	h.audit(r, "create_question", "question", q.ID)
	writeJSON(w, http.StatusCreated, messageResponse{Message: service.MsgQuestionSaved, Question: q})
}

// UpdateQuestion handles PATCH /v1/admin/questions/{id}
func (h *AdminHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var patch model.QuestionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, service.MsgInvalidBody)
		return
	}

	q, err := h.adminSvc.UpdateQuestion(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeServiceError(w, h.logger, err, service.MsgActionFailed, nil)
		return
	}
	h.audit(r, "update_question", "question", q.ID)
	writeJSON(w, http.StatusOK, messageResponse{Message: service.MsgQuestionUpdated, Question: q})
}

// DeleteQuestion handles DELETE /v1/admin/questions/{id}?confirm=true
func (h *AdminHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	id := mux.Vars(r)["id"]

	if err := h.adminSvc.DeleteQuestion(r.Context(), id, confirm); err != nil {
		writeServiceError(w, h.logger, err, service.MsgActionFailed, nil)
		return
	}
	h.audit(r, "delete_question", "question", id)
	writeJSON(w, http.StatusOK, messageResponse{Message: service.MsgQuestionDeleted})
}

// ChangeAccessPIN handles PUT /v1/admin/access-pin
func (h *AdminHandler) ChangeAccessPIN(w http.ResponseWriter, r *http.Request) {
	var req ChangePINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, service.MsgInvalidBody)
		return
	}

	if err := h.adminSvc.ChangeAccessPIN(r.Context(), req.Current, req.New, req.Confirm); err != nil {
		writeServiceError(w, h.logger, err, service.MsgActionFailed, nil)
		return
	}
	h.audit(r, "change_access_pin")
	writeJSON(w, http.StatusOK, messageResponse{Message: service.MsgPINUpdated})
}

// audit records which admin performed a mutating action
func (h *AdminHandler) audit(r *http.Request, action string, args ...interface{}) {
	args = append([]interface{}{"admin", middleware.GetUserID(r.Context()), "action", action}, args...)
	h.logger.Info("admin action", args...)
}
