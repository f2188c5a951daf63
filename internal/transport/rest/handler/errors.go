package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"feedbackdesk/internal/model"
	"feedbackdesk/internal/service"
)

type errorBody struct {
	Error      string               `json:"error"`
	QuestionID string               `json:"questionId,omitempty"`
	Session    *model.IntakeSession `json:"session,omitempty"`
}

// writeServiceError maps service errors to a status and a user message.
// Internal detail is logged, never sent. unavailable is the message used for
// storage failures.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error, unavailable string, session *model.IntakeSession) {
	status, body := classify(err, unavailable)
	body.Session = session

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func classify(err error, unavailable string) (int, errorBody) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, errorBody{Error: service.MsgRequiredMissing, QuestionID: verr.QuestionID}
	}
	if msg, ok := service.PINErrorMessage(err); ok {
		return http.StatusUnprocessableEntity, errorBody{Error: msg}
	}

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, errorBody{Error: service.MsgSessionNotFound}
	case errors.Is(err, service.ErrSubmissionInProgress):
		return http.StatusConflict, errorBody{Error: service.MsgSubmitInProgress}
	case errors.Is(err, service.ErrMissingControl):
		return http.StatusBadRequest, errorBody{Error: service.MsgFormOutdated}
	case errors.Is(err, service.ErrQuestionNotFound):
		return http.StatusNotFound, errorBody{Error: service.MsgQuestionMissing}
	case errors.Is(err, service.ErrQuestionExists):
		return http.StatusConflict, errorBody{Error: service.MsgQuestionExists}
	case errors.Is(err, service.ErrQuestionTextRequired):
		return http.StatusUnprocessableEntity, errorBody{Error: service.MsgQuestionTextRequired}
	case errors.Is(err, service.ErrConfirmationRequired):
		return http.StatusPreconditionRequired, errorBody{Error: service.MsgDeleteConfirm}
	case errors.Is(err, model.ErrUnknownQuestionType):
		return http.StatusUnprocessableEntity, errorBody{Error: service.MsgInvalidType}
	case errors.Is(err, service.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, errorBody{Error: unavailable}
	}
	return http.StatusInternalServerError, errorBody{Error: service.MsgActionFailed}
}
