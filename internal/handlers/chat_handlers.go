package handlers

import (
	"encoding/json"
	"net/http"

	"survey-relay-service/internal/apperrors"
	"survey-relay-service/internal/logger"
	"survey-relay-service/internal/models"
	"survey-relay-service/internal/services"
)

type ChatHandlers struct {
	Chat   *services.ChatService
	Logger logger.Logger
}

// HandleChat relays the conversation and writes the final completion body
// unchanged.
func (h *ChatHandlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.Logger, apperrors.NewMalformedRequestError("invalid JSON body: "+err.Error()))
		return
	}

	body, err := h.Chat.Chat(r.Context(), req)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// writeError renders err as the relay error envelope. Only upstream failures
// echo their status in the body.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	se := apperrors.As(err)
	resp := models.ErrorResponse{
		Error:   se.Message,
		Code:    string(se.Code),
		Details: se.Details,
	}
	if se.Code == apperrors.ErrCodeUpstream {
		resp.Status = se.Status
	}
	if log != nil && se.Status >= http.StatusInternalServerError {
		log.WithError(err).Error("request failed", map[string]interface{}{"code": string(se.Code), "status": se.Status})
	}
	writeJSON(w, se.Status, resp)
}
