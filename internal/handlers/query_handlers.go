package handlers

import (
	"encoding/json"
	"net/http"

	"survey-relay-service/internal/apperrors"
	"survey-relay-service/internal/models"
	"survey-relay-service/internal/survey"
)

type QueryHandlers struct {
	Engine *survey.Engine
}

// HandleQuery runs one survey query. Every failure, including internal ones,
// is reported as 400 with the error code in the body.
func (h *QueryHandlers) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req survey.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeQueryError(w, apperrors.NewMalformedRequestError("invalid JSON body: "+err.Error()))
		return
	}

	out, err := h.Engine.RunQuery(r.Context(), req)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func writeQueryError(w http.ResponseWriter, err error) {
	se := apperrors.As(err)
	writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
		Error:   se.Message,
		Code:    string(se.Code),
		Details: se.Details,
	})
}
