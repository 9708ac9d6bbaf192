package handler

import (
	"encoding/json"
	"net/http"

	"doubtdesk/internal/service"
)

// AIHandler handles the direct AI chat endpoint.
type AIHandler struct {
	responder *service.AIResponder
}

// NewAIHandler creates a new AI handler.
func NewAIHandler(responder *service.AIResponder) *AIHandler {
	return &AIHandler{responder: responder}
}

// AskRequest is the request body for the AI chat.
type AskRequest struct {
	Prompt    string `json:"prompt" validate:"required"`
	StudentID string `json:"studentId" validate:"required"`
}

// Ask handles POST /v1/ai/ask.
func (h *AIHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	text, err := h.responder.Chat(r.Context(), req.StudentID, req.Prompt)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"response": text})
}
