package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"doubtdesk/internal/service"
	"doubtdesk/internal/transport/rest/middleware"
)

var validate = validator.New()

// DoubtHandler handles the doubt endpoints.
type DoubtHandler struct {
	doubtSvc  *service.DoubtService
	answerSvc *service.AnswerService
	responder *service.AIResponder
}

// NewDoubtHandler creates a new doubt handler.
func NewDoubtHandler(doubtSvc *service.DoubtService, answerSvc *service.AnswerService, responder *service.AIResponder) *DoubtHandler {
	return &DoubtHandler{
		doubtSvc:  doubtSvc,
		answerSvc: answerSvc,
		responder: responder,
	}
}

// AskDoubtRequest is the request body for posting a doubt.
type AskDoubtRequest struct {
	Title     string `json:"title" validate:"required"`
	Body      string `json:"body" validate:"required"`
	Subject   string `json:"subject"`
	Topic     string `json:"topic"`
	StudentID string `json:"studentId" validate:"required"`
}

// Ask handles POST /v1/doubts/ask.
func (h *DoubtHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskDoubtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doubt, err := h.doubtSvc.Ask(r.Context(), req.Title, req.Body, req.Subject, req.Topic, req.StudentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doubt)
}

// GetByClass handles GET /v1/doubts/all/{class}.
func (h *DoubtHandler) GetByClass(w http.ResponseWriter, r *http.Request) {
	class := mux.Vars(r)["class"]

	feed, err := h.doubtSvc.GetClassFeed(r.Context(), class)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, feed)
}

// GetByStudent handles GET /v1/doubts/{studentId}.
func (h *DoubtHandler) GetByStudent(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["studentId"]

	feed, err := h.doubtSvc.GetStudentFeed(r.Context(), studentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, feed)
}

// AnswerDoubtRequest is the request body for answering a doubt.
type AnswerDoubtRequest struct {
	Content   string `json:"content" validate:"required"`
	StudentID string `json:"studentId"`
	IsAI      bool   `json:"is_ai"`
}

// Answer handles POST /v1/doubts/{doubtId}/answer.
func (h *DoubtHandler) Answer(w http.ResponseWriter, r *http.Request) {
	doubtID := mux.Vars(r)["doubtId"]

	var req AnswerDoubtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := h.answerSvc.Submit(r.Context(), doubtID, req.Content, req.StudentID, req.IsAI)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// RequestAI handles POST /v1/doubts/{doubtId}/ai. Only the doubt's author may
// force an AI answer, and only after the grace period.
func (h *DoubtHandler) RequestAI(w http.ResponseWriter, r *http.Request) {
	doubtID := mux.Vars(r)["doubtId"]
	studentID := middleware.GetStudentID(r.Context())

	doubt, err := h.doubtSvc.GetDoubt(r.Context(), doubtID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if doubt.AuthorID != studentID {
		writeError(w, http.StatusForbidden, service.ErrNotAuthor.Error())
		return
	}

	text, err := h.responder.RequestAnswer(r.Context(), doubt)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"response": text})
}

// writeServiceError maps service errors onto the HTTP taxonomy.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrDoubtNotFound), errors.Is(err, service.ErrStudentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmptyContent), errors.Is(err, service.ErrSubmitterRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotYetEligible):
		writeError(w, http.StatusTooEarly, err.Error())
	case errors.Is(err, service.ErrAlreadyAnswered), errors.Is(err, service.ErrHumanAnswered),
		errors.Is(err, service.ErrAlreadyProcessing):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotAuthor):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
