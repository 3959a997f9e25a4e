// ABOUTME: HTTP handlers of the development chat backend
// ABOUTME: Payloads and Spanish error texts follow the production service

package devapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/2389/tutor-chat/internal/auth"
	"github.com/2389/tutor-chat/internal/chatapi"
	"github.com/2389/tutor-chat/internal/knowledge"
)

// Error texts returned in the "error" field.
const (
	errEmptyQuestion     = "Por favor, ingresa una pregunta"
	errInternal          = "Error interno del servidor"
	errCategories        = "Error obteniendo categorías"
	errQuestions         = "Error obteniendo preguntas"
	errInvalidCategoryID = "category_id inválido"
	errQuestionRequired  = "Pregunta y respuesta son requeridas"
	errCategoryNotFound  = "Categoría no encontrada"
	errAddQuestion       = "Error agregando pregunta"
	errFeedbackRequired  = "ID del mensaje y calificación son requeridos"
	errRatingRange       = "La calificación debe estar entre 1 y 5"
	errCommentTooLong    = "El comentario no puede superar 500 caracteres"
	errMessageNotFound   = "Mensaje no encontrado"
	errFeedback          = "Error guardando feedback"
	errSuggestions       = "Error obteniendo sugerencias"
	errHistory           = "Error obteniendo historial"
	errStats             = "Error obteniendo estadísticas"
	errAnalytics         = "Error obteniendo analytics"
	errExportType        = "Tipo de datos no válido"
	errExport            = "Error exportando datos"
	errBadCredentials    = "Usuario o contraseña incorrectos"
	errInvalidJSON       = "JSON inválido"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API del chatbot funcionando"})
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type answerResponse struct {
	Response   string  `json:"response"`
	MessageID  int64   `json:"message_id"`
	Confidence float64 `json:"confidence"`
	Intent     string  `json:"intent"`
}

func (s *Server) handleGetResponse(w http.ResponseWriter, r *http.Request) {
	input := strings.TrimSpace(r.FormValue("user_input"))
	if input == "" {
		s.sendJSONError(w, http.StatusBadRequest, errEmptyQuestion)
		return
	}
	sessionID := requestSession(w, r, true)

	ans, err := s.kb.Answer(r.Context(), sessionID, input)
	if err != nil {
		s.logger.Error("answering question", "session_id", sessionID, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, errInternal)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{
		Response:   ans.Text,
		MessageID:  ans.MessageID,
		Confidence: ans.Confidence,
		Intent:     string(ans.Intent),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.kb.ListCategories(r.Context())
	if err != nil {
		s.logger.Error("listing categories", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, errCategories)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	categoryID := 0
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 0 {
			s.sendJSONError(w, http.StatusBadRequest, errInvalidCategoryID)
			return
		}
		categoryID = id
	}

	questions, err := s.kb.ListQuestions(r.Context(), categoryID)
	if err != nil {
		s.logger.Error("listing questions", "category_id", categoryID, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, errQuestions)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (s *Server) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	var in chatapi.NewQuestion
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, errInvalidJSON)
		return
	}

	id, err := s.kb.AddQuestion(r.Context(), in)
	switch {
	case errors.Is(err, knowledge.ErrInvalidQuestion):
		s.sendJSONError(w, http.StatusBadRequest, errQuestionRequired)
		return
	case errors.Is(err, knowledge.ErrNotFound):
		s.sendJSONError(w, http.StatusNotFound, errCategoryNotFound)
		return
	case err != nil:
		s.logger.Error("adding question", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, errAddQuestion)
		return
	}

	s.logger.Info("question added", "id", id, "by", auth.FromContext(r.Context()).Subject)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Pregunta agregada exitosamente",
		"id":      id,
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var fb chatapi.Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, errInvalidJSON)
		return
	}
	if fb.MessageID == 0 || fb.Rating == 0 {
		s.sendJSONError(w, http.StatusBadRequest, errFeedbackRequired)
		return
	}
	switch err := fb.Validate(); {
	case errors.Is(err, chatapi.ErrMissingMessage):
		s.sendJSONError(w, http.StatusBadRequest, errFeedbackRequired)
		return
	case errors.Is(err, chatapi.ErrInvalidRating):
		s.sendJSONError(w, http.StatusBadRequest, errRatingRange)
		return
	case errors.Is(err, chatapi.ErrCommentTooLong):
		s.sendJSONError(w, http.StatusBadRequest, errCommentTooLong)
		return
	}

	err := s.kb.SetFeedback(r.Context(), fb.MessageID, fb.Rating, fb.Comment)
	switch {
	case errors.Is(err, knowledge.ErrNotFound):
		s.sendJSONError(w, http.StatusNotFound, errMessageNotFound)
		return
	case err != nil:
		s.logger.Error("saving feedback", "message_id", fb.MessageID, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, errFeedback)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Feedback guardado exitosamente"})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeJSON(w, http.StatusOK, []chatapi.Suggestion{})
		return
	}
	suggestions, err := s.kb.Suggestions(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("listing suggestions", "session_id", sessionID, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, errSuggestions)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := requestSession(w, r, false)
	if sessionID == "" {
		writeJSON(w, http.StatusOK, []chatapi.HistoryEntry{})
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	history, err := s.kb.History(r.Context(), sessionID, limit)
	if err != nil {
		s.logger.Error("loading history", "session_id", sessionID, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, errHistory)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.kb.Stats(r.Context())
	if err != nil {
		s.logger.Error("computing stats", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, errStats)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.kb.Analytics(r.Context())
	if err != nil {
		s.logger.Error("computing analytics", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, errAnalytics)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = chatapi.ExportConversations
	}

	export, err := s.kb.Export(r.Context(), kind)
	switch {
	case errors.Is(err, knowledge.ErrUnknownExport):
		s.sendJSONError(w, http.StatusBadRequest, errExportType)
		return
	case err != nil:
		s.logger.Error("exporting", "type", kind, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, errExport)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		s.sendJSONError(w, http.StatusUnauthorized, errBadCredentials)
		return
	}

	err := s.kb.Authenticate(r.Context(), username, password)
	if errors.Is(err, knowledge.ErrBadCredentials) {
		s.logger.Warn("login rejected", "username", username)
		s.sendJSONError(w, http.StatusUnauthorized, errBadCredentials)
		return
	}
	if err != nil {
		s.logger.Error("authenticating", "username", username, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, errInternal)
		return
	}

	token, err := s.signer.Issue(username, auth.RoleAdmin, s.tokenTTL)
	if err != nil {
		s.logger.Error("issuing admin token", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, errInternal)
		return
	}
	s.logger.Info("admin logged in", "username", username)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokenTTL).UTC().Format(time.RFC3339),
	})
}
