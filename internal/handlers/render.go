package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mataluis2k/quizMgr/internal/middleware"
	"github.com/mataluis2k/quizMgr/internal/models"
	"github.com/mataluis2k/quizMgr/internal/repository"
	"github.com/mataluis2k/quizMgr/internal/sanitize"
	"github.com/mataluis2k/quizMgr/internal/view"
)

// RenderHandler serves the public endpoints the embeddable renderer
// talks to, plus the authenticated builder preview.
type RenderHandler struct {
	quizRepo       quizRepository
	submissionRepo submissionRepository
	redis          *redis.Client
	cacheTTL       time.Duration
	view           *view.Renderer
}

type submissionRepository interface {
	Create(ctx context.Context, s *models.Submission) error
}

func NewRenderHandler(quizRepo quizRepository, submissionRepo submissionRepository, redisClient *redis.Client, cacheTTL time.Duration) *RenderHandler {
	return &RenderHandler{
		quizRepo:       quizRepo,
		submissionRepo: submissionRepo,
		redis:          redisClient,
		cacheTTL:       cacheTTL,
		view:           view.New(),
	}
}

func renderCacheKey(quizID string) string {
	return "quiz_render:" + quizID
}

// GetRenderPayload serves the quiz payload consumed by embedded
// renderers. Responses are cached in Redis until the quiz changes or
// the TTL expires.
func (h *RenderHandler) GetRenderPayload(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "quizId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return
	}

	if h.redis != nil {
		cached, err := h.redis.Get(r.Context(), renderCacheKey(id.String())).Result()
		if err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(cached))
			return
		}
	}

	quiz, err := h.quizRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found", r))
		return
	}

	styling := quiz.Styling
	payload := models.QuizPayload{
		QuizName:  quiz.QuizName,
		Styling:   &styling,
		Questions: quiz.Questions,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to encode quiz", r))
		return
	}

	if h.redis != nil {
		if err := h.redis.Set(r.Context(), renderCacheKey(id.String()), string(data), h.cacheTTL).Err(); err != nil {
			log.Printf("failed to cache render payload for quiz %s: %v", id, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Submit accepts a completed response set from an embedded renderer.
// The endpoint is public; renderers run on pages with no session.
func (h *RenderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	quizID, err := uuid.Parse(req.QuizID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return
	}

	quiz, err := h.quizRepo.GetByID(r.Context(), quizID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found", r))
		return
	}

	if len(req.Responses) != len(quiz.Questions) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Response count does not match question count", r))
		return
	}

	for i, resp := range req.Responses {
		if resp.QuestionID != quiz.Questions[i].QuestionID {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Responses do not match quiz questions", r))
			return
		}
		if resp.AnswerID != nil && resp.UserInput != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Response cannot carry both an answer choice and free text", r))
			return
		}
	}

	responsesJSON, _ := json.Marshal(req.Responses)
	submission := &models.Submission{
		QuizID:        quizID,
		ResponsesJSON: responsesJSON,
	}

	if err := h.submissionRepo.Create(r.Context(), submission); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store submission", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"submission_id": submission.SubmissionID,
		"submitted_at":  submission.SubmittedAt,
	})
}

// Preview renders the first question server side so the builder can
// show exactly what an embedded renderer would produce.
func (h *RenderHandler) Preview(w http.ResponseWriter, r *http.Request) {
	quiz := h.ownedQuiz(w, r)
	if quiz == nil {
		return
	}

	styling := quiz.Styling
	payload := sanitize.Payload(models.QuizPayload{
		QuizName:  quiz.QuizName,
		Styling:   &styling,
		Questions: quiz.Questions,
	})

	if len(payload.Questions) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("INVALID_QUIZ", "Quiz has no questions to preview", r))
		return
	}

	q := payload.Questions[0]
	html, err := h.view.Question(payload, q, models.Response{QuestionID: q.QuestionID}, 0, len(payload.Questions), len(payload.Questions) == 1, false)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to render preview", r))
		return
	}

	style, err := h.view.Style(styling)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to render preview styles", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"html":  html,
		"style": style,
	})
}

// ownedQuiz mirrors QuizHandler.getOwned for the preview route.
func (h *RenderHandler) ownedQuiz(w http.ResponseWriter, r *http.Request) *models.Quiz {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return nil
	}

	quiz, err := h.quizRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found", r))
		return nil
	}

	if quiz.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil
	}

	return quiz
}

var _ submissionRepository = (*repository.SubmissionRepo)(nil)
