package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mataluis2k/quizMgr/internal/middleware"
	"github.com/mataluis2k/quizMgr/internal/models"
	"github.com/mataluis2k/quizMgr/internal/repository"
)

type QuizHandler struct {
	quizRepo quizRepository
	jobRepo  jobRepository
	redis    *redis.Client
}

type quizRepository interface {
	Create(ctx context.Context, q *models.Quiz) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	ListByUser(ctx context.Context, userID uuid.UUID, search string, limit, offset int) ([]models.QuizListItem, int, error)
	Update(ctx context.Context, q *models.Quiz) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type jobRepository interface {
	Create(ctx context.Context, j *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

func NewQuizHandler(quizRepo quizRepository, jobRepo jobRepository, redisClient *redis.Client) *QuizHandler {
	return &QuizHandler{
		quizRepo: quizRepo,
		jobRepo:  jobRepo,
		redis:    redisClient,
	}
}

// validateQuiz enforces the builder rules: a quiz needs a name and at
// least one question, every question needs text, and multiple choice
// questions need at least two answers.
func validateQuiz(req models.SaveQuizRequest) map[string]string {
	fieldErrors := make(map[string]string)

	if strings.TrimSpace(req.QuizName) == "" {
		fieldErrors["quiz_name"] = "Quiz name is required"
	}
	if len(req.Questions) == 0 {
		fieldErrors["questions"] = "A quiz needs at least one question"
	}

	for i, q := range req.Questions {
		key := "questions[" + strconv.Itoa(i) + "]"
		if strings.TrimSpace(q.Text) == "" {
			fieldErrors[key+".text"] = "Question text is required"
		}
		switch q.Type {
		case models.QuestionMultipleChoice:
			if len(q.Answers) < 2 {
				fieldErrors[key+".question_answers"] = "Multiple choice questions need at least two answers"
			}
			for j, a := range q.Answers {
				if strings.TrimSpace(a.Answer) == "" {
					fieldErrors[key+".question_answers["+strconv.Itoa(j)+"]"] = "Answer text is required"
				}
			}
		case models.QuestionUserInput:
			// no answers required
		default:
			fieldErrors[key+".type"] = "Unknown question type"
		}
	}

	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}

// assignIDs fills in missing question/answer IDs and normalizes answer
// order so the builder can send partial drafts.
func assignIDs(questions []models.Question) {
	for i := range questions {
		if questions[i].QuestionID == "" {
			questions[i].QuestionID = uuid.New().String()
		}
		for j := range questions[i].Answers {
			if questions[i].Answers[j].AnswerID == "" {
				questions[i].Answers[j].AnswerID = uuid.New().String()
			}
			if questions[i].Answers[j].Order == 0 {
				questions[i].Answers[j].Order = j + 1
			}
		}
	}
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.SaveQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if fieldErrors := validateQuiz(req); fieldErrors != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	assignIDs(req.Questions)

	quiz := &models.Quiz{
		UserID:      middleware.GetUserID(r.Context()),
		QuizName:    req.QuizName,
		Description: req.Description,
		Styling:     req.Styling,
		Questions:   req.Questions,
	}

	if err := h.quizRepo.Create(r.Context(), quiz); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create quiz", r))
		return
	}

	writeJSON(w, http.StatusCreated, quiz)
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	search := r.URL.Query().Get("search")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := h.quizRepo.ListByUser(r.Context(), userID, search, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch quizzes", r))
		return
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	writeJSON(w, http.StatusOK, models.QuizListResponse{
		Data: items,
		Metadata: models.ListMetadata{
			TotalRecords: total,
			Limit:        limit,
			Offset:       offset,
			TotalPages:   totalPages,
		},
		RequestID: r.Header.Get("X-Request-ID"),
	})
}

// getOwned fetches a quiz by the id URL param and checks ownership.
// It writes the error response itself and returns nil on failure.
func (h *QuizHandler) getOwned(w http.ResponseWriter, r *http.Request) *models.Quiz {
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

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	quiz := h.getOwned(w, r)
	if quiz == nil {
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Update(w http.ResponseWriter, r *http.Request) {
	quiz := h.getOwned(w, r)
	if quiz == nil {
		return
	}

	var req models.SaveQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if fieldErrors := validateQuiz(req); fieldErrors != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	assignIDs(req.Questions)

	quiz.QuizName = req.QuizName
	quiz.Description = req.Description
	quiz.Styling = req.Styling
	quiz.Questions = req.Questions

	if err := h.quizRepo.Update(r.Context(), quiz); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update quiz", r))
		return
	}

	h.invalidateRenderCache(r.Context(), quiz.QuizID)

	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	quiz := h.getOwned(w, r)
	if quiz == nil {
		return
	}

	if err := h.quizRepo.Delete(r.Context(), quiz.QuizID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete quiz", r))
		return
	}

	h.invalidateRenderCache(r.Context(), quiz.QuizID)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Quiz deleted"})
}

// DraftQuestions queues a background job that drafts questions with the
// generation service and appends them to the quiz.
func (h *QuizHandler) DraftQuestions(w http.ResponseWriter, r *http.Request) {
	quiz := h.getOwned(w, r)
	if quiz == nil {
		return
	}

	var req models.DraftQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.NumQuestions <= 0 || req.NumQuestions > 20 {
		req.NumQuestions = 5
	}

	configBytes, _ := json.Marshal(req)
	job := &models.Job{
		UserID:      middleware.GetUserID(r.Context()),
		Type:        "question-draft",
		ReferenceID: quiz.QuizID,
		ConfigJSON:  configBytes,
	}

	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	if h.redis == nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Draft queue is unavailable", r))
		return
	}

	if err := h.redis.LPush(r.Context(), "queue:question-draft", string(jobBytes)).Err(); err != nil {
		log.Printf("failed to enqueue question-draft job %s: %v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue draft job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  job.ID,
		"quiz_id": quiz.QuizID,
	})
}

func (h *QuizHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "jobId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Job not found", r))
		return
	}

	if job.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (h *QuizHandler) invalidateRenderCache(ctx context.Context, quizID uuid.UUID) {
	if h.redis == nil {
		return
	}
	if err := h.redis.Del(ctx, renderCacheKey(quizID.String())).Err(); err != nil {
		log.Printf("failed to invalidate render cache for quiz %s: %v", quizID, err)
	}
}

var _ quizRepository = (*repository.QuizRepo)(nil)
var _ jobRepository = (*repository.JobRepo)(nil)
