package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"github.com/mataluis2k/quizMgr/internal/models"
	"github.com/mataluis2k/quizMgr/internal/repository"
)

// GeneratorService drafts quiz questions with Gemini. Drafting runs as a
// background job; results land in the quiz via UpdateQuestions and the
// builder is notified over Redis pub/sub.
type GeneratorService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	quizRepo *repository.QuizRepo
	jobRepo  *repository.JobRepo
	redis    *redis.Client
	rateChan chan struct{} // Token bucket
}

func NewGeneratorService(
	apiKey string,
	concurrentReqs int,
	quizRepo *repository.QuizRepo,
	jobRepo *repository.JobRepo,
	redisClient *redis.Client,
) (*GeneratorService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeneratorService{
		client:   client,
		model:    model,
		quizRepo: quizRepo,
		jobRepo:  jobRepo,
		redis:    redisClient,
		rateChan: rateChan,
	}, nil
}

func (s *GeneratorService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeneratorService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeneratorService) releaseRate() {
	s.rateChan <- struct{}{}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub
func (s *GeneratorService) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	s.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", userID.String()), string(data))
}

// DraftQuestions generates questions for a quiz and appends them to it.
func (s *GeneratorService) DraftQuestions(ctx context.Context, job *models.Job) error {
	if err := s.acquireRate(ctx); err != nil {
		return err
	}
	defer s.releaseRate()

	var config models.DraftQuestionsRequest
	json.Unmarshal(job.ConfigJSON, &config)
	if config.NumQuestions <= 0 {
		config.NumQuestions = 5
	}

	quiz, err := s.quizRepo.GetByID(ctx, job.ReferenceID)
	if err != nil {
		return fmt.Errorf("quiz lookup failed: %w", err)
	}

	prompt := buildDraftPrompt(config, quiz.QuizName, quiz.Description)

	s.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID: job.ID, Step: 2, StepName: "Drafting Questions",
		},
	})

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("Gemini API error: %w", err)
	}

	rawText := extractText(resp)
	rawText = strings.TrimPrefix(rawText, "```json")
	rawText = strings.TrimPrefix(rawText, "```")
	rawText = strings.TrimSuffix(rawText, "```")
	rawText = strings.TrimSpace(rawText)

	type draftAnswer struct {
		Answer string `json:"answer"`
	}
	type draftQuestion struct {
		Text    string        `json:"text"`
		Type    string        `json:"type"`
		Answers []draftAnswer `json:"answers"`
	}

	var drafts []draftQuestion
	if err := json.Unmarshal([]byte(rawText), &drafts); err != nil {
		// Try to extract JSON array
		start := strings.Index(rawText, "[")
		end := strings.LastIndex(rawText, "]")
		if start >= 0 && end > start {
			json.Unmarshal([]byte(rawText[start:end+1]), &drafts)
		}
	}

	var drafted []models.Question
	for _, d := range drafts {
		if strings.TrimSpace(d.Text) == "" {
			continue
		}
		q := models.Question{
			QuestionID: uuid.New().String(),
			Text:       d.Text,
			Type:       models.QuestionType(d.Type),
		}
		switch q.Type {
		case models.QuestionMultipleChoice:
			if len(d.Answers) < 2 {
				continue
			}
			for i, a := range d.Answers {
				if strings.TrimSpace(a.Answer) == "" {
					continue
				}
				q.Answers = append(q.Answers, models.Answer{
					AnswerID: uuid.New().String(),
					Answer:   a.Answer,
					Order:    i + 1,
				})
			}
			if len(q.Answers) < 2 {
				continue
			}
		case models.QuestionUserInput:
			q.Answers = nil
		default:
			continue
		}
		drafted = append(drafted, q)
	}

	if len(drafted) == 0 {
		log.Printf("Gemini returned no usable questions for quiz %s", quiz.QuizID)
		return fmt.Errorf("no usable questions in model response")
	}

	questions := append(quiz.Questions, drafted...)
	questionsJSON, _ := json.Marshal(questions)

	if err := s.quizRepo.UpdateQuestions(ctx, quiz.QuizID, questionsJSON, len(questions)); err != nil {
		return err
	}

	s.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "quiz_updated",
		Payload: models.QuizUpdatedEvent{
			JobID: job.ID, QuizID: quiz.QuizID, QuestionCount: len(questions),
		},
	})

	return nil
}

// Helper functions

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func buildDraftPrompt(config models.DraftQuestionsRequest, quizName, description string) string {
	var b strings.Builder

	b.WriteString("You are an expert quiz author. Generate survey-style quiz questions on the topic below.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON array. No preamble, no markdown, no backticks.\n\n")

	b.WriteString(fmt.Sprintf("Generate exactly %d questions.\n", config.NumQuestions))

	topic := config.Topic
	if topic == "" {
		topic = quizName
	}
	b.WriteString(fmt.Sprintf("Topic: %s\n", topic))
	if description != "" {
		b.WriteString(fmt.Sprintf("Context: %s\n", description))
	}

	b.WriteString(`
JSON schema per question:
{"text": "string", "type": "multiple_choice"|"user_input", "answers": [{"answer": "string"}]}

For multiple_choice: 2 to 5 answers. For user_input: empty answers array.
Mix both types, favoring multiple choice.
`)

	return b.String()
}
