package models

import (
	"time"

	"github.com/google/uuid"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionUserInput      QuestionType = "user_input"
)

type Colors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

type ButtonStyle struct {
	Shape string `json:"shape"` // "rounded" | "square"
	Icon  string `json:"icon"`
}

type Styling struct {
	Theme       string      `json:"theme"` // "light" | "dark" | "custom"
	FontFamily  string      `json:"fontFamily"`
	FontSize    string      `json:"fontSize"`
	Colors      Colors      `json:"colors"`
	ButtonStyle ButtonStyle `json:"buttonStyle"`
}

type Answer struct {
	AnswerID string `json:"answer_id"`
	Answer   string `json:"answer"`
	Image    string `json:"image,omitempty"`
	Order    int    `json:"order"`
}

type Question struct {
	QuestionID string       `json:"question_id"`
	Type       QuestionType `json:"type"`
	Text       string       `json:"text"`
	Answers    []Answer     `json:"question_answers,omitempty"`
}

type Quiz struct {
	QuizID        uuid.UUID  `json:"quiz_id"`
	UserID        uuid.UUID  `json:"user_id"`
	QuizName      string     `json:"quiz_name"`
	Description   string     `json:"description"`
	Styling       Styling    `json:"styling"`
	Questions     []Question `json:"questions"`
	QuestionCount int        `json:"question_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type QuizListItem struct {
	QuizID    uuid.UUID `json:"quiz_id"`
	QuizName  string    `json:"quiz_name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuizPayload is the wire shape served by /api/quiz_render/{quizId} and
// consumed by the embeddable renderer.
type QuizPayload struct {
	QuizName  string     `json:"quiz_name"`
	Styling   *Styling   `json:"styling,omitempty"`
	Questions []Question `json:"questions"`
}

type SaveQuizRequest struct {
	QuizName    string     `json:"quiz_name"`
	Description string     `json:"description"`
	Styling     Styling    `json:"styling"`
	Questions   []Question `json:"questions"`
}

type ListMetadata struct {
	TotalRecords int `json:"totalRecords"`
	Limit        int `json:"limit"`
	Offset       int `json:"offset"`
	TotalPages   int `json:"totalPages"`
}

type QuizListResponse struct {
	Data      []QuizListItem `json:"data"`
	Metadata  ListMetadata   `json:"metadata"`
	RequestID string         `json:"requestId"`
}

type DraftQuestionsRequest struct {
	Topic        string `json:"topic"`
	NumQuestions int    `json:"num_questions"`
}
