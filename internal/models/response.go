package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Response is one per-question answer slot, index-aligned with the quiz's
// question sequence. At most one of AnswerID/UserInput is non-nil; both nil
// means unanswered.
type Response struct {
	QuestionID string  `json:"question_id"`
	AnswerID   *string `json:"answer_id"`
	UserInput  *string `json:"user_input"`
}

// Answered reports whether the slot holds either kind of answer.
func (r Response) Answered() bool {
	return r.AnswerID != nil || r.UserInput != nil
}

type SubmitQuizRequest struct {
	QuizID    string     `json:"quiz_id"`
	Responses []Response `json:"responses"`
}

type Submission struct {
	SubmissionID  uuid.UUID       `json:"submission_id"`
	QuizID        uuid.UUID       `json:"quiz_id"`
	ResponsesJSON json.RawMessage `json:"responses"`
	SubmittedAt   time.Time       `json:"submitted_at"`
}
