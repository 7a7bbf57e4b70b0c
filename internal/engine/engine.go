// Package engine implements the quiz interaction state machine: one Session
// per quiz-taking interaction, owning the current question index and the
// index-aligned response slots, with validation-gated forward navigation and
// a submission flow.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mataluis2k/quizMgr/internal/models"
	"github.com/mataluis2k/quizMgr/internal/sanitize"
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateSubmitting
	StateCompleted
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrorKind distinguishes the failure modes so retry can do the right thing:
// a failed fetch is retried by refetching, a failed submission by resubmitting
// the responses already collected, and invalid quiz data not at all.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorFetch
	ErrorInvalidQuiz
	ErrorSubmit
)

var (
	ErrInvalidState    = errors.New("engine: operation not allowed in current state")
	ErrInvalidResponse = errors.New("engine: current question has no valid response")
	ErrUnknownAnswer   = errors.New("engine: answer does not belong to current question")
	ErrNotRetryable    = errors.New("engine: error is not retryable")
)

// Fetcher loads a quiz definition by id.
type Fetcher interface {
	FetchQuiz(ctx context.Context, quizID string) (models.QuizPayload, error)
}

// Submitter delivers the completed response set. Implementations make at most
// one attempt per call.
type Submitter interface {
	SubmitResponses(ctx context.Context, quizID string, responses []models.Response) error
}

type Config struct {
	QuizID     string
	Fetcher    Fetcher
	Submitter  Submitter               // optional; nil completes without posting
	OnComplete func([]models.Response) // optional; invoked once, before the first submission attempt
}

// Session holds all state for one quiz-taking interaction. Each Session is
// independent; nothing is shared between sessions.
type Session struct {
	mu  sync.Mutex
	cfg Config

	state   State
	errKind ErrorKind
	errMsg  string

	quiz      models.QuizPayload
	index     int
	responses []models.Response

	// completeFired keeps OnComplete at one invocation per interaction;
	// a submit retry re-enters the flow with the same response set.
	completeFired bool

	// generation invalidates in-flight fetches/submissions superseded by
	// Reset; a late resolution must not overwrite newer session state.
	generation uint64
}

func NewSession(cfg Config) (*Session, error) {
	if cfg.QuizID == "" {
		return nil, errors.New("engine: quiz id is required")
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("engine: fetcher is required")
	}
	return &Session{cfg: cfg, state: StateLoading}, nil
}

// Load fetches the quiz, sanitizes it, and initializes the response slots.
// On success the session is Ready at question 0.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateLoading
	s.errKind = ErrorNone
	s.errMsg = ""
	s.completeFired = false
	gen := s.generation
	s.mu.Unlock()

	payload, err := s.cfg.Fetcher.FetchQuiz(ctx, s.cfg.QuizID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		// A Reset superseded this fetch; drop the result.
		return nil
	}

	if err != nil {
		s.state = StateError
		s.errKind = ErrorFetch
		s.errMsg = "Failed to load quiz. Please try again."
		return fmt.Errorf("engine: fetch quiz %s: %w", s.cfg.QuizID, err)
	}

	quiz := sanitize.Payload(payload)
	if len(quiz.Questions) == 0 {
		s.state = StateError
		s.errKind = ErrorInvalidQuiz
		s.errMsg = "Invalid quiz data. Please try a different quiz."
		return errors.New("engine: quiz has no questions")
	}

	s.quiz = quiz
	s.index = 0
	s.responses = make([]models.Response, len(quiz.Questions))
	for i, q := range quiz.Questions {
		s.responses[i] = models.Response{QuestionID: q.QuestionID}
	}
	s.state = StateReady
	return nil
}

// SelectAnswer records an exclusive choice for the current question and
// clears any free-text answer in the same slot.
func (s *Session) SelectAnswer(answerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return ErrInvalidState
	}

	q := s.quiz.Questions[s.index]
	found := false
	for _, a := range q.Answers {
		if a.AnswerID == answerID {
			found = true
			break
		}
	}
	if !found {
		return ErrUnknownAnswer
	}

	s.responses[s.index].AnswerID = &answerID
	s.responses[s.index].UserInput = nil
	return nil
}

// SetInput records free text for the current question and clears any selected
// answer in the same slot.
func (s *Session) SetInput(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return ErrInvalidState
	}

	s.responses[s.index].UserInput = &text
	s.responses[s.index].AnswerID = nil
	return nil
}

// Previous moves back one question. Reports whether the index moved.
func (s *Session) Previous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady || s.index == 0 {
		return false
	}
	s.index--
	return true
}

// Next advances to the following question, or submits when the current
// question is the last one. The move is gated on a valid current response.
func (s *Session) Next(ctx context.Context) error {
	s.mu.Lock()

	if s.state != StateReady {
		s.mu.Unlock()
		return ErrInvalidState
	}
	if !s.hasValidResponseLocked() {
		s.mu.Unlock()
		return ErrInvalidResponse
	}

	if s.index < len(s.quiz.Questions)-1 {
		s.index++
		s.mu.Unlock()
		return nil
	}

	return s.submitLocked(ctx)
}

// Submit runs the submission flow from the last question. Exposed so hosts
// can wire an explicit submit control; Next on the last question is
// equivalent.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()

	if s.state != StateReady {
		s.mu.Unlock()
		return ErrInvalidState
	}
	if s.index != len(s.quiz.Questions)-1 {
		s.mu.Unlock()
		return ErrInvalidState
	}
	if !s.hasValidResponseLocked() {
		s.mu.Unlock()
		return ErrInvalidResponse
	}

	return s.submitLocked(ctx)
}

// submitLocked is entered holding the lock and releases it around the post.
func (s *Session) submitLocked(ctx context.Context) error {
	s.state = StateSubmitting
	gen := s.generation
	fireComplete := !s.completeFired
	s.completeFired = true
	responses := s.copyResponsesLocked()
	s.mu.Unlock()

	if fireComplete && s.cfg.OnComplete != nil {
		s.cfg.OnComplete(responses)
	}

	if s.cfg.Submitter == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation == gen {
			s.state = StateCompleted
		}
		return nil
	}

	err := s.cfg.Submitter.SubmitResponses(ctx, s.cfg.QuizID, responses)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return nil
	}

	if err != nil {
		s.state = StateError
		s.errKind = ErrorSubmit
		s.errMsg = "Failed to submit quiz. Please try again."
		return fmt.Errorf("engine: submit quiz %s: %w", s.cfg.QuizID, err)
	}

	s.state = StateCompleted
	return nil
}

// Retry recovers from the Error state. Fetch failures refetch the quiz;
// submission failures resubmit the responses already collected. Invalid quiz
// data cannot be retried.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()

	if s.state != StateError {
		s.mu.Unlock()
		return ErrInvalidState
	}

	switch s.errKind {
	case ErrorFetch:
		s.mu.Unlock()
		return s.Load(ctx)
	case ErrorSubmit:
		// Re-enter the submission flow with the preserved response array.
		s.state = StateReady
		s.errKind = ErrorNone
		s.errMsg = ""
		return s.submitLocked(ctx)
	default:
		s.mu.Unlock()
		return ErrNotRetryable
	}
}

// Reset discards the session's responses and index and loads the quiz afresh.
// Any in-flight fetch or submission is superseded and its result ignored.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	s.index = 0
	s.responses = nil
	s.mu.Unlock()

	return s.Load(ctx)
}

// HasValidResponse reports whether the current question's slot passes the
// validation gate: a selected answer for multiple_choice, non-blank trimmed
// text for user_input, and never for unknown question types.
func (s *Session) HasValidResponse() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return false
	}
	return s.hasValidResponseLocked()
}

func (s *Session) hasValidResponseLocked() bool {
	if s.index < 0 || s.index >= len(s.responses) {
		return false
	}

	q := s.quiz.Questions[s.index]
	r := s.responses[s.index]

	switch q.Type {
	case models.QuestionMultipleChoice:
		return r.AnswerID != nil && *r.AnswerID != ""
	case models.QuestionUserInput:
		return r.UserInput != nil && strings.TrimSpace(*r.UserInput) != ""
	default:
		return false
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error kind and user-facing message, meaningful only in
// StateError.
func (s *Session) Err() (ErrorKind, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errKind, s.errMsg
}

func (s *Session) Quiz() models.QuizPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz
}

// Current returns the question at the current index.
func (s *Session) Current() (models.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady || s.index >= len(s.quiz.Questions) {
		return models.Question{}, false
	}
	return s.quiz.Questions[s.index], true
}

// CurrentResponse returns the response slot at the current index.
func (s *Session) CurrentResponse() (models.Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady || s.index >= len(s.responses) {
		return models.Response{}, false
	}
	return s.responses[s.index], true
}

// Progress returns the one-based current position and the question count.
func (s *Session) Progress() (current, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index + 1, len(s.quiz.Questions)
}

// IsLast reports whether the session is on the final question.
func (s *Session) IsLast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.quiz.Questions) > 0 && s.index == len(s.quiz.Questions)-1
}

// Responses returns a copy of the response slots.
func (s *Session) Responses() []models.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyResponsesLocked()
}

func (s *Session) copyResponsesLocked() []models.Response {
	out := make([]models.Response, len(s.responses))
	copy(out, s.responses)
	return out
}
