package quizrender

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mataluis2k/quizMgr/internal/models"
)

type recordingContainer struct {
	html    []string
	current string
}

func (c *recordingContainer) SetHTML(html string) {
	c.html = append(c.html, html)
	c.current = html
}

func renderPayload() models.QuizPayload {
	return models.QuizPayload{
		QuizName: "T",
		Questions: []models.Question{
			{
				QuestionID: "q1",
				Type:       models.QuestionMultipleChoice,
				Text:       "Pick",
				Answers: []models.Answer{
					{AnswerID: "a1", Answer: "X", Order: 1},
					{AnswerID: "a2", Answer: "Y", Order: 0},
				},
			},
		},
	}
}

// quizServer serves a render payload and records submissions.
func quizServer(t *testing.T, payload models.QuizPayload, submitStatus int) (*httptest.Server, *models.SubmitQuizRequest) {
	t.Helper()
	var submitted models.SubmitQuizRequest

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/quiz_render/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(payload)
	})
	mux.HandleFunc("POST /api/quiz-submit", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&submitted); err != nil {
			t.Errorf("bad submit body: %v", err)
		}
		w.WriteHeader(submitStatus)
		w.Write([]byte(`{"message":"ok"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &submitted
}

func TestInit_NilContainer(t *testing.T) {
	if r := Init(context.Background(), nil, Config{QuizID: "quiz-1"}); r != nil {
		t.Error("nil container should yield nil handle")
	}
}

func TestInit_MissingQuizIDRendersInlineError(t *testing.T) {
	var current string
	c := ContainerFunc(func(html string) { current = html })
	r := Init(context.Background(), c, Config{})

	if r != nil {
		t.Error("missing quiz id should yield nil handle")
	}
	if !strings.Contains(current, "Missing quiz ID") {
		t.Errorf("expected inline configuration error, got:\n%s", current)
	}
}

func TestInit_FetchFailureRendersRetryableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &recordingContainer{}
	r := Init(context.Background(), c, Config{QuizID: "quiz-1", BaseURL: srv.URL})

	if r == nil {
		t.Fatal("expected a handle even on fetch failure")
	}
	if !strings.Contains(c.current, "Failed to load quiz") || !strings.Contains(c.current, "quiz-retry-button") {
		t.Errorf("expected retryable load error, got:\n%s", c.current)
	}
}

func TestEndToEnd_LoadAnswerSubmit(t *testing.T) {
	srv, submitted := quizServer(t, renderPayload(), http.StatusOK)

	var completed []models.Response
	c := &recordingContainer{}
	r := Init(context.Background(), c, Config{
		QuizID:     "quiz-1",
		BaseURL:    srv.URL,
		OnComplete: func(resp []models.Response) { completed = resp },
	})
	if r == nil {
		t.Fatal("Init returned nil")
	}

	// First view: loading, then question 1 with answers in sorted order
	// (a2 before a1) and a disabled submit button.
	if !strings.Contains(c.html[0], "Loading quiz") {
		t.Error("first render should be the loading view")
	}
	if !strings.Contains(c.current, "1 of 1") {
		t.Errorf("missing progress indicator:\n%s", c.current)
	}
	if strings.Index(c.current, `id="answer-a2"`) > strings.Index(c.current, `id="answer-a1"`) {
		t.Error("answers not in ascending order")
	}
	if !strings.Contains(c.current, `aria-label="Next question" disabled`) {
		t.Error("next should start disabled")
	}

	if err := r.SelectAnswer("a2"); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if strings.Contains(c.current, `aria-label="Next question" disabled`) {
		t.Error("next should enable after a valid selection")
	}
	if !strings.Contains(c.current, ">Submit<") {
		t.Error("last question should label next as Submit")
	}

	if err := r.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}

	if !strings.Contains(c.current, "Thank you!") {
		t.Errorf("expected completion view, got:\n%s", c.current)
	}
	if submitted.QuizID != "quiz-1" {
		t.Errorf("submitted quiz_id = %q", submitted.QuizID)
	}
	if len(submitted.Responses) != 1 ||
		submitted.Responses[0].QuestionID != "q1" ||
		submitted.Responses[0].AnswerID == nil || *submitted.Responses[0].AnswerID != "a2" ||
		submitted.Responses[0].UserInput != nil {
		t.Errorf("unexpected submission payload: %+v", submitted.Responses)
	}
	if len(completed) != 1 {
		t.Errorf("onComplete got %d responses, want 1", len(completed))
	}
}

func TestTwoQuestionGateAndKeyboard(t *testing.T) {
	payload := renderPayload()
	payload.Questions = append(payload.Questions, models.Question{
		QuestionID: "q2",
		Type:       models.QuestionUserInput,
		Text:       "Explain",
	})
	srv, _ := quizServer(t, payload, http.StatusOK)

	c := &recordingContainer{}
	r := Init(context.Background(), c, Config{QuizID: "quiz-1", BaseURL: srv.URL})

	r.SelectAnswer("a1")
	r.Next(context.Background())
	if !strings.Contains(c.current, "2 of 2") {
		t.Fatalf("expected question 2, got:\n%s", c.current)
	}

	// Question 2 unanswered: ArrowRight must not navigate or submit.
	r.HandleKey(context.Background(), "ArrowRight", false)
	if !strings.Contains(c.current, "2 of 2") {
		t.Error("ArrowRight advanced past an invalid response")
	}

	// Arrow keys inside a text field are left alone.
	r.SetInput("some text")
	r.HandleKey(context.Background(), "ArrowLeft", true)
	if !strings.Contains(c.current, "2 of 2") {
		t.Error("ArrowLeft hijacked while typing in a text field")
	}

	// Outside a text field they navigate.
	r.HandleKey(context.Background(), "ArrowLeft", false)
	if !strings.Contains(c.current, "1 of 2") {
		t.Error("ArrowLeft should navigate to the previous question")
	}
	r.HandleKey(context.Background(), "ArrowRight", false)
	if !strings.Contains(c.current, "2 of 2") {
		t.Error("ArrowRight should advance over a valid response")
	}

	// Prior free text survives navigation and is prefilled.
	if !strings.Contains(c.current, "some text") {
		t.Error("free text lost across navigation")
	}
}

func TestSubmitFailure_RetryResubmits(t *testing.T) {
	payload := renderPayload()

	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/quiz_render/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(payload)
	})
	mux.HandleFunc("POST /api/quiz-submit", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"message":"ok"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := &recordingContainer{}
	r := Init(context.Background(), c, Config{QuizID: "quiz-1", BaseURL: srv.URL})

	r.SelectAnswer("a2")
	if err := r.Next(context.Background()); err == nil {
		t.Fatal("expected submit failure")
	}
	if !strings.Contains(c.current, "Failed to submit quiz") {
		t.Errorf("expected submit error view, got:\n%s", c.current)
	}

	if err := r.Retry(context.Background()); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("submit attempts = %d, want 2", attempts)
	}
	if !strings.Contains(c.current, "Thank you!") {
		t.Error("expected completion after retry")
	}
}

func TestReset_StartsFreshSession(t *testing.T) {
	srv, _ := quizServer(t, renderPayload(), http.StatusOK)

	c := &recordingContainer{}
	r := Init(context.Background(), c, Config{QuizID: "quiz-1", BaseURL: srv.URL})

	r.SelectAnswer("a1")
	r.Reset(context.Background())

	if !strings.Contains(c.current, "1 of 1") {
		t.Errorf("expected question 1 after reset, got:\n%s", c.current)
	}
	for _, resp := range r.Responses() {
		if resp.Answered() {
			t.Error("responses not cleared by reset")
		}
	}
	if !strings.Contains(c.current, `aria-label="Next question" disabled`) {
		t.Error("gate should be closed again after reset")
	}
}

func TestThemeClassApplied(t *testing.T) {
	srv, _ := quizServer(t, renderPayload(), http.StatusOK)

	c := &recordingContainer{}
	Init(context.Background(), c, Config{QuizID: "quiz-1", BaseURL: srv.URL, ThemeClass: "dark-embed"})

	if !strings.Contains(c.current, `class="quiz-renderer-container dark-embed"`) {
		t.Errorf("theme class missing from container markup:\n%s", c.current)
	}
}
