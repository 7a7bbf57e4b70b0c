package view

import (
	"strings"
	"testing"

	"github.com/mataluis2k/quizMgr/internal/models"
	"github.com/mataluis2k/quizMgr/internal/sanitize"
)

func strPtr(s string) *string { return &s }

func mcQuestion() models.Question {
	return models.Question{
		QuestionID: "q1",
		Type:       models.QuestionMultipleChoice,
		Text:       "Pick one",
		Answers: []models.Answer{
			{AnswerID: "a2", Answer: "Y", Order: 0},
			{AnswerID: "a1", Answer: "X", Order: 1},
		},
	}
}

func TestQuestion_MultipleChoiceRendersAnswersInGivenOrder(t *testing.T) {
	r := New()
	quiz := models.QuizPayload{QuizName: "T"}

	html, err := r.Question(quiz, mcQuestion(), models.Response{QuestionID: "q1"}, 0, 1, true, false)
	if err != nil {
		t.Fatalf("Question: %v", err)
	}

	a2 := strings.Index(html, `id="answer-a2"`)
	a1 := strings.Index(html, `id="answer-a1"`)
	if a2 < 0 || a1 < 0 {
		t.Fatalf("missing answer controls in:\n%s", html)
	}
	if a2 > a1 {
		t.Error("answers rendered out of sorted order")
	}
	if !strings.Contains(html, `role="radiogroup"`) {
		t.Error("missing radiogroup role")
	}
}

func TestQuestion_SelectedAnswerIsChecked(t *testing.T) {
	r := New()
	resp := models.Response{QuestionID: "q1", AnswerID: strPtr("a1")}

	html, err := r.Question(models.QuizPayload{QuizName: "T"}, mcQuestion(), resp, 0, 1, true, true)
	if err != nil {
		t.Fatalf("Question: %v", err)
	}

	if !strings.Contains(html, `value="a1" aria-label="X" checked`) {
		t.Errorf("selected answer not checked in:\n%s", html)
	}
}

func TestQuestion_SanitizedMarkupStaysLiteral(t *testing.T) {
	r := New()
	payload := sanitize.Payload(models.QuizPayload{
		QuizName: "T",
		Questions: []models.Question{
			{
				QuestionID: "q1",
				Type:       models.QuestionMultipleChoice,
				Text:       "<script>alert(1)</script>",
				Answers:    []models.Answer{{AnswerID: "a1", Answer: "<b>x</b>"}},
			},
		},
	})

	html, err := r.Question(payload, payload.Questions[0], models.Response{QuestionID: "q1"}, 0, 1, true, false)
	if err != nil {
		t.Fatalf("Question: %v", err)
	}

	if strings.Contains(html, "<script>") {
		t.Error("raw script tag leaked into rendered output")
	}
	if !strings.Contains(html, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Error("escaped question text missing from output")
	}
	if !strings.Contains(html, "&lt;b&gt;x&lt;/b&gt;") {
		t.Error("escaped answer text missing from output")
	}
	// The accessible label must decode to the same text the span shows,
	// so it is escaped exactly once in attribute context.
	if !strings.Contains(html, `aria-label="&lt;b&gt;x&lt;/b&gt;"`) {
		t.Errorf("aria-label not singly escaped in:\n%s", html)
	}
	if strings.Contains(html, "&amp;lt;") {
		t.Error("answer label double-escaped")
	}
}

func TestQuestion_UserInputFieldHeuristic(t *testing.T) {
	r := New()
	quiz := models.QuizPayload{QuizName: "T"}

	short := models.Question{QuestionID: "q1", Type: models.QuestionUserInput, Text: "Short?"}
	html, _ := r.Question(quiz, short, models.Response{QuestionID: "q1"}, 0, 1, true, false)
	if !strings.Contains(html, `<input type="text"`) || strings.Contains(html, "<textarea") {
		t.Error("short question should render a single-line input")
	}

	long := models.Question{
		QuestionID: "q2",
		Type:       models.QuestionUserInput,
		Text:       strings.Repeat("very long question text ", 10),
	}
	html, _ = r.Question(quiz, long, models.Response{QuestionID: "q2"}, 0, 1, true, false)
	if !strings.Contains(html, "<textarea") {
		t.Error("long question should render a textarea")
	}
}

func TestQuestion_PrefillsPriorInput(t *testing.T) {
	r := New()
	q := models.Question{QuestionID: "q1", Type: models.QuestionUserInput, Text: "Say something"}
	resp := models.Response{QuestionID: "q1", UserInput: strPtr("earlier answer")}

	html, _ := r.Question(models.QuizPayload{QuizName: "T"}, q, resp, 0, 1, true, true)
	if !strings.Contains(html, `value="earlier answer"`) {
		t.Errorf("prior input not prefilled in:\n%s", html)
	}
}

func TestQuestion_UnknownTypeShowsNotice(t *testing.T) {
	r := New()
	q := models.Question{QuestionID: "q1", Type: "matrix", Text: "?"}

	html, _ := r.Question(models.QuizPayload{QuizName: "T"}, q, models.Response{QuestionID: "q1"}, 0, 1, true, false)
	if !strings.Contains(html, "Unsupported question type.") {
		t.Error("missing unsupported-type notice")
	}
	if strings.Contains(html, "quiz-answer-list") || strings.Contains(html, "quiz-user-input") {
		t.Error("unknown type must not render interactive controls")
	}
}

func TestQuestion_NavigationStates(t *testing.T) {
	r := New()
	quiz := models.QuizPayload{QuizName: "T"}
	q := mcQuestion()

	tests := []struct {
		name         string
		index, total int
		last         bool
		valid        bool
		wantPrevDis  bool
		wantNextDis  bool
		wantLabel    string
		wantProgress string
	}{
		{"first unanswered", 0, 3, false, false, true, true, ">Next<", "1 of 3"},
		{"middle answered", 1, 3, false, true, false, false, ">Next<", "2 of 3"},
		{"last answered", 2, 3, true, true, false, false, ">Submit<", "3 of 3"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			html, err := r.Question(quiz, q, models.Response{QuestionID: "q1"}, tc.index, tc.total, tc.last, tc.valid)
			if err != nil {
				t.Fatalf("Question: %v", err)
			}

			prevDisabled := strings.Contains(html, `aria-label="Previous question" disabled`)
			if prevDisabled != tc.wantPrevDis {
				t.Errorf("prev disabled = %v, want %v", prevDisabled, tc.wantPrevDis)
			}
			nextDisabled := strings.Contains(html, `aria-label="Next question" disabled`)
			if nextDisabled != tc.wantNextDis {
				t.Errorf("next disabled = %v, want %v", nextDisabled, tc.wantNextDis)
			}
			if !strings.Contains(html, tc.wantLabel) {
				t.Errorf("next label %q missing", tc.wantLabel)
			}
			if !strings.Contains(html, tc.wantProgress) {
				t.Errorf("progress %q missing in:\n%s", tc.wantProgress, html)
			}
		})
	}
}

func TestQuestion_AnswerImageHasFallback(t *testing.T) {
	r := New()
	q := models.Question{
		QuestionID: "q1",
		Type:       models.QuestionMultipleChoice,
		Answers: []models.Answer{
			{AnswerID: "a1", Answer: "pic", Image: "https://example.com/x.png"},
		},
	}

	html, _ := r.Question(models.QuizPayload{QuizName: "T"}, q, models.Response{QuestionID: "q1"}, 0, 1, true, false)
	if !strings.Contains(html, `src="https://example.com/x.png"`) {
		t.Error("answer image missing")
	}
	if !strings.Contains(html, "onerror=") {
		t.Error("image fallback handler missing")
	}
}

func TestError_RetryAffordance(t *testing.T) {
	r := New()

	withRetry := r.Error("Failed to load quiz. Please try again.", true)
	if !strings.Contains(withRetry, "quiz-retry-button") {
		t.Error("retryable error should include a retry button")
	}

	noRetry := r.Error("Invalid quiz data. Please try a different quiz.", false)
	if strings.Contains(noRetry, "quiz-retry-button") {
		t.Error("non-retryable error must not include a retry button")
	}
}

func TestStyle_MapsStylingToCustomProperties(t *testing.T) {
	r := New()

	css, err := r.Style(models.Styling{
		FontFamily: "Georgia",
		FontSize:   "18px",
		Colors:     models.Colors{Primary: "#123456", Secondary: "#abcdef"},
	})
	if err != nil {
		t.Fatalf("Style: %v", err)
	}

	for _, want := range []string{"--quiz-primary-color: #123456", "--quiz-secondary-color: #abcdef", "--quiz-font-family: Georgia", "--quiz-font-size: 18px"} {
		if !strings.Contains(css, want) {
			t.Errorf("missing %q in:\n%s", want, css)
		}
	}

	// Defaults for an empty styling object.
	css, _ = r.Style(models.Styling{})
	if !strings.Contains(css, "--quiz-primary-color: #3498db") {
		t.Error("default primary color missing")
	}
}
