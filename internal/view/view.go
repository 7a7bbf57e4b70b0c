// Package view renders each engine state to an HTML fragment: the loading
// and error screens, the question stepper, and the completion screen.
//
// Question and answer text arrives pre-escaped from the sanitizer, so those
// fields are injected verbatim; everything else goes through html/template's
// contextual escaping.
package view

import (
	"fmt"
	"html"
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/mataluis2k/quizMgr/internal/models"
)

// Question text longer than this renders as a textarea instead of a
// single-line input.
const longQuestionThreshold = 100

// imageFallback replaces answer images that fail to load.
const imageFallback = "data:image/svg+xml,%3Csvg xmlns='http://www.w3.org/2000/svg' width='100' height='100'%3E%3Crect width='100' height='100' fill='%23eee'/%3E%3C/svg%3E"

const loadingTmpl = `<div class="quiz-loading" aria-live="polite">
  <div class="quiz-spinner"></div>
  <p>Loading quiz...</p>
</div>`

const errorTmpl = `<div class="quiz-error" aria-live="assertive">
  <p>{{.Message}}</p>
  {{- if .Retryable}}
  <button class="quiz-retry-button" aria-label="Retry loading quiz">Retry</button>
  {{- end}}
</div>`

const completionTmpl = `<div class="quiz-completion" aria-live="polite">
  <h2>Thank you!</h2>
  <p>Your quiz has been submitted successfully.</p>
  <button class="quiz-restart-button" aria-label="Take another quiz">Start Over</button>
</div>`

const questionTmpl = `<div class="quiz-content">
  <header class="quiz-header">
    <h1>{{.QuizName}}</h1>
  </header>
  <div class="quiz-body" aria-live="polite">
    <div class="quiz-question" data-question-id="{{.Question.QuestionID}}">
      <h2 class="quiz-question-text" id="question-{{.Question.QuestionID}}">{{.QuestionText}}</h2>
      {{- if .Unsupported}}
      <p class="quiz-error-message">Unsupported question type.</p>
      {{- else if .MultipleChoice}}
      <div class="quiz-answer-list" role="radiogroup" aria-labelledby="question-{{.Question.QuestionID}}">
        {{- range .Answers}}
        <div class="quiz-answer-item">
          <input type="radio" class="quiz-answer-input" name="question-{{$.Question.QuestionID}}"
            id="answer-{{.AnswerID}}" value="{{.AnswerID}}" aria-label="{{.Label}}"{{if .Checked}} checked{{end}}>
          <label class="quiz-answer-label" for="answer-{{.AnswerID}}">
            {{- if .Image}}
            <img class="quiz-answer-image" src="{{.Image}}" alt="{{.Label}}" onerror="this.onerror=null;this.src='{{$.ImageFallback}}'">
            {{- end}}
            <span class="quiz-answer-text">{{.Text}}</span>
          </label>
        </div>
        {{- end}}
      </div>
      {{- else}}
      <div class="quiz-input-container">
        {{- if .Multiline}}
        <textarea class="quiz-user-input" rows="5" id="input-{{.Question.QuestionID}}" aria-labelledby="question-{{.Question.QuestionID}}">{{.InputValue}}</textarea>
        {{- else}}
        <input type="text" class="quiz-user-input" id="input-{{.Question.QuestionID}}" aria-labelledby="question-{{.Question.QuestionID}}" value="{{.InputValue}}">
        {{- end}}
      </div>
      {{- end}}
    </div>
  </div>
  <footer class="quiz-footer">
    <div class="quiz-navigation">
      <button class="quiz-prev-button" aria-label="Previous question"{{if .PrevDisabled}} disabled{{end}}>Previous</button>
      <span class="quiz-progress">{{.Progress}}</span>
      <button class="quiz-next-button" aria-label="Next question"{{if .NextDisabled}} disabled{{end}}>{{.NextLabel}}</button>
    </div>
  </footer>
</div>`

const styleTmpl = `<style>.quiz-renderer-container {
  --quiz-primary-color: {{.Primary}};
  --quiz-secondary-color: {{.Secondary}};
  --quiz-font-family: {{.FontFamily}};
  --quiz-font-size: {{.FontSize}};
}</style>`

type Renderer struct {
	loading    *template.Template
	errView    *template.Template
	completion *template.Template
	question   *template.Template
	style      *template.Template
}

func New() *Renderer {
	return &Renderer{
		loading:    template.Must(template.New("loading").Parse(loadingTmpl)),
		errView:    template.Must(template.New("error").Parse(errorTmpl)),
		completion: template.Must(template.New("completion").Parse(completionTmpl)),
		question:   template.Must(template.New("question").Parse(questionTmpl)),
		style:      template.Must(template.New("style").Parse(styleTmpl)),
	}
}

func (r *Renderer) Loading() string {
	return loadingTmpl
}

func (r *Renderer) Error(message string, retryable bool) string {
	var b strings.Builder
	r.errView.Execute(&b, struct {
		Message   string
		Retryable bool
	}{message, retryable})
	return b.String()
}

func (r *Renderer) Completion() string {
	return completionTmpl
}

type answerView struct {
	AnswerID string
	Text     template.HTML
	Label    string
	Image    string
	Checked  bool
}

type questionView struct {
	QuizName       template.HTML
	Question       models.Question
	QuestionText   template.HTML
	Unsupported    bool
	MultipleChoice bool
	Answers        []answerView
	Multiline      bool
	InputValue     string
	PrevDisabled   bool
	NextDisabled   bool
	NextLabel      string
	Progress       string
	ImageFallback  string
}

// Question renders the stepper for the question at position index (zero
// based) of total, with the current response reflected in the controls and
// the navigation buttons gated the way the engine gates them. The last flag
// switches the forward button from Next to Submit.
func (r *Renderer) Question(quiz models.QuizPayload, q models.Question, resp models.Response, index, total int, last, valid bool) (string, error) {
	name := quiz.QuizName
	if name == "" {
		name = "Quiz"
	}

	v := questionView{
		QuizName:      template.HTML(name),
		Question:      q,
		QuestionText:  template.HTML(q.Text),
		PrevDisabled:  index == 0,
		NextDisabled:  !valid,
		NextLabel:     "Next",
		Progress:      fmt.Sprintf("%d of %d", index+1, total),
		ImageFallback: imageFallback,
	}
	if last {
		v.NextLabel = "Submit"
	}

	switch q.Type {
	case models.QuestionMultipleChoice:
		v.MultipleChoice = true
		v.Answers = make([]answerView, len(q.Answers))
		for i, a := range q.Answers {
			v.Answers[i] = answerView{
				AnswerID: a.AnswerID,
				Text:     template.HTML(a.Answer),
				// Answer text arrives pre-escaped; the template escapes
				// attribute values again, so labels carry the raw text to
				// keep the accessible name equal to the visible one.
				Label:   html.UnescapeString(a.Answer),
				Image:   a.Image,
				Checked: resp.AnswerID != nil && *resp.AnswerID == a.AnswerID,
			}
		}
	case models.QuestionUserInput:
		v.Multiline = utf8.RuneCountInString(q.Text) > longQuestionThreshold
		if resp.UserInput != nil {
			v.InputValue = *resp.UserInput
		}
	default:
		v.Unsupported = true
	}

	var b strings.Builder
	if err := r.question.Execute(&b, v); err != nil {
		return "", fmt.Errorf("view: render question: %w", err)
	}
	return b.String(), nil
}

// Style maps the quiz styling object to CSS custom properties. Values are
// escaped in CSS context by the template engine, so hostile styling content
// cannot break out of the declaration.
func (r *Renderer) Style(s models.Styling) (string, error) {
	v := struct {
		Primary    string
		Secondary  string
		FontFamily string
		FontSize   string
	}{
		Primary:    defaultIfEmpty(s.Colors.Primary, "#3498db"),
		Secondary:  defaultIfEmpty(s.Colors.Secondary, "#f5f5f5"),
		FontFamily: defaultIfEmpty(s.FontFamily, "Arial, sans-serif"),
		FontSize:   defaultIfEmpty(s.FontSize, "16px"),
	}

	var b strings.Builder
	if err := r.style.Execute(&b, v); err != nil {
		return "", fmt.Errorf("view: render style: %w", err)
	}
	return b.String(), nil
}

func defaultIfEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
