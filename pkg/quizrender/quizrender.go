// Package quizrender is the embeddable quiz client: it fetches a quiz
// definition from the API, drives the interaction session, and pushes the
// HTML for every state into a host-supplied container.
package quizrender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/mataluis2k/quizMgr/internal/engine"
	"github.com/mataluis2k/quizMgr/internal/models"
	"github.com/mataluis2k/quizMgr/internal/view"
)

const defaultSubmitURL = "/api/quiz-submit"

// Container receives the rendered HTML for the current view. Hosts typically
// wire this to whatever holds the quiz markup on their side.
type Container interface {
	SetHTML(html string)
}

// ContainerFunc adapts a function to the Container interface.
type ContainerFunc func(html string)

func (f ContainerFunc) SetHTML(html string) { f(html) }

type Config struct {
	// QuizID is required; Init renders an inline error without it.
	QuizID string

	// OnComplete, when set, receives the full response array before
	// submission.
	OnComplete func([]models.Response)

	// SubmitURL overrides the default submission endpoint.
	SubmitURL string

	// NoSubmit skips the POST entirely; completion still fires OnComplete.
	NoSubmit bool

	// ThemeClass is an extra CSS class applied to the rendered container.
	ThemeClass string

	// BaseURL prefixes the quiz fetch endpoint, e.g. "https://quiz.example.com".
	BaseURL string

	HTTPClient *http.Client
}

// Renderer is the handle returned by Init.
type Renderer struct {
	container Container
	cfg       Config
	session   *engine.Session
	view      *view.Renderer
}

// Init wires a renderer into the given container and starts the load flow.
// A nil container is fatal: it is logged and nothing renders. A missing
// QuizID renders an inline configuration error. Neither case panics or
// returns an error to the host; both yield a nil handle.
func Init(ctx context.Context, container Container, cfg Config) *Renderer {
	if container == nil {
		log.Printf("quizrender: container not found, nothing to render")
		return nil
	}

	v := view.New()
	if cfg.QuizID == "" {
		container.SetHTML(wrap(cfg.ThemeClass, v.Error("Quiz configuration error: Missing quiz ID", false)))
		return nil
	}

	if cfg.SubmitURL == "" {
		cfg.SubmitURL = defaultSubmitURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	api := &apiClient{
		baseURL:   cfg.BaseURL,
		submitURL: cfg.SubmitURL,
		client:    cfg.HTTPClient,
	}

	var submitter engine.Submitter
	if !cfg.NoSubmit {
		submitter = api
	}

	session, err := engine.NewSession(engine.Config{
		QuizID:     cfg.QuizID,
		Fetcher:    api,
		Submitter:  submitter,
		OnComplete: cfg.OnComplete,
	})
	if err != nil {
		container.SetHTML(wrap(cfg.ThemeClass, v.Error("Quiz configuration error", false)))
		return nil
	}

	r := &Renderer{container: container, cfg: cfg, session: session, view: v}
	r.container.SetHTML(wrap(cfg.ThemeClass, v.Loading()))
	r.session.Load(ctx)
	r.render()
	return r
}

// Reset discards all responses and reloads the quiz from the API.
func (r *Renderer) Reset(ctx context.Context) {
	r.container.SetHTML(wrap(r.cfg.ThemeClass, r.view.Loading()))
	r.session.Reset(ctx)
	r.render()
}

// Responses returns a copy of the current response slots.
func (r *Renderer) Responses() []models.Response {
	return r.session.Responses()
}

// SelectAnswer records an exclusive-choice selection for the current question.
func (r *Renderer) SelectAnswer(answerID string) error {
	err := r.session.SelectAnswer(answerID)
	r.render()
	return err
}

// SetInput records free text for the current question.
func (r *Renderer) SetInput(text string) error {
	err := r.session.SetInput(text)
	r.render()
	return err
}

// Next advances if the current response passes the validation gate; on the
// last question it runs the submission flow instead.
func (r *Renderer) Next(ctx context.Context) error {
	err := r.session.Next(ctx)
	r.render()
	return err
}

// Previous steps back one question when possible.
func (r *Renderer) Previous() bool {
	moved := r.session.Previous()
	r.render()
	return moved
}

// Retry recovers from the error view: failed loads refetch, failed
// submissions resubmit the collected responses.
func (r *Renderer) Retry(ctx context.Context) error {
	err := r.session.Retry(ctx)
	r.render()
	return err
}

// HandleKey maps keyboard navigation: ArrowLeft goes back, ArrowRight
// advances when the gate allows it. Keys are ignored while focus is inside a
// text field so arrow keys keep working for text editing.
func (r *Renderer) HandleKey(ctx context.Context, key string, inTextField bool) {
	if inTextField {
		return
	}
	switch key {
	case "ArrowLeft":
		r.Previous()
	case "ArrowRight":
		if r.session.HasValidResponse() {
			r.Next(ctx)
		}
	}
}

// render pushes the HTML for the session's current state into the container.
func (r *Renderer) render() {
	switch r.session.State() {
	case engine.StateLoading, engine.StateSubmitting:
		r.container.SetHTML(wrap(r.cfg.ThemeClass, r.view.Loading()))
	case engine.StateError:
		kind, msg := r.session.Err()
		r.container.SetHTML(wrap(r.cfg.ThemeClass, r.view.Error(msg, kind != engine.ErrorInvalidQuiz)))
	case engine.StateCompleted:
		r.container.SetHTML(wrap(r.cfg.ThemeClass, r.view.Completion()))
	case engine.StateReady:
		q, ok := r.session.Current()
		if !ok {
			return
		}
		resp, _ := r.session.CurrentResponse()
		index, total := r.session.Progress()

		quiz := r.session.Quiz()
		body, err := r.view.Question(quiz, q, resp, index-1, total, r.session.IsLast(), r.session.HasValidResponse())
		if err != nil {
			log.Printf("quizrender: render question: %v", err)
			return
		}
		if quiz.Styling != nil {
			if css, err := r.view.Style(*quiz.Styling); err == nil {
				body = css + body
			}
		}
		r.container.SetHTML(wrap(r.cfg.ThemeClass, body))
	}
}

func wrap(themeClass, inner string) string {
	class := "quiz-renderer-container"
	if themeClass != "" {
		class += " " + themeClass
	}
	return fmt.Sprintf("<div class=%q>%s</div>", class, inner)
}

// apiClient implements the engine's Fetcher and Submitter over the REST API.
type apiClient struct {
	baseURL   string
	submitURL string
	client    *http.Client
}

func (c *apiClient) FetchQuiz(ctx context.Context, quizID string) (models.QuizPayload, error) {
	endpoint := fmt.Sprintf("%s/api/quiz_render/%s", c.baseURL, url.PathEscape(quizID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.QuizPayload{}, fmt.Errorf("quizrender: build fetch request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.QuizPayload{}, fmt.Errorf("quizrender: fetch quiz: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.QuizPayload{}, fmt.Errorf("quizrender: fetch quiz: HTTP error: %d", resp.StatusCode)
	}

	var payload models.QuizPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.QuizPayload{}, fmt.Errorf("quizrender: decode quiz payload: %w", err)
	}
	return payload, nil
}

func (c *apiClient) SubmitResponses(ctx context.Context, quizID string, responses []models.Response) error {
	body, err := json.Marshal(models.SubmitQuizRequest{QuizID: quizID, Responses: responses})
	if err != nil {
		return fmt.Errorf("quizrender: encode submission: %w", err)
	}

	endpoint := c.submitURL
	if c.baseURL != "" {
		endpoint = c.baseURL + c.submitURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("quizrender: build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("quizrender: submit quiz: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("quizrender: submit quiz: HTTP error: %d", resp.StatusCode)
	}
	return nil
}
