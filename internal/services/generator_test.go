package services

import (
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/mataluis2k/quizMgr/internal/models"
)

func TestBuildDraftPrompt(t *testing.T) {
	prompt := buildDraftPrompt(models.DraftQuestionsRequest{
		Topic:        "coffee brewing",
		NumQuestions: 4,
	}, "Barista Basics", "A survey for new staff")

	for _, want := range []string{
		"Generate exactly 4 questions",
		"Topic: coffee brewing",
		"Context: A survey for new staff",
		`"multiple_choice"|"user_input"`,
		"ONLY a valid JSON array",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildDraftPrompt_FallsBackToQuizName(t *testing.T) {
	prompt := buildDraftPrompt(models.DraftQuestionsRequest{NumQuestions: 2}, "Barista Basics", "")

	if !strings.Contains(prompt, "Topic: Barista Basics") {
		t.Errorf("expected quiz name as topic fallback, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "Context:") {
		t.Error("empty description should not add a context line")
	}
}

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("hello "), genai.Text("world")}}},
			{Content: nil},
		},
	}

	if got := extractText(resp); got != "hello world" {
		t.Fatalf("extractText = %q, want %q", got, "hello world")
	}
}
