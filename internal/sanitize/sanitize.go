// Package sanitize neutralizes markup in untrusted quiz content before it
// reaches a renderer, and stabilizes answer ordering.
package sanitize

import (
	"html"
	"sort"

	"github.com/mataluis2k/quizMgr/internal/models"
)

// Text returns s with HTML metacharacters escaped so it can only ever render
// as literal text.
func Text(s string) string {
	return html.EscapeString(s)
}

// Payload returns a sanitized deep copy of p. The quiz name, every question's
// text and every answer's text are HTML-escaped, and each question's answers
// are sorted ascending by order, stable on ties. Missing substructure passes
// through untouched; Payload never fails.
func Payload(p models.QuizPayload) models.QuizPayload {
	out := p
	out.QuizName = Text(p.QuizName)

	if p.Styling != nil {
		styling := *p.Styling
		out.Styling = &styling
	}

	if p.Questions == nil {
		return out
	}

	out.Questions = make([]models.Question, len(p.Questions))
	for i, q := range p.Questions {
		sq := q
		sq.Text = Text(q.Text)

		if q.Answers != nil {
			sq.Answers = make([]models.Answer, len(q.Answers))
			for j, a := range q.Answers {
				sa := a
				sa.Answer = Text(a.Answer)
				sq.Answers[j] = sa
			}
			sort.SliceStable(sq.Answers, func(a, b int) bool {
				return sq.Answers[a].Order < sq.Answers[b].Order
			})
		}

		out.Questions[i] = sq
	}

	return out
}
