package model

import (
	"time"
	"unicode/utf8"
)

type QuestionType string

const (
	Rating5  QuestionType = "rating_5"
	Rating10 QuestionType = "rating_10"
	Text     QuestionType = "text"
)

// MaxTextAnswer is the longest free-text answer kept, in runes.
const MaxTextAnswer = 500

// Scale returns the highest rating accepted by the question type, or 0 for
// non-rating types.
func (t QuestionType) Scale() int {
	switch t {
	case Rating5:
		return 5
	case Rating10:
		return 10
	default:
		return 0
	}
}

type Question struct {
	ID       string       `json:"id" bson:"_id"`
	Text     string       `json:"text" bson:"text"`
	Type     QuestionType `json:"type" bson:"type"`
	Required bool         `json:"required" bson:"required"`
	Order    int          `json:"order" bson:"order"`
}

type QuestionInput struct {
	ID       string       `json:"id" validate:"omitempty,max=128"`
	Text     string       `json:"text" validate:"required,max=1000"`
	Type     QuestionType `json:"type" validate:"required,oneof=rating_5 rating_10 text"`
	Required *bool        `json:"required"`
	Order    *int         `json:"order" validate:"required"`
}

type QuestionPatch struct {
	Text     *string       `json:"text" validate:"omitempty,min=1,max=1000"`
	Type     *QuestionType `json:"type" validate:"omitempty,oneof=rating_5 rating_10 text"`
	Required *bool         `json:"required"`
	Order    *int          `json:"order"`
}

func (p QuestionPatch) Apply(q *Question) {
	if p.Text != nil {
		q.Text = *p.Text
	}
	if p.Type != nil {
		q.Type = *p.Type
	}
	if p.Required != nil {
		q.Required = *p.Required
	}
	if p.Order != nil {
		q.Order = *p.Order
	}
}

type Session struct {
	ID                string     `json:"id" bson:"_id"`
	StartedAt         time.Time  `json:"startedAt" bson:"started_at"`
	CompletedAt       *time.Time `json:"completedAt" bson:"completed_at"`
	TotalQuestions    int        `json:"totalQuestions" bson:"total_questions"`
	AnsweredQuestions int        `json:"answeredQuestions" bson:"answered_questions"`
}

func (s Session) Completed() bool {
	return s.CompletedAt != nil
}

type SessionInput struct {
	ID             string `json:"id" validate:"omitempty,max=128"`
	TotalQuestions int    `json:"totalQuestions" validate:"min=0"`
}

// SessionPatch is a partial session update. AnsweredQuestions is accepted
// for older clients but ignored: the count is derived from stored responses.
type SessionPatch struct {
	TotalQuestions    *int       `json:"totalQuestions" validate:"omitempty,min=0"`
	AnsweredQuestions *int       `json:"answeredQuestions"`
	CompletedAt       *time.Time `json:"completedAt"`
	Completed         bool       `json:"completed"`
}

func (p SessionPatch) Completes() bool {
	return p.Completed || p.CompletedAt != nil
}

type Response struct {
	ID         string    `json:"id" bson:"_id"`
	SessionID  string    `json:"sessionId" bson:"session_id"`
	QuestionID string    `json:"questionId" bson:"question_id"`
	Answer     *string   `json:"answer" bson:"answer"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
}

type ResponseInput struct {
	SessionID  string  `json:"sessionId" validate:"required,max=128"`
	QuestionID string  `json:"questionId" validate:"required,max=128"`
	Answer     *string `json:"answer"`
}

// TruncateAnswer cuts a free-text answer to MaxTextAnswer runes.
func TruncateAnswer(s string) string {
	if utf8.RuneCountInString(s) <= MaxTextAnswer {
		return s
	}
	return string([]rune(s)[:MaxTextAnswer])
}
