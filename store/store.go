// Package store persists questions, sessions and responses.
//
// Every backend honours the same contract: responses are unique per
// (session, question) and saving one replaces the previous answer, and a
// session's answered count is derived from its stored responses when it is
// completed.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mbolis/survey-kiosk/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type QuestionStore interface {
	// ListQuestions returns the catalog ordered by order, then id.
	ListQuestions(ctx context.Context) ([]model.Question, error)
	GetQuestion(ctx context.Context, id string) (model.Question, error)
	CreateQuestion(ctx context.Context, q model.Question) error
	// InsertQuestionIfAbsent reports whether q was inserted; an existing
	// question with the same id is left untouched.
	InsertQuestionIfAbsent(ctx context.Context, q model.Question) (bool, error)
	UpdateQuestion(ctx context.Context, q model.Question) error
	DeleteQuestion(ctx context.Context, id string) error
	DeleteAllQuestions(ctx context.Context) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, s model.Session) error
	GetSession(ctx context.Context, id string) (model.Session, error)
	ListSessions(ctx context.Context) ([]model.Session, error)
	UpdateSession(ctx context.Context, s model.Session) error
	// CompleteSession stamps completedAt and sets answeredQuestions to the
	// number of non-empty responses stored for the session.
	CompleteSession(ctx context.Context, id string, at time.Time) (model.Session, error)
}

type ResponseStore interface {
	// SaveResponse inserts r or replaces the answer already stored for the
	// same (session, question) pair. r.ID is set to the stored row's id.
	SaveResponse(ctx context.Context, r *model.Response) error
	ListResponses(ctx context.Context) ([]model.Response, error)
	ListSessionResponses(ctx context.Context, sessionID string) ([]model.Response, error)
}

type Store interface {
	QuestionStore
	SessionStore
	ResponseStore
	Close() error
}
