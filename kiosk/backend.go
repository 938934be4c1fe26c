package kiosk

import (
	"context"

	"github.com/mbolis/survey-kiosk/model"
	"github.com/mbolis/survey-kiosk/survey"
)

// Backend persists what happens on the kiosk.
type Backend interface {
	Questions(ctx context.Context) ([]model.Question, error)
	StartSession(ctx context.Context, total int) (model.Session, error)
	SaveAnswer(ctx context.Context, sessionID, questionID string, answer *string) error
	CompleteSession(ctx context.Context, sessionID string) (model.Session, error)
}

// LocalBackend keeps everything in-process, typically over an SQLite file
// next to the kiosk.
type LocalBackend struct {
	svc *survey.Service
}

func NewLocalBackend(svc *survey.Service) *LocalBackend {
	return &LocalBackend{svc: svc}
}

func (b *LocalBackend) Questions(ctx context.Context) ([]model.Question, error) {
	return b.svc.ListQuestions(ctx)
}

func (b *LocalBackend) StartSession(ctx context.Context, total int) (model.Session, error) {
	return b.svc.StartSession(ctx, model.SessionInput{TotalQuestions: total})
}

func (b *LocalBackend) SaveAnswer(ctx context.Context, sessionID, questionID string, answer *string) error {
	_, err := b.svc.SaveResponse(ctx, model.ResponseInput{
		SessionID:  sessionID,
		QuestionID: questionID,
		Answer:     answer,
	})
	return err
}

func (b *LocalBackend) CompleteSession(ctx context.Context, sessionID string) (model.Session, error) {
	return b.svc.CompleteSession(ctx, sessionID)
}
