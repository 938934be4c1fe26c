package survey

import (
	"context"

	"github.com/mbolis/survey-kiosk/log"
	"github.com/mbolis/survey-kiosk/model"
)

// StartSession opens a new survey attempt. When the input carries no total,
// the current catalog size is used.
func (s *Service) StartSession(ctx context.Context, in model.SessionInput) (model.Session, error) {
	if err := s.check(in); err != nil {
		return model.Session{}, err
	}

	sess := model.Session{
		ID:             in.ID,
		StartedAt:      s.now(),
		TotalQuestions: in.TotalQuestions,
	}
	if sess.ID == "" {
		sess.ID = s.newID()
	}
	if sess.TotalQuestions == 0 {
		questions, err := s.ListQuestions(ctx)
		if err != nil {
			return model.Session{}, err
		}
		sess.TotalQuestions = len(questions)
	}

	if err := s.store.CreateSession(ctx, sess); err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (model.Session, error) {
	sess, err := s.store.GetSession(ctx, id)
	return sess, notFound(err, "session", id)
}

func (s *Service) ListSessions(ctx context.Context) ([]model.Session, error) {
	return s.store.ListSessions(ctx)
}

// PatchSession applies a partial update and completes the session when the
// patch asks for it. A client supplied answeredQuestions is never stored.
func (s *Service) PatchSession(ctx context.Context, id string, patch model.SessionPatch) (model.Session, error) {
	if err := s.check(patch); err != nil {
		return model.Session{}, err
	}

	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return model.Session{}, notFound(err, "session", id)
	}

	if patch.TotalQuestions != nil && *patch.TotalQuestions != sess.TotalQuestions {
		sess.TotalQuestions = *patch.TotalQuestions
		if err := s.store.UpdateSession(ctx, sess); err != nil {
			return model.Session{}, notFound(err, "session", id)
		}
	}

	if !patch.Completes() {
		return sess, nil
	}

	done, err := s.CompleteSession(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	if patch.AnsweredQuestions != nil && *patch.AnsweredQuestions != done.AnsweredQuestions {
		log.WithFields(log.Fields{
			"session":  id,
			"client":   *patch.AnsweredQuestions,
			"recorded": done.AnsweredQuestions,
		}).Debug("session.answered_count_mismatch")
	}
	return done, nil
}

// CompleteSession stamps the completion time and derives the answered count
// from the stored responses. Completing twice moves the completion time.
func (s *Service) CompleteSession(ctx context.Context, id string) (model.Session, error) {
	sess, err := s.store.CompleteSession(ctx, id, s.now())
	if err != nil {
		return model.Session{}, notFound(err, "session", id)
	}
	log.WithFields(log.Fields{
		"session":  id,
		"answered": sess.AnsweredQuestions,
		"total":    sess.TotalQuestions,
	}).Info("session completed")
	return sess, nil
}
