package survey

import (
	"context"

	"github.com/mbolis/survey-kiosk/log"
	"github.com/mbolis/survey-kiosk/model"
)

// ListQuestions returns the catalog ordered by order. An empty catalog is
// seeded with DefaultQuestions first.
func (s *Service) ListQuestions(ctx context.Context) ([]model.Question, error) {
	if s.cache != nil {
		questions, ok, err := s.cache.Get(ctx)
		if err != nil {
			log.WithError(err).Warn("cache.get_questions")
		} else if ok && len(questions) > 0 {
			return questions, nil
		}
	}

	gen := s.catalogGen.Load()
	questions, err := s.store.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		questions, err = s.seed(ctx)
		if err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, questions); err != nil {
			log.WithError(err).Warn("cache.set_questions")
		}
		// a mutation landed after our read: drop the copy we just wrote
		if s.catalogGen.Load() != gen {
			if err := s.cache.Invalidate(ctx); err != nil {
				log.WithError(err).Warn("cache.invalidate_questions")
			}
		}
	}
	return questions, nil
}

func (s *Service) GetQuestion(ctx context.Context, id string) (model.Question, error) {
	q, err := s.store.GetQuestion(ctx, id)
	return q, notFound(err, "question", id)
}

func (s *Service) CreateQuestion(ctx context.Context, in model.QuestionInput) (model.Question, error) {
	if err := s.check(in); err != nil {
		return model.Question{}, err
	}

	q := model.Question{
		ID:       in.ID,
		Text:     in.Text,
		Type:     in.Type,
		Required: true,
		Order:    *in.Order,
	}
	if q.ID == "" {
		q.ID = s.newID()
	}
	if in.Required != nil {
		q.Required = *in.Required
	}

	if err := s.store.CreateQuestion(ctx, q); err != nil {
		return model.Question{}, err
	}
	s.invalidate(ctx)
	return q, nil
}

// UpdateQuestion applies a partial update.
func (s *Service) UpdateQuestion(ctx context.Context, id string, patch model.QuestionPatch) (model.Question, error) {
	if err := s.check(patch); err != nil {
		return model.Question{}, err
	}

	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return model.Question{}, notFound(err, "question", id)
	}
	patch.Apply(&q)

	if err := s.store.UpdateQuestion(ctx, q); err != nil {
		return model.Question{}, notFound(err, "question", id)
	}
	s.invalidate(ctx)
	return q, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return notFound(err, "question", id)
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	s.catalogGen.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.WithError(err).Warn("cache.invalidate_questions")
	}
}
