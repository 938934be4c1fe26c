package survey

import (
	"context"

	"github.com/mbolis/survey-kiosk/log"
	"github.com/mbolis/survey-kiosk/model"
)

// DefaultQuestions is the catalog a fresh kiosk starts with.
var DefaultQuestions = []model.Question{
	{
		ID:       "satisfaction_products",
		Text:     "How satisfied are you with our products?",
		Type:     model.Rating5,
		Required: true,
		Order:    1,
	},
	{
		ID:       "price_fairness",
		Text:     "How fair are the prices compared to similar retailers?",
		Type:     model.Rating5,
		Required: true,
		Order:    2,
	},
	{
		ID:       "value_money",
		Text:     "How satisfied are you with the value for money of your purchase?",
		Type:     model.Rating5,
		Required: true,
		Order:    3,
	},
	{
		ID:       "recommendation",
		Text:     "On a scale of 1-10 how would you recommend us to your friends and family?",
		Type:     model.Rating10,
		Required: true,
		Order:    4,
	},
	{
		ID:       "service_improvement",
		Text:     "What could we do to improve our service?",
		Type:     model.Text,
		Required: false,
		Order:    5,
	},
}

// seed fills an empty catalog with DefaultQuestions. Concurrent callers in
// this process wait for the first one; other processes are kept out by the
// fixed ids.
func (s *Service) seed(ctx context.Context) ([]model.Question, error) {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	questions, err := s.store.ListQuestions(ctx)
	if err != nil || len(questions) > 0 {
		return questions, err
	}

	n, err := s.insertDefaults(ctx)
	if err != nil {
		return nil, err
	}
	log.Infof("seeded question catalog with %d default questions", n)

	return s.store.ListQuestions(ctx)
}

func (s *Service) insertDefaults(ctx context.Context) (n int, err error) {
	for _, q := range DefaultQuestions {
		inserted, err := s.store.InsertQuestionIfAbsent(ctx, q)
		if err != nil {
			return n, err
		}
		if inserted {
			n++
		}
	}
	return n, nil
}

// ResetCatalog replaces every question with DefaultQuestions. Stored
// responses are kept.
func (s *Service) ResetCatalog(ctx context.Context) error {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	defer s.invalidate(ctx)

	if err := s.store.DeleteAllQuestions(ctx); err != nil {
		return err
	}
	n, err := s.insertDefaults(ctx)
	if err != nil {
		return err
	}
	log.Infof("question catalog reset to %d default questions", n)
	return nil
}
