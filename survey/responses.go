package survey

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mbolis/survey-kiosk/model"
)

// SaveResponse stores the answer to one question of one session, replacing
// any earlier answer to the same question in that session.
func (s *Service) SaveResponse(ctx context.Context, in model.ResponseInput) (model.Response, error) {
	if err := s.check(in); err != nil {
		return model.Response{}, err
	}

	if _, err := s.store.GetSession(ctx, in.SessionID); err != nil {
		return model.Response{}, notFound(err, "session", in.SessionID)
	}
	q, err := s.store.GetQuestion(ctx, in.QuestionID)
	if err != nil {
		return model.Response{}, notFound(err, "question", in.QuestionID)
	}

	answer, err := NormalizeAnswer(q.Type, in.Answer)
	if err != nil {
		return model.Response{}, err
	}

	r := model.Response{
		ID:         s.newID(),
		SessionID:  in.SessionID,
		QuestionID: in.QuestionID,
		Answer:     answer,
		CreatedAt:  s.now(),
	}
	if err := s.store.SaveResponse(ctx, &r); err != nil {
		return model.Response{}, err
	}
	return r, nil
}

func (s *Service) ListResponses(ctx context.Context) ([]model.Response, error) {
	return s.store.ListResponses(ctx)
}

func (s *Service) ListSessionResponses(ctx context.Context, sessionID string) ([]model.Response, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, notFound(err, "session", sessionID)
	}
	return s.store.ListSessionResponses(ctx, sessionID)
}

// NormalizeAnswer checks an answer against the question type. Ratings are
// stored as their decimal string, text is cut to model.MaxTextAnswer runes,
// and an empty answer is stored as nil.
func NormalizeAnswer(typ model.QuestionType, answer *string) (*string, error) {
	if answer == nil {
		return nil, nil
	}

	if scale := typ.Scale(); scale > 0 {
		a := strings.TrimSpace(*answer)
		if a == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 || n > scale {
			return nil, &ValidationError{
				Field: "answer",
				Msg:   fmt.Sprintf("must be an integer between 1 and %d", scale),
			}
		}
		a = strconv.Itoa(n)
		return &a, nil
	}

	if *answer == "" {
		return nil, nil
	}
	a := model.TruncateAnswer(*answer)
	return &a, nil
}
