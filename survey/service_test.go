package survey

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mbolis/survey-kiosk/database"
	"github.com/mbolis/survey-kiosk/log"
	"github.com/mbolis/survey-kiosk/model"
	"github.com/mbolis/survey-kiosk/store"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "survey.sqlite"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	st := store.NewSQL(db, store.DialectSQLite)
	t.Cleanup(func() { st.Close() })
	return New(st, opts...)
}

type fakeCache struct {
	mu          sync.Mutex
	questions   []model.Question
	ok          bool
	gets, sets  int
	invalidated int

	// runs before Set stores its value
	beforeSet func()
}

func (c *fakeCache) Get(ctx context.Context) ([]model.Question, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return c.questions, c.ok, nil
}

func (c *fakeCache) Set(ctx context.Context, questions []model.Question) error {
	if c.beforeSet != nil {
		hook := c.beforeSet
		c.beforeSet = nil
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.questions, c.ok = questions, true
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.questions, c.ok = nil, false
	return nil
}

func TestListQuestionsSeedsOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ListQuestions(ctx); err != nil {
				t.Errorf("list: %v", err)
			}
		}()
	}
	wg.Wait()

	questions, err := svc.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(questions) != len(DefaultQuestions) {
		t.Fatalf("expected %d seeded questions, got %d", len(DefaultQuestions), len(questions))
	}

	counts := map[model.QuestionType]int{}
	for i, q := range questions {
		if q.Order != i+1 {
			t.Errorf("question %d has order %d", i, q.Order)
		}
		counts[q.Type]++
	}
	if counts[model.Rating5] != 3 || counts[model.Rating10] != 1 || counts[model.Text] != 1 {
		t.Errorf("unexpected type mix: %v", counts)
	}
}

func TestCreateQuestionSortedByOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateQuestion(ctx, model.QuestionInput{
		Text:  "Was the store clean?",
		Type:  model.Rating5,
		Order: intPtr(3),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || !created.Required {
		t.Errorf("expected generated id and required default, got %+v", created)
	}

	questions, err := svc.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// a non-empty catalog is not seeded
	if len(questions) != 1 || questions[0].ID != created.ID {
		t.Fatalf("unexpected catalog: %+v", questions)
	}

	second, err := svc.CreateQuestion(ctx, model.QuestionInput{
		ID:       "first",
		Text:     "Anything else?",
		Type:     model.Text,
		Required: new(bool),
		Order:    intPtr(1),
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	questions, _ = svc.ListQuestions(ctx)
	if len(questions) != 2 || questions[0].ID != second.ID || questions[0].Required {
		t.Errorf("expected %q first and optional, got %+v", second.ID, questions)
	}
}

func TestCreateQuestionValidation(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name  string
		in    model.QuestionInput
		field string
	}{
		{"missing text", model.QuestionInput{Type: model.Text, Order: intPtr(1)}, "text"},
		{"bad type", model.QuestionInput{Text: "x", Type: "multi_select", Order: intPtr(1)}, "type"},
		{"missing order", model.QuestionInput{Text: "x", Type: model.Text}, "order"},
		{"long text", model.QuestionInput{Text: strings.Repeat("x", 1001), Type: model.Text, Order: intPtr(1)}, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateQuestion(context.Background(), tt.in)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("expected error on field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestUpdateDeleteQuestionNotFound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateQuestion(ctx, "missing", model.QuestionPatch{Text: strPtr("x")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "question" {
		t.Errorf("expected question NotFoundError, got %v", err)
	}

	if err := svc.DeleteQuestion(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateQuestionPartial(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ListQuestions(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	updated, err := svc.UpdateQuestion(ctx, "recommendation", model.QuestionPatch{Order: intPtr(0)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Order != 0 || updated.Type != model.Rating10 || updated.Text == "" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	questions, _ := svc.ListQuestions(ctx)
	if questions[0].ID != "recommendation" {
		t.Errorf("expected recommendation first after reorder, got %s", questions[0].ID)
	}
}

func TestCatalogCache(t *testing.T) {
	cache := &fakeCache{}
	svc := newTestService(t, WithCache(cache))
	ctx := context.Background()

	if _, err := svc.ListQuestions(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if cache.sets != 1 || !cache.ok {
		t.Fatalf("expected catalog cached, sets=%d", cache.sets)
	}

	// served from cache: a direct store change is not visible
	if err := svc.Store().DeleteAllQuestions(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	questions, _ := svc.ListQuestions(ctx)
	if len(questions) != len(DefaultQuestions) {
		t.Errorf("expected cached catalog, got %d questions", len(questions))
	}

	if _, err := svc.CreateQuestion(ctx, model.QuestionInput{Text: "x", Type: model.Text, Order: intPtr(9)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if cache.invalidated != 1 {
		t.Errorf("expected invalidation on create, got %d", cache.invalidated)
	}
	questions, _ = svc.ListQuestions(ctx)
	if len(questions) != 1 {
		t.Errorf("expected fresh catalog after invalidation, got %d questions", len(questions))
	}
}

func TestCatalogCacheDropsStaleList(t *testing.T) {
	cache := &fakeCache{}
	svc := newTestService(t, WithCache(cache))
	ctx := context.Background()

	if _, err := svc.ListQuestions(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	// a question is created between the store read and the cache write
	cache.beforeSet = func() {
		_, err := svc.CreateQuestion(ctx, model.QuestionInput{Text: "late", Type: model.Text, Order: intPtr(9)})
		if err != nil {
			t.Errorf("create: %v", err)
		}
	}
	stale, err := svc.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stale) != len(DefaultQuestions) {
		t.Fatalf("expected the list read before the create, got %d", len(stale))
	}
	if cache.ok {
		t.Error("stale catalog left in the cache")
	}

	fresh, _ := svc.ListQuestions(ctx)
	if len(fresh) != len(DefaultQuestions)+1 {
		t.Errorf("expected the new question after the race, got %d", len(fresh))
	}
}

func TestResetCatalog(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateQuestion(ctx, model.QuestionInput{Text: "custom", Type: model.Text, Order: intPtr(1)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.ResetCatalog(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	questions, _ := svc.ListQuestions(ctx)
	if len(questions) != len(DefaultQuestions) || questions[0].ID != DefaultQuestions[0].ID {
		t.Errorf("expected default catalog, got %+v", questions)
	}
}

func TestSessionLifecycle(t *testing.T) {
	clock := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, model.SessionInput{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sess.TotalQuestions != 5 || sess.AnsweredQuestions != 0 || sess.Completed() {
		t.Fatalf("unexpected new session: %+v", sess)
	}
	if !sess.StartedAt.Equal(clock) {
		t.Errorf("startedAt = %v, want %v", sess.StartedAt, clock)
	}

	answers := []string{"4", "3", "5", "8", "done"}
	for i, q := range DefaultQuestions {
		if _, err := svc.SaveResponse(ctx, model.ResponseInput{
			SessionID:  sess.ID,
			QuestionID: q.ID,
			Answer:     strPtr(answers[i]),
		}); err != nil {
			t.Fatalf("answer %s: %v", q.ID, err)
		}
	}

	clock = clock.Add(time.Minute)
	done, err := svc.CompleteSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.TotalQuestions != 5 || done.AnsweredQuestions != 5 {
		t.Errorf("expected 5/5, got %d/%d", done.AnsweredQuestions, done.TotalQuestions)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(clock) {
		t.Errorf("completedAt = %v, want %v", done.CompletedAt, clock)
	}

	// completing again overwrites the completion time
	clock = clock.Add(time.Minute)
	again, err := svc.CompleteSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("complete again: %v", err)
	}
	if !again.CompletedAt.Equal(clock) {
		t.Errorf("second completion should move completedAt to %v, got %v", clock, again.CompletedAt)
	}
}

func TestStartSessionDuplicateID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	in := model.SessionInput{ID: "kiosk-1", TotalQuestions: 2}
	if _, err := svc.StartSession(ctx, in); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.StartSession(ctx, in); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestPatchSessionDerivesAnsweredCount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, model.SessionInput{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.SaveResponse(ctx, model.ResponseInput{SessionID: sess.ID, QuestionID: "price_fairness", Answer: strPtr("2")}); err != nil {
		t.Fatalf("answer: %v", err)
	}

	patched, err := svc.PatchSession(ctx, sess.ID, model.SessionPatch{TotalQuestions: intPtr(7)})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if patched.TotalQuestions != 7 || patched.Completed() {
		t.Errorf("unexpected patched session: %+v", patched)
	}

	now := time.Now()
	done, err := svc.PatchSession(ctx, sess.ID, model.SessionPatch{
		CompletedAt:       &now,
		AnsweredQuestions: intPtr(5),
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done.Completed() || done.AnsweredQuestions != 1 {
		t.Errorf("expected completion with derived count 1, got %+v", done)
	}

	if _, err := svc.PatchSession(ctx, "missing", model.SessionPatch{Completed: true}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveResponseUpsert(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, model.SessionInput{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, a := range []string{"1", "3", "2"} {
		if _, err := svc.SaveResponse(ctx, model.ResponseInput{SessionID: sess.ID, QuestionID: "value_money", Answer: strPtr(a)}); err != nil {
			t.Fatalf("save %s: %v", a, err)
		}
	}

	responses, err := svc.ListSessionResponses(ctx, sess.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(responses) != 1 || *responses[0].Answer != "2" {
		t.Errorf("expected single latest answer 2, got %+v", responses)
	}
}

func TestSaveResponseErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, model.SessionInput{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	tests := []struct {
		name string
		in   model.ResponseInput
		want error
	}{
		{"missing session id", model.ResponseInput{QuestionID: "value_money"}, ErrInvalid},
		{"unknown session", model.ResponseInput{SessionID: "nope", QuestionID: "value_money"}, ErrNotFound},
		{"unknown question", model.ResponseInput{SessionID: sess.ID, QuestionID: "nope"}, ErrNotFound},
		{"rating out of range", model.ResponseInput{SessionID: sess.ID, QuestionID: "value_money", Answer: strPtr("6")}, ErrInvalid},
		{"rating not a number", model.ResponseInput{SessionID: sess.ID, QuestionID: "recommendation", Answer: strPtr("ten")}, ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SaveResponse(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := svc.ListSessionResponses(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound listing unknown session, got %v", err)
	}
}

func TestNormalizeAnswer(t *testing.T) {
	long := strings.Repeat("a", model.MaxTextAnswer+1)

	tests := []struct {
		name    string
		typ     model.QuestionType
		answer  *string
		want    *string
		wantErr bool
	}{
		{"nil", model.Rating5, nil, nil, false},
		{"empty rating", model.Rating5, strPtr(" "), nil, false},
		{"rating trimmed", model.Rating5, strPtr(" 4 "), strPtr("4"), false},
		{"rating leading zero", model.Rating10, strPtr("08"), strPtr("8"), false},
		{"rating 10", model.Rating10, strPtr("10"), strPtr("10"), false},
		{"rating 0", model.Rating10, strPtr("0"), nil, true},
		{"rating 10 on 5 scale", model.Rating5, strPtr("10"), nil, true},
		{"text as entered", model.Text, strPtr("  great  "), strPtr("  great  "), false},
		{"text empty", model.Text, strPtr(""), nil, false},
		{"text truncated", model.Text, &long, strPtr(long[:model.MaxTextAnswer]), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAnswer(tt.typ, tt.answer)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %q, want nil", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("got %v, want %q", got, *tt.want)
			}
		})
	}
}
