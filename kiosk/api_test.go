package kiosk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mbolis/survey-kiosk/app"
	"github.com/mbolis/survey-kiosk/database"
	"github.com/mbolis/survey-kiosk/kiosk"
	"github.com/mbolis/survey-kiosk/routes"
	"github.com/mbolis/survey-kiosk/store"
	"github.com/mbolis/survey-kiosk/survey"
)

func newService(t *testing.T) *survey.Service {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "kiosk.sqlite"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	st := store.NewSQL(db, store.DialectSQLite)
	t.Cleanup(func() { st.Close() })
	return survey.New(st)
}

func runSeededSurvey(t *testing.T, b kiosk.Backend, svc *survey.Service) {
	t.Helper()
	ctx := context.Background()

	m := kiosk.NewMachine(b, kiosk.WithDebounce(10*time.Millisecond))
	if err := m.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Total() != 5 {
		t.Fatalf("expected 5 questions, got %d", m.Total())
	}
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, answer := range []string{"4", "3", "5", "8", "done"} {
		if err := m.Answer(ctx, answer); err != nil {
			t.Fatalf("answer %q: %v", answer, err)
		}
		if err := m.Next(ctx); err != nil {
			t.Fatalf("next after %q: %v", answer, err)
		}
	}

	if m.State() != kiosk.Completion {
		t.Fatalf("expected completion, got %s", m.State())
	}
	s := m.Session()
	if s.TotalQuestions != 5 || s.AnsweredQuestions != 5 || s.CompletedAt == nil {
		t.Errorf("unexpected completed session: %+v", s)
	}

	stored, err := svc.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !stored.Completed() || stored.AnsweredQuestions != 5 {
		t.Errorf("server side session not completed: %+v", stored)
	}
	responses, _ := svc.ListSessionResponses(ctx, s.ID)
	if len(responses) != 5 {
		t.Errorf("expected 5 stored responses, got %d", len(responses))
	}
}

func TestAPIBackend(t *testing.T) {
	svc := newService(t)
	srv := httptest.NewServer(routes.Wire(app.App{Service: svc}))
	t.Cleanup(srv.Close)

	runSeededSurvey(t, kiosk.NewAPIBackend(srv.URL+"/", nil), svc)
}

func TestAPIBackendErrors(t *testing.T) {
	svc := newService(t)
	srv := httptest.NewServer(routes.Wire(app.App{Service: svc}))
	t.Cleanup(srv.Close)

	b := kiosk.NewAPIBackend(srv.URL, srv.Client())
	err := b.SaveAnswer(context.Background(), "missing", "recommendation", nil)

	var statusErr *kiosk.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected a StatusError, got %v", err)
	}
	if statusErr.Status != http.StatusNotFound || statusErr.Message != "session not found" {
		t.Errorf("unexpected error: %+v", statusErr)
	}
}

func TestLocalBackend(t *testing.T) {
	svc := newService(t)
	runSeededSurvey(t, kiosk.NewLocalBackend(svc), svc)
}
