package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mbolis/survey-kiosk/database"
	"github.com/mbolis/survey-kiosk/kiosk"
	"github.com/mbolis/survey-kiosk/log"
	"github.com/mbolis/survey-kiosk/store"
	"github.com/mbolis/survey-kiosk/survey"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newLocalMachine(t *testing.T) (*kiosk.Machine, *survey.Service) {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "kiosk.sqlite"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	st := store.NewSQL(db, store.DialectSQLite)
	t.Cleanup(func() { st.Close() })

	svc := survey.New(st)
	return kiosk.NewMachine(kiosk.NewLocalBackend(svc)), svc
}

func TestRunFullSurvey(t *testing.T) {
	m, svc := newLocalMachine(t)
	defer m.Close(context.Background())

	in := strings.NewReader("\n4\n3\n5\n8\ndone\n/quit\n")
	var out strings.Builder
	if err := run(context.Background(), m, in, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(out.String(), "You answered 5 of 5 questions") {
		t.Errorf("missing completion summary in output:\n%s", out.String())
	}

	sessions, err := svc.ListSessions(context.Background())
	if err != nil || len(sessions) != 1 {
		t.Fatalf("expected one session, got %d (%v)", len(sessions), err)
	}
	if !sessions[0].Completed() || sessions[0].AnsweredQuestions != 5 {
		t.Errorf("unexpected stored session: %+v", sessions[0])
	}
}

func TestRunRequiredAndSkip(t *testing.T) {
	m, _ := newLocalMachine(t)
	defer m.Close(context.Background())

	in := strings.NewReader("\n\n/skip\n/back\n/back\n")
	var out strings.Builder
	if err := run(context.Background(), m, in, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"This question needs an answer",
		"[2/5]",
		"This is the first question.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
