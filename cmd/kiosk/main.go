// Command kiosk runs the survey in a terminal, against a survey-kiosk server
// (-api) or a local SQLite file (-db).
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/mbolis/survey-kiosk/config"
	"github.com/mbolis/survey-kiosk/database"
	"github.com/mbolis/survey-kiosk/kiosk"
	"github.com/mbolis/survey-kiosk/log"
	"github.com/mbolis/survey-kiosk/store"
	"github.com/mbolis/survey-kiosk/survey"
)

func main() {
	config.LoadEnv(".env")

	fs := flag.NewFlagSet("kiosk", flag.ExitOnError)
	api := fs.String("api", os.Getenv("KIOSK_API_URL"), "survey-kiosk server base URL")
	dbPath := fs.String("db", "kiosk.sqlite", "SQLite file used when -api is empty")
	debug := fs.Bool("debug", false, "debug logging")
	fs.Parse(os.Args[1:])

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var backend kiosk.Backend
	if *api != "" {
		backend = kiosk.NewAPIBackend(*api, nil)
	} else {
		db, err := database.OpenSQLite(*dbPath)
		if err != nil {
			log.Fatal("kiosk.db.open: ", err)
		}
		st := store.NewSQL(db, store.DialectSQLite)
		defer st.Close()
		backend = kiosk.NewLocalBackend(survey.New(st))
	}

	m := kiosk.NewMachine(backend)
	defer m.Close(context.Background())

	if err := run(ctx, m, os.Stdin, os.Stdout); err != nil {
		log.Fatal("kiosk.run: ", err)
	}
}

const help = "Type an answer and press enter. Empty line: next. /skip, /back, /quit."

// run reads one command per line until /quit, end of input or ctx is done.
func run(ctx context.Context, m *kiosk.Machine, in io.Reader, out io.Writer) error {
	if err := m.Load(ctx); err != nil {
		return err
	}

	lines := bufio.NewScanner(in)
	for ctx.Err() == nil {
		prompt(m, out)
		if !lines.Scan() {
			return lines.Err()
		}
		line := strings.TrimSpace(lines.Text())
		if line == "/quit" {
			return nil
		}

		err := step(ctx, m, line)
		switch {
		case errors.Is(err, kiosk.ErrAnswerRequired):
			fmt.Fprintln(out, "This question needs an answer (or /skip).")
		case errors.Is(err, kiosk.ErrNoPrevious):
			fmt.Fprintln(out, "This is the first question.")
		case err != nil:
			fmt.Fprintln(out, err)
		}
	}
	return nil
}

func step(ctx context.Context, m *kiosk.Machine, line string) error {
	switch m.State() {
	case kiosk.Welcome:
		return m.Start(ctx)
	case kiosk.Completion:
		if line == "/welcome" {
			return m.ReturnToWelcome()
		}
		return m.Start(ctx)
	}

	switch line {
	case "/skip":
		return m.Skip(ctx)
	case "/back":
		return m.Previous(ctx)
	case "":
		return m.Next(ctx)
	}
	if err := m.Answer(ctx, line); err != nil {
		return err
	}
	return m.Next(ctx)
}

func prompt(m *kiosk.Machine, out io.Writer) {
	switch m.State() {
	case kiosk.Welcome:
		fmt.Fprintf(out, "\nWelcome! %d quick questions. Press enter to start.\n", m.Total())
	case kiosk.Completion:
		fmt.Fprintf(out, "\nThank you! You answered %d of %d questions.\n", m.Answered(), m.Total())
		fmt.Fprintln(out, "Press enter for a new survey, /welcome to go back.")
	case kiosk.InSurvey:
		q, n, _ := m.Current()
		fmt.Fprintf(out, "\n[%d/%d] %s", n, m.Total(), q.Text)
		if scale := q.Type.Scale(); scale > 0 {
			fmt.Fprintf(out, " (1-%d)", scale)
		}
		if a := m.CurrentAnswer(); a != "" {
			fmt.Fprintf(out, " [%s]", a)
		}
		fmt.Fprintf(out, "\n%s\n> ", help)
	}
}
