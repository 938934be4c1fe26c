// Package kiosk is the client side of a survey kiosk: the navigation state
// machine a front-end drives, over either the HTTP API or a local database.
// cmd/kiosk is a terminal front-end built on it.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mbolis/survey-kiosk/log"
	"github.com/mbolis/survey-kiosk/model"
	"github.com/mbolis/survey-kiosk/survey"
)

type State string

const (
	Welcome    State = "welcome"
	InSurvey   State = "survey"
	Completion State = "completion"
)

// DefaultDebounce is how long free text waits for the next keystroke
// before it is saved.
const DefaultDebounce = 500 * time.Millisecond

var (
	ErrAnswerRequired = errors.New("kiosk: the current question requires an answer")
	ErrNoPrevious     = errors.New("kiosk: already at the first question")
	ErrNoQuestions    = errors.New("kiosk: no questions to ask")
)

// StateError reports an operation attempted from the wrong screen.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("kiosk: cannot %s from the %s screen", e.Op, e.State)
}

type Option func(*Machine)

func WithDebounce(d time.Duration) Option {
	return func(m *Machine) { m.debounce = d }
}

type pendingText struct {
	timer      *time.Timer
	sessionID  string
	questionID string
	answer     *string
}

// Machine drives one kiosk through welcome, survey and completion screens.
// Backend failures are logged and never stop the visitor: the machine
// carries on with its local copy of the answers.
type Machine struct {
	backend  Backend
	debounce time.Duration

	mu        sync.Mutex
	state     State
	questions []model.Question
	cursor    int
	answers   map[string]string
	session   model.Session
	pending   *pendingText
}

func NewMachine(backend Backend, opts ...Option) *Machine {
	m := &Machine{
		backend:  backend,
		debounce: DefaultDebounce,
		state:    Welcome,
		answers:  map[string]string{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load fetches the ordered question catalog.
func (m *Machine) Load(ctx context.Context) error {
	questions, err := m.backend.Questions(ctx)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions = questions
	return nil
}

// Start begins a new visitor session from the welcome or completion screen.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	loaded := len(m.questions) > 0
	m.mu.Unlock()
	if !loaded {
		if err := m.Load(ctx); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == InSurvey {
		return &StateError{Op: "start", State: m.state}
	}
	if len(m.questions) == 0 {
		return ErrNoQuestions
	}

	session, err := m.backend.StartSession(ctx, len(m.questions))
	if err != nil {
		log.WithError(err).Warn("kiosk.start_session")
		session = model.Session{
			ID:             uuid.NewString(),
			StartedAt:      time.Now().UTC(),
			TotalQuestions: len(m.questions),
		}
	}

	m.session = session
	m.answers = map[string]string{}
	m.cursor = 0
	m.state = InSurvey
	return nil
}

// Answer records value for the current question. Ratings are saved right
// away; free text is saved once the visitor stops typing. An empty value
// clears the answer.
func (m *Machine) Answer(ctx context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != InSurvey {
		return &StateError{Op: "answer", State: m.state}
	}
	q := m.questions[m.cursor]

	answer, err := survey.NormalizeAnswer(q.Type, &value)
	if err != nil {
		return err
	}
	if answer == nil {
		delete(m.answers, q.ID)
	} else {
		m.answers[q.ID] = *answer
	}

	if q.Type != model.Text {
		m.flushLocked(ctx)
		m.save(ctx, m.session.ID, q.ID, answer)
		return nil
	}

	if m.pending != nil && m.pending.questionID != q.ID {
		m.flushLocked(ctx)
	}
	if m.pending != nil {
		m.pending.timer.Stop()
	}
	p := &pendingText{
		sessionID:  m.session.ID,
		questionID: q.ID,
		answer:     answer,
	}
	p.timer = time.AfterFunc(m.debounce, func() { m.fire(p) })
	m.pending = p
	return nil
}

func (m *Machine) fire(p *pendingText) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// superseded by a newer edit or already flushed
	if m.pending != p {
		return
	}
	m.pending = nil
	m.save(context.Background(), p.sessionID, p.questionID, p.answer)
}

func (m *Machine) flushLocked(ctx context.Context) {
	p := m.pending
	if p == nil {
		return
	}
	m.pending = nil
	p.timer.Stop()
	m.save(ctx, p.sessionID, p.questionID, p.answer)
}

func (m *Machine) save(ctx context.Context, sessionID, questionID string, answer *string) {
	err := m.backend.SaveAnswer(ctx, sessionID, questionID, answer)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"session":  sessionID,
			"question": questionID,
		}).Warn("kiosk.save_answer")
	}
}

// Next moves to the following question, completing the session after the
// last one. A required question must be answered first.
func (m *Machine) Next(ctx context.Context) error {
	return m.advance(ctx, "go to the next question", true)
}

// Skip moves on without requiring an answer, even for required questions.
// Whatever was already entered is kept.
func (m *Machine) Skip(ctx context.Context) error {
	return m.advance(ctx, "skip a question", false)
}

func (m *Machine) advance(ctx context.Context, op string, gate bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != InSurvey {
		return &StateError{Op: op, State: m.state}
	}
	q := m.questions[m.cursor]
	if gate && q.Required && m.answers[q.ID] == "" {
		return ErrAnswerRequired
	}

	m.flushLocked(ctx)
	if m.cursor < len(m.questions)-1 {
		m.cursor++
		return nil
	}
	m.completeLocked(ctx)
	return nil
}

func (m *Machine) completeLocked(ctx context.Context) {
	session, err := m.backend.CompleteSession(ctx, m.session.ID)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"session": m.session.ID}).Warn("kiosk.complete_session")

		now := time.Now().UTC()
		session = m.session
		session.CompletedAt = &now
		session.AnsweredQuestions = len(m.answers)
	}
	m.session = session
	m.state = Completion
}

// Previous goes back one question. Answers are kept.
func (m *Machine) Previous(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != InSurvey {
		return &StateError{Op: "go back", State: m.state}
	}
	if m.cursor == 0 {
		return ErrNoPrevious
	}

	m.flushLocked(ctx)
	m.cursor--
	return nil
}

// ReturnToWelcome leaves the completion screen and forgets the finished
// session. Saved answers are untouched.
func (m *Machine) ReturnToWelcome() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Completion {
		return &StateError{Op: "return to welcome", State: m.state}
	}
	m.state = Welcome
	m.session = model.Session{}
	m.answers = map[string]string{}
	m.cursor = 0
	return nil
}

// Close saves any pending text.
func (m *Machine) Close(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushLocked(ctx)
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the question on screen and its 1-based number.
func (m *Machine) Current() (q model.Question, number int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != InSurvey {
		return model.Question{}, 0, false
	}
	return m.questions[m.cursor], m.cursor + 1, true
}

// CurrentAnswer is what the visitor entered for the question on screen.
func (m *Machine) CurrentAnswer() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != InSurvey {
		return ""
	}
	return m.answers[m.questions[m.cursor].ID]
}

func (m *Machine) CanGoBack() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == InSurvey && m.cursor > 0
}

func (m *Machine) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.questions)
}

// Answered counts the questions answered on this kiosk in the current
// session.
func (m *Machine) Answered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.answers)
}

func (m *Machine) Session() model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}
