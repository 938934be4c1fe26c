package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/mbolis/survey-kiosk/model"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// SQLStore is the relational backend. Queries are written with '?'
// placeholders and rebound for PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

func NewSQL(db *sql.DB, dialect string) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Questions

const questionColumns = `id, text, type, required, sort_order`

func scanQuestion(row rowScanner) (q model.Question, err error) {
	err = row.Scan(&q.ID, &q.Text, &q.Type, &q.Required, &q.Order)
	return
}

func (s *SQLStore) ListQuestions(ctx context.Context) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+questionColumns+`
		FROM survey_question
		ORDER BY sort_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (model.Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+questionColumns+`
		FROM survey_question
		WHERE id = ?`),
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return q, ErrNotFound
	}
	return q, err
}

func (s *SQLStore) CreateQuestion(ctx context.Context, q model.Question) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO survey_question (id, text, type, required, sort_order)
		VALUES (?, ?, ?, ?, ?)`),
		q.ID, q.Text, q.Type, q.Required, q.Order,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *SQLStore) InsertQuestionIfAbsent(ctx context.Context, q model.Question) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO survey_question (id, text, type, required, sort_order)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`),
		q.ID, q.Text, q.Type, q.Required, q.Order,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, q model.Question) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE survey_question
		SET
			text = ?,
			type = ?,
			required = ?,
			sort_order = ?
		WHERE id = ?`),
		q.Text, q.Type, q.Required, q.Order, q.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM survey_question WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) DeleteAllQuestions(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM survey_question`)
	return err
}

// Sessions

const sessionColumns = `id, started_at, completed_at, total_questions, answered_questions`

func scanSession(row rowScanner) (s model.Session, err error) {
	var completedAt sql.NullTime
	err = row.Scan(&s.ID, &s.StartedAt, &completedAt, &s.TotalQuestions, &s.AnsweredQuestions)
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (s *SQLStore) CreateSession(ctx context.Context, sess model.Session) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO survey_session (id, started_at, completed_at, total_questions, answered_questions)
		VALUES (?, ?, ?, ?, ?)`),
		sess.ID, sess.StartedAt, nullTime(sess.CompletedAt), sess.TotalQuestions, sess.AnsweredQuestions,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (model.Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+sessionColumns+`
		FROM survey_session
		WHERE id = ?`),
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return sess, ErrNotFound
	}
	return sess, err
}

func (s *SQLStore) ListSessions(ctx context.Context) ([]model.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM survey_session
		ORDER BY started_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *SQLStore) UpdateSession(ctx context.Context, sess model.Session) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE survey_session
		SET
			completed_at = ?,
			total_questions = ?,
			answered_questions = ?
		WHERE id = ?`),
		nullTime(sess.CompletedAt), sess.TotalQuestions, sess.AnsweredQuestions, sess.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) CompleteSession(ctx context.Context, id string, at time.Time) (model.Session, error) {
	// count and stamp in one statement, so the count matches the stored rows
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE survey_session
		SET
			completed_at = ?,
			answered_questions = (
				SELECT COUNT(*) FROM survey_response
				WHERE session_id = ?
					AND answer IS NOT NULL
					AND answer <> ''
			)
		WHERE id = ?`),
		at, id, id,
	)
	if err != nil {
		return model.Session{}, err
	}
	if err := checkAffected(res); err != nil {
		return model.Session{}, err
	}
	return s.GetSession(ctx, id)
}

// Responses

const responseColumns = `id, session_id, question_id, answer, created_at`

func scanResponse(row rowScanner) (r model.Response, err error) {
	var answer sql.NullString
	err = row.Scan(&r.ID, &r.SessionID, &r.QuestionID, &answer, &r.CreatedAt)
	if answer.Valid {
		a := answer.String
		r.Answer = &a
	}
	return
}

func (s *SQLStore) SaveResponse(ctx context.Context, r *model.Response) error {
	var answer sql.NullString
	if r.Answer != nil {
		answer = sql.NullString{String: *r.Answer, Valid: true}
	}

	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO survey_response (id, session_id, question_id, answer, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id, question_id) DO UPDATE
		SET
			answer = excluded.answer,
			created_at = excluded.created_at
		RETURNING id`),
		r.ID, r.SessionID, r.QuestionID, answer, r.CreatedAt,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("upsert response: %w", err)
	}
	return nil
}

func (s *SQLStore) queryResponses(ctx context.Context, query string, args ...any) ([]model.Response, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

func (s *SQLStore) ListResponses(ctx context.Context) ([]model.Response, error) {
	return s.queryResponses(ctx, `
		SELECT `+responseColumns+`
		FROM survey_response
		ORDER BY created_at, id`)
}

func (s *SQLStore) ListSessionResponses(ctx context.Context, sessionID string) ([]model.Response, error) {
	return s.queryResponses(ctx, `
		SELECT `+responseColumns+`
		FROM survey_response
		WHERE session_id = ?
		ORDER BY created_at, id`,
		sessionID,
	)
}
