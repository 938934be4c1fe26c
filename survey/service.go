// Package survey implements the kiosk survey: the question catalog, session
// lifecycle and response recording on top of a store.Store.
package survey

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mbolis/survey-kiosk/model"
	"github.com/mbolis/survey-kiosk/store"
)

var (
	ErrInvalid  = errors.New("invalid input")
	ErrNotFound = store.ErrNotFound
	ErrConflict = store.ErrConflict
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Msg
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return err
}

// CatalogCache is a shared copy of the ordered catalog.
type CatalogCache interface {
	Get(ctx context.Context) ([]model.Question, bool, error)
	Set(ctx context.Context, questions []model.Question) error
	Invalidate(ctx context.Context) error
}

type Service struct {
	store    store.Store
	cache    CatalogCache
	validate *validator.Validate
	now      func() time.Time
	newID    func() string

	seedMu sync.Mutex
	// bumped on every catalog mutation
	catalogGen atomic.Uint64
}

type Option func(*Service)

func WithCache(c CatalogCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func New(st store.Store, opts ...Option) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	s := &Service{
		store:    st,
		validate: v,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Store() store.Store {
	return s.store
}

func (s *Service) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Msg: describeTag(fe)}
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " long"
	case "min":
		return "must be at least " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}
