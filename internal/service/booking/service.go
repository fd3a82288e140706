package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"roombook/backend/internal/domain"
	"roombook/backend/internal/store"
)

// ValidationError is returned for malformed input. It unwraps to the domain
// sentinel that caused it, when there is one.
type ValidationError struct {
	msg string
	err error
}

func (e *ValidationError) Error() string {
	return e.msg
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

func invalid(err error) error {
	return &ValidationError{msg: err.Error(), err: err}
}

// Exporter receives window reports for the external spreadsheet.
type Exporter interface {
	Export(ctx context.Context, report domain.WindowReport) error
}

type Service struct {
	rooms         store.RoomRepository
	reservations  store.ReservationRepository
	exporter      Exporter
	defaultTarget string
	validate      *validator.Validate
	now           func() time.Time
}

type Option func(*Service)

func WithExporter(e Exporter) Option {
	return func(s *Service) { s.exporter = e }
}

// WithDefaultTarget sets the spreadsheet handle used when an export request
// names none.
func WithDefaultTarget(target string) Option {
	return func(s *Service) { s.defaultTarget = strings.TrimSpace(target) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(rooms store.RoomRepository, reservations store.ReservationRepository, opts ...Option) *Service {
	s := &Service{
		rooms:        rooms,
		reservations: reservations,
		validate:     validator.New(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) checkStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return validationError(err.Error())
	}
	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return validationError(field + " is required")
	case "max":
		return validationError(fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	default:
		return validationError(fmt.Sprintf("%s is invalid", field))
	}
}

func notFound(err error, entity string, id int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s %d %w", entity, id, store.ErrNotFound)
	}
	return err
}
