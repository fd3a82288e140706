package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"roombook/backend/internal/domain"
	"roombook/backend/internal/store"
)

const (
	constraintRoomName      = "rooms_name_key"
	constraintRequestKey    = "reservations_request_key_key"
	constraintNoOverlap     = "reservations_no_overlap"
	constraintValidInterval = "reservations_valid_interval"
)

// mapError translates driver failures into store and domain kinds. Errors
// that did not come from the database pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUnavailable) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr, err)
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connectErr),
		errors.As(err, &netErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded):
		return unavailable(err)
	}
	return err
}

func mapPgError(pgErr *pgconn.PgError, err error) error {
	switch pgErr.Code {
	case "23505":
		switch pgErr.ConstraintName {
		case constraintRoomName:
			return store.ErrNameConflict
		case constraintRequestKey:
			return store.ErrIdempotencyConflict
		}
		return store.ErrConflict
	case "23P01":
		if pgErr.ConstraintName == constraintNoOverlap {
			return store.ErrConflict
		}
		return err
	case "23503":
		return store.ErrNotFound
	case "23514":
		if pgErr.ConstraintName == constraintValidInterval {
			return domain.ErrInvalidInterval
		}
		return err
	case "40001", "40P01", "55P03", "57014", "57P01", "57P02", "57P03":
		return unavailable(err)
	}

	if strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "53") {
		return unavailable(err)
	}
	return err
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
}
