package booking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"roombook/backend/internal/domain"
)

// CountInWindow counts, per room, the reservations overlapping
// [start, end). Rows are ordered by room id; rooms without reservations in
// the window are omitted.
func (s *Service) CountInWindow(ctx context.Context, p domain.Principal, start, end time.Time) ([]domain.RoomCount, error) {
	if err := s.authorizeReports(p); err != nil {
		return nil, err
	}

	start, end = start.UTC(), end.UTC()
	if !end.After(start) {
		return nil, &ValidationError{msg: "window_end must be after window_start", err: domain.ErrInvalidInterval}
	}

	rows, err := s.reservations.CountInWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.RoomCount{}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].RoomID < rows[j].RoomID })
	return rows, nil
}

// ExportWindow counts the window and hands the result to the configured
// exporter along with the target document handle. A blank target falls back
// to the service default.
func (s *Service) ExportWindow(ctx context.Context, p domain.Principal, start, end time.Time, target string) (domain.WindowReport, error) {
	rows, err := s.CountInWindow(ctx, p, start, end)
	if err != nil {
		return domain.WindowReport{}, err
	}
	if s.exporter == nil {
		return domain.WindowReport{}, fmt.Errorf("%w: no report exporter configured", domain.ErrUnavailable)
	}

	target = strings.TrimSpace(target)
	if target == "" {
		target = s.defaultTarget
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.WindowReport{}, err
	}
	report := domain.WindowReport{
		ID:          id,
		GeneratedAt: s.now().UTC(),
		WindowStart: start.UTC(),
		WindowEnd:   end.UTC(),
		Target:      target,
		Rows:        rows,
	}
	if err := s.exporter.Export(ctx, report); err != nil {
		return domain.WindowReport{}, err
	}
	return report, nil
}

func (s *Service) authorizeReports(p domain.Principal) error {
	if !p.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !domain.CanViewReports(p) {
		return domain.ErrForbidden
	}
	return nil
}
