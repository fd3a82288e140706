package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"roombook/backend/internal/auth"
	"roombook/backend/internal/domain"
)

type ReportsServer struct {
	svc reportsService
	log *slog.Logger
}

type reportsService interface {
	CountInWindow(ctx context.Context, p domain.Principal, start, end time.Time) ([]domain.RoomCount, error)
	ExportWindow(ctx context.Context, p domain.Principal, start, end time.Time, target string) (domain.WindowReport, error)
}

func NewReportsServer(svc reportsService, log *slog.Logger) *ReportsServer {
	if log == nil {
		log = slog.Default()
	}
	return &ReportsServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.reports")),
	}
}

func (s *ReportsServer) CountInWindow(ctx context.Context, req *WindowRequest) (*CountInWindowResponse, error) {
	log := s.log.With(slog.String("rpc", "CountInWindow"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.WindowStart == nil || req.WindowEnd == nil {
		log.Warn("invalid request", slog.String("reason", "missing_window"))
		return nil, status.Error(codes.InvalidArgument, "window_start and window_end are required")
	}

	rows, err := s.svc.CountInWindow(ctx, auth.PrincipalFrom(ctx), *req.WindowStart, *req.WindowEnd)
	if err != nil {
		return nil, statusFromError(log, "window count failed", err)
	}

	log.Debug(
		"window counted",
		slog.Int("rooms", len(rows)),
		slog.Time("window_start", *req.WindowStart),
		slog.Time("window_end", *req.WindowEnd),
	)
	return &CountInWindowResponse{Rows: rows}, nil
}

func (s *ReportsServer) ExportWindow(ctx context.Context, req *ExportWindowRequest) (*ExportWindowResponse, error) {
	log := s.log.With(slog.String("rpc", "ExportWindow"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.WindowStart == nil || req.WindowEnd == nil {
		log.Warn("invalid request", slog.String("reason", "missing_window"))
		return nil, status.Error(codes.InvalidArgument, "window_start and window_end are required")
	}

	report, err := s.svc.ExportWindow(ctx, auth.PrincipalFrom(ctx), *req.WindowStart, *req.WindowEnd, req.Target)
	if err != nil {
		return nil, statusFromError(log, "window export failed", err)
	}

	log.Info("window exported", slog.String("report_id", report.ID.String()), slog.Int("rooms", len(report.Rows)))
	return &ExportWindowResponse{
		ReportID:    report.ID.String(),
		GeneratedAt: report.GeneratedAt,
		Rows:        report.Rows,
	}, nil
}
