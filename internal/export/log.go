package export

import (
	"context"
	"log/slog"

	"roombook/backend/internal/domain"
)

// LogExporter writes reports to the log instead of a broker. It is used when
// no broker URL is configured.
type LogExporter struct {
	log *slog.Logger
}

func NewLogExporter(log *slog.Logger) *LogExporter {
	if log == nil {
		log = slog.Default()
	}
	return &LogExporter{log: log}
}

func (e *LogExporter) Export(ctx context.Context, report domain.WindowReport) error {
	e.log.InfoContext(ctx, "window report",
		slog.String("report_id", report.ID.String()),
		slog.String("target", report.Target),
		slog.Time("window_start", report.WindowStart),
		slog.Time("window_end", report.WindowEnd),
		slog.Any("rows", report.Rows),
	)
	return nil
}
