// Package export delivers window reports to the spreadsheet sync worker.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"roombook/backend/internal/domain"
)

const DefaultQueue = "reports.window"

type AMQPConfig struct {
	URL            string
	Queue          string
	PublishTimeout time.Duration
}

// AMQPPublisher publishes each report as a persistent JSON message on a
// durable queue. It opens a connection per report.
type AMQPPublisher struct {
	cfg AMQPConfig
	log *slog.Logger
}

func NewAMQPPublisher(cfg AMQPConfig, log *slog.Logger) *AMQPPublisher {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &AMQPPublisher{cfg: cfg, log: log}
}

func (p *AMQPPublisher) Export(ctx context.Context, report domain.WindowReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return err
	}

	conn, err := amqp.DialConfig(p.cfg.URL, amqp.Config{Dial: amqp.DefaultDial(p.cfg.PublishTimeout)})
	if err != nil {
		return unavailable("dial", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return unavailable("open channel", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.cfg.Queue, true, false, false, false, nil); err != nil {
		return unavailable("declare queue", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx, "", p.cfg.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    report.ID.String(),
		Timestamp:    report.GeneratedAt,
		Body:         body,
	})
	if err != nil {
		return unavailable("publish", err)
	}

	p.log.Info("window report published",
		slog.String("report_id", report.ID.String()),
		slog.String("queue", p.cfg.Queue),
		slog.Int("rows", len(report.Rows)),
	)
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: rabbitmq %s: %w", domain.ErrUnavailable, op, err)
}
