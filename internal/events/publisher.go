// Package events announces generated reports on Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/analysis"
	"github.com/spigell/interview-analyzer/internal/metrics"
)

const TypeReportGenerated = "report.generated"

// Config holds Kafka publisher configuration.
type Config struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// ReportEvent is the message value. The message key is the interview id.
type ReportEvent struct {
	Type         string           `json:"type"`
	InterviewID  string           `json:"interviewId"`
	CandidateID  string           `json:"candidateId"`
	OverallScore float64          `json:"overallScore"`
	PublishedAt  time.Time        `json:"publishedAt"`
	Report       *analysis.Report `json:"report"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes report events to one topic. Without brokers it only logs.
type Publisher struct {
	writer  messageWriter
	topic   string
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(cfg Config, m *metrics.Metrics, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}

	p := &Publisher{
		topic:   cfg.Topic,
		logger:  log,
		metrics: m,
		now:     time.Now,
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 || cfg.Topic == "" {
		log.Info("kafka disabled, report events are only logged")
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	log.Info("kafka publisher initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)
	return p
}

// Enabled reports whether events reach a broker.
func (p *Publisher) Enabled() bool {
	return p.writer != nil
}

// PublishReport sends the report keyed by interview id.
func (p *Publisher) PublishReport(ctx context.Context, report *analysis.Report) error {
	event := ReportEvent{
		Type:         TypeReportGenerated,
		InterviewID:  report.InterviewID,
		CandidateID:  report.CandidateID,
		OverallScore: report.OverallScore,
		PublishedAt:  p.now().UTC(),
		Report:       report,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode report event: %w", err)
	}

	log := p.logger.With(zap.String("topic", p.topic), zap.String("key", report.InterviewID))

	if p.writer == nil {
		log.Debug("report event", zap.Int("payload_bytes", len(payload)))
		p.metrics.RecordPublish(nil)
		return nil
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(report.InterviewID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(TypeReportGenerated)},
		},
	})
	p.metrics.RecordPublish(err)
	if err != nil {
		log.Error("failed to write report event", zap.Error(err))
		return fmt.Errorf("publish report %s: %w", report.InterviewID, err)
	}

	log.Info("report event published")
	return nil
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
