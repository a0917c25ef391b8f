package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Spok95/offer-bot/internal/infra/metrics"
)

const (
	ClassClick = "click"
	ClassTech  = "tech"
)

type Event struct {
	ID          string    `json:"id"`
	Class       string    `json:"class"`
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Value       string    `json:"value,omitempty"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	At          time.Time `json:"at"`
}

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// DefaultWriteTimeout сколько ждём брокер на одно событие
const DefaultWriteTimeout = 2 * time.Second

// Publisher отправляет события аналитики в Kafka. Без брокеров события только логируются.
// Отправка идёт в фоне и ограничена таймаутом: вызывающий никогда не ждёт брокер.
type Publisher struct {
	w       writer
	topic   string
	log     *slog.Logger
	now     func() time.Time
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

func NewPublisher(w *kafka.Writer, topic string, log *slog.Logger) *Publisher {
	p := &Publisher{topic: topic, log: log, now: time.Now, timeout: DefaultWriteTimeout}
	if w != nil {
		p.w = w
	}
	return p
}

// For события от имени пространства
func (p *Publisher) For(workspaceID string) *Scoped {
	return &Scoped{p: p, workspaceID: workspaceID}
}

func (p *Publisher) publish(ctx context.Context, e Event) {
	e.ID = uuid.NewString()
	e.At = p.now().UTC()
	metrics.AnalyticsEvents.WithLabelValues(e.Class, e.Name).Inc()

	if p.w == nil {
		p.log.Debug("analytics event", "class", e.Class, "name", e.Name, "label", e.Label)
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		p.log.Error("analytics marshal failed", "err", err)
		return
	}
	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(e.WorkspaceID),
		Value: payload,
	}
	// событие переживает отмену запроса, но не дольше таймаута
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		if err := p.w.WriteMessages(wctx, msg); err != nil {
			p.log.Warn("analytics publish failed", "name", e.Name, "err", err)
		}
	}()
}

// Wait дожидается фоновых отправок, вызывать перед закрытием writer
func (p *Publisher) Wait() { p.wg.Wait() }

// Scoped реализует интерфейс аналитики окна оферты
type Scoped struct {
	p           *Publisher
	workspaceID string
}

func (s *Scoped) Click(ctx context.Context, event, label string) {
	s.p.publish(ctx, Event{Class: ClassClick, Name: event, Label: label, WorkspaceID: s.workspaceID})
}

func (s *Scoped) Tech(ctx context.Context, event, label, value string) {
	s.p.publish(ctx, Event{Class: ClassTech, Name: event, Label: label, Value: value, WorkspaceID: s.workspaceID})
}
