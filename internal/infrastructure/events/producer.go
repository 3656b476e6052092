package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"

	"photogallery/internal/config"
	"photogallery/internal/retry"
)

// ImageIngested is published after an ingestion commits. Consumers (search
// indexers, notification fan-out) key on the image id.
type ImageIngested struct {
	EventID    string    `json:"event_id"`
	ImageID    int64     `json:"image_id"`
	UserID     int64     `json:"user_id"`
	Slug       string    `json:"slug"`
	Filename   string    `json:"filename"`
	Renditions int       `json:"renditions"`
	Warnings   int       `json:"warnings"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Producer struct {
	client *wbfkafka.Producer
	topic  string
}

func NewProducer(cfg *config.EventsConfig) *Producer {
	client := wbfkafka.NewProducer(cfg.Brokers, cfg.Topic)
	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("event producer initialized")
	return &Producer{client: client, topic: cfg.Topic}
}

// PublishIngested sends the event with retries. Failures are the caller's
// to log and swallow: event delivery is best-effort and must never fail an
// ingestion that has already committed.
func (p *Producer) PublishIngested(ctx context.Context, ev ImageIngested) error {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("image_id", ev.ImageID).Msg("failed to marshal ingested event")
		return err
	}

	key := []byte(strconv.FormatInt(ev.ImageID, 10))
	if err := p.client.SendWithRetry(ctx, retry.DefaultStrategy, key, data); err != nil {
		zlog.Logger.Error().Err(err).Int64("image_id", ev.ImageID).Msg("failed to publish ingested event")
		return err
	}

	zlog.Logger.Info().
		Int64("image_id", ev.ImageID).
		Str("event_id", ev.EventID).
		Msg("ingested event published")
	return nil
}

func (p *Producer) Close() error {
	if err := p.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close event producer")
		return err
	}
	zlog.Logger.Info().Msg("event producer closed")
	return nil
}
