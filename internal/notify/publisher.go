// Package notify announces finished downloads over redis pub/sub and keeps the
// most recent download of each resource in redis for quick lookups.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"datagovchat/internal/models"
	"datagovchat/internal/redis"
)

const (
	Channel      = "datasets:downloaded"
	latestPrefix = "datasets:latest:"
	latestTTL    = 24 * time.Hour
)

// Publisher is nil-safe: a nil *Publisher or one without a client does nothing.
type Publisher struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewPublisher(client *redis.Client, log zerolog.Logger) *Publisher {
	return &Publisher{client: client, log: log.With().Str("component", "notify").Logger()}
}

// Announce caches d as the latest download of its resource and publishes it.
// Failures are logged and otherwise ignored.
func (p *Publisher) Announce(ctx context.Context, d *models.Download) {
	if p == nil || p.client == nil || d == nil {
		return
	}
	payload, err := json.Marshal(d)
	if err != nil {
		p.log.Error().Err(err).Str("resource_id", d.ResourceID).Msg("Encode download event failed")
		return
	}
	if err := p.client.Set(ctx, latestPrefix+d.ResourceID, payload, latestTTL); err != nil {
		p.log.Warn().Err(err).Str("resource_id", d.ResourceID).Msg("Cache latest download failed")
	}
	if err := p.client.Publish(ctx, Channel, payload); err != nil {
		p.log.Warn().Err(err).Str("resource_id", d.ResourceID).Msg("Publish download event failed")
	}
}

// Latest returns the cached download for resourceID, if any.
func (p *Publisher) Latest(ctx context.Context, resourceID string) (*models.Download, bool) {
	if p == nil || p.client == nil {
		return nil, false
	}
	raw, err := p.client.Get(ctx, latestPrefix+resourceID)
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			p.log.Warn().Err(err).Str("resource_id", resourceID).Msg("Load latest download failed")
		}
		return nil, false
	}
	var d models.Download
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		p.log.Warn().Err(err).Str("resource_id", resourceID).Msg("Decode latest download failed")
		return nil, false
	}
	return &d, true
}

// Listen calls handler for every announced download until ctx is done.
func Listen(ctx context.Context, client *redis.Client, handler func(*models.Download)) error {
	if client == nil || handler == nil {
		return errors.New("client and handler are required")
	}
	ch, err := client.Subscribe(ctx, Channel)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var d models.Download
			if err := json.Unmarshal([]byte(msg.Payload), &d); err != nil {
				continue
			}
			handler(&d)
		}
	}
}
