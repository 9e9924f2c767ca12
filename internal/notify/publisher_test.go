package notify

import (
	"context"
	"net"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"datagovchat/internal/config"
	"datagovchat/internal/models"
	"datagovchat/internal/redis"
)

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher
	p.Announce(context.Background(), &models.Download{ResourceID: "r"})
	if _, ok := p.Latest(context.Background(), "r"); ok {
		t.Fatalf("expected nil publisher to miss")
	}

	empty := NewPublisher(nil, zerolog.Nop())
	empty.Announce(context.Background(), &models.Download{ResourceID: "r"})
	if _, ok := empty.Latest(context.Background(), "r"); ok {
		t.Fatalf("expected publisher without client to miss")
	}
}

func TestAnnounceCachesAndPublishes(t *testing.T) {
	client, cleanup := newTestRedisClient(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := client.Subscribe(ctx, Channel)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	p := NewPublisher(client, zerolog.Nop())
	want := &models.Download{ID: 7, ResourceID: "res-9", FilePath: "datasets/res-9.csv", SizeBytes: 12}
	p.Announce(ctx, want)

	select {
	case msg := <-ch:
		if !strings.Contains(msg.Payload, "res-9") {
			t.Fatalf("unexpected payload: %s", msg.Payload)
		}
	case <-ctx.Done():
		t.Fatalf("expected download event on %s", Channel)
	}

	got, ok := p.Latest(ctx, "res-9")
	if !ok {
		t.Fatalf("expected cached download")
	}
	if got.ID != want.ID || got.FilePath != want.FilePath || got.SizeBytes != want.SizeBytes {
		t.Fatalf("cached download mismatch: want %+v got %+v", want, got)
	}
	if _, ok := p.Latest(ctx, "unknown"); ok {
		t.Fatalf("expected miss for unknown resource")
	}
}

func TestListenDeliversDownloads(t *testing.T) {
	client, cleanup := newTestRedisClient(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan *models.Download, 1)
	done := make(chan error, 1)
	go func() {
		done <- Listen(ctx, client, func(d *models.Download) {
			got <- d
			cancel()
		})
	}()

	p := NewPublisher(client, zerolog.Nop())
	deadline := time.After(4 * time.Second)
	for {
		p.Announce(context.Background(), &models.Download{ResourceID: "live"})
		select {
		case d := <-got:
			if d.ResourceID != "live" {
				t.Fatalf("resource mismatch: got %s", d.ResourceID)
			}
			if err := <-done; err != nil {
				t.Fatalf("listen: %v", err)
			}
			return
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatalf("no download delivered")
		}
	}
}

func newTestRedisClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed notify tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("atoi port: %v", err)
	}
	db := 0
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			db = parsed
		}
	}
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: true,
			Host:    host,
			Port:    port,
			DB:      db,
		},
	}
	client, err := redis.NewRedisClient(cfg)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	if raw := client.Raw(); raw != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := raw.FlushDB(ctx).Err(); err != nil {
			t.Fatalf("flush db: %v", err)
		}
	}
	return client, func() { client.Close() }
}
