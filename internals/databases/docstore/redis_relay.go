package docstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultRelayChannel = "finance:docstore:changes"

// RedisRelay menyebarkan notifikasi perubahan koleksi antar instance server
// lewat Redis pub/sub, supaya dashboard yang subscribe ke instance A ikut
// ter-update saat pembayaran dicatat di instance B.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger
}

func NewRedisRelay(client *redis.Client, hub *Hub, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{client: client, channel: defaultRelayChannel, hub: hub, logger: logger}
}

func (r *RedisRelay) Publish(ctx context.Context, collection string) error {
	return r.client.Publish(ctx, r.channel, collection).Err()
}

// Run menerima pesan sampai ctx selesai. Panggil di goroutine sendiri.
func (r *RedisRelay) Run(ctx context.Context) {
	ps := r.client.Subscribe(ctx, r.channel)
	defer ps.Close()

	ch := ps.Channel()
	r.logger.Info("docstore relay listening", zap.String("channel", r.channel))
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			col := strings.TrimSpace(msg.Payload)
			if col != "" {
				r.hub.Notify(col)
			}
		}
	}
}

// NewRedisClient membuat client dan memastikan koneksi dengan PING.
func NewRedisClient(addr, password string) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis: addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
