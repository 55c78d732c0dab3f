package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/flightbooking/internal/models"
)

// TicketCache holds resolved ticket snapshots. Entries expire quickly since
// the ledger's remaining quantity changes with every booking.
type TicketCache interface {
	Get(ctx context.Context, id uint64) (models.Ticket, bool)
	Set(ctx context.Context, ticket models.Ticket) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     "localhost",
		Port:     "6379",
		Password: "",
		DB:       0,
		TTL:      30 * time.Second,
	}
}

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisCacheWithClient(client, cfg.TTL), nil
}

func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, id uint64) (models.Ticket, bool) {
	data, err := c.client.Get(ctx, Key(id)).Bytes()
	if err != nil {
		return models.Ticket{}, false
	}

	var ticket models.Ticket
	if err := json.Unmarshal(data, &ticket); err != nil {
		return models.Ticket{}, false
	}

	return ticket, true
}

func (c *RedisCache) Set(ctx context.Context, ticket models.Ticket) error {
	data, err := json.Marshal(ticket)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, Key(ticket.ID), data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, id uint64) (models.Ticket, bool) {
	return models.Ticket{}, false
}

func (c *NoOpCache) Set(ctx context.Context, ticket models.Ticket) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

func Key(id uint64) string {
	return "ticket:" + strconv.FormatUint(id, 10)
}
