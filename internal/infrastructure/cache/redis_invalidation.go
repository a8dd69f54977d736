package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultInvalidationChannel = "finstate:cache:invalidate"
	defaultCloseTimeout        = 5 * time.Second
)

// RedisConfig holds the connection settings for the invalidation bus
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// InvalidationMessage is the payload broadcast when an entity type is
// written on any instance
type InvalidationMessage struct {
	EntityType string `json:"entity_type"` // e.g. "Order", "Invoice", "CurrencyPair"
	Timestamp  int64  `json:"timestamp"`
}

// RedisInvalidationBus broadcasts cache invalidations across instances via
// Redis Pub/Sub. Writes on one instance invalidate the snapshot caches of
// every subscribed instance; each instance then rebuilds lazily on its next
// read.
type RedisInvalidationBus struct {
	client     *redis.Client
	ownsClient bool
	channel    string
	logger     *zap.Logger
	cancelFn   context.CancelFunc
	doneCh     chan struct{}
	doneOnce   sync.Once
	mu         sync.Mutex
	isRunning  bool
	targets    map[string][]Invalidator
}

// RedisInvalidationBusOption is a functional option for configuring the bus
type RedisInvalidationBusOption func(*RedisInvalidationBus)

// WithInvalidationChannel sets the Pub/Sub channel name
func WithInvalidationChannel(channel string) RedisInvalidationBusOption {
	return func(b *RedisInvalidationBus) {
		b.channel = channel
	}
}

// WithInvalidationLogger sets the logger for the bus
func WithInvalidationLogger(logger *zap.Logger) RedisInvalidationBusOption {
	return func(b *RedisInvalidationBus) {
		b.logger = logger
	}
}

// NewRedisInvalidationBus creates a bus with its own Redis client
func NewRedisInvalidationBus(cfg RedisConfig, opts ...RedisInvalidationBusOption) (*RedisInvalidationBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	bus := &RedisInvalidationBus{
		client:     client,
		ownsClient: true,
		channel:    defaultInvalidationChannel,
		logger:     zap.NewNop(),
		doneCh:     make(chan struct{}),
		targets:    make(map[string][]Invalidator),
	}
	for _, opt := range opts {
		opt(bus)
	}
	return bus, nil
}

// NewRedisInvalidationBusWithClient creates a bus around an existing client.
// The caller retains ownership of the client and is responsible for closing
// it.
func NewRedisInvalidationBusWithClient(client *redis.Client, opts ...RedisInvalidationBusOption) *RedisInvalidationBus {
	bus := &RedisInvalidationBus{
		client:     client,
		ownsClient: false,
		channel:    defaultInvalidationChannel,
		logger:     zap.NewNop(),
		doneCh:     make(chan struct{}),
		targets:    make(map[string][]Invalidator),
	}
	for _, opt := range opts {
		opt(bus)
	}
	return bus
}

// Register subscribes local caches to invalidations of an entity type
func (b *RedisInvalidationBus) Register(entityType string, caches ...Invalidator) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.targets[entityType] = append(b.targets[entityType], caches...)
}

// Publish broadcasts an invalidation for an entity type to all instances
func (b *RedisInvalidationBus) Publish(ctx context.Context, entityType string) error {
	msg := InvalidationMessage{
		EntityType: entityType,
		Timestamp:  time.Now().UnixNano(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation message: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Error("failed to publish invalidation message",
			zap.String("channel", b.channel),
			zap.String("entity_type", entityType),
			zap.Error(err))
		return fmt.Errorf("failed to publish message: %w", err)
	}
	b.logger.Debug("published cache invalidation",
		zap.String("entity_type", entityType),
		zap.String("channel", b.channel))
	return nil
}

// Subscribe starts listening for invalidation messages and marks the
// registered local caches dirty. Blocks; call in a goroutine.
func (b *RedisInvalidationBus) Subscribe(ctx context.Context) error {
	b.mu.Lock()
	if b.isRunning {
		b.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	b.isRunning = true
	b.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancelFn = cancel
	b.mu.Unlock()

	pubsub := b.client.Subscribe(subCtx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		b.mu.Lock()
		b.isRunning = false
		b.mu.Unlock()
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Info("subscribed to cache invalidation channel",
		zap.String("channel", b.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			b.logger.Info("cache invalidation subscription stopped")
			b.mu.Lock()
			b.isRunning = false
			b.mu.Unlock()
			b.markDone()
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				b.logger.Warn("cache invalidation channel closed")
				b.mu.Lock()
				b.isRunning = false
				b.mu.Unlock()
				b.markDone()
				return nil
			}

			var invalidation InvalidationMessage
			if err := json.Unmarshal([]byte(msg.Payload), &invalidation); err != nil {
				b.logger.Error("failed to unmarshal invalidation message",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}
			b.invalidateLocal(invalidation.EntityType)
		}
	}
}

// invalidateLocal marks the registered caches for an entity type dirty
func (b *RedisInvalidationBus) invalidateLocal(entityType string) {
	b.mu.Lock()
	caches := b.targets[entityType]
	b.mu.Unlock()

	for _, c := range caches {
		c.Invalidate()
	}
	b.logger.Debug("invalidated local caches",
		zap.String("entity_type", entityType),
		zap.Int("caches", len(caches)))
}

// markDone safely marks the subscription as finished
func (b *RedisInvalidationBus) markDone() {
	b.doneOnce.Do(func() {
		close(b.doneCh)
	})
}

// Close stops the subscription and releases owned resources
func (b *RedisInvalidationBus) Close() error {
	b.mu.Lock()
	cancelFn := b.cancelFn
	b.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-b.doneCh:
		case <-time.After(defaultCloseTimeout):
			b.logger.Warn("timeout waiting for subscription to stop")
		}
	}

	if b.ownsClient {
		return b.client.Close()
	}
	return nil
}
