package metering

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	redis "github.com/go-redis/redis/v8"
)

// RedisConfig locates the Redis server that backs a RedisStore.
type RedisConfig struct {
	Host     string `mapstructure:"host" json:"host" yaml:"host" default:"localhost"`
	Port     string `mapstructure:"port" json:"port" yaml:"port" default:"6379"`
	Password string `mapstructure:"password" json:"password" yaml:"password"`
	DB       int    `mapstructure:"db" json:"db" yaml:"db" validate:"gte=0"`

	// KeyPrefix namespaces usage hashes, e.g. "mls:usage:" + account.
	KeyPrefix string `mapstructure:"key-prefix" json:"keyPrefix" yaml:"key-prefix" default:"mls:usage:"`
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// String describes the connection without exposing the password.
func (c RedisConfig) String() string {
	password := "<empty>"
	if c.Password != "" {
		password = "[REDACTED]"
	}
	return fmt.Sprintf("addr=%s db=%d password=%s", c.Addr(), c.DB, password)
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis (%s): %w", cfg, err)
	}
	return client, nil
}

// redisMaxRetries bounds optimistic-lock retries for one Update.
const redisMaxRetries = 10

// ErrContention is returned when a RedisStore update keeps losing its
// optimistic lock to concurrent writers.
var ErrContention = errors.New("usage update aborted after repeated conflicts")

// RedisStore keeps usage in Redis hashes so several server processes can
// share one quota. Updates are WATCH/MULTI transactions.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. keyPrefix is prepended to account names.
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, prefix: keyPrefix}
}

func (s *RedisStore) key(account string) string {
	return s.prefix + account
}

// Update implements Store.
func (s *RedisStore) Update(ctx context.Context, account string, fn func(*Usage) error) (Usage, error) {
	key := s.key(account)
	var saved Usage

	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		u, err := decodeUsage(account, fields)
		if err != nil {
			return err
		}
		if err := fn(&u); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, encodeUsage(u))
			return nil
		})
		if err == nil {
			saved = u
		}
		return err
	}

	for i := 0; i < redisMaxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return saved, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return Usage{}, err
	}
	return Usage{}, fmt.Errorf("%w: account %s", ErrContention, account)
}

func encodeUsage(u Usage) map[string]interface{} {
	return map[string]interface{}{
		"plan":   u.Plan,
		"period": u.Period,
		"used":   u.Used,
	}
}

func decodeUsage(account string, fields map[string]string) (Usage, error) {
	u := Usage{
		Account: account,
		Plan:    fields["plan"],
		Period:  fields["period"],
	}
	if raw, ok := fields["used"]; ok && raw != "" {
		used, err := strconv.Atoi(raw)
		if err != nil {
			return Usage{}, fmt.Errorf("corrupt usage record for %s: used=%q", account, raw)
		}
		u.Used = used
	}
	return u, nil
}
