package hal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSKVConfig configures the NATS JetStream key-value cache.
type NATSKVConfig struct {
	// URL of the NATS server, ignored when Conn is set
	URL string `json:"url" yaml:"url"`

	// Bucket is the key-value bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// TTL bounds how long the bucket keeps any entry
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// Conn reuses an existing connection instead of dialing URL
	Conn *nats.Conn `json:"-" yaml:"-"`
}

// NATSKVCache stores entries in a JetStream key-value bucket so several
// processes can share cached responses.
type NATSKVCache struct {
	conn  *nats.Conn
	kv    jetstream.KeyValue
	owned bool
	now   func() time.Time
}

// NewNATSKVCache connects to NATS and binds the configured bucket, creating
// it when missing.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	conn, owned := config.Conn, false
	if conn == nil {
		url := config.URL
		if url == "" {
			url = nats.DefaultURL
		}

		var err error

		conn, err = nats.Connect(url, nats.Timeout(constants.NATSConnectTimeout))
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
		}

		owned = true
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	stream, err := jetstream.New(conn)
	if err != nil {
		closeOwned(conn, owned)

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.NATSConnectTimeout)
	defer cancel()

	kv, err := stream.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    config.TTL,
	})
	if err != nil {
		closeOwned(conn, owned)

		return nil, fmt.Errorf("binding key-value bucket %s: %w", bucket, err)
	}

	return &NATSKVCache{conn: conn, kv: kv, owned: owned, now: time.Now}, nil
}

// Get returns the entry for key, purging it when expired.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	stored, err := c.kv.Get(ctx, encodeKVKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCacheKeyNotFound, key)
		}

		return nil, fmt.Errorf("reading %s from NATS: %w", key, err)
	}

	var entry CacheEntry

	if err := json.Unmarshal(stored.Value(), &entry); err != nil {
		return nil, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}

	if entry.Expired(c.now()) {
		_ = c.Delete(ctx, key)

		return nil, fmt.Errorf("%w: %s", ErrCacheEntryExpired, key)
	}

	return &entry, nil
}

// Set stores entry under key.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}

	if _, err := c.kv.Put(ctx, encodeKVKey(key), data); err != nil {
		return fmt.Errorf("writing %s to NATS: %w", key, err)
	}

	return nil
}

// Delete removes key.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, encodeKVKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("deleting %s from NATS: %w", key, err)
	}

	return nil
}

// Clear purges every key in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	lister, err := c.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("listing NATS keys: %w", err)
	}

	defer func() { _ = lister.Stop() }()

	for key := range lister.Keys() {
		if err := c.kv.Purge(ctx, key); err != nil {
			return fmt.Errorf("purging %s: %w", key, err)
		}
	}

	return nil
}

// Has reports whether key holds a fresh entry.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close releases the connection if the cache opened it.
func (c *NATSKVCache) Close() {
	closeOwned(c.conn, c.owned)
}

// encodeKVKey maps an arbitrary URL onto the key-value key alphabet.
func encodeKVKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

func closeOwned(conn *nats.Conn, owned bool) {
	if owned && conn != nil {
		conn.Close()
	}
}
