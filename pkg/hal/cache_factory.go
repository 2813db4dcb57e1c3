package hal

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
)

// CacheType names a resource cache backend.
type CacheType string

// Supported backends.
const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeNATS   CacheType = "nats"
	CacheTypeNone   CacheType = "none"
)

// Static errors for err113 compliance.
var (
	ErrNATSConfigRequired    = errors.New("nats cache requires nats settings")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
)

// CacheConfig selects and sizes the backend that stores fetched documents.
type CacheConfig struct {
	Type   CacheType          `json:"type"             yaml:"type"`
	Memory *MemoryCacheConfig `json:"memory,omitempty" yaml:"memory,omitempty"`
	NATS   *NATSKVConfig      `json:"nats,omitempty"   yaml:"nats,omitempty"`
}

// MemoryCacheConfig bounds the in-process LRU.
type MemoryCacheConfig struct {
	// MaxSize is the number of documents kept. Zero or less uses
	// constants.DefaultCacheSize.
	MaxSize int `json:"max_size" yaml:"max_size"`
}

// DefaultCacheConfig is a memory cache of constants.DefaultCacheSize documents.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type:   CacheTypeMemory,
		Memory: &MemoryCacheConfig{MaxSize: constants.DefaultCacheSize},
	}
}

// Validate checks that the backend type is known and that a NATS backend
// carries its connection settings.
func (c *CacheConfig) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.In(CacheTypeMemory, CacheTypeNATS, CacheTypeNone)),
		validation.Field(&c.NATS, validation.When(c.Type == CacheTypeNATS, validation.Required.Error(ErrNATSConfigRequired.Error()))),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Memory != nil && c.Memory.MaxSize < 0 {
		return fmt.Errorf("%w: memory.max_size must not be negative", ErrInvalidConfig)
	}

	return nil
}

// NewCacheFromConfig builds the backend described by config. A nil config
// yields DefaultCacheConfig and an empty type means memory.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case "", CacheTypeMemory:
		if config.Memory == nil {
			return NewMemoryCache(constants.DefaultCacheSize), nil
		}

		return NewMemoryCache(config.Memory.MaxSize), nil
	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVCache(config.NATS)
	case CacheTypeNone:
		return NewNoOpCache(), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
}

// NoOpCache never holds anything. Every lookup misses with ErrCacheDisabled.
type NoOpCache struct{}

// NewNoOpCache returns a NoOpCache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(context.Context, string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

func (c *NoOpCache) Set(context.Context, string, *CacheEntry) error { return nil }

func (c *NoOpCache) Delete(context.Context, string) error { return nil }

func (c *NoOpCache) Clear(context.Context) error { return nil }

func (c *NoOpCache) Has(context.Context, string) bool { return false }

// CacheBuilder assembles a CacheConfig fluently, starting from an unsized
// memory backend.
type CacheBuilder struct {
	config CacheConfig
}

// NewCacheBuilder returns a builder for a memory cache.
func NewCacheBuilder() *CacheBuilder {
	return &CacheBuilder{config: CacheConfig{Type: CacheTypeMemory}}
}

func (b *CacheBuilder) WithType(cacheType CacheType) *CacheBuilder {
	b.config.Type = cacheType

	return b
}

func (b *CacheBuilder) WithMemoryConfig(maxSize int) *CacheBuilder {
	b.config.Memory = &MemoryCacheConfig{MaxSize: maxSize}

	return b
}

func (b *CacheBuilder) WithNATSConfig(config *NATSKVConfig) *CacheBuilder {
	b.config.NATS = config

	return b
}

// Build creates the backend from the accumulated settings.
func (b *CacheBuilder) Build() (Cache, error) {
	config := b.config

	return NewCacheFromConfig(&config)
}

// CacheChain layers backends, fastest first. A hit in a later layer is
// copied into the layers in front of it.
type CacheChain struct {
	caches []Cache
}

// NewCacheChain layers caches in the given order.
func NewCacheChain(caches ...Cache) *CacheChain {
	return &CacheChain{caches: caches}
}

func (c *CacheChain) Get(ctx context.Context, key string) (*CacheEntry, error) {
	for depth, cache := range c.caches {
		entry, err := cache.Get(ctx, key)
		if err != nil {
			continue
		}

		for _, front := range c.caches[:depth] {
			_ = front.Set(ctx, key, entry)
		}

		return entry, nil
	}

	return nil, ErrKeyNotFoundInAnyCache
}

// Set writes to every layer; failures are collected.
func (c *CacheChain) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return c.each(func(cache Cache) error { return cache.Set(ctx, key, entry) })
}

func (c *CacheChain) Delete(ctx context.Context, key string) error {
	return c.each(func(cache Cache) error { return cache.Delete(ctx, key) })
}

func (c *CacheChain) Clear(ctx context.Context) error {
	return c.each(func(cache Cache) error { return cache.Clear(ctx) })
}

func (c *CacheChain) Has(ctx context.Context, key string) bool {
	for _, cache := range c.caches {
		if cache.Has(ctx, key) {
			return true
		}
	}

	return false
}

func (c *CacheChain) each(apply func(Cache) error) error {
	var result *multierror.Error

	for _, cache := range c.caches {
		if err := apply(cache); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
