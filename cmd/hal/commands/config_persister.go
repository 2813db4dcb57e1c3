package commands

import (
	"sync"
	"time"
)

// ConfigPersister writes tokens handed out by the service back to the
// configuration file.
type ConfigPersister struct {
	mutex sync.Mutex
	save  func(*Config) error
	now   func() time.Time
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{save: saveConfigStruct, now: time.Now}
}

// UpdateToken stores token as the current bearer token.
func (p *ConfigPersister) UpdateToken(config *Config, token string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config.Token = token

	now := p.now()
	config.LastRefresh = &now

	return p.save(config)
}
