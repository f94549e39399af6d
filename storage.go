/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/operation"
	"github.com/suparena/modelstore/proxy"
	"github.com/suparena/modelstore/request"
)

// Storage is a thread-safe set of named proxy instances.
type Storage struct {
	mu       sync.RWMutex
	proxies  map[string]request.Proxy
	registry *proxy.Registry
	logger   *zap.SugaredLogger
}

// Option configures a Storage.
type Option func(*Storage)

// WithRegistry sets the proxy registry used by Create. Defaults to proxy.DefaultRegistry.
func WithRegistry(r *proxy.Registry) Option {
	return func(s *Storage) { s.registry = r }
}

// WithLogger sets the logger handed to created proxies. Defaults to zap.S().
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Storage) { s.logger = l }
}

// NewStorage creates an empty Storage.
func NewStorage(opts ...Option) *Storage {
	s := &Storage{
		proxies:  make(map[string]request.Proxy),
		registry: proxy.DefaultRegistry,
		logger:   zap.S(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStorageFromConfig creates a Storage holding every proxy of cfg.
func NewStorageFromConfig(cfg *config.Config, opts ...Option) (*Storage, error) {
	s := NewStorage(opts...)
	for _, pc := range cfg.ProxyConfigs() {
		if _, err := s.Create(pc); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Create builds a proxy through the registry and registers it under cfg.Name,
// or under cfg.Type when the name is empty.
func (s *Storage) Create(cfg proxy.Config) (request.Proxy, error) {
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	name := cfg.Name
	if name == "" {
		name = cfg.Type
	}

	p, err := s.registry.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("proxy %q: %w", name, err)
	}
	if err := s.Register(name, p); err != nil {
		return nil, err
	}
	s.logger.Debugw("Created proxy", "name", name, "type", cfg.Type)
	return p, nil
}

// Register stores p under name. Names are unique.
func (s *Storage) Register(name string, p request.Proxy) error {
	if name == "" || p == nil {
		return errors.NewConfigError("storage", "a proxy needs a name and an instance")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.proxies[name]; exists {
		return errors.NewConfigError("storage", fmt.Sprintf("proxy %q already registered", name))
	}
	s.proxies[name] = p
	return nil
}

// Proxy returns the proxy registered under name.
func (s *Storage) Proxy(name string) (request.Proxy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.proxies[name]
	if !exists {
		return nil, errors.NewNotFoundError("proxy", name)
	}
	return p, nil
}

// Remove unregisters the proxy called name.
func (s *Storage) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.proxies[name]; !exists {
		return errors.NewNotFoundError("proxy", name)
	}
	delete(s.proxies, name)
	return nil
}

// Names returns the registered proxy names in sorted order.
func (s *Storage) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.proxies))
	for name := range s.proxies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Read starts a read operation against the proxy called name.
func (s *Storage) Read(ctx context.Context, name string, cfg request.ReadConfig) (*operation.Operation, error) {
	p, err := s.Proxy(name)
	if err != nil {
		return nil, err
	}
	cfg.Proxy = p
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	return operation.Run(ctx, operation.Config{
		Kind:   operation.KindRead,
		Batch:  request.NewBatch(request.NewReadRequest(cfg)),
		Proxy:  p,
		Logger: s.logger,
	})
}

// ProxyAs returns the proxy called name as its concrete type T.
func ProxyAs[T request.Proxy](s *Storage, name string) (T, error) {
	var zero T
	p, err := s.Proxy(name)
	if err != nil {
		return zero, err
	}
	typed, ok := p.(T)
	if !ok {
		return zero, errors.NewConfigError("storage", fmt.Sprintf("proxy %q is a %T, not a %T", name, p, zero))
	}
	return typed, nil
}
