// Package cache holds short lived read models for the HTTP layer.
// Values are stored JSON encoded so both backends behave the same.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const DefaultTTL = 30 * time.Second

type Cache interface {
	// Get decodes the cached value into dst. A miss is (false, nil).
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, val any) error
	DeletePrefix(ctx context.Context, prefix string) error
}

type Memory struct {
	c *gocache.Cache
}

// NewMemory initializes the in-process cache, sweeping expired items every 2*ttl.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Memory{c: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return false, nil
	}

	b, ok := v.([]byte)
	if !ok {
		m.c.Delete(key)
		return false, nil
	}

	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}

	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, val any) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	m.c.SetDefault(key, b)
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	for k := range m.c.Items() {
		if strings.HasPrefix(k, prefix) {
			m.c.Delete(k)
		}
	}
	return nil
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, any) error         { return nil }
func (Nop) DeletePrefix(context.Context, string) error     { return nil }
