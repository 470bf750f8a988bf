// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rediscache backs the spec's device address-binding cache
// (device-instance -> BACnet address, learned from I-Am responses) with
// a shared, process-external store, so a multi-instance gateway
// deployment shares bindings instead of each process rediscovering them
// independently via Who-Is/I-Am.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bacstack/bacstack"
)

// Config holds the Redis connection and namespacing settings.
type Config struct {
	Addr       string
	Password   string
	DB         int
	KeyPrefix  string // defaults to "bacstack:binding"
	DefaultTTL time.Duration
}

// Cache stores device-instance to bacnet.Address bindings in Redis.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// addressRecord is the JSON-serializable form of bacnet.Address — kept
// as a dedicated type so the Redis payload shape stays stable even if
// bacnet.Address grows fields that shouldn't be cached.
type addressRecord struct {
	Mac  []byte `json:"mac"`
	Net  uint16 `json:"net"`
	Addr []byte `json:"addr"`
}

// New constructs a Cache and verifies connectivity with a Ping.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "bacstack:binding"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("rediscache: connect: %w", err)
	}
	return &Cache{client: client, prefix: cfg.KeyPrefix, ttl: cfg.DefaultTTL}, nil
}

// Close releases the underlying Redis connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) key(deviceInstance uint32) string {
	return fmt.Sprintf("%s:%d", c.prefix, deviceInstance)
}

// Bind records the address a device instance was last heard from,
// e.g. in response to an I-Am during a Who-Is discovery sweep.
func (c *Cache) Bind(ctx context.Context, deviceInstance uint32, addr bacnet.Address) error {
	rec := addressRecord{
		Mac:  append([]byte(nil), addr.Mac...),
		Net:  addr.Net,
		Addr: append([]byte(nil), addr.Addr...),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("rediscache: marshal: %w", err)
	}
	if err := c.client.Set(ctx, c.key(deviceInstance), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: set %d: %w", deviceInstance, err)
	}
	return nil
}

// Lookup returns the cached address for deviceInstance, or ok=false if
// there is no binding (cache miss or TTL expiry) — the caller should
// fall back to a fresh Who-Is.
func (c *Cache) Lookup(ctx context.Context, deviceInstance uint32) (addr bacnet.Address, ok bool, err error) {
	val, err := c.client.Get(ctx, c.key(deviceInstance)).Result()
	if err == redis.Nil {
		return bacnet.Address{}, false, nil
	}
	if err != nil {
		return bacnet.Address{}, false, fmt.Errorf("rediscache: get %d: %w", deviceInstance, err)
	}
	var rec addressRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return bacnet.Address{}, false, fmt.Errorf("rediscache: unmarshal %d: %w", deviceInstance, err)
	}
	return bacnet.Address{Mac: rec.Mac, Net: rec.Net, Addr: rec.Addr}, true, nil
}

// Forget removes a binding, used when a transaction to a cached address
// repeatedly fails (the device likely rebooted onto a new address).
func (c *Cache) Forget(ctx context.Context, deviceInstance uint32) error {
	if err := c.client.Del(ctx, c.key(deviceInstance)).Err(); err != nil {
		return fmt.Errorf("rediscache: del %d: %w", deviceInstance, err)
	}
	return nil
}
