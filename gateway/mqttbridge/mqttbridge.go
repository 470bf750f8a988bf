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

// Package mqttbridge republishes a device's change-of-value feed onto an
// MQTT broker, the common shape of a BACnet-to-cloud gateway: one
// (object, property, value) update per COV detection, published to a
// per-object topic so downstream consumers can subscribe selectively.
package mqttbridge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/bacstack/bacstack/object"
)

// Config holds the broker connection and topic-naming settings.
type Config struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	TopicPrefix    string // defaults to "bacnet"
	QoS            byte
	Retain         bool
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
}

// Notification is the JSON body published for each change-of-value.
type Notification struct {
	CorrelationID string  `json:"correlation_id"`
	Device        uint32  `json:"device_instance"`
	Object        string  `json:"object"`
	Value         float64 `json:"value"`
	Timestamp     int64   `json:"timestamp_unix_ms"`
}

// Bridge owns the MQTT client and a subscription to a Device's COV feed.
type Bridge struct {
	cfg      Config
	client   mqtt.Client
	logger   *slog.Logger
	deviceID uint32

	mu        sync.RWMutex
	connected bool
}

// New constructs a Bridge for the given device instance. It does not
// connect; Connect dials the broker.
func New(deviceInstance uint32, cfg Config, logger *slog.Logger) *Bridge {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "bacnet"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("bacstack-bridge-%d", deviceInstance)
	}
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = 60 * time.Second
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{cfg: cfg, logger: logger, deviceID: deviceInstance}
}

// Connect dials the configured broker. It must be called before
// Listener is attached to a COV detector.
func (b *Bridge) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(b.cfg.Broker)
	opts.SetClientID(b.cfg.ClientID)
	opts.SetKeepAlive(b.cfg.KeepAlive)
	opts.SetConnectTimeout(b.cfg.ConnectTimeout)
	opts.SetAutoReconnect(true)
	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
		opts.SetPassword(b.cfg.Password)
	}
	opts.SetOnConnectHandler(func(mqtt.Client) {
		b.mu.Lock()
		b.connected = true
		b.mu.Unlock()
		b.logger.Info("mqttbridge: connected", slog.String("broker", b.cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		b.mu.Lock()
		b.connected = false
		b.mu.Unlock()
		b.logger.Warn("mqttbridge: connection lost", slog.String("error", err.Error()))
	})

	b.client = mqtt.NewClient(opts)
	token := b.client.Connect()
	token.Wait()
	return token.Error()
}

// Close disconnects the MQTT client.
func (b *Bridge) Close() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
	}
}

// Listener returns an object.COVListener that publishes every event to
// "<prefix>/<device>/<object-type>/<instance>". Each publish is tagged
// with a fresh correlation id for log correlation; the id never appears
// on the BACnet wire.
func (b *Bridge) Listener() object.COVListener {
	return func(evt object.COVEvent) {
		b.mu.RLock()
		connected := b.connected
		b.mu.RUnlock()
		if !connected {
			b.logger.Debug("mqttbridge: dropping cov event, not connected")
			return
		}

		note := Notification{
			CorrelationID: uuid.NewString(),
			Device:        b.deviceID,
			Object:        evt.Object.String(),
			Value:         evt.Value,
			Timestamp:     timeNowMillis(),
		}
		payload, err := json.Marshal(note)
		if err != nil {
			b.logger.Error("mqttbridge: marshal failed", slog.String("error", err.Error()))
			return
		}

		topic := fmt.Sprintf("%s/%d/%s/%d", b.cfg.TopicPrefix, b.deviceID, evt.Type.String(), evt.Object.Instance)
		token := b.client.Publish(topic, b.cfg.QoS, b.cfg.Retain, payload)
		token.Wait()
		if token.Error() != nil {
			b.logger.Warn("mqttbridge: publish failed",
				slog.String("topic", topic), slog.String("error", token.Error().Error()))
		}
	}
}

func timeNowMillis() int64 {
	return time.Now().UnixMilli()
}
