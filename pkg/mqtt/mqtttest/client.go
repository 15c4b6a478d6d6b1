// Copyright 2025 The Truckwatch Authors.
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

// Package mqtttest provides an in-memory mqtt.Client for tests.
package mqtttest

import (
	"context"
	"sync"

	"github.com/truckwatch-io/truckwatch/pkg/mqtt"
)

// Message is a message recorded by the fake client.
type Message struct {
	Topic   string
	QoS     int
	Retain  bool
	Payload []byte
}

// Client records publishes and delivers Inject calls to matching
// subscriptions.
type Client struct {
	mu        sync.Mutex
	published []Message
	subs      map[string]mqtt.MessageHandler

	// PublishErr, when set, is returned by the next FailPublishes publishes.
	PublishErr    error
	FailPublishes int
	Attempts      int
}

var _ mqtt.Client = (*Client)(nil)

func NewClient() *Client {
	return &Client{subs: make(map[string]mqtt.MessageHandler)}
}

func (c *Client) Start(context.Context) error           { return nil }
func (c *Client) Disconnect(context.Context)            {}
func (c *Client) AwaitConnection(context.Context) error { return nil }
func (c *Client) IsConnected() bool                     { return true }

func (c *Client) Publish(_ context.Context, topic string, qos int, retain bool, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Attempts++
	if c.FailPublishes > 0 {
		c.FailPublishes--
		return c.PublishErr
	}
	c.published = append(c.published, Message{Topic: topic, QoS: qos, Retain: retain, Payload: payload})
	return nil
}

func (c *Client) Subscribe(_ context.Context, topic string, _ int, handler mqtt.MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subs[topic] = handler
	return nil
}

func (c *Client) Unsubscribe(_ context.Context, topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.subs, topic)
	return nil
}

// Published returns a copy of the recorded messages.
func (c *Client) Published() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Message(nil), c.published...)
}

// Subscribed reports whether a handler is registered for filter.
func (c *Client) Subscribed(filter string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.subs[filter]
	return ok
}

// Inject delivers payload to every subscription whose filter matches topic
// and reports whether any matched.
func (c *Client) Inject(ctx context.Context, topic string, payload []byte) bool {
	c.mu.Lock()
	var handlers []mqtt.MessageHandler
	for filter, h := range c.subs {
		if mqtt.TopicMatches(filter, topic) {
			handlers = append(handlers, h)
		}
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(ctx, topic, payload)
	}
	return len(handlers) > 0
}
