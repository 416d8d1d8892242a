// Copyright 2025 Blink Labs Software
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

// Package event is an in-process publish/subscribe bus. The indexer
// publishes one event per committed asset change.
package event

import (
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// EventQueueSize is the channel buffer of each Subscribe caller
	EventQueueSize = 20
	// AsyncQueueSize bounds events waiting for the PublishAsync workers
	AsyncQueueSize      = 1000
	AsyncWorkerPoolSize = 4
)

type EventType string

type EventSubscriberId int

type EventHandlerFunc func(Event)

type Event struct {
	Timestamp time.Time
	Data      any
	Type      EventType
}

func NewEvent(eventType EventType, data any) Event {
	return Event{Type: eventType, Timestamp: time.Now(), Data: data}
}

type subscription struct {
	sub Subscriber
	id  EventSubscriberId
}

// EventBus fans events out to the subscribers of their type. Subscription
// lists are replaced on change, never mutated, so Publish can read a
// snapshot without copying.
type EventBus struct {
	subs     map[EventType][]subscription
	metrics  *eventMetrics
	logger   *slog.Logger
	queue    chan Event
	stop     chan struct{}
	workers  sync.WaitGroup
	mu       sync.RWMutex
	nextID   EventSubscriberId
	stopOnce sync.Once
}

// NewEventBus starts the async worker pool. A nil registry disables metrics.
func NewEventBus(
	promRegistry prometheus.Registerer,
	logger *slog.Logger,
) *EventBus {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e := &EventBus{
		subs:   make(map[EventType][]subscription),
		logger: logger.With("component", "event"),
		queue:  make(chan Event, AsyncQueueSize),
		stop:   make(chan struct{}),
	}
	if promRegistry != nil {
		e.metrics = newEventMetrics(promRegistry)
	}
	e.workers.Add(AsyncWorkerPoolSize)
	for range AsyncWorkerPoolSize {
		go e.worker()
	}
	return e
}

func (e *EventBus) worker() {
	defer e.workers.Done()
	for {
		select {
		case evt := <-e.queue:
			e.Publish(evt.Type, evt)
		case <-e.stop:
			return
		}
	}
}

func (e *EventBus) add(eventType EventType, sub Subscriber) EventSubscriberId {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	list := e.subs[eventType]
	e.subs[eventType] = append(list[:len(list):len(list)], subscription{id: id, sub: sub})
	e.metrics.subscriberAdded(eventType, subscriberKind(sub))
	return id
}

// Subscribe returns a channel receiving events of eventType. Events are
// dropped while its buffer is full.
func (e *EventBus) Subscribe(
	eventType EventType,
) (EventSubscriberId, <-chan Event) {
	sub := newChannelSubscriber(EventQueueSize, func() {
		e.logger.Warn("subscriber queue full, dropping event", "type", eventType)
		e.metrics.deliveryError(eventType, "dropped")
	})
	return e.add(eventType, sub), sub.ch
}

// SubscribeFunc calls handler from a dedicated goroutine for every event of
// eventType, in publish order
func (e *EventBus) SubscribeFunc(
	eventType EventType,
	handler EventHandlerFunc,
) EventSubscriberId {
	id, ch := e.Subscribe(eventType)
	go func() {
		for evt := range ch {
			handler(evt)
		}
	}()
	return id
}

// RegisterSubscriber adds a caller-provided Subscriber. It is removed and
// closed the first time Deliver fails.
func (e *EventBus) RegisterSubscriber(
	eventType EventType,
	sub Subscriber,
) EventSubscriberId {
	return e.add(eventType, sub)
}

// Unsubscribe removes and closes a subscriber. Unknown IDs are ignored.
func (e *EventBus) Unsubscribe(eventType EventType, id EventSubscriberId) {
	e.mu.Lock()
	list := e.subs[eventType]
	idx := slices.IndexFunc(list, func(s subscription) bool { return s.id == id })
	if idx < 0 {
		e.mu.Unlock()
		return
	}
	removed := list[idx].sub
	if len(list) == 1 {
		delete(e.subs, eventType)
	} else {
		e.subs[eventType] = slices.Delete(slices.Clone(list), idx, idx+1)
	}
	e.metrics.subscriberRemoved(eventType, subscriberKind(removed))
	e.mu.Unlock()
	removed.Close()
}

// Publish delivers evt synchronously to every subscriber of eventType
func (e *EventBus) Publish(eventType EventType, evt Event) {
	e.mu.RLock()
	list := e.subs[eventType]
	e.mu.RUnlock()
	for _, s := range list {
		err := deliver(s.sub, evt)
		if err == nil {
			continue
		}
		e.metrics.deliveryError(eventType, subscriberKind(s.sub))
		e.logger.Debug("dropping failed subscriber", "type", eventType, "error", err)
		e.Unsubscribe(eventType, s.id)
	}
	e.metrics.published(eventType)
}

// PublishAsync queues evt for the worker pool. It reports false when the
// bus is stopped or the queue is full.
func (e *EventBus) PublishAsync(eventType EventType, evt Event) bool {
	evt.Type = eventType
	select {
	case <-e.stop:
		return false
	default:
	}
	select {
	case e.queue <- evt:
		return true
	default:
	}
	e.logger.Warn("async event queue full, dropping event", "type", eventType)
	e.metrics.deliveryError(eventType, "async-dropped")
	return false
}

// Stop waits for the workers and closes every subscriber. Events still
// queued for async delivery are discarded.
func (e *EventBus) Stop() {
	e.stopOnce.Do(func() {
		close(e.stop)
		e.workers.Wait()
		e.mu.Lock()
		all := e.subs
		e.subs = make(map[EventType][]subscription)
		e.mu.Unlock()
		for eventType, list := range all {
			for _, s := range list {
				s.sub.Close()
				e.metrics.subscriberRemoved(eventType, subscriberKind(s.sub))
			}
		}
	})
}
