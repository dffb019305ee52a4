package adapter

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

type subscription struct {
	id      uint64
	handler Handler
}

// Emitter is a synchronous observer registry for adapter events. Handlers run
// on the publishing goroutine, in registration order. A panicking handler is
// logged and does not stop delivery to the others.
type Emitter struct {
	log *logrus.Entry

	mu            sync.RWMutex
	subscriptions map[EventType][]subscription
	nextID        uint64
}

func NewEmitter() *Emitter {
	return &Emitter{
		log:           logrus.StandardLogger().WithField("type", "wallet/adapter/emitter"),
		subscriptions: make(map[EventType][]subscription),
	}
}

func (e *Emitter) Subscribe(t EventType, handler Handler) (unsubscribe func()) {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.subscriptions[t] = append(e.subscriptions[t], subscription{id: id, handler: handler})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.remove(t, id)
		})
	}
}

func (e *Emitter) remove(t EventType, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.subscriptions[t]
	for i, sub := range subs {
		if sub.id == id {
			e.subscriptions[t] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit delivers event to every handler subscribed to its type.
func (e *Emitter) Emit(event Event) {
	e.mu.RLock()
	subs := make([]subscription, len(e.subscriptions[event.Type]))
	copy(subs, e.subscriptions[event.Type])
	e.mu.RUnlock()

	for _, sub := range subs {
		e.safeCall(sub.handler, event)
	}
}

func (e *Emitter) safeCall(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithFields(logrus.Fields{
				"event": event.Type,
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("event handler panicked")
		}
	}()
	handler(event)
}

// Count returns the number of active subscriptions across all event types.
func (e *Emitter) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var n int
	for _, subs := range e.subscriptions {
		n += len(subs)
	}
	return n
}

// Clear removes every subscription.
func (e *Emitter) Clear() {
	e.mu.Lock()
	e.subscriptions = make(map[EventType][]subscription)
	e.mu.Unlock()
}
