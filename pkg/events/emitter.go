// Package events — локальная шина событий клиента (аналог EventEmitter).
// Слушатели вызываются синхронно в горутине того, кто делает Emit: для событий
// сокета это горутина доставки соединения, поэтому медленный слушатель
// задерживает следующие события, но не чтение с провода.
package events

import (
	"sync"
	"time"
)

type Event struct {
	Name    string
	Payload any
	Time    time.Time
}

type Listener func(Event)

type subscription struct {
	id   uint64
	fn   Listener
	once bool
}

// Emitter готов к работе в нулевом значении.
type Emitter struct {
	mu        sync.Mutex
	seq       uint64
	listeners map[string][]*subscription
}

func New() *Emitter {
	return &Emitter{listeners: make(map[string][]*subscription)}
}

// On подписывает fn на событие name. Возвращает функцию отписки.
func (e *Emitter) On(name string, fn Listener) func() {
	return e.add(name, fn, false)
}

// Once — как On, но слушатель снимается после первого вызова.
func (e *Emitter) Once(name string, fn Listener) func() {
	return e.add(name, fn, true)
}

func (e *Emitter) add(name string, fn Listener, once bool) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[string][]*subscription)
	}
	e.seq++
	sub := &subscription{id: e.seq, fn: fn, once: once}
	e.listeners[name] = append(e.listeners[name], sub)

	return func() { e.remove(name, sub.id) }
}

func (e *Emitter) remove(name string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	subs := e.listeners[name]
	for i, s := range subs {
		if s.id == id {
			e.listeners[name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(e.listeners[name]) == 0 {
		delete(e.listeners, name)
	}
}

// Emit вызывает слушателей name по порядку подписки и возвращает их количество.
func (e *Emitter) Emit(name string, payload any) int {
	e.mu.Lock()
	subs := e.listeners[name]
	snapshot := make([]*subscription, len(subs))
	copy(snapshot, subs)

	kept := subs[:0:0]
	for _, s := range subs {
		if !s.once {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(e.listeners, name)
	} else {
		e.listeners[name] = kept
	}
	e.mu.Unlock()

	ev := Event{Name: name, Payload: payload, Time: time.Now()}
	for _, s := range snapshot {
		s.fn(ev)
	}
	return len(snapshot)
}

func (e *Emitter) ListenerCount(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[name])
}
