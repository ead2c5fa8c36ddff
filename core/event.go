package core

import "sync"

// Event names a lifecycle notification emitted after a model operation.
type Event string

const (
	EventInsert Event = "insert"
	EventUpdate Event = "update"
	EventDelete Event = "delete"
	EventFind   Event = "find"
	// EventFilter is emitted once a filter struct has been compiled, before
	// the resulting query runs.
	EventFilter Event = "filter"
)

// EventHandler receives the payload of an emitted event. Its dynamic type
// depends on the event: InsertPayload, UpdatePayload, DeletePayload,
// FindOnePayload, FindManyPayload or FilterPayload.
type EventHandler func(payload any)

type EventDispatcher struct {
	mutex       sync.RWMutex
	handlerList map[Event][]EventHandler
}

var globalDispatcher = &EventDispatcher{
	handlerList: make(map[Event][]EventHandler),
}

// On registers handler for event.
//
//	core.On(core.EventFilter, func(payload any) {
//	    if p, ok := payload.(core.FilterPayload); ok {
//	        log.Printf("%d joins", len(p.Where.From.Joins()))
//	    }
//	})
func On(event Event, handler EventHandler) {
	globalDispatcher.mutex.Lock()
	defer globalDispatcher.mutex.Unlock()
	globalDispatcher.handlerList[event] = append(globalDispatcher.handlerList[event], handler)
}

// Off drops every handler registered for event.
func Off(event Event) {
	globalDispatcher.mutex.Lock()
	defer globalDispatcher.mutex.Unlock()
	delete(globalDispatcher.handlerList, event)
}

// Emit runs the handlers of event, each in its own goroutine.
func Emit(event Event, payload any) {
	globalDispatcher.mutex.RLock()
	defer globalDispatcher.mutex.RUnlock()
	for _, h := range globalDispatcher.handlerList[event] {
		go h(payload)
	}
}

type InsertPayload[T any] struct {
	Schema *SchemaCore
	Doc    *T
}

type UpdatePayload struct {
	Schema    *SchemaCore
	Condition *Condition
	Changes   Changes
}

type DeletePayload struct {
	Schema    *SchemaCore
	Condition *Condition
}

type FindOnePayload[T any] struct {
	Schema *SchemaCore
	Where  *Where
	Doc    *T
}

type FindManyPayload[T any] struct {
	Schema  *SchemaCore
	Where   *Where
	DocList []T
}

// FilterPayload carries a compiled filter: the filter struct, the query
// options it produced (condition, joins on Where.From, rewritten sort).
type FilterPayload struct {
	Schema *SchemaCore
	Spec   any
	Where  *Where
}
