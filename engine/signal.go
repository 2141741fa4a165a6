package engine

import (
	"reflect"
	"sort"

	"go.uber.org/zap"
)

type handlerEntry[T any] struct {
	order int
	seq   int
	fn    func(T)
	key   uintptr
}

// Signal is a generic ordered multicast bus. Handlers fire in ascending
// (order, registration-sequence) order — the source's EventRouter dispatches
// handlers by an explicit order with registration sequence breaking ties —
// and a handler panic is captured and logged rather than propagated — a
// HandlerException never stops the remaining handlers from running (§7).
type Signal[T any] struct {
	handlers []handlerEntry[T]
	nextSeq  int
}

// Add registers fn to run at the given order (ascending; ties broken by
// registration sequence), returning a token Remove can later use to
// unregister it. Adding the same function value twice is a no-op: the
// existing token is returned instead of a duplicate handler being queued.
func (s *Signal[T]) Add(fn func(T), order int) int {
	key := reflect.ValueOf(fn).Pointer()
	for _, h := range s.handlers {
		if h.key == key {
			return h.seq
		}
	}

	seq := s.nextSeq
	s.nextSeq++
	entry := handlerEntry[T]{order: order, seq: seq, fn: fn, key: key}

	i := sort.Search(len(s.handlers), func(i int) bool {
		if s.handlers[i].order != order {
			return s.handlers[i].order >= order
		}
		return s.handlers[i].seq >= seq
	})
	s.handlers = append(s.handlers, handlerEntry[T]{})
	copy(s.handlers[i+1:], s.handlers[i:])
	s.handlers[i] = entry
	return seq
}

// Remove unregisters the handler previously returned by Add, if still
// present.
func (s *Signal[T]) Remove(token int) bool {
	for i, h := range s.handlers {
		if h.seq == token {
			s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every handler.
func (s *Signal[T]) Clear() {
	s.handlers = nil
}

// Len reports the number of registered handlers.
func (s *Signal[T]) Len() int { return len(s.handlers) }

// Emit calls every handler with evt in ascending (order, registration
// sequence) order. A panicking
// handler is recovered and logged as a captured HandlerException; the
// remaining handlers still run.
func (s *Signal[T]) Emit(log *zap.Logger, evt T) {
	for _, h := range s.handlers {
		fn := h.fn
		safeCall(log, "signal", nil, func() { fn(evt) })
	}
}
