package chathub

import (
	"sync"
	"time"

	"chatrelay/backend/internal/models"
)

// BroadcastFunc delivers a presence event to the members of a room. The
// event's UserID identifies the typer, whose own sessions are excluded
// by the broadcaster.
type BroadcastFunc func(roomID string, ev models.Event)

type typingKey struct {
	roomID string
	userID string
}

// typingState exists only while a (room, user) pair is actively typing.
// The generation counter invalidates timers: every keystroke and every
// explicit stop bumps it, and an expiry callback that fires with an older
// generation is stale and discards itself.
type typingState struct {
	gen   uint64
	timer *time.Timer
}

// TypingTracker keeps the ephemeral per-room, per-user typing flags and
// their debounce timers. Each Idle→Active transition emits exactly one
// typing broadcast, each Active→Idle exactly one stop_typing; everything
// in between is silent. Active state expires after the window elapses
// without a fresh typing event, measured from the last event.
type TypingTracker struct {
	mu        sync.Mutex
	window    time.Duration
	states    map[typingKey]*typingState
	broadcast BroadcastFunc
}

func NewTypingTracker(window time.Duration, broadcast BroadcastFunc) *TypingTracker {
	return &TypingTracker{
		window:    window,
		states:    make(map[typingKey]*typingState),
		broadcast: broadcast,
	}
}

// Typing records a typing event. The first event for an idle key emits a
// typing broadcast and arms the expiry timer; repeats within the window
// only re-arm the timer.
func (t *TypingTracker) Typing(roomID, userID string) {
	key := typingKey{roomID: roomID, userID: userID}

	t.mu.Lock()
	if st, active := t.states[key]; active {
		st.gen++
		gen := st.gen
		st.timer.Stop()
		st.timer = time.AfterFunc(t.window, func() { t.expire(key, gen) })
		t.mu.Unlock()
		return
	}

	st := &typingState{gen: 1}
	gen := st.gen
	st.timer = time.AfterFunc(t.window, func() { t.expire(key, gen) })
	t.states[key] = st
	t.mu.Unlock()

	t.broadcast(roomID, models.Event{Name: models.EventTyping, RoomID: roomID, UserID: userID})
}

// Stop records an explicit stop event. Stopping an idle key is a no-op.
func (t *TypingTracker) Stop(roomID, userID string) {
	key := typingKey{roomID: roomID, userID: userID}

	t.mu.Lock()
	st, active := t.states[key]
	if !active {
		t.mu.Unlock()
		return
	}
	st.gen++ // invalidate any expiry already in flight
	st.timer.Stop()
	delete(t.states, key)
	t.mu.Unlock()

	t.broadcast(roomID, models.Event{Name: models.EventStopTyping, RoomID: roomID, UserID: userID})
}

// expire is the timer callback. It only wins if its generation is still
// the live one; a Stop or a later keystroke in the meantime makes it a
// stale no-op.
func (t *TypingTracker) expire(key typingKey, gen uint64) {
	t.mu.Lock()
	st, active := t.states[key]
	if !active || st.gen != gen {
		t.mu.Unlock()
		return
	}
	delete(t.states, key)
	t.mu.Unlock()

	t.broadcast(key.roomID, models.Event{Name: models.EventStopTyping, RoomID: key.roomID, UserID: key.userID})
}

// IsTyping reports whether the (room, user) pair is currently active.
func (t *TypingTracker) IsTyping(roomID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, active := t.states[typingKey{roomID: roomID, userID: userID}]
	return active
}
