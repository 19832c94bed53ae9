package chathub_test

import (
	"testing"

	"chatrelay/backend/internal/chathub"

	"github.com/stretchr/testify/assert"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := chathub.NewSessionRegistry()

	a1 := newMockClient("s1", "user_A")
	a2 := newMockClient("s2", "user_A")
	b := newMockClient("s3", "user_B")

	r.Register(a1)
	r.Register(a2)
	r.Register(b)

	assert.Equal(t, 3, r.Len())

	// Both of user_A's concurrent sessions are visible.
	assert.Len(t, r.Lookup("user_A"), 2)
	assert.Len(t, r.Lookup("user_B"), 1)
	assert.Empty(t, r.Lookup("user_C"))

	got, ok := r.Get("s2")
	assert.True(t, ok)
	assert.Equal(t, "user_A", got.GetUserID())
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	r := chathub.NewSessionRegistry()
	c := newMockClient("s1", "user_A")

	r.Register(c)
	assert.True(t, r.Unregister(c), "first unregister removes the session")
	assert.False(t, r.Unregister(c), "second unregister is a no-op")

	_, ok := r.Get("s1")
	assert.False(t, ok)
	assert.Empty(t, r.Lookup("user_A"))
}

func TestRegistryUnregisterKeepsOtherSessionsOfUser(t *testing.T) {
	r := chathub.NewSessionRegistry()
	a1 := newMockClient("s1", "user_A")
	a2 := newMockClient("s2", "user_A")

	r.Register(a1)
	r.Register(a2)
	r.Unregister(a1)

	sessions := r.Lookup("user_A")
	assert.Len(t, sessions, 1)
	assert.Equal(t, "s2", sessions[0].GetSessionID())
}
