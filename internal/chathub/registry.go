package chathub

import "sync"

// SessionRegistry maps connected sessions to their transport handles. A
// user may hold several concurrent sessions (multiple tabs, a Telegram
// link); the registry keeps both the flat session map and a per-user
// index so fan-out and cleanup can find all of them.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]Client
	byUser   map[string]map[string]Client
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]Client),
		byUser:   make(map[string]map[string]Client),
	}
}

// Register adds a session. Registration never fails; re-registering the
// same session handle overwrites it in place.
func (r *SessionRegistry) Register(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sid := c.GetSessionID()
	uid := c.GetUserID()
	r.sessions[sid] = c

	set, ok := r.byUser[uid]
	if !ok {
		set = make(map[string]Client)
		r.byUser[uid] = set
	}
	set[sid] = c
}

// Unregister removes a session. It is idempotent and reports whether the
// session was present, so callers run cascading cleanup exactly once.
func (r *SessionRegistry) Unregister(c Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sid := c.GetSessionID()
	if _, ok := r.sessions[sid]; !ok {
		return false
	}
	delete(r.sessions, sid)

	uid := c.GetUserID()
	if set, ok := r.byUser[uid]; ok {
		delete(set, sid)
		if len(set) == 0 {
			delete(r.byUser, uid)
		}
	}
	return true
}

// Get returns the session for a handle.
func (r *SessionRegistry) Get(sessionID string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.sessions[sessionID]
	return c, ok
}

// Lookup returns every live session owned by a user.
func (r *SessionRegistry) Lookup(userID string) []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byUser[userID]
	out := make([]Client, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
