package chathub

import "sync"

// RoomTable tracks live room membership: which sessions are joined to
// which rooms right now. Canonical room metadata lives in storage; this
// table only exists so fan-out knows where to deliver.
//
// The table lock guards the room map and the session→rooms reverse
// index. Each room carries its own lock for its member set, so join and
// leave traffic on different rooms never serializes. Lock order is
// always table before room.
type RoomTable struct {
	mu     sync.RWMutex
	rooms  map[string]*roomEntry
	joined map[string]map[string]struct{}
}

type roomEntry struct {
	mu      sync.RWMutex
	members map[string]Client
}

func NewRoomTable() *RoomTable {
	return &RoomTable{
		rooms:  make(map[string]*roomEntry),
		joined: make(map[string]map[string]struct{}),
	}
}

// Join adds a session to a room. Joining twice is a no-op; the return
// value reports whether the membership actually changed.
func (t *RoomTable) Join(roomID string, c Client) bool {
	sid := c.GetSessionID()

	for {
		t.mu.Lock()
		e, ok := t.rooms[roomID]
		if !ok {
			e = &roomEntry{members: make(map[string]Client)}
			t.rooms[roomID] = e
		}
		set, ok := t.joined[sid]
		if !ok {
			set = make(map[string]struct{})
			t.joined[sid] = set
		}
		set[roomID] = struct{}{}
		t.mu.Unlock()

		e.mu.Lock()
		if _, dup := e.members[sid]; dup {
			e.mu.Unlock()
			return false
		}
		e.members[sid] = c
		e.mu.Unlock()

		// Between the two locks a concurrent leave may have pruned the
		// entry out of the table, leaving the insert in an orphan. Only
		// an insert into the live entry counts.
		t.mu.RLock()
		live := t.rooms[roomID] == e
		t.mu.RUnlock()
		if live {
			return true
		}
	}
}

// Leave removes a session from a room. Leaving a room the session is not
// a member of is a no-op.
func (t *RoomTable) Leave(roomID string, c Client) {
	sid := c.GetSessionID()

	t.mu.Lock()
	e, ok := t.rooms[roomID]
	if set, found := t.joined[sid]; found {
		delete(set, roomID)
		if len(set) == 0 {
			delete(t.joined, sid)
		}
	}
	t.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	delete(e.members, sid)
	empty := len(e.members) == 0
	e.mu.Unlock()

	if empty {
		t.prune(roomID, e)
	}
}

// prune drops an emptied room entry. The emptiness is rechecked under
// both locks because a join may have slipped in between.
func (t *RoomTable) prune(roomID string, e *roomEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.rooms[roomID]; ok && cur == e {
		e.mu.RLock()
		stillEmpty := len(e.members) == 0
		e.mu.RUnlock()
		if stillEmpty {
			delete(t.rooms, roomID)
		}
	}
}

// LeaveAll removes a session from every room it had joined and returns
// the ids of the rooms that were left.
func (t *RoomTable) LeaveAll(c Client) []string {
	sid := c.GetSessionID()

	t.mu.RLock()
	set := t.joined[sid]
	roomIDs := make([]string, 0, len(set))
	for roomID := range set {
		roomIDs = append(roomIDs, roomID)
	}
	t.mu.RUnlock()

	for _, roomID := range roomIDs {
		t.Leave(roomID, c)
	}
	return roomIDs
}

// Members returns a snapshot of the sessions joined to a room at the
// instant of the call. Concurrent joins may or may not be included, but
// the snapshot is never torn.
func (t *RoomTable) Members(roomID string) []Client {
	t.mu.RLock()
	e, ok := t.rooms[roomID]
	t.mu.RUnlock()
	if !ok {
		return nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Client, 0, len(e.members))
	for _, c := range e.members {
		out = append(out, c)
	}
	return out
}

// IsMember reports whether the session is currently joined to the room.
func (t *RoomTable) IsMember(roomID string, c Client) bool {
	t.mu.RLock()
	e, ok := t.rooms[roomID]
	t.mu.RUnlock()
	if !ok {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	_, joined := e.members[c.GetSessionID()]
	return joined
}

// HasUser reports whether any session of the given user is joined to the
// room. Used to decide typing cleanup when one of the user's sessions
// goes away.
func (t *RoomTable) HasUser(roomID, userID string) bool {
	for _, c := range t.Members(roomID) {
		if c.GetUserID() == userID {
			return true
		}
	}
	return false
}

// RoomsOf returns the ids of the rooms a session is joined to.
func (t *RoomTable) RoomsOf(c Client) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set := t.joined[c.GetSessionID()]
	out := make([]string, 0, len(set))
	for roomID := range set {
		out = append(out, roomID)
	}
	return out
}
