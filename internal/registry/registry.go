// Package registry holds the server's shared state: the mappings of
// username to session, room name to room, and peer address to username.
// Every read and write of the three maps is serialized by one mutex;
// mailbox operations happen after it is released (lock order is always
// registry then mailbox, never the reverse).
package registry

import (
	"errors"
	"net"
	"sort"
	"sync"

	"go.uber.org/zap"

	"textchat/internal/mailbox"
	"textchat/internal/wire"
)

var (
	// ErrAddrUnknown signals that a peer address has no registered user.
	// Two goroutines tearing down the same reset connection race on the
	// conns entry; the loser observes this and exits quietly.
	ErrAddrUnknown = errors.New("address has no registered user")

	// ErrUserDisconnected is the mailbox disconnect sentinel surfaced by
	// FlushMessageQueue.
	ErrUserDisconnected = errors.New("user disconnected")
)

// Registry is the concurrent user/room/connection table.
type Registry struct {
	mu    sync.Mutex
	users map[string]*User
	rooms map[string]*Room
	conns map[string]string // peer address -> username
	log   *zap.Logger
}

func New(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		users: make(map[string]*User),
		rooms: make(map[string]*Room),
		conns: make(map[string]string),
		log:   log,
	}
}

// Register claims name for the connection at addr. It rejects malformed
// names with 403, an already-registered address with 401, and a taken
// name with 402. On success the users and conns entries are added
// together, keeping the two maps in agreement.
func (t *Registry) Register(name string, conn net.Conn, addr string) wire.Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !wire.ValidName(name) {
		return wire.BaseStatus{Code: 403, Message: "Invalid username format"}
	}
	if _, ok := t.conns[addr]; ok {
		return wire.RegistrationStatus{Code: 401, Message: "Duplicated registration", Name: name}
	}
	if _, ok := t.users[name]; ok {
		return wire.RegistrationStatus{Code: 402, Message: "Username existed", Name: name}
	}

	t.users[name] = newUser(name, conn, addr)
	t.conns[addr] = name
	t.log.Info("user registered", zap.String("user", wire.TrimName(name)), zap.String("addr", addr))
	return wire.RegistrationStatus{Code: 200, Message: "success", Name: name}
}

// JoinRoom adds user to roomName, creating the room when it does not
// exist. The creating join is marked IsCreation and the creator becomes
// the sole member.
func (t *Registry) JoinRoom(roomName, username string) wire.Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.users[username]; !ok {
		return wire.JoinStatus{Code: 499, Message: "User requested not found", Room: roomName, Name: username}
	}
	room, ok := t.rooms[roomName]
	if !ok {
		if !wire.ValidName(roomName) {
			return wire.BaseStatus{Code: 403, Message: "Invalid room name format"}
		}
		t.rooms[roomName] = newRoom(roomName, username)
		t.log.Info("room created",
			zap.String("room", wire.TrimName(roomName)), zap.String("creator", wire.TrimName(username)))
		return wire.JoinStatus{Code: 200, Message: "success", Room: roomName, Name: username, IsCreation: true}
	}
	if room.has(username) {
		return wire.JoinStatus{Code: 498, Message: "Duplicated joining", Room: roomName, Name: username}
	}
	room.join(username)
	return wire.JoinStatus{Code: 200, Message: "success", Room: roomName, Name: username}
}

// LeaveRoom removes username from roomName. The room is kept even when
// it empties.
func (t *Registry) LeaveRoom(roomName, username string) wire.Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.users[username]; !ok {
		return wire.BaseStatus{Code: 499, Message: "User not found"}
	}
	room, ok := t.rooms[roomName]
	if !ok {
		return wire.LeaveStatus{Code: 450, Message: "Room to leave not found", Room: roomName, Name: username}
	}
	if !room.leave(username) {
		return wire.LeaveStatus{Code: 451, Message: "User not found in room to leave", Room: roomName, Name: username}
	}
	return wire.LeaveStatus{Code: 200, Message: "success", Room: roomName, Name: username}
}

// DisconnectUser removes username from every room, fires the mailbox
// latch to unblock the session's writer, and drops the users entry. The
// conns entry is cleared separately by ClearConn. Returns the names of
// the rooms that held the user, sorted.
func (t *Registry) DisconnectUser(username string) ([]string, wire.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	user, ok := t.users[username]
	if !ok {
		return nil, wire.DisconnectStatus{Code: 461, Message: "Disconnect user not found", Name: username}
	}
	var notified []string
	for name, room := range t.rooms {
		if room.leave(username) {
			notified = append(notified, name)
		}
	}
	sort.Strings(notified)
	user.Mailbox.ReleaseOnDisconnect()
	delete(t.users, username)
	t.log.Info("user disconnected",
		zap.String("user", wire.TrimName(username)), zap.Int("rooms", len(notified)))
	return notified, wire.BaseStatus{Code: 200, Message: "success"}
}

// ClearConn removes the conns entry for addr. 462 means another
// goroutine handling the same teardown already cleared it.
func (t *Registry) ClearConn(addr string) wire.Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.conns[addr]; !ok {
		return wire.BaseStatus{Code: 462, Message: "Disconnect cannot find address"}
	}
	delete(t.conns, addr)
	return wire.BaseStatus{Code: 200, Message: "success"}
}

// EnqueueMessage pushes status onto each named recipient's mailbox.
// Recipients no longer registered are skipped silently. The registry
// mutex is held only for the lookup, not for the pushes.
func (t *Registry) EnqueueMessage(status wire.Status, recipients []string) {
	t.mu.Lock()
	boxes := make([]*mailbox.Mailbox, 0, len(recipients))
	for _, name := range recipients {
		if user, ok := t.users[name]; ok {
			boxes = append(boxes, user.Mailbox)
		}
	}
	t.mu.Unlock()

	for _, box := range boxes {
		box.Push(status)
	}
}

// FlushMessageQueue resolves addr to its user and blocks on the user's
// mailbox. It returns ErrUserDisconnected when the address is no longer
// registered or the mailbox latch fires.
func (t *Registry) FlushMessageQueue(addr string) ([]wire.Status, error) {
	t.mu.Lock()
	name, ok := t.conns[addr]
	if !ok {
		t.mu.Unlock()
		return nil, ErrUserDisconnected
	}
	user, ok := t.users[name]
	t.mu.Unlock()
	if !ok {
		// DisconnectUser dropped the user before ClearConn ran.
		return nil, ErrUserDisconnected
	}

	batch, ok := user.Mailbox.PopAll()
	if !ok {
		return nil, ErrUserDisconnected
	}
	return batch, nil
}

// ListRoomUsers returns the sorted member names of roomName, or nil when
// the room does not exist.
func (t *Registry) ListRoomUsers(roomName string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	room, ok := t.rooms[roomName]
	if !ok {
		return nil
	}
	return room.memberNames()
}

// ListRooms returns every room name, sorted.
func (t *Registry) ListRooms() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.rooms) == 0 {
		return nil
	}
	names := make([]string, 0, len(t.rooms))
	for name := range t.rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Registry) HasRoom(roomName string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.rooms[roomName]
	return ok
}

func (t *Registry) HasUser(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.users[username]
	return ok
}

func (t *Registry) HasAddr(addr string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.conns[addr]
	return ok
}

// UserByAddr resolves addr to its username. ErrAddrUnknown signals that
// a concurrent teardown already cleared the entry.
func (t *Registry) UserByAddr(addr string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	name, ok := t.conns[addr]
	if !ok {
		return "", ErrAddrUnknown
	}
	return name, nil
}

// RoomInfo is a read-only room snapshot for the ops API.
type RoomInfo struct {
	Name    string   `json:"name"`
	Creator string   `json:"creator"`
	Members []string `json:"members"`
}

// UserInfo is a read-only session snapshot for the ops API.
type UserInfo struct {
	Name string `json:"name"`
	Addr string `json:"addr"`
}

// Rooms returns a snapshot of every room, sorted by name, with trimmed
// member names.
func (t *Registry) Rooms() []RoomInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	infos := make([]RoomInfo, 0, len(t.rooms))
	for _, room := range t.rooms {
		members := room.memberNames()
		trimmed := make([]string, len(members))
		for i, m := range members {
			trimmed[i] = wire.TrimName(m)
		}
		infos = append(infos, RoomInfo{
			Name:    wire.TrimName(room.Name),
			Creator: wire.TrimName(room.Creator),
			Members: trimmed,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Users returns a snapshot of every session, sorted by name.
func (t *Registry) Users() []UserInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	infos := make([]UserInfo, 0, len(t.users))
	for _, user := range t.users {
		infos = append(infos, UserInfo{Name: wire.TrimName(user.Name), Addr: user.Addr})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Counts returns the number of registered users and rooms.
func (t *Registry) Counts() (users, rooms int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.users), len(t.rooms)
}
