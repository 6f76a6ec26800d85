package wire

import (
	"strconv"
	"strings"
)

// Request is a decoded client command. The concrete type identifies the
// command; Command returns its five-digit wire code.
type Request interface {
	Command() string
}

// RegisterRequest claims a username for the sending connection.
type RegisterRequest struct {
	Name string
}

// JoinRequest joins (or lazily creates) a room.
type JoinRequest struct {
	Room string
	Name string
}

// RoomMessageRequest broadcasts a payload into one or more rooms.
// Declared is the client-declared room count; delivery requires it to
// match len(Rooms) exactly.
type RoomMessageRequest struct {
	Declared int
	Rooms    []string
	Payload  string
}

// PrivateMessageRequest sends a payload to one or more named users.
type PrivateMessageRequest struct {
	Declared int
	Users    []string
	Payload  string
}

// LeaveRequest removes the named user from a room.
type LeaveRequest struct {
	Room string
	Name string
}

// ListRoomUsersRequest asks for the members of one room.
type ListRoomUsersRequest struct {
	Room string
}

// ListRoomsRequest asks for every room name known to the server.
type ListRoomsRequest struct{}

// DisconnectRequest ends the named user's session.
type DisconnectRequest struct {
	Name string
}

func (RegisterRequest) Command() string       { return CmdRegister }
func (JoinRequest) Command() string           { return CmdJoin }
func (RoomMessageRequest) Command() string    { return CmdRoomMessage }
func (PrivateMessageRequest) Command() string { return CmdPrivateMessage }
func (LeaveRequest) Command() string          { return CmdLeave }
func (ListRoomUsersRequest) Command() string  { return CmdListRoomUsers }
func (ListRoomsRequest) Command() string      { return CmdListRooms }
func (DisconnectRequest) Command() string     { return CmdDisconnect }

// DecodeRequest parses a frame interior into a Request. Only an unknown
// command code fails with ErrBadCommand; interiors with too few or
// malformed argument bytes decode into requests the dispatcher rejects
// with the appropriate 4xx status (structural counting, not rejection).
func DecodeRequest(interior string) (Request, error) {
	if len(interior) < 5 {
		return nil, ErrBadCommand
	}
	cmd, args := interior[:5], interior[5:]
	switch cmd {
	case CmdRegister:
		return RegisterRequest{Name: args}, nil
	case CmdJoin:
		room, name := splitRoomUser(args)
		return JoinRequest{Room: room, Name: name}, nil
	case CmdRoomMessage:
		declared, rooms, payload := splitCounted(args)
		return RoomMessageRequest{Declared: declared, Rooms: rooms, Payload: payload}, nil
	case CmdPrivateMessage:
		declared, users, payload := splitUserList(args)
		return PrivateMessageRequest{Declared: declared, Users: users, Payload: payload}, nil
	case CmdLeave:
		room, name := splitRoomUser(args)
		return LeaveRequest{Room: room, Name: name}, nil
	case CmdListRoomUsers:
		return ListRoomUsersRequest{Room: args}, nil
	case CmdListRooms:
		return ListRoomsRequest{}, nil
	case CmdDisconnect:
		return DisconnectRequest{Name: args}, nil
	default:
		return nil, ErrBadCommand
	}
}

// splitRoomUser splits a fixed-width room name off the front of args.
func splitRoomUser(args string) (room, name string) {
	if len(args) <= NameLength {
		return args, ""
	}
	return args[:NameLength], args[NameLength:]
}

// splitCounted parses <N2><N x name20><payload>. When args is too short
// for the declared count, the parsed list stays short and the dispatcher
// answers 410. A non-numeric count parses as -1, which never matches.
func splitCounted(args string) (declared int, names []string, payload string) {
	declared = -1
	if len(args) < 2 {
		return declared, nil, ""
	}
	if n, err := strconv.Atoi(args[:2]); err == nil && n >= 0 {
		declared = n
	}
	rest := args[2:]
	off := 0
	for i := 0; i < declared && off+NameLength <= len(rest); i++ {
		names = append(names, rest[off:off+NameLength])
		off += NameLength
	}
	return declared, names, rest[off:]
}

// splitUserList parses <N2><u1>&<u2>&...&<uN>#<payload>. The payload may
// itself contain '#' and '&', so only the first '#' terminates the user
// list. A missing separator leaves Users nil, which the dispatcher
// answers with 410.
func splitUserList(args string) (declared int, users []string, payload string) {
	declared = -1
	if len(args) < 2 {
		return declared, nil, ""
	}
	if n, err := strconv.Atoi(args[:2]); err == nil && n >= 0 {
		declared = n
	}
	head, payload, found := strings.Cut(args[2:], "#")
	if !found {
		return declared, nil, ""
	}
	return declared, strings.Split(head, "&"), payload
}
