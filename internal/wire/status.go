package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is one server response. Every status encodes to a single
// $-delimited frame; typed variants carry the command code of the
// operation they answer, generic statuses carry only code and message.
type Status interface {
	StatusCode() int
	Encode() []byte
}

// BaseStatus is the generic code+message response used for protocol
// errors that have no richer variant (400, 410, 420, 462, ...).
type BaseStatus struct {
	Code    int
	Message string
}

// RegistrationStatus answers a Register command.
type RegistrationStatus struct {
	Code    int
	Message string
	Name    string
}

// JoinStatus answers a Join command and fans out to room members.
// IsCreation marks the join that created the room.
type JoinStatus struct {
	Code       int
	Message    string
	Room       string
	Name       string
	IsCreation bool
}

// MessageStatus carries a relayed payload. ToRoom selects between the
// room-broadcast (00003) and private (00004) wire forms; Room is set for
// the former, User for the latter.
type MessageStatus struct {
	Code    int
	Message string
	ToRoom  bool
	Sender  string
	Room    string
	User    string
	Payload string
}

// DisconnectStatus announces a session teardown. Room is set on the
// copies fanned out to rooms the user belonged to; Addr is set on
// internal 462 races.
type DisconnectStatus struct {
	Code    int
	Message string
	Name    string
	Addr    string
	Room    string
}

// LeaveStatus answers a Leave command and fans out to remaining members.
type LeaveStatus struct {
	Code    int
	Message string
	Room    string
	Name    string
}

// RoomUserListStatus answers a List-room-users command.
type RoomUserListStatus struct {
	Code    int
	Message string
	Room    string
	Users   []string
}

// ListRoomStatus answers a List-rooms command.
type ListRoomStatus struct {
	Code    int
	Message string
	Rooms   []string
}

func (s BaseStatus) StatusCode() int         { return s.Code }
func (s RegistrationStatus) StatusCode() int { return s.Code }
func (s JoinStatus) StatusCode() int         { return s.Code }
func (s MessageStatus) StatusCode() int      { return s.Code }
func (s DisconnectStatus) StatusCode() int   { return s.Code }
func (s LeaveStatus) StatusCode() int        { return s.Code }
func (s RoomUserListStatus) StatusCode() int { return s.Code }
func (s ListRoomStatus) StatusCode() int     { return s.Code }

func (s BaseStatus) Encode() []byte {
	return []byte(fmt.Sprintf("$%03d%s$", s.Code, s.Message))
}

func (s RegistrationStatus) Encode() []byte {
	return []byte(fmt.Sprintf("$%03d%s%s#%s$", s.Code, CmdRegister, s.Name, s.Message))
}

func (s JoinStatus) Encode() []byte {
	flag := "0"
	if s.IsCreation {
		flag = "1"
	}
	return []byte(fmt.Sprintf("$%03d%s%s%s%s#%s$", s.Code, CmdJoin, flag, s.Room, s.Name, s.Message))
}

func (s MessageStatus) Encode() []byte {
	cmd, flag, target := CmdPrivateMessage, "0", s.User
	if s.ToRoom {
		cmd, flag, target = CmdRoomMessage, "1", s.Room
	}
	return []byte(fmt.Sprintf("$%03d%s%s%s#%s#%s#%s$", s.Code, cmd, flag, s.Sender, target, s.Payload, s.Message))
}

func (s DisconnectStatus) Encode() []byte {
	return []byte(fmt.Sprintf("$%03d%s%s#%s#%s#%s$", s.Code, CmdDisconnect, s.Name, s.Addr, s.Room, s.Message))
}

func (s LeaveStatus) Encode() []byte {
	return []byte(fmt.Sprintf("$%03d%s%s%s#%s$", s.Code, CmdLeave, s.Room, s.Name, s.Message))
}

func (s RoomUserListStatus) Encode() []byte {
	return []byte(fmt.Sprintf("$%03d%s%s%s#%s$", s.Code, CmdListRoomUsers, s.Room, strings.Join(s.Users, "&"), s.Message))
}

func (s ListRoomStatus) Encode() []byte {
	return []byte(fmt.Sprintf("$%03d%s%s#%s$", s.Code, CmdListRooms, strings.Join(s.Rooms, "&"), s.Message))
}

// DecodeStatus parses a response frame interior. Bytes 3..8 are treated
// as a command code only when they match a known one; anything else is a
// generic status whose remaining bytes are the message. Variant bodies
// are validated structurally: a frame whose field count does not match
// its layout fails with ErrBadStatus and is discarded by callers.
func DecodeStatus(interior string) (Status, error) {
	if len(interior) < 3 {
		return nil, ErrBadStatus
	}
	code, err := strconv.Atoi(interior[:3])
	if err != nil {
		return nil, ErrBadStatus
	}
	rest := interior[3:]
	if len(rest) < 5 {
		return BaseStatus{Code: code, Message: rest}, nil
	}
	cmd, body := rest[:5], rest[5:]
	switch cmd {
	case CmdRegister:
		name, message, found := strings.Cut(body, "#")
		if !found {
			return nil, ErrBadStatus
		}
		return RegistrationStatus{Code: code, Message: message, Name: name}, nil
	case CmdJoin:
		if len(body) < 2*NameLength+2 || body[2*NameLength+1] != '#' {
			return nil, ErrBadStatus
		}
		return JoinStatus{
			Code:       code,
			Message:    body[2*NameLength+2:],
			Room:       body[1 : NameLength+1],
			Name:       body[NameLength+1 : 2*NameLength+1],
			IsCreation: body[0] == '1',
		}, nil
	case CmdRoomMessage, CmdPrivateMessage:
		if len(body) < 1 {
			return nil, ErrBadStatus
		}
		fields := strings.Split(body[1:], "#")
		if len(fields) < 4 {
			return nil, ErrBadStatus
		}
		s := MessageStatus{
			Code:    code,
			Message: fields[len(fields)-1],
			ToRoom:  body[0] == '1',
			Sender:  fields[0],
			Payload: strings.Join(fields[2:len(fields)-1], "#"),
		}
		if s.ToRoom {
			s.Room = fields[1]
		} else {
			s.User = fields[1]
		}
		return s, nil
	case CmdLeave:
		if len(body) < 2*NameLength+1 || body[2*NameLength] != '#' {
			return nil, ErrBadStatus
		}
		return LeaveStatus{
			Code:    code,
			Message: body[2*NameLength+1:],
			Room:    body[:NameLength],
			Name:    body[NameLength : 2*NameLength],
		}, nil
	case CmdListRoomUsers:
		if len(body) < NameLength {
			return nil, ErrBadStatus
		}
		rest, message, found := strings.Cut(body[NameLength:], "#")
		if !found {
			return nil, ErrBadStatus
		}
		return RoomUserListStatus{
			Code:    code,
			Message: message,
			Room:    body[:NameLength],
			Users:   splitNames(rest),
		}, nil
	case CmdListRooms:
		rooms, message, found := strings.Cut(body, "#")
		if !found {
			return nil, ErrBadStatus
		}
		return ListRoomStatus{Code: code, Message: message, Rooms: splitNames(rooms)}, nil
	case CmdDisconnect:
		fields := strings.Split(body, "#")
		if len(fields) < 4 {
			return nil, ErrBadStatus
		}
		return DisconnectStatus{
			Code:    code,
			Message: strings.Join(fields[3:], "#"),
			Name:    fields[0],
			Addr:    fields[1],
			Room:    fields[2],
		}, nil
	default:
		return BaseStatus{Code: code, Message: rest}, nil
	}
}

func splitNames(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "&")
}
