// Package dispatch executes decoded requests against the registry and
// fans the resulting statuses out to the right mailboxes. The fan-out
// rules live here; the registry only mutates state.
package dispatch

import (
	"net"

	"go.uber.org/zap"

	"textchat/internal/metrics"
	"textchat/internal/registry"
	"textchat/internal/wire"
)

type Dispatcher struct {
	reg     *registry.Registry
	metrics *metrics.Metrics
	log     *zap.Logger
}

func New(reg *registry.Registry, m *metrics.Metrics, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Dispatcher{reg: reg, metrics: m, log: log}
}

// Dispatch executes one request from the connection at addr. The
// returned status is the command's outcome; the connection driver
// inspects it only to detect its own shutdown (a 200 DisconnectStatus
// for the connection's user). Everything a client should see is
// enqueued to mailboxes here, not written by the caller.
func (d *Dispatcher) Dispatch(req wire.Request, conn net.Conn, addr string) wire.Status {
	d.metrics.CommandHandled(req.Command())

	// Every command except Register requires a registered address.
	// An unregistered originator has no mailbox, so the 420 is
	// returned without being enqueued anywhere.
	if _, ok := req.(wire.RegisterRequest); !ok && !d.reg.HasAddr(addr) {
		return wire.BaseStatus{Code: 420, Message: "Not registered address " + addr}
	}

	switch r := req.(type) {
	case wire.RegisterRequest:
		return d.register(r, conn, addr)
	case wire.JoinRequest:
		return d.join(r, addr)
	case wire.RoomMessageRequest:
		return d.roomMessage(r, addr)
	case wire.PrivateMessageRequest:
		return d.privateMessage(r, addr)
	case wire.LeaveRequest:
		return d.leave(r, addr)
	case wire.ListRoomUsersRequest:
		return d.listRoomUsers(r, addr)
	case wire.ListRoomsRequest:
		return d.listRooms(addr)
	case wire.DisconnectRequest:
		return d.disconnect(r, addr)
	default:
		return wire.BaseStatus{Code: 400, Message: "Bad command"}
	}
}

// register handles a Register arriving after the registration phase.
// The address already resolves to a user, so the attempt fails with 401
// and the outcome goes to that user's mailbox.
func (d *Dispatcher) register(r wire.RegisterRequest, conn net.Conn, addr string) wire.Status {
	status := d.reg.Register(r.Name, conn, addr)
	if name, err := d.reg.UserByAddr(addr); err == nil {
		d.reg.EnqueueMessage(status, []string{name})
	}
	return status
}

func (d *Dispatcher) join(r wire.JoinRequest, addr string) wire.Status {
	status := d.reg.JoinRoom(r.Room, r.Name)
	switch status.StatusCode() {
	case 200:
		members := d.reg.ListRoomUsers(r.Room)
		d.metrics.SetRoomOccupancy(wire.TrimName(r.Room), int64(len(members)))
		d.reg.EnqueueMessage(status, members)
	case 499:
		// The named user does not exist; answer the originator.
		d.enqueueToAddr(status, addr)
	default:
		d.reg.EnqueueMessage(status, []string{r.Name})
	}
	return status
}

// roomMessage broadcasts to every named room, all-or-nothing: a count
// mismatch answers 410, any unknown room answers 497, and in both cases
// nothing is delivered.
func (d *Dispatcher) roomMessage(r wire.RoomMessageRequest, addr string) wire.Status {
	sender, err := d.reg.UserByAddr(addr)
	if err != nil {
		return wire.BaseStatus{Code: 420, Message: "Not registered address " + addr}
	}

	if len(r.Rooms) != r.Declared {
		status := wire.BaseStatus{Code: 410, Message: "bad argument. the number of room names given is not equal to paramater room_num"}
		d.reg.EnqueueMessage(status, []string{sender})
		return status
	}
	for _, room := range r.Rooms {
		if !d.reg.HasRoom(room) {
			status := wire.MessageStatus{
				Code: 497, Message: "Room not found",
				ToRoom: true, Sender: sender, Room: room, Payload: r.Payload,
			}
			d.reg.EnqueueMessage(status, []string{sender})
			return status
		}
	}

	var status wire.Status = wire.BaseStatus{Code: 200, Message: "success"}
	for _, room := range r.Rooms {
		status = wire.MessageStatus{
			Code: 200, Message: "success",
			ToRoom: true, Sender: sender, Room: room, Payload: r.Payload,
		}
		d.reg.EnqueueMessage(status, d.reg.ListRoomUsers(room))
	}
	return status
}

// privateMessage delivers to every named user, all-or-nothing like
// roomMessage. When the sender is not among the recipients it receives
// a copy of the final per-recipient status.
func (d *Dispatcher) privateMessage(r wire.PrivateMessageRequest, addr string) wire.Status {
	sender, err := d.reg.UserByAddr(addr)
	if err != nil {
		return wire.BaseStatus{Code: 420, Message: "Not registered address " + addr}
	}

	if r.Users == nil || len(r.Users) != r.Declared {
		status := wire.BaseStatus{Code: 410, Message: "bad argument. the number of user names given is not equal to paramater user_num"}
		d.reg.EnqueueMessage(status, []string{sender})
		return status
	}
	for _, user := range r.Users {
		if !d.reg.HasUser(user) {
			status := wire.MessageStatus{
				Code: 496, Message: "Message receiver not found",
				Sender: sender, User: user, Payload: r.Payload,
			}
			d.reg.EnqueueMessage(status, []string{sender})
			return status
		}
	}

	var status wire.Status = wire.BaseStatus{Code: 200, Message: "success"}
	senderIncluded := false
	for _, user := range r.Users {
		if user == sender {
			senderIncluded = true
		}
		status = wire.MessageStatus{
			Code: 200, Message: "success",
			Sender: sender, User: user, Payload: r.Payload,
		}
		d.reg.EnqueueMessage(status, []string{user})
	}
	if !senderIncluded {
		d.reg.EnqueueMessage(status, []string{sender})
	}
	return status
}

// leave notifies the remaining members and the leaver itself on
// success; failures go to the originator only.
func (d *Dispatcher) leave(r wire.LeaveRequest, addr string) wire.Status {
	status := d.reg.LeaveRoom(r.Room, r.Name)
	if status.StatusCode() == 200 {
		remaining := d.reg.ListRoomUsers(r.Room)
		d.metrics.SetRoomOccupancy(wire.TrimName(r.Room), int64(len(remaining)))
		d.reg.EnqueueMessage(status, append(remaining, r.Name))
	} else {
		d.enqueueToAddr(status, addr)
	}
	return status
}

func (d *Dispatcher) listRoomUsers(r wire.ListRoomUsersRequest, addr string) wire.Status {
	var status wire.Status
	if d.reg.HasRoom(r.Room) {
		status = wire.RoomUserListStatus{
			Code: 200, Message: "success",
			Room: r.Room, Users: d.reg.ListRoomUsers(r.Room),
		}
	} else {
		status = wire.RoomUserListStatus{
			Code: 451, Message: "Room not found to list joined users", Room: r.Room,
		}
	}
	d.enqueueToAddr(status, addr)
	return status
}

func (d *Dispatcher) listRooms(addr string) wire.Status {
	status := wire.ListRoomStatus{Code: 200, Message: "success", Rooms: d.reg.ListRooms()}
	d.enqueueToAddr(status, addr)
	return status
}

// disconnect tears the named user down: membership removal and the
// mailbox latch happen in DisconnectUser, the conns entry is cleared
// here, and every room the user was in gets a DisconnectStatus. The
// returned 200 DisconnectStatus is not enqueued anywhere; it is the
// in-process signal the driver uses to stop its own reader.
func (d *Dispatcher) disconnect(r wire.DisconnectRequest, addr string) wire.Status {
	notified, status := d.reg.DisconnectUser(r.Name)
	if status.StatusCode() != 200 {
		d.enqueueToAddr(status, addr)
		return status
	}

	if cleared := d.reg.ClearConn(addr); cleared.StatusCode() != 200 {
		return wire.DisconnectStatus{
			Code: cleared.StatusCode(), Message: "Disconnect cannot find address",
			Name: r.Name, Addr: addr,
		}
	}
	for _, room := range notified {
		remaining := d.reg.ListRoomUsers(room)
		d.metrics.SetRoomOccupancy(wire.TrimName(room), int64(len(remaining)))
		fanout := wire.DisconnectStatus{Code: 200, Message: "success", Name: r.Name, Room: room}
		d.reg.EnqueueMessage(fanout, remaining)
	}
	d.log.Info("session closed",
		zap.String("user", wire.TrimName(r.Name)), zap.Int("rooms", len(notified)))
	return wire.DisconnectStatus{Code: 200, Message: "success", Name: r.Name}
}

// enqueueToAddr routes a status to whichever user currently owns addr,
// dropping it when the address is already gone.
func (d *Dispatcher) enqueueToAddr(status wire.Status, addr string) {
	if name, err := d.reg.UserByAddr(addr); err == nil {
		d.reg.EnqueueMessage(status, []string{name})
	}
}
