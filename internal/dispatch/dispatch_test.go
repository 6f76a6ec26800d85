package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textchat/internal/metrics"
	"textchat/internal/registry"
	"textchat/internal/wire"
)

const (
	aliceAddr = "10.0.0.1:1000"
	bobAddr   = "10.0.0.2:1000"
)

func pad(t *testing.T, name string) string {
	t.Helper()
	padded, err := wire.PadName(name)
	require.NoError(t, err)
	return padded
}

func newDispatcher(t *testing.T) (*Dispatcher, *registry.Registry) {
	t.Helper()
	reg := registry.New(nil)
	return New(reg, metrics.New(), nil), reg
}

func registerUser(t *testing.T, reg *registry.Registry, name, addr string) string {
	t.Helper()
	padded := pad(t, name)
	require.Equal(t, 200, reg.Register(padded, nil, addr).StatusCode())
	return padded
}

// drain pushes a marker into the user's mailbox and flushes, returning
// everything that was queued before the marker. Lets tests assert both
// received batches and "received nothing" without blocking.
func drain(t *testing.T, reg *registry.Registry, addr string) []wire.Status {
	t.Helper()
	name, err := reg.UserByAddr(addr)
	require.NoError(t, err)
	marker := wire.BaseStatus{Code: 411, Message: "marker"}
	reg.EnqueueMessage(marker, []string{name})

	batch, err := reg.FlushMessageQueue(addr)
	require.NoError(t, err)
	require.Equal(t, marker, batch[len(batch)-1])
	return batch[:len(batch)-1]
}

func TestUnregisteredAddressGets420(t *testing.T) {
	d, _ := newDispatcher(t)
	status := d.Dispatch(wire.ListRoomsRequest{}, nil, "10.0.0.9:1000")
	assert.Equal(t, 420, status.StatusCode())
}

func TestDuplicateRegisterSameAddress(t *testing.T) {
	d, reg := newDispatcher(t)
	registerUser(t, reg, "alice", aliceAddr)

	status := d.Dispatch(wire.RegisterRequest{Name: pad(t, "alicia")}, nil, aliceAddr)
	assert.Equal(t, 401, status.StatusCode())
	assert.False(t, reg.HasUser(pad(t, "alicia")))

	batch := drain(t, reg, aliceAddr)
	require.Len(t, batch, 1)
	assert.Equal(t, 401, batch[0].StatusCode())
}

func TestCreateAndBroadcast(t *testing.T) {
	d, reg := newDispatcher(t)
	alice := registerUser(t, reg, "alice", aliceAddr)
	devs := pad(t, "devs")

	status := d.Dispatch(wire.JoinRequest{Room: devs, Name: alice}, nil, aliceAddr)
	require.Equal(t, 200, status.StatusCode())

	status = d.Dispatch(wire.RoomMessageRequest{Declared: 1, Rooms: []string{devs}, Payload: "hello"}, nil, aliceAddr)
	require.Equal(t, 200, status.StatusCode())

	batch := drain(t, reg, aliceAddr)
	require.Len(t, batch, 2)
	join := batch[0].(wire.JoinStatus)
	assert.True(t, join.IsCreation)
	assert.Equal(t, devs, join.Room)
	msg := batch[1].(wire.MessageStatus)
	assert.True(t, msg.ToRoom)
	assert.Equal(t, alice, msg.Sender)
	assert.Equal(t, devs, msg.Room)
	assert.Equal(t, "hello", msg.Payload)
}

func TestSecondJoinerSeesBroadcast(t *testing.T) {
	d, reg := newDispatcher(t)
	alice := registerUser(t, reg, "alice", aliceAddr)
	bob := registerUser(t, reg, "bob", bobAddr)
	devs := pad(t, "devs")

	d.Dispatch(wire.JoinRequest{Room: devs, Name: alice}, nil, aliceAddr)
	drain(t, reg, aliceAddr)

	d.Dispatch(wire.JoinRequest{Room: devs, Name: bob}, nil, bobAddr)

	// Both members see bob's join, isCreation=0.
	for _, addr := range []string{aliceAddr, bobAddr} {
		batch := drain(t, reg, addr)
		require.Len(t, batch, 1, "addr %s", addr)
		join := batch[0].(wire.JoinStatus)
		assert.False(t, join.IsCreation)
		assert.Equal(t, bob, join.Name)
	}

	d.Dispatch(wire.RoomMessageRequest{Declared: 1, Rooms: []string{devs}, Payload: "hi"}, nil, aliceAddr)
	for _, addr := range []string{aliceAddr, bobAddr} {
		batch := drain(t, reg, addr)
		require.Len(t, batch, 1, "addr %s", addr)
		msg := batch[0].(wire.MessageStatus)
		assert.Equal(t, "hi", msg.Payload)
	}
}

func TestUnknownRoomMessageIsAllOrNothing(t *testing.T) {
	d, reg := newDispatcher(t)
	alice := registerUser(t, reg, "alice", aliceAddr)
	bob := registerUser(t, reg, "bob", bobAddr)
	devs, ghost := pad(t, "devs"), pad(t, "ghost")

	d.Dispatch(wire.JoinRequest{Room: devs, Name: alice}, nil, aliceAddr)
	d.Dispatch(wire.JoinRequest{Room: devs, Name: bob}, nil, bobAddr)
	drain(t, reg, aliceAddr)
	drain(t, reg, bobAddr)

	status := d.Dispatch(wire.RoomMessageRequest{Declared: 2, Rooms: []string{devs, ghost}, Payload: "hi"}, nil, aliceAddr)
	assert.Equal(t, 497, status.StatusCode())

	batch := drain(t, reg, aliceAddr)
	require.Len(t, batch, 1)
	msg := batch[0].(wire.MessageStatus)
	assert.Equal(t, 497, msg.Code)
	assert.Equal(t, ghost, msg.Room)
	assert.Equal(t, "hi", msg.Payload)

	assert.Empty(t, drain(t, reg, bobAddr), "no partial delivery")
}

func TestPrivateToMixedRecipients(t *testing.T) {
	d, reg := newDispatcher(t)
	registerUser(t, reg, "alice", aliceAddr)
	bob := registerUser(t, reg, "bob", bobAddr)
	nobody := pad(t, "nobody")

	status := d.Dispatch(wire.PrivateMessageRequest{Declared: 2, Users: []string{bob, nobody}, Payload: "psst"}, nil, aliceAddr)
	assert.Equal(t, 496, status.StatusCode())

	batch := drain(t, reg, aliceAddr)
	require.Len(t, batch, 1, "only the 496, no auto-copy")
	msg := batch[0].(wire.MessageStatus)
	assert.Equal(t, 496, msg.Code)
	assert.False(t, msg.ToRoom)
	assert.Equal(t, nobody, msg.User)

	assert.Empty(t, drain(t, reg, bobAddr))
}

func TestPrivateMessageSelfCopy(t *testing.T) {
	d, reg := newDispatcher(t)
	alice := registerUser(t, reg, "alice", aliceAddr)
	bob := registerUser(t, reg, "bob", bobAddr)

	d.Dispatch(wire.PrivateMessageRequest{Declared: 1, Users: []string{bob}, Payload: "psst"}, nil, aliceAddr)

	batch := drain(t, reg, bobAddr)
	require.Len(t, batch, 1)
	assert.Equal(t, "psst", batch[0].(wire.MessageStatus).Payload)

	// Sender not among recipients: gets a copy.
	batch = drain(t, reg, aliceAddr)
	require.Len(t, batch, 1)
	assert.Equal(t, bob, batch[0].(wire.MessageStatus).User)

	// Sender among recipients: exactly one delivery, no extra copy.
	d.Dispatch(wire.PrivateMessageRequest{Declared: 1, Users: []string{alice}, Payload: "note"}, nil, aliceAddr)
	batch = drain(t, reg, aliceAddr)
	require.Len(t, batch, 1)
}

func TestDeclaredCountMismatch(t *testing.T) {
	d, reg := newDispatcher(t)
	registerUser(t, reg, "alice", aliceAddr)
	devs := pad(t, "devs")

	status := d.Dispatch(wire.RoomMessageRequest{Declared: 2, Rooms: []string{devs}, Payload: "hi"}, nil, aliceAddr)
	assert.Equal(t, 410, status.StatusCode())

	status = d.Dispatch(wire.PrivateMessageRequest{Declared: -1, Users: nil, Payload: ""}, nil, aliceAddr)
	assert.Equal(t, 410, status.StatusCode())

	batch := drain(t, reg, aliceAddr)
	assert.Len(t, batch, 2)
}

func TestLeaveNotifiesRoomAndLeaver(t *testing.T) {
	d, reg := newDispatcher(t)
	alice := registerUser(t, reg, "alice", aliceAddr)
	bob := registerUser(t, reg, "bob", bobAddr)
	devs := pad(t, "devs")

	d.Dispatch(wire.JoinRequest{Room: devs, Name: alice}, nil, aliceAddr)
	d.Dispatch(wire.JoinRequest{Room: devs, Name: bob}, nil, bobAddr)
	drain(t, reg, aliceAddr)
	drain(t, reg, bobAddr)

	status := d.Dispatch(wire.LeaveRequest{Room: devs, Name: bob}, nil, bobAddr)
	require.Equal(t, 200, status.StatusCode())

	for _, addr := range []string{aliceAddr, bobAddr} {
		batch := drain(t, reg, addr)
		require.Len(t, batch, 1, "addr %s", addr)
		leave := batch[0].(wire.LeaveStatus)
		assert.Equal(t, bob, leave.Name)
	}

	// Repeat leave: 451 to originator only, no mutation.
	status = d.Dispatch(wire.LeaveRequest{Room: devs, Name: bob}, nil, bobAddr)
	assert.Equal(t, 451, status.StatusCode())
	batch := drain(t, reg, bobAddr)
	require.Len(t, batch, 1)
	assert.Equal(t, 451, batch[0].StatusCode())
}

func TestDisconnectFanout(t *testing.T) {
	d, reg := newDispatcher(t)
	alice := registerUser(t, reg, "alice", aliceAddr)
	bob := registerUser(t, reg, "bob", bobAddr)
	devs, ops := pad(t, "devs"), pad(t, "ops")

	d.Dispatch(wire.JoinRequest{Room: devs, Name: alice}, nil, aliceAddr)
	d.Dispatch(wire.JoinRequest{Room: devs, Name: bob}, nil, bobAddr)
	d.Dispatch(wire.JoinRequest{Room: ops, Name: bob}, nil, bobAddr)
	drain(t, reg, aliceAddr)

	status := d.Dispatch(wire.DisconnectRequest{Name: bob}, nil, bobAddr)
	require.IsType(t, wire.DisconnectStatus{}, status)
	assert.Equal(t, 200, status.StatusCode())
	assert.Equal(t, bob, status.(wire.DisconnectStatus).Name)

	batch := drain(t, reg, aliceAddr)
	require.Len(t, batch, 1)
	disc := batch[0].(wire.DisconnectStatus)
	assert.Equal(t, bob, disc.Name)
	assert.Equal(t, devs, disc.Room)

	assert.False(t, reg.HasUser(bob))
	assert.False(t, reg.HasAddr(bobAddr))

	// bob is gone: a private message to him now fails 496.
	status = d.Dispatch(wire.PrivateMessageRequest{Declared: 1, Users: []string{bob}, Payload: "hi"}, nil, aliceAddr)
	assert.Equal(t, 496, status.StatusCode())
}

func TestDisconnectUnknownUser(t *testing.T) {
	d, reg := newDispatcher(t)
	registerUser(t, reg, "alice", aliceAddr)

	status := d.Dispatch(wire.DisconnectRequest{Name: pad(t, "ghost")}, nil, aliceAddr)
	assert.Equal(t, 461, status.StatusCode())

	batch := drain(t, reg, aliceAddr)
	require.Len(t, batch, 1)
	assert.Equal(t, 461, batch[0].StatusCode())
}

func TestListRoomUsersAndRooms(t *testing.T) {
	d, reg := newDispatcher(t)
	alice := registerUser(t, reg, "alice", aliceAddr)
	devs := pad(t, "devs")
	d.Dispatch(wire.JoinRequest{Room: devs, Name: alice}, nil, aliceAddr)
	drain(t, reg, aliceAddr)

	status := d.Dispatch(wire.ListRoomUsersRequest{Room: devs}, nil, aliceAddr)
	list := status.(wire.RoomUserListStatus)
	assert.Equal(t, 200, list.Code)
	assert.Equal(t, []string{alice}, list.Users)

	status = d.Dispatch(wire.ListRoomUsersRequest{Room: pad(t, "ghost")}, nil, aliceAddr)
	assert.Equal(t, 451, status.StatusCode())

	status = d.Dispatch(wire.ListRoomsRequest{}, nil, aliceAddr)
	rooms := status.(wire.ListRoomStatus)
	assert.Equal(t, []string{devs}, rooms.Rooms)

	batch := drain(t, reg, aliceAddr)
	assert.Len(t, batch, 3)
}
