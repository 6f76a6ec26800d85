package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pad(t *testing.T, name string) string {
	t.Helper()
	padded, err := PadName(name)
	require.NoError(t, err)
	return padded
}

func TestDecodeRegister(t *testing.T) {
	req, err := DecodeRequest(CmdRegister + pad(t, "alice"))
	require.NoError(t, err)
	assert.Equal(t, RegisterRequest{Name: pad(t, "alice")}, req)
}

func TestDecodeJoin(t *testing.T) {
	req, err := DecodeRequest(CmdJoin + pad(t, "devs") + pad(t, "alice"))
	require.NoError(t, err)
	assert.Equal(t, JoinRequest{Room: pad(t, "devs"), Name: pad(t, "alice")}, req)
}

func TestDecodeJoinShortArgs(t *testing.T) {
	req, err := DecodeRequest(CmdJoin + "devs")
	require.NoError(t, err)
	assert.Equal(t, JoinRequest{Room: "devs", Name: ""}, req)
}

func TestDecodeRoomMessage(t *testing.T) {
	interior := CmdRoomMessage + "02" + pad(t, "devs") + pad(t, "ops") + "hello there"
	req, err := DecodeRequest(interior)
	require.NoError(t, err)
	assert.Equal(t, RoomMessageRequest{
		Declared: 2,
		Rooms:    []string{pad(t, "devs"), pad(t, "ops")},
		Payload:  "hello there",
	}, req)
}

func TestDecodeRoomMessageShortOfDeclared(t *testing.T) {
	// Declares three rooms but carries only one complete name.
	req, err := DecodeRequest(CmdRoomMessage + "03" + pad(t, "devs"))
	require.NoError(t, err)
	rm := req.(RoomMessageRequest)
	assert.Equal(t, 3, rm.Declared)
	assert.Len(t, rm.Rooms, 1)
}

func TestDecodeRoomMessageBadCount(t *testing.T) {
	req, err := DecodeRequest(CmdRoomMessage + "xx" + pad(t, "devs") + "hi")
	require.NoError(t, err)
	assert.Equal(t, -1, req.(RoomMessageRequest).Declared)
}

func TestDecodePrivateMessage(t *testing.T) {
	interior := CmdPrivateMessage + "02" + pad(t, "bob") + "&" + pad(t, "carol") + "#hi both"
	req, err := DecodeRequest(interior)
	require.NoError(t, err)
	assert.Equal(t, PrivateMessageRequest{
		Declared: 2,
		Users:    []string{pad(t, "bob"), pad(t, "carol")},
		Payload:  "hi both",
	}, req)
}

func TestDecodePrivateMessagePayloadKeepsDelimiters(t *testing.T) {
	// Only the first '#' terminates the user list; the payload may carry
	// '#' and '&' freely.
	interior := CmdPrivateMessage + "01" + pad(t, "bob") + "#see #general & #random"
	req, err := DecodeRequest(interior)
	require.NoError(t, err)
	assert.Equal(t, "see #general & #random", req.(PrivateMessageRequest).Payload)
}

func TestDecodePrivateMessageMissingSeparator(t *testing.T) {
	req, err := DecodeRequest(CmdPrivateMessage + "01" + pad(t, "bob"))
	require.NoError(t, err)
	assert.Nil(t, req.(PrivateMessageRequest).Users)
}

func TestDecodeLeave(t *testing.T) {
	req, err := DecodeRequest(CmdLeave + pad(t, "devs") + pad(t, "alice"))
	require.NoError(t, err)
	assert.Equal(t, LeaveRequest{Room: pad(t, "devs"), Name: pad(t, "alice")}, req)
}

func TestDecodeListRoomUsers(t *testing.T) {
	req, err := DecodeRequest(CmdListRoomUsers + pad(t, "devs"))
	require.NoError(t, err)
	assert.Equal(t, ListRoomUsersRequest{Room: pad(t, "devs")}, req)
}

func TestDecodeListRooms(t *testing.T) {
	req, err := DecodeRequest(CmdListRooms)
	require.NoError(t, err)
	assert.Equal(t, ListRoomsRequest{}, req)
}

func TestDecodeDisconnect(t *testing.T) {
	req, err := DecodeRequest(CmdDisconnect + pad(t, "alice"))
	require.NoError(t, err)
	assert.Equal(t, DisconnectRequest{Name: pad(t, "alice")}, req)
}

func TestDecodeUnknownCommand(t *testing.T) {
	_, err := DecodeRequest("00042whatever")
	assert.ErrorIs(t, err, ErrBadCommand)
}

func TestDecodeTooShort(t *testing.T) {
	_, err := DecodeRequest("0001")
	assert.ErrorIs(t, err, ErrBadCommand)
}
