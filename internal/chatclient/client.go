// Package chatclient is the client side of the chat protocol: it frames
// requests, pads names to the fixed wire width, and decodes the status
// frames the server sends back.
package chatclient

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"textchat/internal/wire"
)

var (
	// ErrNotRegistered is returned by commands that need a username
	// before Register has been called.
	ErrNotRegistered = errors.New("register a username first")

	// ErrTooManyNames caps the recipient list of a single message; the
	// wire format carries a two-digit count.
	ErrTooManyNames = errors.New("must provide less than 100 names")
)

// Client wraps one connection to the chat server. It is not safe for
// concurrent writers; callers serialise their own command issuing. A
// typical application runs one goroutine issuing commands and one
// calling ReadStatuses.
type Client struct {
	conn     net.Conn
	username string
}

// Dial connects to the server at addr.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// New wraps an existing connection.
func New(conn net.Conn) *Client {
	return &Client{conn: conn}
}

// Username returns the padded name set by a successful Register.
func (c *Client) Username() string {
	return c.username
}

// Register claims name on the server. The name is recorded locally so
// later commands can carry it; the server's answer arrives via
// ReadStatuses and is not interpreted here.
func (c *Client) Register(name string) error {
	padded, err := wire.PadName(name)
	if err != nil {
		return err
	}
	if err := c.send(wire.CmdRegister + padded); err != nil {
		return err
	}
	c.username = padded
	return nil
}

// Join joins (or creates) the named room.
func (c *Client) Join(room string) error {
	if c.username == "" {
		return ErrNotRegistered
	}
	padded, err := wire.PadName(room)
	if err != nil {
		return err
	}
	return c.send(wire.CmdJoin + padded + c.username)
}

// RoomMessage broadcasts payload into each named room.
func (c *Client) RoomMessage(rooms []string, payload string) error {
	if c.username == "" {
		return ErrNotRegistered
	}
	if len(rooms) >= 100 {
		return ErrTooManyNames
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%02d", wire.CmdRoomMessage, len(rooms))
	for _, room := range rooms {
		padded, err := wire.PadName(room)
		if err != nil {
			return err
		}
		sb.WriteString(padded)
	}
	sb.WriteString(payload)
	return c.send(sb.String())
}

// PrivateMessage sends payload to each named user.
func (c *Client) PrivateMessage(users []string, payload string) error {
	if c.username == "" {
		return ErrNotRegistered
	}
	if len(users) >= 100 {
		return ErrTooManyNames
	}
	padded := make([]string, len(users))
	for i, user := range users {
		p, err := wire.PadName(user)
		if err != nil {
			return err
		}
		padded[i] = p
	}
	return c.send(fmt.Sprintf("%s%02d%s#%s",
		wire.CmdPrivateMessage, len(users), strings.Join(padded, "&"), payload))
}

// Leave leaves the named room.
func (c *Client) Leave(room string) error {
	if c.username == "" {
		return ErrNotRegistered
	}
	padded, err := wire.PadName(room)
	if err != nil {
		return err
	}
	return c.send(wire.CmdLeave + padded + c.username)
}

// ListRoomUsers asks for the members of room.
func (c *Client) ListRoomUsers(room string) error {
	if c.username == "" {
		return ErrNotRegistered
	}
	padded, err := wire.PadName(room)
	if err != nil {
		return err
	}
	return c.send(wire.CmdListRoomUsers + padded)
}

// ListRooms asks for every room on the server.
func (c *Client) ListRooms() error {
	if c.username == "" {
		return ErrNotRegistered
	}
	return c.send(wire.CmdListRooms)
}

// Disconnect asks the server to end this session. The server closes the
// connection once teardown completes.
func (c *Client) Disconnect() error {
	if c.username == "" {
		return ErrNotRegistered
	}
	return c.send(wire.CmdDisconnect + c.username)
}

// ReadStatuses blocks on the socket and returns every complete status
// frame from one read. Frames that fail to decode are skipped.
func (c *Client) ReadStatuses() ([]wire.Status, error) {
	buf := make([]byte, 10240)
	n, err := c.conn.Read(buf)
	if err != nil {
		return nil, err
	}
	var statuses []wire.Status
	for _, interior := range wire.ExtractFrames(string(buf[:n])) {
		status, derr := wire.DecodeStatus(interior)
		if derr != nil {
			continue
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) send(interior string) error {
	_, err := c.conn.Write([]byte("$" + interior + "$"))
	return err
}
