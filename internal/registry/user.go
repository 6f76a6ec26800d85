package registry

import (
	"net"

	"textchat/internal/mailbox"
)

// User is one registered session. The registry owns the entry; the
// connection's writer goroutine holds the mailbox reference for the
// session's lifetime.
type User struct {
	Name    string
	Conn    net.Conn
	Addr    string
	Mailbox *mailbox.Mailbox
}

func newUser(name string, conn net.Conn, addr string) *User {
	return &User{
		Name:    name,
		Conn:    conn,
		Addr:    addr,
		Mailbox: mailbox.New(),
	}
}
