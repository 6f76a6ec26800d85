package server

import (
	"errors"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"textchat/internal/dispatch"
	"textchat/internal/metrics"
	"textchat/internal/registry"
	"textchat/internal/wire"
)

const readBufferSize = 10240

// driver owns one accepted connection. It runs the registration phase
// inline, then splits into a reader and a writer goroutine joined at
// the end; the socket is closed exactly once, after both return.
type driver struct {
	id       string
	conn     net.Conn
	addr     string
	username string

	reg     *registry.Registry
	disp    *dispatch.Dispatcher
	metrics *metrics.Metrics
	log     *zap.Logger
}

func newDriver(conn net.Conn, reg *registry.Registry, disp *dispatch.Dispatcher, m *metrics.Metrics, log *zap.Logger) *driver {
	id := uuid.NewString()
	addr := conn.RemoteAddr().String()
	return &driver{
		id:      id,
		conn:    conn,
		addr:    addr,
		reg:     reg,
		disp:    disp,
		metrics: m,
		log:     log.With(zap.String("conn_id", id), zap.String("addr", addr)),
	}
}

func (d *driver) run() {
	defer d.conn.Close()
	d.metrics.ConnectionOpened()
	defer d.metrics.ConnectionClosed()
	d.log.Info("client connected")

	leftover, ok := d.registrationPhase()
	if !ok {
		d.log.Info("client left during registration")
		return
	}

	sig := NewRunningSignal()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.readLoop(sig, leftover)
	}()
	go func() {
		defer wg.Done()
		d.writeLoop(sig)
	}()
	wg.Wait()
	d.log.Info("connection closed", zap.String("user", wire.TrimName(d.username)))
}

// registrationPhase reads frames until one registers successfully.
// Every frame is treated as a Register attempt; a frame carrying any
// other command code is answered 420 directly on the socket (the peer
// has no mailbox yet). Frames that followed the successful register in
// the same read are returned for the reader to process first.
func (d *driver) registrationPhase() (leftover []string, ok bool) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := d.conn.Read(buf)
		if err != nil {
			return nil, false
		}

		frames := wire.ExtractFrames(string(buf[:n]))
		for i, interior := range frames {
			d.metrics.FrameRead()
			var status wire.Status
			if len(interior) >= 5 && interior[:5] == wire.CmdRegister {
				status = d.reg.Register(interior[5:], d.conn, d.addr)
			} else {
				status = wire.BaseStatus{
					Code:    420,
					Message: "Not registered address " + d.addr + ", register a username first.",
				}
			}

			if _, werr := d.conn.Write(status.Encode()); werr != nil {
				return nil, false
			}
			d.metrics.StatusWritten()

			if reg, isReg := status.(wire.RegistrationStatus); isReg && reg.Code == 200 {
				d.username = reg.Name
				d.log.Info("registration complete", zap.String("user", wire.TrimName(reg.Name)))
				return frames[i+1:], true
			}
		}
	}
}

// readLoop pulls frames off the socket and dispatches them. leftover
// frames from the registration read are processed before the first
// socket read.
func (d *driver) readLoop(sig *RunningSignal, leftover []string) {
	frames := leftover
	buf := make([]byte, readBufferSize)
	for sig.IsRun() {
		if len(frames) == 0 {
			n, err := d.conn.Read(buf)
			if err != nil {
				d.teardown(sig)
				return
			}
			frames = wire.ExtractFrames(string(buf[:n]))
		}

		for _, interior := range frames {
			d.metrics.FrameRead()
			d.handleFrame(sig, interior)
		}
		frames = nil
	}
}

func (d *driver) handleFrame(sig *RunningSignal, interior string) {
	req, err := wire.DecodeRequest(interior)
	if err != nil {
		d.metrics.BadFrame()
		if name, aerr := d.reg.UserByAddr(d.addr); aerr == nil {
			d.reg.EnqueueMessage(wire.BaseStatus{Code: 400, Message: "Bad command"}, []string{name})
		}
		return
	}

	status := d.disp.Dispatch(req, d.conn, d.addr)

	// A successful disconnect of this connection's own user stops both
	// goroutines. Disconnects of other users never touch this signal.
	if disc, isDisc := status.(wire.DisconnectStatus); isDisc && disc.Code == 200 && disc.Name == d.username {
		sig.SetStop()
	}
}

// writeLoop drains the session's mailbox and writes each status to the
// socket. It blocks inside FlushMessageQueue; the disconnect latch is
// what unblocks it during teardown.
func (d *driver) writeLoop(sig *RunningSignal) {
	for sig.IsRun() {
		batch, err := d.reg.FlushMessageQueue(d.addr)
		if err != nil {
			// Latch fired or the address is gone: the session is over.
			return
		}
		for _, status := range batch {
			if _, werr := d.conn.Write(status.Encode()); werr != nil {
				d.teardown(sig)
				return
			}
			d.metrics.StatusWritten()
		}
	}
}

// teardown handles a peer reset or close: synthesise a Disconnect for
// whichever user still owns this address, then stop both goroutines.
// The loser of a concurrent teardown finds the address already cleared
// and only flips the signal.
func (d *driver) teardown(sig *RunningSignal) {
	defer sig.SetStop()
	name, err := d.reg.UserByAddr(d.addr)
	if errors.Is(err, registry.ErrAddrUnknown) {
		return
	}
	d.log.Info("peer gone, disconnecting", zap.String("user", wire.TrimName(name)))
	d.disp.Dispatch(wire.DisconnectRequest{Name: name}, d.conn, d.addr)
}
