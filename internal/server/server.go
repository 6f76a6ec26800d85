// Package server accepts TCP connections and runs one driver per
// connection: a registration phase followed by concurrent reader and
// writer goroutines over the shared registry.
package server

import (
	"errors"
	"net"

	"go.uber.org/zap"

	"textchat/internal/dispatch"
	"textchat/internal/metrics"
	"textchat/internal/registry"
)

type Server struct {
	reg     *registry.Registry
	disp    *dispatch.Dispatcher
	metrics *metrics.Metrics
	log     *zap.Logger
	ln      net.Listener
}

func New(reg *registry.Registry, disp *dispatch.Dispatcher, m *metrics.Metrics, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Server{reg: reg, disp: disp, metrics: m, log: log}
}

// Listen binds the TCP socket. A bind failure here is the only fatal
// startup error the process has.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts connections until the listener is closed. Each accepted
// connection gets its own driver goroutine; the listener itself keeps
// no per-connection state.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go newDriver(conn, s.reg, s.disp, s.metrics, s.log).run()
	}
}

func (s *Server) Close() error {
	return s.ln.Close()
}
