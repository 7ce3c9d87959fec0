package sync

import (
	"bufio"
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog/log"
)

// Server accepts raw TCP sync clients. The protocol is one-way:
// newline-delimited JSON events flow to the client, anything the
// client sends is consumed and ignored.
type Server struct {
	Addr string
	Hub  *Hub

	mu sync.Mutex
	ln net.Listener
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	log.Info().Str("addr", s.Addr).Msg("tcp sync listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			continue
		}

		s.Hub.Add(conn)
		s.Hub.Welcome(conn)
		log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("sync client connected")

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				log.Debug().Str("remote", c.RemoteAddr().String()).Msg("sync client disconnected")
			}()

			sc := bufio.NewScanner(c)
			for sc.Scan() {
				// ignore incoming lines
			}
		}(conn)
	}
}

// Close stops the accept loop. Connected clients stay attached to the hub
// until their next failed write.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	s.ln = nil
	return err
}
