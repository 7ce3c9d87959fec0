package notify

import (
	"encoding/json"
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	RegisterMessageType     = "register"
	ScanCompleteMessageType = "scan.complete"
)

// RegisterMessage is what a client sends to start receiving pushes.
type RegisterMessage struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

// ScanCompleteMessage tells the scan owner their menu finished resolving.
type ScanCompleteMessage struct {
	Type    string `json:"type"`
	UserID  string `json:"user_id"`
	ScanID  string `json:"scan_id"`
	Matches int    `json:"matches"`
}

type Client struct {
	UserID string
	Addr   *net.UDPAddr
}

type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

func (r *Registry) Register(userID string, addr *net.UDPAddr) {
	if userID == "" || addr == nil {
		return
	}
	r.mu.Lock()
	r.clients[userID] = Client{UserID: userID, Addr: addr}
	r.mu.Unlock()
}

func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	delete(r.clients, userID)
	r.mu.Unlock()
}

func (r *Registry) Lookup(userID string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

func (r *Registry) Snapshot() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

// Server listens for register datagrams and pushes scan notifications back
// to whatever address each user registered from.
type Server struct {
	addr     string
	registry *Registry
	conn     *net.UDPConn
}

func NewServer(addr string, registry *Registry) *Server {
	return &Server{addr: addr, registry: registry}
}

func (s *Server) Run() error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	s.conn = conn
	defer conn.Close()

	log.Info().Str("addr", s.addr).Msg("udp notify listening")

	buffer := make([]byte, 2048)
	for {
		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		msg, err := parseRegisterMessage(buffer[:n])
		if err != nil {
			log.Debug().Str("remote", addr.String()).Err(err).Msg("invalid udp message")
			continue
		}
		if msg.Type != RegisterMessageType {
			continue
		}
		s.registry.Register(msg.UserID, addr)
		log.Debug().Str("user", msg.UserID).Str("remote", addr.String()).Msg("udp client registered")
	}
}

// Close stops the read loop.
func (s *Server) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// ScanComplete pushes a completion notice to the scan's owner, if they
// have a registered address.
func (s *Server) ScanComplete(userID, scanID string, matches int) {
	if s.conn == nil {
		return
	}
	client, ok := s.registry.Lookup(userID)
	if !ok {
		return
	}

	payload, err := json.Marshal(ScanCompleteMessage{
		Type:    ScanCompleteMessageType,
		UserID:  userID,
		ScanID:  scanID,
		Matches: matches,
	})
	if err != nil {
		return
	}
	s.sendWithRetry(client, payload)
}

func (s *Server) sendWithRetry(client Client, payload []byte) {
	if err := s.sendOnce(client, payload); err == nil {
		return
	}
	if err := s.sendOnce(client, payload); err != nil {
		log.Warn().Str("user", client.UserID).Err(err).Msg("udp notify failed")
		s.registry.Remove(client.UserID)
	}
}

func (s *Server) sendOnce(client Client, payload []byte) error {
	if client.Addr == nil {
		return errors.New("missing client address")
	}
	_, err := s.conn.WriteToUDP(payload, client.Addr)
	return err
}

func parseRegisterMessage(data []byte) (RegisterMessage, error) {
	var msg RegisterMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	if msg.UserID == "" || msg.Type == "" {
		return msg, errors.New("missing required fields")
	}
	return msg, nil
}
