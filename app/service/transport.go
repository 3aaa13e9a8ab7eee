package service

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"marcel.works/pointing/app/model"
)

// Transport delivers one event to one connection. Implementations must encode
// the payload before Send returns and must not block the caller.
type Transport interface {
	Send(connID string, broadcast model.Broadcast)
}

// Dispatcher accepts inbound commands from transports.
type Dispatcher interface {
	Dispatch(command model.Command)
}

// Switchboard routes sends to the transport that owns a connection, based on
// the "<prefix>:" part of the connection id.
type Switchboard struct {
	mu     sync.RWMutex
	routes map[string]Transport
	logger *zap.Logger
}

func NewSwitchboard(logger *zap.Logger) *Switchboard {
	return &Switchboard{
		routes: make(map[string]Transport),
		logger: logger,
	}
}

func (s *Switchboard) Route(prefix string, transport Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[prefix] = transport
}

func (s *Switchboard) Send(connID string, broadcast model.Broadcast) {
	prefix, _, _ := strings.Cut(connID, ":")

	s.mu.RLock()
	transport, ok := s.routes[prefix]
	s.mu.RUnlock()

	if !ok {
		s.logger.Warn("no transport for connection", zap.String("conn", connID), zap.String("type", broadcast.Type))
		return
	}
	transport.Send(connID, broadcast)
}
