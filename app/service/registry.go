package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"marcel.works/pointing/app/model"
)

const (
	codeLength   = 8
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeRetries  = 3
)

var ErrCodeSpaceExhausted = errors.New("could not allocate a free session code")

type RegistryOption func(*Registry)

// WithCodeGenerator replaces the random session code source.
func WithCodeGenerator(gen func() string) RegistryOption {
	return func(r *Registry) {
		r.newCode = gen
	}
}

// Registry stores sessions by code and remembers which session every
// connection is bound to. It holds no business rules and is not safe for
// concurrent use: the Coordinator's dispatch goroutine owns it.
type Registry struct {
	sessions map[string]*model.Session
	bindings map[string]string
	// bind order of the connections in each session's room
	members map[string][]string
	newCode func() string
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*model.Session),
		bindings: make(map[string]string),
		members:  make(map[string][]string),
		newCode:  RandomCode,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create stores an empty session administered by adminID and returns its code.
func (r *Registry) Create(adminID string) (string, error) {
	for attempt := 0; attempt < codeRetries; attempt++ {
		code := r.newCode()
		if _, taken := r.sessions[code]; taken {
			continue
		}
		r.sessions[code] = &model.Session{
			Code:       code,
			AdminID:    adminID,
			Users:      []model.User{},
			VotedTasks: []model.VotedTask{},
		}
		return code, nil
	}
	return "", ErrCodeSpaceExhausted
}

func (r *Registry) Get(code string) (*model.Session, bool) {
	session, ok := r.sessions[code]
	return session, ok
}

// Delete removes the session and every connection bound to it. The unbound
// connections are returned in bind order.
func (r *Registry) Delete(code string) []string {
	members := r.members[code]
	for _, connID := range members {
		delete(r.bindings, connID)
	}
	delete(r.members, code)
	delete(r.sessions, code)
	return members
}

// Bind puts connID in the room of code, leaving any room it was in before.
func (r *Registry) Bind(connID, code string) {
	if current, ok := r.bindings[connID]; ok {
		if current == code {
			return
		}
		r.Unbind(connID)
	}
	r.bindings[connID] = code
	r.members[code] = append(r.members[code], connID)
}

func (r *Registry) Unbind(connID string) {
	code, ok := r.bindings[connID]
	if !ok {
		return
	}
	delete(r.bindings, connID)

	members := r.members[code]
	for i, id := range members {
		if id == connID {
			r.members[code] = append(members[:i:i], members[i+1:]...)
			break
		}
	}
	if len(r.members[code]) == 0 {
		delete(r.members, code)
	}
}

func (r *Registry) SessionFor(connID string) (string, bool) {
	code, ok := r.bindings[connID]
	return code, ok
}

// Members returns a snapshot of the connections in the room of code.
func (r *Registry) Members(code string) []string {
	return append([]string(nil), r.members[code]...)
}

func (r *Registry) Len() int {
	return len(r.sessions)
}

// RandomCode draws an 8 character code from A-Z0-9 using the random bytes
// of a v4 UUID. Bytes 6 and 8 carry the version and variant bits.
func RandomCode() string {
	id := uuid.New()
	raw := append(id[:6:6], id[7], id[9])
	var b strings.Builder
	b.Grow(codeLength)
	for _, v := range raw {
		b.WriteByte(codeAlphabet[int(v)%len(codeAlphabet)])
	}
	return b.String()
}
