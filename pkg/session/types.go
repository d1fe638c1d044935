package session

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Interface type values for sessions.
const (
	InterfacePhone = "phone"
	InterfaceWeb   = "web"
)

// Session is a live conversational session. It may exist in the cache tier,
// the durable tier, or both; the Manager keeps the two eventually consistent.
// AgentState belongs to the dialogue collaborator: it is stored and returned
// verbatim and never interpreted here.
type Session struct {
	ID            string          `json:"session_id"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	InterfaceType string          `json:"interface_type"`
	AgentState    json.RawMessage `json:"agent_state,omitempty"`
	OrderData     json.RawMessage `json:"order_data,omitempty"`
	OrderID       *int64          `json:"order_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Clone returns a deep copy so callers cannot mutate cached state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	dup := *s
	if s.AgentState != nil {
		dup.AgentState = append(json.RawMessage(nil), s.AgentState...)
	}
	if s.OrderData != nil {
		dup.OrderData = append(json.RawMessage(nil), s.OrderData...)
	}
	if s.OrderID != nil {
		id := *s.OrderID
		dup.OrderID = &id
	}
	return &dup
}

// Update carries a partial session update. Nil fields are left unchanged.
type Update struct {
	CustomerPhone *string
	AgentState    json.RawMessage
	OrderData     json.RawMessage
	OrderID       *int64
}

// apply merges the update into s.
func (u Update) apply(s *Session) {
	if u.CustomerPhone != nil {
		s.CustomerPhone = *u.CustomerPhone
	}
	if u.AgentState != nil {
		s.AgentState = append(json.RawMessage(nil), u.AgentState...)
	}
	if u.OrderData != nil {
		s.OrderData = append(json.RawMessage(nil), u.OrderData...)
	}
	if u.OrderID != nil {
		id := *u.OrderID
		s.OrderID = &id
	}
}

// NewSessionID generates a session id for callers that do not bring their
// own, such as the web interface.
func NewSessionID() string {
	return uuid.NewString()
}
