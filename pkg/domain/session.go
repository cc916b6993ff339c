package domain

import (
	"slices"
	"strings"
	"time"
)

// IntentionCriteriaSearch names the criteria search flow.
const IntentionCriteriaSearch = "buscar_por_criterio"

// Role identifies the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is the persisted state of one conversation.
type Session struct {
	ID string `json:"id"`

	// Intention is the flow the session is currently in. Empty when idle.
	Intention string `json:"intention,omitempty"`

	// RejectedIntentions records flows that yielded control back to intent routing.
	RejectedIntentions []string `json:"rejected_intentions,omitempty"`

	Machine CriteriaMachine `json:"machine"`

	// Criteria is nil until the first criteria search starts.
	Criteria *Criteria `json:"criteria,omitempty"`

	History []Message `json:"history,omitempty"`

	// Envelope holds the sealed form of the session when a store encrypts at rest.
	// Only the ID, the machine and the timestamps stay readable next to it.
	Envelope []byte `json:"envelope,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an idle session.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Machine:   NewCriteriaMachine(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddUserMessage appends a user message to the history.
func (s *Session) AddUserMessage(content string) {
	s.History = append(s.History, Message{Role: RoleUser, Content: content})
}

// AddAssistantMessage appends an assistant message to the history.
func (s *Session) AddAssistantMessage(content string) {
	s.History = append(s.History, Message{Role: RoleAssistant, Content: content})
}

// Transcript renders the last assistant/user exchange for the extractors.
// The format is "Asistente: ...\nUsuario: ...", or only "Usuario: ..." when
// the user message is the first of the history.
func (s *Session) Transcript() string {
	var user, assistant *Message
	for i := len(s.History) - 1; i >= 0; i-- {
		m := &s.History[i]
		if user == nil {
			if m.Role == RoleUser {
				user = m
			}
			continue
		}
		if m.Role == RoleAssistant {
			assistant = m
		}
		break
	}
	if user == nil {
		return ""
	}
	var b strings.Builder
	if assistant != nil {
		b.WriteString("Asistente: ")
		b.WriteString(assistant.Content)
		b.WriteString("\n")
	}
	b.WriteString("Usuario: ")
	b.WriteString(user.Content)
	return b.String()
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Criteria = s.Criteria.Clone()
	cp.History = slices.Clone(s.History)
	cp.RejectedIntentions = slices.Clone(s.RejectedIntentions)
	cp.Envelope = slices.Clone(s.Envelope)
	return &cp
}
