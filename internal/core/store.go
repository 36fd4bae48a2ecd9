package core

import "triage-chatbot/pkg"

// Store is the append-only container for one conversation. It holds the
// session identity, the ordered message log and the typing flag, and does no
// validation of its own; the controller is the only writer. Store is not
// safe for concurrent use, the controller serializes access.
type Store struct {
	state pkg.ConversationState
}

// NewStore creates an empty conversation for the given session id.
func NewStore(sessionID string) *Store {
	return &Store{state: pkg.ConversationState{SessionID: sessionID}}
}

// Append adds a message to the end of the log. Messages are never edited or
// removed afterwards.
func (s *Store) Append(msg pkg.Message) {
	s.state.Messages = append(s.state.Messages, msg)
}

// SessionID returns the identity of this conversation.
func (s *Store) SessionID() string { return s.state.SessionID }

// Len returns the number of messages in the log.
func (s *Store) Len() int { return len(s.state.Messages) }

// IsTyping reports whether a triage reply is pending.
func (s *Store) IsTyping() bool { return s.state.IsTyping }

// SetTyping flips the typing indicator.
func (s *Store) SetTyping(v bool) { s.state.IsTyping = v }

// Messages returns a copy of the message log in append order.
func (s *Store) Messages() []pkg.Message {
	out := make([]pkg.Message, len(s.state.Messages))
	copy(out, s.state.Messages)
	return out
}

// LastBotMessage returns the most recent message of type bot, scanning from
// the end of the log. The second return is false when no bot message exists.
func (s *Store) LastBotMessage() (pkg.Message, bool) {
	for i := len(s.state.Messages) - 1; i >= 0; i-- {
		if s.state.Messages[i].Type == pkg.TypeBot {
			return s.state.Messages[i], true
		}
	}
	return pkg.Message{}, false
}

// Snapshot returns a copy of the full conversation state, suitable for
// rendering or for sending as conversation history.
func (s *Store) Snapshot() pkg.ConversationState {
	out := s.state
	out.Messages = s.Messages()
	return out
}
