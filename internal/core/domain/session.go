package domain

import "time"

// DefaultMaxTurns bounds the conversation history kept per session.
const DefaultMaxTurns = 10

// Turn is one question and answer exchange.
type Turn struct {
	Question string
	Answer   string
}

// Session threads conversation state through ingest and ask calls.
// It is created before the first upload and destroyed when the user is done.
type Session struct {
	// ID is the unique session identifier.
	ID string

	// Collection is the vector collection the session reads and writes.
	Collection string

	// History holds at most MaxTurns recent turns, oldest first.
	History []Turn

	// MaxTurns bounds History. Zero selects DefaultMaxTurns.
	MaxTurns int

	// Documents lists the IDs ingested during this session.
	Documents []string

	// CreatedAt is when the session was created.
	CreatedAt time.Time
}

// Append records a turn, dropping the oldest ones beyond MaxTurns.
func (s *Session) Append(t Turn) {
	limit := s.MaxTurns
	if limit <= 0 {
		limit = DefaultMaxTurns
	}
	s.History = append(s.History, t)
	if over := len(s.History) - limit; over > 0 {
		s.History = append([]Turn(nil), s.History[over:]...)
	}
}

// TrackDocument remembers a document ingested in this session.
func (s *Session) TrackDocument(id string) {
	for _, existing := range s.Documents {
		if existing == id {
			return
		}
	}
	s.Documents = append(s.Documents, id)
}

// ForgetDocument drops a removed document from the session.
func (s *Session) ForgetDocument(id string) {
	kept := s.Documents[:0]
	for _, existing := range s.Documents {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	s.Documents = kept
}
