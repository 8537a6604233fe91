package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
	"github.com/custodia-labs/studymate/internal/logger"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService keeps live sessions in memory.
type SessionService struct {
	study    driving.StudyService
	maxTurns int

	mu       sync.Mutex
	sessions map[string]*domain.Session
}

// NewSessionService creates a session service. Purging on Destroy goes
// through study so records and metadata are removed together.
func NewSessionService(study driving.StudyService, maxTurns int) *SessionService {
	if maxTurns <= 0 {
		maxTurns = domain.DefaultMaxTurns
	}
	return &SessionService{
		study:    study,
		maxTurns: maxTurns,
		sessions: make(map[string]*domain.Session),
	}
}

// Create starts a session bound to the prefixed collection name.
func (s *SessionService) Create(collection string) *domain.Session {
	session := &domain.Session{
		ID:         uuid.NewString(),
		Collection: domain.CollectionName(collection),
		MaxTurns:   s.maxTurns,
		CreatedAt:  time.Now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	logger.Debug("Session %s created on %s", session.ID, session.Collection)
	return session
}

// Get returns a live session.
func (s *SessionService) Get(id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return session, nil
}

// Destroy ends a session. With purge, documents it ingested are removed;
// ones already removed are skipped.
func (s *SessionService) Destroy(ctx context.Context, id string, purge bool) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	if !purge {
		return nil
	}

	var errs []error
	for _, docID := range append([]string(nil), session.Documents...) {
		err := s.study.RemoveDocument(ctx, session, docID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	logger.Debug("Session %s destroyed, purged %d documents", id, len(session.Documents))
	return errors.Join(errs...)
}
