package mcp

import (
	"context"
	"fmt"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

// mockStudyService is a mock implementation of driving.StudyService.
// Like the real service it records turns and documents on the session.
type mockStudyService struct {
	ingestResult *driving.IngestResult
	answer       *domain.Answer
	sources      []domain.SourceInfo
	err          error

	ingested []driving.IngestRequest
	asked    []driving.AskRequest
	removed  []string
	sessions []*domain.Session
}

func (m *mockStudyService) Ingest(
	_ context.Context, session *domain.Session, req driving.IngestRequest,
) (*driving.IngestResult, error) {
	m.sessions = append(m.sessions, session)
	m.ingested = append(m.ingested, req)
	if m.err == nil {
		session.TrackDocument(req.Name)
	}
	return m.ingestResult, m.err
}

func (m *mockStudyService) Ask(
	_ context.Context, session *domain.Session, req driving.AskRequest,
) (*domain.Answer, error) {
	m.sessions = append(m.sessions, session)
	m.asked = append(m.asked, req)
	if m.err == nil && m.answer != nil {
		session.Append(domain.Turn{Question: req.Question, Answer: m.answer.Text})
	}
	return m.answer, m.err
}

func (m *mockStudyService) ListSources(_ context.Context, session *domain.Session) ([]domain.SourceInfo, error) {
	m.sessions = append(m.sessions, session)
	return m.sources, m.err
}

func (m *mockStudyService) RemoveDocument(_ context.Context, session *domain.Session, id string) error {
	m.sessions = append(m.sessions, session)
	m.removed = append(m.removed, id)
	if m.err == nil {
		session.ForgetDocument(id)
	}
	return m.err
}

// mockSessionService hands out numbered sessions.
type mockSessionService struct {
	created   int
	destroyed []string
}

func (m *mockSessionService) Create(collection string) *domain.Session {
	m.created++
	return &domain.Session{ID: fmt.Sprintf("s%d", m.created), Collection: domain.CollectionName(collection)}
}

func (m *mockSessionService) Get(id string) (*domain.Session, error) {
	return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
}

func (m *mockSessionService) Destroy(_ context.Context, id string, _ bool) error {
	m.destroyed = append(m.destroyed, id)
	return nil
}

func newTestServer(study *mockStudyService) (*Server, *mockSessionService, error) {
	sessions := &mockSessionService{}
	s, err := NewServer(&Ports{Study: study, Sessions: sessions, Collection: "biology"})
	return s, sessions, err
}
