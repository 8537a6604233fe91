package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/custodia-labs/studymate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
	"github.com/custodia-labs/studymate/internal/core/services"
)

// mockStudyService is a mock implementation of driving.StudyService.
type mockStudyService struct {
	answer    *domain.Answer
	sources   []domain.SourceInfo
	err       error
	ingestErr map[string]error

	ingested []driving.IngestRequest
	asked    []driving.AskRequest
	removed  []string
}

func (m *mockStudyService) Ingest(
	_ context.Context, session *domain.Session, req driving.IngestRequest,
) (*driving.IngestResult, error) {
	m.ingested = append(m.ingested, req)
	if err := m.ingestErr[req.Name]; err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	return &driving.IngestResult{
		DocumentID: domain.DocumentID(session.Collection, req.Name),
		Name:       req.Name,
		Format:     domain.FormatText,
		Pages:      1,
		Chunks:     2,
	}, nil
}

func (m *mockStudyService) Ask(
	_ context.Context, _ *domain.Session, req driving.AskRequest,
) (*domain.Answer, error) {
	m.asked = append(m.asked, req)
	if m.err != nil {
		return nil, m.err
	}
	if m.answer == nil {
		return &domain.Answer{Text: "General answer.", Disclaimer: domain.UngroundedDisclaimer}, nil
	}
	return m.answer, nil
}

func (m *mockStudyService) ListSources(_ context.Context, _ *domain.Session) ([]domain.SourceInfo, error) {
	return m.sources, m.err
}

func (m *mockStudyService) RemoveDocument(_ context.Context, _ *domain.Session, id string) error {
	m.removed = append(m.removed, id)
	return m.err
}

// mockSessionService hands out numbered sessions and records destroys.
type mockSessionService struct {
	created   []string
	destroyed []string
}

func (m *mockSessionService) Create(collection string) *domain.Session {
	m.created = append(m.created, collection)
	return &domain.Session{ID: fmt.Sprintf("s%d", len(m.created)), Collection: collection}
}

func (m *mockSessionService) Get(id string) (*domain.Session, error) {
	return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
}

func (m *mockSessionService) Destroy(_ context.Context, id string, _ bool) error {
	m.destroyed = append(m.destroyed, id)
	return nil
}

// mockCollectionService is a mock implementation of driving.CollectionService.
type mockCollectionService struct {
	infos   []domain.CollectionInfo
	err     error
	dropped []string
}

func (m *mockCollectionService) List(_ context.Context) ([]domain.CollectionInfo, error) {
	return m.infos, m.err
}

func (m *mockCollectionService) Drop(_ context.Context, name string) error {
	m.dropped = append(m.dropped, name)
	return m.err
}

// mockValidator reports fixed provider errors.
type mockValidator struct {
	embedErr error
	llmErr   error
}

func (m *mockValidator) ValidateEmbedding(_ context.Context, _ *domain.EmbeddingSettings) error {
	return m.embedErr
}

func (m *mockValidator) ValidateLLM(_ context.Context, _ *domain.LLMSettings) error {
	return m.llmErr
}

// testServices is the wiring installed by setupTestServices.
type testServices struct {
	study       *mockStudyService
	sessions    *mockSessionService
	collections *mockCollectionService
	validator   *mockValidator
	settings    *services.SettingsService
}

// setupTestServices wires mocks behind the commands and resets flag state.
// Settings use the real service over an in-memory store.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		study:       &mockStudyService{},
		sessions:    &mockSessionService{},
		collections: &mockCollectionService{},
		validator:   &mockValidator{},
	}
	ts.settings = services.NewSettingsService(memory.NewConfigStore(), ts.validator, nil)

	resetFlags()
	settingsService = ts.settings
	pipeline = &Pipeline{
		Study:       ts.study,
		Sessions:    ts.sessions,
		Collections: ts.collections,
	}

	return ts, func() {
		resetFlags()
		settingsService = nil
		pipeline = nil
	}
}

func resetFlags() {
	verbose = false
	collectionFlag = ""
	ephemeral = false
	ingestFormat = ""
	ingestJSON = false
	askDocument = ""
	askK = 0
	askJSON = false
	sourcesJSON = false
	watchSkipExisting = false
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
