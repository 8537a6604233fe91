package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/loaders"
)

// --- Fakes ---

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "by": true, "in": true, "is": true,
	"it": true, "of": true, "the": true, "to": true, "what": true, "which": true,
}

// bagEmbedder hashes non-stopword tokens into a fixed-size count vector.
// Texts sharing words get positive cosine similarity; disjoint texts get zero.
type bagEmbedder struct {
	dims   int
	model  string
	calls  atomic.Int32
	failOn string
	err    error
}

func newBagEmbedder() *bagEmbedder {
	return &bagEmbedder{dims: 1024, model: "bag-of-words"}
}

func (e *bagEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, e.err
	}

	v := make([]float32, e.dims)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if stopwords[tok] {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		v[h.Sum32()%uint32(e.dims)]++
	}
	return v, nil
}

func (e *bagEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *bagEmbedder) Dimensions() int              { return e.dims }
func (e *bagEmbedder) ModelName() string            { return e.model }
func (e *bagEmbedder) Ping(_ context.Context) error { return nil }
func (e *bagEmbedder) Close() error                 { return nil }

// scriptedLLM returns queued results in order, repeating the last one.
type scriptedLLM struct {
	mu       sync.Mutex
	results  []llmResult
	calls    int
	messages [][]driven.ChatMessage
	opts     []driven.GenerateOptions
	block    bool
}

type llmResult struct {
	text string
	err  error
}

func (l *scriptedLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return l.Chat(ctx, []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}, opts)
}

func (l *scriptedLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.GenerateOptions) (string, error) {
	l.mu.Lock()
	l.calls++
	l.messages = append(l.messages, messages)
	l.opts = append(l.opts, opts)
	idx := min(l.calls-1, len(l.results)-1)
	block := l.block
	l.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if idx < 0 {
		return "ok", nil
	}
	return l.results[idx].text, l.results[idx].err
}

func (l *scriptedLLM) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func (l *scriptedLLM) ModelName() string            { return "scripted" }
func (l *scriptedLLM) Ping(_ context.Context) error { return nil }
func (l *scriptedLLM) Close() error                 { return nil }

// mapPrompts serves fixed templates.
type mapPrompts map[string]string

func defaultTestPrompts() mapPrompts {
	return mapPrompts{
		driven.PromptAnswerSystem:     "You are a study assistant.",
		driven.PromptGroundedAnswer:   "Sources:\n%s\nQuestion: %s",
		driven.PromptUngroundedAnswer: "General question: %s",
	}
}

func (p mapPrompts) Load(name string) (string, error) {
	if t, ok := p[name]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: prompt %s", domain.ErrNotFound, name)
}

func (p mapPrompts) Reload() {}

// pageChunker emits one chunk per page, or fixed-size chunks when n is set.
type pageChunker struct {
	n int
}

func (c pageChunker) Chunk(doc *domain.Document) ([]domain.Chunk, error) {
	runes := []rune(doc.Text)
	var spans [][2]int
	if c.n > 0 {
		for i := 0; i < c.n; i++ {
			spans = append(spans, [2]int{i * len(runes) / c.n, (i + 1) * len(runes) / c.n})
		}
	} else {
		for _, p := range doc.Pages {
			spans = append(spans, [2]int{p.Start, p.End})
		}
	}

	chunks := make([]domain.Chunk, 0, len(spans))
	for i, sp := range spans {
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(doc.ID, i),
			DocumentID: doc.ID,
			Position:   i,
			Start:      sp[0],
			End:        sp[1],
			PageStart:  doc.PageAt(sp[0]),
			PageEnd:    doc.PageAt(sp[1] - 1),
			Text:       string(runes[sp[0]:sp[1]]),
		})
	}
	return chunks, nil
}

// spyProvider counts Discard calls on the stores it opens. afterUpsert runs
// after every stored record and activateErr fails every activation.
type spyProvider struct {
	driven.VectorStoreProvider
	discards    atomic.Int32
	afterUpsert func(domain.VectorRecord)
	activateErr error
}

func (p *spyProvider) Open(ctx context.Context, name string, dims int) (driven.VectorStore, error) {
	vs, err := p.VectorStoreProvider.Open(ctx, name, dims)
	if err != nil {
		return nil, err
	}
	return &spyStore{VectorStore: vs, provider: p}, nil
}

type spyStore struct {
	driven.VectorStore
	provider *spyProvider
}

func (s *spyStore) Upsert(ctx context.Context, records ...domain.VectorRecord) error {
	if err := s.VectorStore.Upsert(ctx, records...); err != nil {
		return err
	}
	if s.provider.afterUpsert != nil {
		for _, r := range records {
			s.provider.afterUpsert(r)
		}
	}
	return nil
}

func (s *spyStore) Activate(ctx context.Context, documentID, version string, expected int) error {
	if s.provider.activateErr != nil {
		return s.provider.activateErr
	}
	return s.VectorStore.Activate(ctx, documentID, version, expected)
}

func (s *spyStore) Discard(ctx context.Context, documentID, version string) error {
	s.provider.discards.Add(1)
	return s.VectorStore.Discard(ctx, documentID, version)
}

// failingDocuments fails SaveDocument and passes everything else through.
type failingDocuments struct {
	driven.DocumentStore
	err error
}

func (d *failingDocuments) SaveDocument(context.Context, string, *domain.Document, int) error {
	return d.err
}

// --- Harness ---

type harness struct {
	study     *StudyService
	sessions  *SessionService
	store     *memory.Store
	vectors   *spyProvider
	embedder  *bagEmbedder
	llm       *scriptedLLM
	session   *domain.Session
	versionID atomic.Int32
}

func newHarness(t *testing.T, chunker driven.Chunker) *harness {
	t.Helper()

	h := &harness{
		store:    memory.NewStore(),
		embedder: newBagEmbedder(),
		llm:      &scriptedLLM{results: []llmResult{{text: "Photosynthesis turns light into sugar [Source 1]."}}},
	}
	h.vectors = &spyProvider{VectorStoreProvider: h.store.VectorStores()}

	retriever, err := NewRetriever(h.embedder, 0, 0)
	require.NoError(t, err)
	generator, err := NewAnswerGenerator(h.llm, defaultTestPrompts(), AnswerConfig{
		Grounded:     driven.GenerateOptions{Temperature: 0.3},
		Ungrounded:   driven.GenerateOptions{Temperature: 0.7},
		RetryBackoff: 1,
	})
	require.NoError(t, err)

	h.study, err = NewStudyService(StudyDeps{
		Loaders:   loaders.Defaults(10 << 20),
		Chunker:   chunker,
		Embedder:  h.embedder,
		Vectors:   h.vectors,
		Documents: h.store.DocumentStore(),
		Retriever: retriever,
		Assembler: NewAssembler(0),
		Generator: generator,
	}, StudyConfig{Workers: 3, MaxContextChars: 4000})
	require.NoError(t, err)
	h.study.newVersion = func() string { return fmt.Sprintf("v%d", h.versionID.Add(1)) }

	h.sessions = NewSessionService(h.study, 0)
	h.session = h.sessions.Create("test")
	return h
}

func (h *harness) count(t *testing.T, docID string) int {
	t.Helper()
	vs, err := h.store.VectorStores().Open(context.Background(), h.session.Collection, 0)
	require.NoError(t, err)
	n, err := vs.Count(context.Background(), docID)
	require.NoError(t, err)
	return n
}

// threePages is a plain text document with form-feed page breaks.
func threePages() []byte {
	return []byte(strings.Join([]string{
		"The French Revolution began in 1789 with the storming of the Bastille in Paris.",
		"Newton described three laws of motion: inertia, force equals mass times acceleration, and reaction.",
		"Photosynthesis is the process plants use to convert light energy, water and carbon dioxide into glucose. Photosynthesis happens in chloroplasts.",
	}, "\f"))
}
