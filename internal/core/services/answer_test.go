package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
)

func groundedContext() domain.AssembledContext {
	return domain.AssembledContext{
		Text: "[Source 1] bio.pdf, page 3\nChlorophyll absorbs light.\n\n",
		Sources: []domain.Source{
			{Index: 1, Label: "bio.pdf, page 3", DocumentID: "d", ChunkID: "d:0", PageStart: 3, PageEnd: 3},
		},
	}
}

func newTestGenerator(t *testing.T, llm driven.LLMService, cfg AnswerConfig) *AnswerGenerator {
	t.Helper()
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = time.Millisecond
	}
	g, err := NewAnswerGenerator(llm, defaultTestPrompts(), cfg)
	require.NoError(t, err)
	return g
}

func TestNewAnswerGenerator_Validation(t *testing.T) {
	_, err := NewAnswerGenerator(&scriptedLLM{}, nil, AnswerConfig{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = NewAnswerGenerator(&scriptedLLM{}, defaultTestPrompts(), AnswerConfig{
		Grounded: driven.GenerateOptions{Temperature: 3},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestGenerate_NilLLM(t *testing.T) {
	g := newTestGenerator(t, nil, AnswerConfig{})
	_, err := g.Generate(context.Background(), "q", groundedContext(), nil)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestGenerate_RetriesOnce(t *testing.T) {
	llm := &scriptedLLM{results: []llmResult{
		{err: domain.ErrTransient},
		{text: "  Light is absorbed by chlorophyll [Source 1].  "},
	}}
	g := newTestGenerator(t, llm, AnswerConfig{})

	answer, err := g.Generate(context.Background(), "How is light absorbed?", groundedContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, llm.callCount())
	assert.Equal(t, "Light is absorbed by chlorophyll [Source 1].", answer.Text)
	assert.True(t, answer.Grounded)
	require.Len(t, answer.Sources, 1)
}

func TestGenerate_RetryExhausted(t *testing.T) {
	for _, failure := range []error{domain.ErrTransient, domain.ErrRateLimited} {
		t.Run(failure.Error(), func(t *testing.T) {
			llm := &scriptedLLM{results: []llmResult{{err: failure}}}
			g := newTestGenerator(t, llm, AnswerConfig{})

			_, err := g.Generate(context.Background(), "q", groundedContext(), nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
			assert.ErrorIs(t, err, failure)
			assert.Equal(t, 2, llm.callCount())
		})
	}
}

func TestGenerate_PermanentFailuresNotRetried(t *testing.T) {
	for _, failure := range []error{domain.ErrContentFiltered, domain.ErrMalformedInput} {
		t.Run(failure.Error(), func(t *testing.T) {
			llm := &scriptedLLM{results: []llmResult{{err: failure}}}
			g := newTestGenerator(t, llm, AnswerConfig{})

			_, err := g.Generate(context.Background(), "q", groundedContext(), nil)
			assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
			assert.ErrorIs(t, err, failure)
			assert.Equal(t, 1, llm.callCount())
		})
	}
}

func TestGenerate_AttemptTimeout(t *testing.T) {
	llm := &scriptedLLM{block: true}
	g := newTestGenerator(t, llm, AnswerConfig{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := g.Generate(context.Background(), "q", groundedContext(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, llm.callCount())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGenerate_CallerCancelled(t *testing.T) {
	llm := &scriptedLLM{block: true}
	g := newTestGenerator(t, llm, AnswerConfig{Timeout: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Generate(ctx, "q", groundedContext(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, domain.ErrGenerationUnavailable))
	assert.Equal(t, 1, llm.callCount())
}

func TestGenerate_Ungrounded(t *testing.T) {
	llm := &scriptedLLM{results: []llmResult{{text: "Mitochondria make ATP."}}}
	g := newTestGenerator(t, llm, AnswerConfig{
		Grounded:   driven.GenerateOptions{Temperature: 0.2},
		Ungrounded: driven.GenerateOptions{Temperature: 0.9},
	})

	answer, err := g.Generate(context.Background(), "What do mitochondria do?", domain.AssembledContext{}, nil)
	require.NoError(t, err)
	assert.False(t, answer.Grounded)
	assert.Equal(t, domain.UngroundedDisclaimer, answer.Disclaimer)
	assert.Nil(t, answer.Sources)

	msgs := llm.messages[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, driven.RoleSystem, msgs[0].Role)
	assert.Equal(t, "General question: What do mitochondria do?", msgs[1].Content)
	assert.InDelta(t, 0.9, llm.opts[0].Temperature, 1e-9)
	assert.Equal(t, driven.DefaultMaxTokens, llm.opts[0].MaxOutputTokens)
}

func TestGenerate_HistoryOrder(t *testing.T) {
	llm := &scriptedLLM{}
	g := newTestGenerator(t, llm, AnswerConfig{})

	history := []domain.Turn{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
	}
	_, err := g.Generate(context.Background(), "q3", groundedContext(), history)
	require.NoError(t, err)

	msgs := llm.messages[0]
	require.Len(t, msgs, 6)
	roles := make([]string, len(msgs))
	for i, m := range msgs {
		roles[i] = m.Role
	}
	assert.Equal(t, []string{
		driven.RoleSystem,
		driven.RoleUser, driven.RoleAssistant,
		driven.RoleUser, driven.RoleAssistant,
		driven.RoleUser,
	}, roles)
	assert.Equal(t, "a2", msgs[4].Content)
}

func TestGenerate_MissingPrompt(t *testing.T) {
	g, err := NewAnswerGenerator(&scriptedLLM{}, mapPrompts{}, AnswerConfig{})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "q", groundedContext(), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCitedSources(t *testing.T) {
	sources := []domain.Source{{Index: 1}, {Index: 2}, {Index: 3}}

	tests := []struct {
		name string
		text string
		want []int
	}{
		{"single", "Plants [Source 2] grow.", []int{2}},
		{"ordered and deduplicated", "[Source 3] then [Source 1] and [Source 3].", []int{1, 3}},
		{"list form", "Both agree [Sources 1, 2].", []int{1, 2}},
		{"out of range falls back", "See [Source 9].", []int{1, 2, 3}},
		{"no citations falls back", "No markers here.", []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CitedSources(tt.text, sources)
			indexes := make([]int, len(got))
			for i, s := range got {
				indexes[i] = s.Index
			}
			assert.Equal(t, tt.want, indexes)
		})
	}
}
