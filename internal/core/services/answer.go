package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/logger"
)

// Answer generation defaults.
const (
	DefaultAnswerTimeout  = 60 * time.Second
	DefaultRetryBackoff   = time.Second
	generationMaxAttempts = 2
)

// AnswerConfig configures the answer generator.
type AnswerConfig struct {
	// Grounded is used when context is available. Zero fields take defaults.
	Grounded driven.GenerateOptions

	// Ungrounded is used for general-knowledge answers.
	Ungrounded driven.GenerateOptions

	// Timeout bounds each attempt.
	Timeout time.Duration

	// RetryBackoff is the pause before the single retry.
	RetryBackoff time.Duration
}

// AnswerGenerator prompts the language model with the assembled context.
type AnswerGenerator struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	cfg     AnswerConfig
}

// NewAnswerGenerator validates cfg and creates a generator.
// A nil llm is allowed; Generate then fails with domain.ErrLLMUnavailable.
func NewAnswerGenerator(llm driven.LLMService, prompts driven.PromptStore, cfg AnswerConfig) (*AnswerGenerator, error) {
	if prompts == nil {
		return nil, fmt.Errorf("%w: answer generator requires a prompt store", domain.ErrInvalidConfiguration)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAnswerTimeout
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	cfg.Grounded = cfg.Grounded.WithDefaults()
	cfg.Ungrounded = cfg.Ungrounded.WithDefaults()
	if err := cfg.Grounded.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Ungrounded.Validate(); err != nil {
		return nil, err
	}

	return &AnswerGenerator{llm: llm, prompts: prompts, cfg: cfg}, nil
}

// Generate answers question from the context. An empty context produces an
// ungrounded answer carrying domain.UngroundedDisclaimer.
func (g *AnswerGenerator) Generate(
	ctx context.Context, question string, assembled domain.AssembledContext, history []domain.Turn,
) (*domain.Answer, error) {
	if g.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	grounded := !assembled.IsEmpty()
	messages, opts, err := g.buildMessages(question, assembled, history, grounded)
	if err != nil {
		return nil, err
	}

	logger.Debug("Generating answer with %s: grounded=%t sources=%d history=%d",
		g.llm.ModelName(), grounded, len(assembled.Sources), len(history))

	text, err := g.chat(ctx, messages, opts)
	if err != nil {
		return nil, err
	}

	answer := &domain.Answer{Text: text, Grounded: grounded}
	if grounded {
		answer.Sources = CitedSources(text, assembled.Sources)
	} else {
		answer.Disclaimer = domain.UngroundedDisclaimer
	}
	return answer, nil
}

func (g *AnswerGenerator) buildMessages(
	question string, assembled domain.AssembledContext, history []domain.Turn, grounded bool,
) ([]driven.ChatMessage, driven.GenerateOptions, error) {
	system, err := g.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return nil, driven.GenerateOptions{}, fmt.Errorf("load prompt: %w", err)
	}

	var (
		user string
		opts driven.GenerateOptions
	)
	if grounded {
		tmpl, err := g.prompts.Load(driven.PromptGroundedAnswer)
		if err != nil {
			return nil, opts, fmt.Errorf("load prompt: %w", err)
		}
		user = fmt.Sprintf(tmpl, assembled.Text, question)
		opts = g.cfg.Grounded
	} else {
		tmpl, err := g.prompts.Load(driven.PromptUngroundedAnswer)
		if err != nil {
			return nil, opts, fmt.Errorf("load prompt: %w", err)
		}
		user = fmt.Sprintf(tmpl, question)
		opts = g.cfg.Ungrounded
	}

	messages := make([]driven.ChatMessage, 0, 2*len(history)+2)
	messages = append(messages, driven.ChatMessage{Role: driven.RoleSystem, Content: system})
	for _, turn := range history {
		messages = append(messages,
			driven.ChatMessage{Role: driven.RoleUser, Content: turn.Question},
			driven.ChatMessage{Role: driven.RoleAssistant, Content: turn.Answer},
		)
	}
	messages = append(messages, driven.ChatMessage{Role: driven.RoleUser, Content: user})
	return messages, opts, nil
}

// chat calls the model with a per-attempt timeout and one retry of
// timeouts, transient and rate-limit failures.
func (g *AnswerGenerator) chat(ctx context.Context, messages []driven.ChatMessage, opts driven.GenerateOptions) (string, error) {
	backoff := retry.WithMaxRetries(generationMaxAttempts-1, retry.NewConstant(g.cfg.RetryBackoff))

	var (
		text     string
		attempts int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()

		out, err := g.llm.Chat(attemptCtx, messages, opts)
		if err == nil {
			text = out
			return nil
		}
		if ctx.Err() == nil && (domain.IsRetryable(err) || errors.Is(err, context.DeadlineExceeded)) {
			logger.Debug("generation attempt %d failed: %v", attempts, err)
			return retry.RetryableError(err)
		}
		return err
	})

	switch {
	case err == nil:
		return strings.TrimSpace(text), nil
	case ctx.Err() != nil:
		return "", errors.Join(ctx.Err(), err)
	default:
		logger.Warn("generation failed after %d attempts: %v", attempts, err)
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
}

var citationPattern = regexp.MustCompile(`\[Sources?\s+([\d,\s]+)\]`)

// CitedSources returns the sources referenced by "[Source N]" markers in
// text, in index order. When nothing valid is cited, every source is returned.
func CitedSources(text string, sources []domain.Source) []domain.Source {
	byIndex := make(map[int]domain.Source, len(sources))
	for _, s := range sources {
		byIndex[s.Index] = s
	}

	seen := make(map[int]bool)
	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		for _, field := range strings.Split(m[1], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				continue
			}
			if _, ok := byIndex[n]; ok {
				seen[n] = true
			}
		}
	}

	if len(seen) == 0 {
		return append([]domain.Source(nil), sources...)
	}

	cited := make([]domain.Source, 0, len(seen))
	for n := range seen {
		cited = append(cited, byIndex[n])
	}
	sort.Slice(cited, func(i, j int) bool { return cited[i].Index < cited[j].Index })
	return cited
}
