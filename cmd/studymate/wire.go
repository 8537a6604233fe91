package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/studymate/internal/adapters/driven/ai"
	"github.com/custodia-labs/studymate/internal/adapters/driven/config/file"
	"github.com/custodia-labs/studymate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/studymate/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/studymate/internal/adapters/driving/cli"
	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
	"github.com/custodia-labs/studymate/internal/core/services"
	"github.com/custodia-labs/studymate/internal/loaders"
	"github.com/custodia-labs/studymate/internal/logger"
	"github.com/custodia-labs/studymate/internal/postprocessors/chunker"
)

func newSettingsService(ephemeral bool) (driving.SettingsService, error) {
	var store driven.ConfigStore
	if ephemeral {
		store = memory.NewConfigStore()
	} else {
		fileStore, err := file.NewConfigStore("")
		if err != nil {
			return nil, fmt.Errorf("opening config: %w", err)
		}
		store = fileStore
	}
	return services.NewSettingsService(store, ai.NewConfigValidator(), file.Environment{}), nil
}

// storage is what the pipeline needs from either store.
type storage interface {
	VectorStores() driven.VectorStoreProvider
	DocumentStore() driven.DocumentStore
}

func openStorage(settings *domain.AppSettings, ephemeral bool) (storage, func() error, error) {
	if ephemeral {
		return memory.NewStore(), func() error { return nil }, nil
	}

	dataDir := settings.Store.DataDir
	if dataDir == "" {
		home, err := file.HomeDir()
		if err != nil {
			return nil, nil, err
		}
		dataDir = filepath.Join(home, "data")
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("using database %s", store.Path())
	return store, store.Close, nil
}

func newPipeline(ctx context.Context, settingsSvc driving.SettingsService, ephemeral bool) (*cli.Pipeline, error) {
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	aiServices, err := ai.Initialise(ctx, settings)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := openStorage(settings, ephemeral)
	if err != nil {
		aiServices.Close()
		return nil, err
	}

	release := func() error {
		aiServices.Close()
		return closeStore()
	}

	study, err := newStudyService(settings, aiServices, store)
	if err != nil {
		return nil, errors.Join(err, release())
	}

	return &cli.Pipeline{
		Study:       study,
		Sessions:    services.NewSessionService(study, domain.DefaultMaxTurns),
		Collections: services.NewCollectionService(store.VectorStores()),
		Close:       release,
	}, nil
}

func newStudyService(settings *domain.AppSettings, aiServices *ai.InitResult, store storage) (*services.StudyService, error) {
	chunk, err := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)
	if err != nil {
		return nil, err
	}

	retriever, err := services.NewRetriever(aiServices.EmbeddingService, settings.Retrieval.K, services.DefaultCacheSize)
	if err != nil {
		return nil, err
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return nil, err
	}

	generator, err := services.NewAnswerGenerator(aiServices.LLMService, prompts, services.AnswerConfig{
		Grounded: driven.GenerateOptions{
			Temperature:     settings.LLM.Temperature,
			MaxOutputTokens: settings.LLM.MaxOutputTokens,
		},
		Ungrounded: driven.GenerateOptions{
			Temperature:     driven.DefaultTemperature,
			MaxOutputTokens: settings.LLM.MaxOutputTokens,
		},
		Timeout: settings.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return services.NewStudyService(services.StudyDeps{
		Loaders:   loaders.Defaults(settings.Ingest.MaxDocumentBytes),
		Chunker:   chunk,
		Embedder:  aiServices.EmbeddingService,
		Vectors:   store.VectorStores(),
		Documents: store.DocumentStore(),
		Retriever: retriever,
		Assembler: services.NewAssembler(settings.Retrieval.DedupeThreshold),
		Generator: generator,
	}, services.StudyConfig{
		Workers:         settings.Ingest.Workers,
		MaxContextChars: settings.Retrieval.MaxContextChars,
	})
}
