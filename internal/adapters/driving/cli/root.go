// Package cli provides the studymate command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
	"github.com/custodia-labs/studymate/internal/logger"
)

// version is set at build time.
var version = "dev"

// Global flags.
var (
	verbose        bool
	collectionFlag string
	ephemeral      bool
)

// Pipeline holds the services that need configured AI providers.
type Pipeline struct {
	Study       driving.StudyService
	Sessions    driving.SessionService
	Collections driving.CollectionService

	// Close releases stores and provider clients. It may be nil.
	Close func() error
}

// SettingsFactory builds the settings service. Ephemeral settings live in memory.
type SettingsFactory func(ephemeral bool) (driving.SettingsService, error)

// PipelineFactory builds the study pipeline from the current settings.
type PipelineFactory func(ctx context.Context, settings driving.SettingsService, ephemeral bool) (*Pipeline, error)

// Wiring state. Services are built on first use so commands such as
// version and settings work without provider credentials.
var (
	newSettings SettingsFactory
	newPipeline PipelineFactory

	settingsService driving.SettingsService
	pipeline        *Pipeline
	pipelineMu      sync.Mutex
)

var rootCmd = &cobra.Command{
	Use:   "studymate",
	Short: "Ask questions about your study material",
	Long: `StudyMate answers questions from the documents you upload.

Ingest PDFs, Markdown, HTML, Word or text files into a collection, then
ask questions. Answers cite the pages they came from. When nothing relevant
was uploaded, the answer says it is not grounded in your material.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&collectionFlag, "collection", "c", "",
		"collection to use (default from settings)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false,
		"keep everything in memory for this run")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetFactories installs the constructors used to wire services.
func SetFactories(settings SettingsFactory, p PipelineFactory) {
	newSettings = settings
	newPipeline = p
}

// Execute runs the root command and releases wired services afterwards.
func Execute(ctx context.Context) error {
	defer closePipeline()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), styles.Error.Render("Error: "+userMessage(err)))
	}
	return err
}

// userMessage turns pipeline failures into short advice.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return "generation failed, try again (" + err.Error() + ")"
	case errors.Is(err, domain.ErrLLMUnavailable):
		return "no language model configured; run 'studymate settings check'"
	default:
		return err.Error()
	}
}

func requireSettings() (driving.SettingsService, error) {
	if settingsService != nil {
		return settingsService, nil
	}
	if newSettings == nil {
		return nil, errors.New("settings service not configured")
	}
	s, err := newSettings(ephemeral)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	settingsService = s
	return s, nil
}

func requirePipeline(ctx context.Context) (*Pipeline, error) {
	pipelineMu.Lock()
	defer pipelineMu.Unlock()

	if pipeline != nil {
		return pipeline, nil
	}
	settings, err := requireSettings()
	if err != nil {
		return nil, err
	}
	if newPipeline == nil {
		return nil, errors.New("study service not configured")
	}
	p, err := newPipeline(ctx, settings, ephemeral)
	if err != nil {
		return nil, err
	}
	pipeline = p
	return p, nil
}

func closePipeline() {
	pipelineMu.Lock()
	defer pipelineMu.Unlock()

	if pipeline != nil && pipeline.Close != nil {
		if err := pipeline.Close(); err != nil {
			logger.Warn("closing services: %v", err)
		}
	}
	pipeline = nil
}

// collectionName resolves --collection against the configured default.
func collectionName() string {
	if collectionFlag != "" {
		return domain.CollectionName(collectionFlag)
	}
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			return s.Store.Collection
		}
	}
	return domain.CollectionName("")
}

// openSession wires the pipeline and starts a session on the selected collection.
func openSession(ctx context.Context) (*Pipeline, *domain.Session, error) {
	p, err := requirePipeline(ctx)
	if err != nil {
		return nil, nil, err
	}
	return p, p.Sessions.Create(collectionName()), nil
}
