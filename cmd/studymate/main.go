// Command studymate answers questions from uploaded study material.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/studymate/internal/adapters/driven/config/file"
	"github.com/custodia-labs/studymate/internal/adapters/driving/cli"
	"github.com/custodia-labs/studymate/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := file.LoadEnv(file.DefaultEnvFiles()...); err != nil {
		logger.Warn("%v", err)
	}

	cli.SetVersion(version)
	cli.SetFactories(newSettingsService, newPipeline)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
