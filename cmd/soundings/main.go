package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "embed"

	"go.uber.org/fx"

	"github.com/tigerroll/soundings/internal/app"
	"github.com/tigerroll/soundings/pkg/archive/core/application/usecase"
	"github.com/tigerroll/soundings/pkg/archive/core/config"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

// embeddedConfig is the default configuration. ${SOUNDINGS_ARCHIVE_ROOT} selects the
// directory holding the index database and the payloads.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Stopping...", sig)
		cancel()
	}()

	if os.Getenv("SOUNDINGS_ARCHIVE_ROOT") == "" {
		_ = os.Setenv("SOUNDINGS_ARCHIVE_ROOT", "./archive")
	}

	// Get the path to the .env file from environment variables. Use ".env" as default if not set.
	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	if err := run(ctx, envFilePath, embeddedConfig); err != nil {
		logger.Errorf("Archive maintenance failed: %v", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// run starts the application, which applies the index schema, then checks the archive
// and purges files past the configured retention.
func run(ctx context.Context, envFilePath string, embedded config.EmbeddedConfig) error {
	var archive usecase.Archive
	fxApp := fx.New(app.Options(envFilePath, embedded, fx.Populate(&archive))...)
	if err := fxApp.Start(ctx); err != nil {
		return err
	}
	runErr := maintain(ctx, archive)

	stopCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()
	if err := fxApp.Stop(stopCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func maintain(ctx context.Context, archive usecase.Archive) error {
	report, err := archive.Check(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Archive holds %d indexed files and %d stored payloads.", report.Indexed, report.Stored)
	for _, name := range report.MissingPayloads {
		logger.Warnf("Indexed file '%s' has no stored payload.", name)
	}
	for _, name := range report.UnindexedPayloads {
		logger.Warnf("Stored payload '%s' is not indexed.", name)
	}

	purged, err := archive.Purge(ctx, 0)
	if err != nil {
		return err
	}
	if purged > 0 {
		logger.Infof("Purged %d files past retention.", purged)
	}
	return nil
}
