// Command askdocs answers questions about a set of documents.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/ai"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/config/file"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/metrics"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/cli"
	"github.com/custodia-labs/askdocs/internal/chunker"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/services"
	"github.com/custodia-labs/askdocs/internal/logger"
	"github.com/custodia-labs/askdocs/internal/normalisers/docx"
	"github.com/custodia-labs/askdocs/internal/normalisers/html"
	"github.com/custodia-labs/askdocs/internal/normalisers/markdown"
	"github.com/custodia-labs/askdocs/internal/normalisers/pdf"
	"github.com/custodia-labs/askdocs/internal/normalisers/plaintext"
)

// version is set by the linker at release time.
var version = "dev"

func main() {
	code := 0
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		code = 1
	}
	os.Exit(code)
}

func run() error {
	if err := file.LoadDotEnv(); err != nil {
		logger.Warn("%v", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("getting home directory: %w", err)
	}
	baseDir := filepath.Join(home, ".askdocs")

	ephemeral := file.Ephemeral()

	var configStore driven.ConfigStore = memory.NewConfigStore()
	if !ephemeral {
		configStore, err = file.NewConfigStore(baseDir)
		if err != nil {
			return fmt.Errorf("opening config: %w", err)
		}
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if err := file.ApplyEnv(settings); err != nil {
		return fmt.Errorf("applying environment: %w", err)
	}
	if ephemeral {
		settings.Storage.VectorBackend = domain.StorageMemory
		settings.Storage.MemoryBackend = domain.StorageMemory
	}

	ctx := context.Background()

	index, conversation, closeStore, err := openStorage(settings)
	if err != nil {
		return err
	}
	defer closeStore()

	providers := ai.Initialise(settings, false)
	defer providers.Close()

	prompts, err := file.NewPromptStore(filepath.Join(baseDir, "prompts"))
	if err != nil {
		return fmt.Errorf("opening prompts: %w", err)
	}

	registry := services.NewNormaliserRegistry(
		pdf.New(),
		docx.New(),
		markdown.New(),
		html.New(),
		plaintext.New(),
	)

	splitter, err := chunker.New(
		chunker.WithChunkSize(settings.Chunker.Size),
		chunker.WithOverlap(settings.Chunker.Overlap),
	)
	if err != nil {
		return fmt.Errorf("configuring chunker: %w", err)
	}

	generator := services.NewAnswerGenerator(providers.LLMService, prompts, conversation,
		services.WithSampling(settings.Sampling),
		services.WithFallbackText(settings.Prompt.FallbackText),
		services.WithGenerateTimeout(settings.Session.CallTimeout),
	)

	collector := metrics.NewCollector()
	session, err := services.NewSessionService(ctx, registry, splitter, providers.EmbeddingService,
		index, conversation, generator, collector, services.SessionConfigFrom(*settings))
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}

	cli.SetServices(cli.Services{
		Session:  session,
		Settings: settingsService,
		Metrics:  collector,
		Prompts:  prompts,
	})
	cli.SetVersion(version)

	return cli.Execute()
}

// openStorage builds the vector index and conversation memory the settings select.
// The returned func closes anything that was opened.
func openStorage(settings *domain.AppSettings) (driven.VectorIndex, driven.ConversationMemory, func(), error) {
	noop := func() {}

	var store *sqlite.Store
	if settings.Storage.VectorBackend == domain.StorageSQLite || settings.Storage.MemoryBackend == domain.StorageSQLite {
		var err error
		store, err = sqlite.NewStore(settings.Storage.DataDir)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("opening database: %w", err)
		}
		logger.Debug("database: %s", store.Path())
	}

	var index driven.VectorIndex = memory.NewVectorIndex()
	if settings.Storage.VectorBackend == domain.StorageSQLite {
		index = store.VectorIndex()
	}

	var conversation driven.ConversationMemory = memory.NewConversationMemory()
	if settings.Storage.MemoryBackend == domain.StorageSQLite {
		conversation = store.ConversationMemory()
	}

	if store == nil {
		return index, conversation, noop, nil
	}
	return index, conversation, func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing database: %v", err)
		}
	}, nil
}
