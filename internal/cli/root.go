package cli

import (
	"context"

	"ai-qa-rag-be/internal/dto"
	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/pkg/rag/settings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Asker answers one question.
type Asker interface {
	Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error)
}

type DocumentCreator interface {
	Create(ctx context.Context, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error)
}

type DocumentIngester interface {
	IngestDocument(ctx context.Context, documentId uuid.UUID) (int, error)
}

// SettingsStore is the slice of the ai_configurations repository the seeder needs.
type SettingsStore interface {
	FindConfigurationByKey(ctx context.Context, key string) (*entity.AiConfiguration, error)
	UpdateConfiguration(ctx context.Context, config *entity.AiConfiguration) error
	CreateConfiguration(ctx context.Context, config *entity.AiConfiguration) error
}

// Services are injected by main before Execute.
type Services struct {
	Asker            Asker
	Documents        DocumentCreator
	Ingester         DocumentIngester
	Settings         SettingsStore
	SettingsDefaults settings.Snapshot
}

var services Services

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Operate the retrieval-augmented QA backend",
	Long: `ragctl asks questions, ingests documents and seeds tuning settings
against the same database and providers the HTTP server uses.`,
	SilenceUsage: true,
}

func Configure(s Services) {
	services = s
}

func Execute() error {
	return rootCmd.Execute()
}
