package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ai-qa-rag-be/internal/dto"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	ingestTitle    string
	ingestCategory string
	ingestTags     []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [document-id | file]",
	Short: "Chunk and embed a document",
	Long: `Re-ingests an existing document when given its id, or creates a document
from a local text or Markdown file and ingests it. Ingestion runs inline.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title, defaults to the file name")
	ingestCmd.Flags().StringVar(&ingestCategory, "category", "", "document category")
	ingestCmd.Flags().StringSliceVar(&ingestTags, "tag", nil, "document tag, repeatable")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if services.Ingester == nil {
		return errors.New("ingestion service not configured")
	}
	ctx := context.Background()

	documentId, err := uuid.Parse(args[0])
	if err != nil {
		documentId, err = createFromFile(ctx, args[0])
		if err != nil {
			return err
		}
	}

	chunks, err := services.Ingester.IngestDocument(ctx, documentId)
	if err != nil {
		return fmt.Errorf("ingest %s failed: %w", documentId, err)
	}

	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Ingested %s: %d chunks\n", documentId, chunks)
	return nil
}

func createFromFile(ctx context.Context, path string) (uuid.UUID, error) {
	if services.Documents == nil {
		return uuid.Nil, errors.New("document service not configured")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return uuid.Nil, fmt.Errorf("read %s: %w", path, err)
	}

	title := ingestTitle
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	res, err := services.Documents.Create(ctx, &dto.CreateDocumentRequest{
		Title:    title,
		Content:  string(content),
		Category: ingestCategory,
		Tags:     ingestTags,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("create document: %w", err)
	}
	return res.Id, nil
}
