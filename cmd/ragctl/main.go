package main

import (
	"context"
	"log"
	"os"

	"ai-qa-rag-be/internal/bootstrap"
	"ai-qa-rag-be/internal/cli"
	"ai-qa-rag-be/internal/config"
	"ai-qa-rag-be/internal/tracer"
	"ai-qa-rag-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Unable to load configuration: %v", err)
	}

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	// Background consumers are not started: ingestion runs inline and usage events
	// published to the in-process bus without a subscriber are dropped.
	container, err := bootstrap.NewContainer(gormDB, cfg)
	if err != nil {
		log.Fatalf("Unable to bootstrap container: %v", err)
	}

	cli.Configure(cli.Services{
		Asker:            container.QAService,
		Documents:        container.DocumentService,
		Ingester:         container.IngestionService,
		Settings:         container.AiConfigRepo,
		SettingsDefaults: cfg.RAG.SettingsDefaults(),
	})

	err = cli.Execute()
	container.Close()
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
