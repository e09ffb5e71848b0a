package main

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"invoiceflow/internal/batch"
	"invoiceflow/internal/chat"
	"invoiceflow/internal/config"
	"invoiceflow/internal/handler"
	"invoiceflow/internal/intake"
	"invoiceflow/internal/router"
	"invoiceflow/internal/session"
	"invoiceflow/internal/transport"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	mode, err := cfg.Session.SessionMode()
	if err != nil {
		return err
	}

	// One configured client for all remote endpoints
	client := transport.NewClient(&cfg.API)

	// Initialize services
	sessions := session.NewManager(client)
	intakeSvc := intake.NewService(&cfg.Intake)
	orchestrator := batch.NewOrchestrator(client, sessions, batch.Config{
		Mode:         mode,
		Concurrency:  cfg.Batch.Concurrency,
		MaxRetries:   cfg.Batch.MaxRetries,
		RetryBackoff: time.Duration(cfg.Batch.RetryBackoffSecs) * time.Second,
	})
	registry := batch.NewRegistry()
	chatClient := chat.NewClient(client, sessions)

	// Initialize handlers
	batchH := handler.NewBatchHandler(intakeSvc, orchestrator, registry, &cfg.Export)
	chatH := handler.NewChatHandler(chatClient)
	sessionH := handler.NewSessionHandler(sessions, client)
	healthH := handler.NewHealthHandler(client)

	// Setup router
	r := router.Setup(cfg, batchH, chatH, sessionH, healthH)

	log.Printf("Server starting on %s (session mode: %s, extraction API: %s)",
		cfg.Server.Port, mode, cfg.API.BaseURL)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
