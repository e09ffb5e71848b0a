// Command batchrun processes a directory of invoice documents through the
// remote extraction service and writes the ledger export.
// Usage: go run ./cmd/batchrun -dir ./invoices -out ledger.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"invoiceflow/internal/batch"
	"invoiceflow/internal/chat"
	"invoiceflow/internal/config"
	"invoiceflow/internal/domain"
	"invoiceflow/internal/intake"
	"invoiceflow/internal/ledger"
	"invoiceflow/internal/results"
	"invoiceflow/internal/session"
	"invoiceflow/internal/transport"
)

func main() {
	dir := flag.String("dir", ".", "directory to scan for invoice documents")
	out := flag.String("out", "", "export file path; extension selects csv or xlsx (default: generated csv name)")
	ask := flag.String("ask", "", "optional question to ask about the processed batch")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*dir, *out, *ask); err != nil {
		log.Fatal(err)
	}
}

func run(dir, out, ask string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	mode, err := cfg.Session.SessionMode()
	if err != nil {
		return err
	}

	client := transport.NewClient(&cfg.API)
	sessions := session.NewManager(client)
	intakeSvc := intake.NewService(&cfg.Intake)
	orchestrator := batch.NewOrchestrator(client, sessions, batch.Config{
		Mode:         mode,
		Concurrency:  cfg.Batch.Concurrency,
		MaxRetries:   cfg.Batch.MaxRetries,
		RetryBackoff: time.Duration(cfg.Batch.RetryBackoffSecs) * time.Second,
	})

	// Collect supported documents in directory order.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if _, err := intakeSvc.Add(e.Name(), data); err != nil {
			log.Printf("skipping %s: %v", e.Name(), err)
		}
	}

	records := intakeSvc.Take()
	if len(records) == 0 {
		return fmt.Errorf("no supported documents found in %s", dir)
	}
	log.Printf("processing %d documents from %s", len(records), dir)

	batchRun, err := orchestrator.Start(records)
	if err != nil {
		return err
	}
	for ev := range batchRun.Subscribe() {
		if ev.Done {
			break
		}
		log.Printf("  %s -> %s", ev.ID, ev.Status)
	}
	resultSet, _ := batchRun.Results()

	// Per-file summary
	for i := range resultSet {
		r := &resultSet[i]
		if r.Succeeded() {
			fmt.Printf("OK    %-40s %s %s %.2f\n", r.DocumentName, r.Data.VendorName, r.Data.InvoiceNumber, r.Data.TotalAmount)
		} else {
			fmt.Printf("FAIL  %-40s %s\n", r.DocumentName, r.ErrorMessage)
		}
	}
	summary := results.Summarize(resultSet)
	fmt.Printf("batch: %d processed, %d succeeded, %d failed, total %.2f\n",
		summary.Total, summary.Succeeded, summary.Failed, summary.TotalAmount)

	if err := writeExport(out, &cfg.Export, resultSet); err != nil {
		return err
	}

	if ask != "" {
		answer, err := askQuestion(client, sessions, ask)
		if err != nil {
			return err
		}
		fmt.Printf("\nQ: %s\nA: %s\n", ask, answer)
	}

	return nil
}

func writeExport(out string, cfg *config.ExportConfig, resultSet []domain.ExtractionResult) error {
	rows := ledger.Rows(resultSet, cfg.EntityName)
	if out == "" {
		out = ledger.BuildFilename(cfg.FilenamePrefix, "csv")
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if strings.EqualFold(filepath.Ext(out), ".xlsx") {
		err = ledger.WriteXLSX(f, rows)
	} else {
		err = ledger.WriteCSV(f, rows)
	}
	if err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	log.Printf("wrote %d ledger rows to %s", len(rows), out)
	return nil
}

func askQuestion(client *transport.Client, sessions *session.Manager, question string) (string, error) {
	chatClient := chat.NewClient(client, sessions)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	msg, err := chatClient.Ask(ctx, question)
	if err != nil {
		return "", fmt.Errorf("chat failed: %w", err)
	}
	return msg.Content, nil
}
