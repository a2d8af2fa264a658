// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/editorial-engine/internal/dedup"
	"github.com/pdiddy/editorial-engine/internal/editorial"
	"github.com/pdiddy/editorial-engine/internal/ingestion"
	"github.com/pdiddy/editorial-engine/internal/intake"
	"github.com/pdiddy/editorial-engine/internal/kstore"
	"github.com/pdiddy/editorial-engine/internal/llm"
	"github.com/pdiddy/editorial-engine/internal/pipeline"
	"github.com/pdiddy/editorial-engine/internal/understanding"
	"github.com/pdiddy/editorial-engine/internal/webfetch"
	"github.com/pdiddy/editorial-engine/internal/websearch"
	"github.com/pdiddy/editorial-engine/pkg/types"
)

// nearDupThreshold is the advisory similarity above which two documents in
// one batch are reported as near-duplicates.
const nearDupThreshold = 0.9

var intakeCmd = &cobra.Command{
	Use:   "intake URL...",
	Short: "Run URLs through the pipeline synchronously",
	Long: `Intake fetches each URL and runs it through understanding and editorial in
order, writing one YAML artifact per document. With --ingest the documents
are also written to the knowledge store. Fetches are paced by the
configured politeness delay; duplicates and robots refusals are skipped.`,
	RunE: runIntake,
}

func init() {
	intakeCmd.Flags().String("out-dir", "documents", "directory for document YAML artifacts")
	intakeCmd.Flags().Bool("ingest", false, "write processed documents to the knowledge store")

	rootCmd.AddCommand(intakeCmd)
}

func runIntake(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more URLs to fetch")
	}
	cfg := engineConfig
	ctx := cmd.Context()

	dedupStore, err := dedup.New(cfg.Dedup)
	if err != nil {
		return fmt.Errorf("constructing dedup store: %w", err)
	}
	defer dedupStore.Close()

	ai, err := llm.New(cfg.AI)
	if err != nil {
		return fmt.Errorf("constructing AI client: %w", err)
	}

	outDir, _ := cmd.Flags().GetString("out-dir")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var writer *ingestion.Writer
	if ingest, _ := cmd.Flags().GetBool("ingest"); ingest {
		store, err := kstore.New(ctx, cfg.Knowledge, logger)
		if err != nil {
			return fmt.Errorf("constructing knowledge store client: %w", err)
		}
		defer store.Close()
		writer = ingestion.NewWriter(store, cfg.Ingestion, logger)
	}

	intakeProc := intake.NewProcessor(webfetch.New(cfg.Intake), dedupStore, cfg.Intake, logger)
	understandProc := understanding.NewProcessor(ai, ai, cfg.Understanding, logger)
	editProc := editorial.NewProcessor(ai, editorial.NewCorroborator(websearch.NewClient(cfg.Search), cfg.Editorial, logger), cfg.Editorial, logger)

	w := os.Stdout
	var processed, skipped, failed int
	var accepted []types.Document
	type sigRec struct{ url, sig string }
	var seen []sigRec

	for _, rawURL := range args {
		doc, err := intakeProc.Process(ctx, rawURL)
		if err != nil {
			if rej, ok := pipeline.AsRejection(err); ok {
				skipped++
				fmt.Fprintf(w, "skipped: %s (%s: %s)\n", rawURL, rej.Kind, rej.Reason)
			} else {
				failed++
				fmt.Fprintf(w, "failed:  %s (%v)\n", rawURL, err)
			}
			continue
		}

		fmt.Fprintf(w, "processing: %s (%d chars)\n", doc.CanonicalURL, len(doc.Text))
		for _, prev := range seen {
			if sim := dedup.Similarity(prev.sig, doc.SimilarityHash); sim >= nearDupThreshold {
				fmt.Fprintf(w, "  warning: near-duplicate of %s (similarity %.2f)\n", prev.url, sim)
			}
		}
		seen = append(seen, sigRec{url: doc.CanonicalURL, sig: doc.SimilarityHash})

		doc = understandProc.Understand(ctx, doc)
		doc = editProc.Edit(ctx, doc)
		if doc.NeedsReview {
			fmt.Fprintf(w, "  flagged for review (quality %.2f)\n", doc.QualityScore)
		}

		path, err := writeArtifact(outDir, doc)
		if err != nil {
			failed++
			fmt.Fprintf(w, "failed:  %s (%v)\n", rawURL, err)
			continue
		}
		fmt.Fprintf(w, "  wrote %s\n", path)

		accepted = append(accepted, doc)
		processed++
	}

	if writer != nil && len(accepted) > 0 {
		result, err := writer.BulkIngest(ctx, accepted)
		if err != nil {
			return fmt.Errorf("bulk ingest: %w", err)
		}
		fmt.Fprintf(w, "ingested %d of %d documents\n", result.Ingested, result.Total())
		processed -= result.Failed
		failed += result.Failed
	}

	fmt.Fprintf(w, "\nBatch summary: %d processed, %d skipped, %d failed (total: %d)\n",
		processed, skipped, failed, len(args))
	if failed > 0 {
		return fmt.Errorf("%d URL(s) failed", failed)
	}
	return nil
}

// writeArtifact saves doc as YAML named by its content hash prefix.
// Embeddings are bulky and reproducible, so artifacts carry everything but
// the vectors.
func writeArtifact(dir string, doc types.Document) (string, error) {
	doc.Vectors = nil

	name := doc.ContentHash
	if len(name) > 16 {
		name = name[:16]
	}
	path := filepath.Join(dir, name+".yaml")

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	return path, nil
}
