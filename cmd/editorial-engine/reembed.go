// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/editorial-engine/internal/kstore"
	"github.com/pdiddy/editorial-engine/internal/llm"
	"github.com/pdiddy/editorial-engine/internal/understanding"
)

var reembedCmd = &cobra.Command{
	Use:   "reembed DOCID",
	Short: "Re-embed a stored document",
	Long: `Reembed loads a document from the knowledge store by ID, re-embeds its
chunks with the current embedding model (re-chunking first if the document
has none), writes the result back, and reindexes it. Use it after changing
the embedding model or chunking configuration.`,
	RunE: runReembed,
}

func init() {
	rootCmd.AddCommand(reembedCmd)
}

func runReembed(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one document ID")
	}
	cfg := engineConfig

	ai, err := llm.New(cfg.AI)
	if err != nil {
		return fmt.Errorf("constructing AI client: %w", err)
	}

	ctx := cmd.Context()
	store, err := kstore.New(ctx, cfg.Knowledge, logger)
	if err != nil {
		return fmt.Errorf("constructing knowledge store client: %w", err)
	}
	defer store.Close()

	proc := understanding.NewProcessor(ai, ai, cfg.Understanding, logger)
	if err := proc.Reembed(ctx, store, args[0]); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "reembedded %s\n", args[0])
	return nil
}
