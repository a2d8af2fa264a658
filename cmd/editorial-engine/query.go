// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/editorial-engine/internal/kstore"
)

var queryCmd = &cobra.Command{
	Use:   "query TEXT",
	Short: "Search the knowledge store",
	Long: `Query runs a hybrid search against a knowledge store collection and prints
the top matches with their scores and citation counts. Multiple arguments
join into one query string.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Int("top-k", 0, "number of results (default 20)")
	queryCmd.Flags().String("collection", "", "collection to search (default: the ingestion collection)")
	queryCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a query string")
	}
	query := strings.Join(args, " ")
	cfg := engineConfig

	collection, _ := cmd.Flags().GetString("collection")
	if collection == "" {
		collection = cfg.Ingestion.Collection
	}
	topK, _ := cmd.Flags().GetInt("top-k")

	ctx := cmd.Context()
	store, err := kstore.New(ctx, cfg.Knowledge, logger)
	if err != nil {
		return fmt.Errorf("constructing knowledge store client: %w", err)
	}
	defer store.Close()

	results, err := store.SearchDocuments(ctx, collection, query, topK)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []kstore.SearchResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-7s  %-5s  %-30s  %-40s  %s\n",
		"Rank", "Score", "Cites", "Title", "Snippet", "URL")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))

	for i, r := range results {
		title := r.Title
		if len(title) > 30 {
			title = title[:27] + "..."
		}
		snippet := r.Snippet
		if len(snippet) > 40 {
			snippet = snippet[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-7.3f  %-5d  %-30s  %-40s  %s\n",
			i+1, r.Score, r.Citations, title, snippet, r.SourceURL)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}
