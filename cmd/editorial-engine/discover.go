// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/editorial-engine/internal/discovery"
	"github.com/pdiddy/editorial-engine/internal/pipeline"
	"github.com/pdiddy/editorial-engine/internal/websearch"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run one discovery cycle and print the URLs it finds",
	Long: `Discover expands the configured queries (or runs a single ad-hoc --query),
searches the web, and prints every URL that would enter intake. Nothing is
fetched or ingested; use serve or intake for that.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().String("query", "", "run a single ad-hoc query instead of the configured templates")
	discoverCmd.Flags().String("queries-file", "", "YAML query-template file overriding the configured queries")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg := engineConfig
	if cfg.Search.APIKey == "" {
		return fmt.Errorf("search API key not configured (search.api_key or .secrets/tavily-api-key)")
	}

	discCfg := cfg.Discovery
	topics := cfg.Topics
	if path, _ := cmd.Flags().GetString("queries-file"); path != "" {
		qf, err := loadQueryFile(path)
		if err != nil {
			return err
		}
		if len(qf.Queries) > 0 {
			discCfg.Queries = qf.Queries
		}
		if len(qf.Topics) > 0 {
			topics = qf.Topics
		}
	}

	printURL := func(ctx context.Context, u pipeline.Unit) error {
		fmt.Fprintln(os.Stdout, u.URL)
		return nil
	}
	planner := discovery.NewPlanner(websearch.NewClient(cfg.Search), printURL, discCfg, topics, logger)

	var (
		result discovery.PlanResult
		err    error
	)
	if query, _ := cmd.Flags().GetString("query"); query != "" {
		result, err = planner.SearchOne(cmd.Context(), query)
	} else {
		result, err = planner.Plan(cmd.Context())
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\n%d URLs from %d queries (%d failed)\n",
		result.Enqueued, result.Queries, result.Failed)
	if result.HasFailures() {
		return fmt.Errorf("%d of %d queries failed", result.Failed, result.Queries)
	}
	return nil
}
