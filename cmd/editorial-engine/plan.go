// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/editorial-engine/internal/discovery"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the expanded discovery queries",
	Long: `Plan expands the configured query templates against the topic list and
prints the resulting queries, one per line, without searching. Use it to
check a vertical's configuration before running discovery.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().String("queries-file", "", "YAML query-template file overriding the configured queries")

	rootCmd.AddCommand(planCmd)
}

// queryFile is the YAML shape of a query-template file: templates plus an
// optional topic list that overrides the configured one.
type queryFile struct {
	Queries []string `yaml:"queries"`
	Topics  []string `yaml:"topics"`
}

func loadQueryFile(path string) (queryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return queryFile{}, fmt.Errorf("reading query file: %w", err)
	}
	var qf queryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return queryFile{}, fmt.Errorf("parsing query file %s: %w", path, err)
	}
	return qf, nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	queries := engineConfig.Discovery.Queries
	topics := engineConfig.Topics

	if path, _ := cmd.Flags().GetString("queries-file"); path != "" {
		qf, err := loadQueryFile(path)
		if err != nil {
			return err
		}
		if len(qf.Queries) > 0 {
			queries = qf.Queries
		}
		if len(qf.Topics) > 0 {
			topics = qf.Topics
		}
	}
	if len(queries) == 0 {
		return fmt.Errorf("no discovery queries configured")
	}

	expanded := discovery.ExpandQueries(queries, topics)
	for _, q := range expanded {
		fmt.Fprintln(os.Stdout, q)
	}
	fmt.Fprintf(os.Stdout, "\n%d queries\n", len(expanded))
	return nil
}
