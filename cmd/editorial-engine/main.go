// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the editorial-engine CLI.
// Implements: prd010-discovery, prd011-intake, prd014-understanding,
//             prd015-editorial, prd016-ingestion, prd021-control-plane
//             (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/editorial-engine/internal/secrets"
	"github.com/pdiddy/editorial-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// defaultUserAgent identifies the engine to fetched sites and provider APIs.
const defaultUserAgent = "EditorialEngine/1.0"

// loadedSecrets holds API keys loaded from the secrets directory at startup.
var loadedSecrets map[string]string

// engineConfig is the resolved pipeline configuration. PersistentPreRunE
// fills it before any subcommand runs.
var engineConfig types.PipelineConfig

// logger is the process-wide structured logger, debug-level under --verbose.
var logger *zap.Logger

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the editorial-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "editorial-engine",
	Short: "Document pipeline for vertical search datasets",
	Long: `editorial-engine discovers, vets, and ingests web documents for vertical
search datasets. Discovery expands query templates and searches the web,
intake fetches and extracts candidate pages, understanding classifies,
chunks, and embeds them, editorial fact-checks generated abstracts against
outside evidence, and ingestion writes accepted documents into the
downstream knowledge store.

Run the whole pipeline as a long-lived service with serve, or drive single
stages with plan, discover, intake, query, and reembed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		if engineConfig, err = loadConfig(); err != nil {
			return err
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		if logger, err = newLogger(verbose); err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./editorial-engine.yaml or ~/.config/editorial-engine/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of secret files, one key per file")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("editorial-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "editorial-engine"))
		}
		viper.AddConfigPath("/etc/editorial-engine")
	}

	viper.SetEnvPrefix("EDITORIAL_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the effective configuration: built-in defaults, then
// the config file, then EDITORIAL_ENGINE_* environment variables, then API
// keys from the secrets directory.
func loadConfig() (types.PipelineConfig, error) {
	setDefaults()

	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.Squash = true
	}); err != nil {
		return types.PipelineConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Search.APIKey = secretDefault("tavily-api-key", cfg.Search.APIKey)
	cfg.Knowledge.APIKey = secretDefault("knowledge-api-key", cfg.Knowledge.APIKey)
	switch cfg.AI.Provider {
	case types.ProviderAnthropic:
		cfg.AI.APIKey = secretDefault("anthropic-api-key", cfg.AI.APIKey)
	default:
		cfg.AI.APIKey = secretDefault("openai-api-key", cfg.AI.APIKey)
	}
	return cfg, nil
}

// setDefaults is the one place config-layer defaults live. Provider
// endpoints and model names default inside their packages instead.
func setDefaults() {
	viper.SetDefault("queue_size", 256)
	viper.SetDefault("listen", ":8087")

	viper.SetDefault("discovery.max_results", 25)
	viper.SetDefault("discovery.freshness", "30d")
	viper.SetDefault("discovery.interval", time.Hour)

	viper.SetDefault("intake.timeout", 30*time.Second)
	viper.SetDefault("intake.user_agent", defaultUserAgent)
	viper.SetDefault("intake.fetch_delay", time.Second)
	viper.SetDefault("intake.min_text_chars", 100)
	viper.SetDefault("intake.pdftotext_path", "pdftotext")

	viper.SetDefault("dedup.backend", string(types.DedupMemory))

	viper.SetDefault("understanding.chunk_strategy", string(types.ChunkHeadings))
	viper.SetDefault("understanding.target_tokens", 500)

	viper.SetDefault("editorial.max_claims", 10)
	viper.SetDefault("editorial.required_citations", 2)
	viper.SetDefault("editorial.min_accept_ratio", 0.8)
	viper.SetDefault("editorial.quality_floor", 0.7)

	viper.SetDefault("ingestion.collection", "vertical_generic")

	viper.SetDefault("ai.provider", string(types.ProviderOpenAI))
	viper.SetDefault("ai.max_retries", 3)

	viper.SetDefault("search.timeout", 30*time.Second)
	viper.SetDefault("search.user_agent", defaultUserAgent)

	viper.SetDefault("knowledge.backend", string(types.KnowledgeAPI))
	viper.SetDefault("knowledge.timeout", 30*time.Second)
	viper.SetDefault("knowledge.user_agent", defaultUserAgent)
	viper.SetDefault("knowledge.vector_dim", 768)

	viper.SetDefault("workers.discovery", 1)
	viper.SetDefault("workers.intake", 4)
	viper.SetDefault("workers.understanding", 2)
	viper.SetDefault("workers.editorial", 2)
	viper.SetDefault("workers.ingestion", 2)
}

// newLogger builds the process logger: production JSON on stderr, so stdout
// stays free for command output.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}
