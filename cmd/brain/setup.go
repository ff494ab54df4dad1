package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/sandevgo/motherbrain/internal/config"
	"github.com/sandevgo/motherbrain/internal/service/ui"
	envfile "github.com/sandevgo/motherbrain/pkg/env"
	"github.com/sandevgo/motherbrain/pkg/log"
)

// setupEnv is every setting persisted by `brain setup`.
type setupEnv struct {
	config.AppConfig
	config.MemoryConfig
	config.RedisConfig
	config.EmbeddingConfig
	config.LLMConfig
	config.PersonalityConfig
}

var setupFlags struct {
	force      bool
	method     string
	layout     string
	redisHost  string
	redisPort  int
	embedding  string
	llmBaseURL string
	llmAPIKey  string
}

var setupCmd = &cobra.Command{
	Use:          "setup",
	Short:        "Write the runtime .env file",
	Long:         `Collects the current settings, applies the flags and writes them to the .env file in the runtime directory.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()
		logger := log.FromCtx(ctx)

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}

		cfg, err := collectSetup(cmd)
		if err != nil {
			return err
		}

		path := envPath(config.GetRuntimePath())
		if _, err := os.Stat(path); err == nil && !setupFlags.force {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}

		content, err := envfile.MarshalEnv(cfg)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create runtime directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return fmt.Errorf("write env file: %w", err)
		}

		logger.Info().Str("path", path).Msg("configuration saved")
		fmt.Println(ui.StatusLine("setup", true, "run 'brain serve' to start"))
		return nil
	},
}

// collectSetup reads defaults and the environment, then applies flags that
// were set explicitly.
func collectSetup(cmd *cobra.Command) (*setupEnv, error) {
	cfg := &setupEnv{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	f := cmd.Flags()
	if f.Changed("method") {
		cfg.Method = setupFlags.method
	}
	if f.Changed("layout") {
		cfg.KeyLayout = setupFlags.layout
	}
	if f.Changed("redis-host") {
		cfg.Host = setupFlags.redisHost
	}
	if f.Changed("redis-port") {
		cfg.Port = setupFlags.redisPort
	}
	if f.Changed("embedding") {
		cfg.Provider = setupFlags.embedding
	}
	if f.Changed("llm-base-url") {
		cfg.LLMConfig.BaseURL = setupFlags.llmBaseURL
	}
	if f.Changed("llm-api-key") {
		cfg.LLMConfig.APIKey = setupFlags.llmAPIKey
	}

	for _, v := range []interface{ Validate() error }{
		cfg.AppConfig, cfg.MemoryConfig, cfg.RedisConfig,
		cfg.EmbeddingConfig, cfg.LLMConfig, cfg.PersonalityConfig,
	} {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func envPath(runtimePath string) string {
	return filepath.Join(runtimePath, ".env")
}

func init() {
	f := setupCmd.Flags()
	f.BoolVar(&setupFlags.force, "force", false, "overwrite an existing .env file")
	f.StringVar(&setupFlags.method, "method", config.MethodSimple, "memory method: simple, memory, redis or sqlite")
	f.StringVar(&setupFlags.layout, "layout", config.LayoutPrefix, "redis key layout: prefix or hash")
	f.StringVar(&setupFlags.redisHost, "redis-host", "localhost", "redis host")
	f.IntVar(&setupFlags.redisPort, "redis-port", 6379, "redis port")
	f.StringVar(&setupFlags.embedding, "embedding", config.EmbeddingProviderOpenAI, "embedding provider: openai or hash")
	f.StringVar(&setupFlags.llmBaseURL, "llm-base-url", "", "OpenAI compatible endpoint for interaction analysis")
	f.StringVar(&setupFlags.llmAPIKey, "llm-api-key", "", "API key of the analysis endpoint")
	rootCmd.AddCommand(setupCmd)
}
