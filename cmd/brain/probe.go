package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandevgo/motherbrain/internal/config"
	"github.com/sandevgo/motherbrain/internal/providers/embedding"
	"github.com/sandevgo/motherbrain/internal/providers/llm"
	"github.com/sandevgo/motherbrain/internal/service/ui"
	redisstore "github.com/sandevgo/motherbrain/internal/storage/redis"
)

var probeCmd = &cobra.Command{
	Use:          "probe",
	Short:        "Check redis, the embedding endpoint and the analysis model",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}

		ok := true
		report := func(name string, err error, detail string) {
			if err != nil {
				ok = false
				detail = err.Error()
			}
			fmt.Println(ui.StatusLine(name, err == nil, detail))
		}

		memCfg := config.NewMemoryConfig(ctx)
		if memCfg.Method == config.MethodRedis {
			redisCfg := config.NewRedisConfig(ctx)
			conn := redisstore.NewConnectionManager(redisCfg, redisstore.WithSleep(noSleep))
			err := conn.Connect(ctx)
			report("redis", err, conn.Addr())
			_ = conn.Close()
		}

		if memCfg.Method != config.MethodSimple {
			embCfg := config.NewEmbeddingConfig(ctx)
			enc, closeEnc, err := embedding.NewEncoder(ctx, embCfg, nil)
			if err == nil {
				encCtx, cancel := context.WithTimeout(ctx, memCfg.EmbedTimeout)
				_, err = enc.Encode(encCtx, "probe")
				cancel()
				_ = closeEnc()
			}
			report("embedding", err, embCfg.Provider+" "+embCfg.ModelName)
		}

		llmCfg := config.NewLLMConfig(ctx)
		if chat := llm.NewProvider(ctx, llmCfg); chat != nil {
			callCtx, cancel := context.WithTimeout(ctx, llmCfg.AnalysisTimeout)
			_, err := chat.Complete(callCtx, "Reply with OK.")
			cancel()
			report("analysis", err, llmCfg.Model)
		} else {
			fmt.Println(ui.StatusLine("analysis", true, "disabled"))
		}

		if !ok {
			return fmt.Errorf("probe failed")
		}
		return nil
	},
}

// noSleep makes probe report a dead redis at once instead of backing off.
func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
