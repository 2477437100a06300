package cli

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nerdneilsfield/go-latex-dataset/internal/config"
	"github.com/nerdneilsfield/go-latex-dataset/internal/dataset"
	"github.com/nerdneilsfield/go-latex-dataset/internal/logger"
	"github.com/nerdneilsfield/go-latex-dataset/internal/progress"
	"github.com/nerdneilsfield/go-latex-dataset/internal/render"
	"github.com/nerdneilsfield/go-latex-dataset/internal/stats"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewGenerateCommand 创建 generate 命令
func NewGenerateCommand() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate formula_list",
		Short: "Render formulas into images and build the dataset index",
		Long: `Generate reads a formula list (one formula per line), samples a
random subset, renders every sampled formula to a PNG image through
pdflatex and pdftoppm, then writes the dataset index and the surviving
formula list. Formulas that fail to render are skipped and simply do
not receive an id. Already-rendered formulas are detected by content
address and reused without invoking the toolchain again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewLoggerWithVerbose(debugMode, verboseMode)
			defer func() {
				_ = log.Sync()
			}()
			return runGenerate(cmd.Context(), args[0], log)
		},
	}

	generateCmd.Flags().Int64Var(&randomSeed, "seed", 0, "采样用的随机种子 (0 表示取当前时间)")

	return generateCmd
}

// resolveSeed 采样种子的取值优先级：命令行标志 > 配置文件 > 当前时间
func resolveSeed(flagSeed, cfgSeed int64) int64 {
	if flagSeed != 0 {
		return flagSeed
	}
	if cfgSeed != 0 {
		return cfgSeed
	}
	return time.Now().UnixNano()
}

// runGenerate 执行生成流程：读公式 → 采样 → 并行渲染 → 构建索引
func runGenerate(ctx context.Context, formulaList string, log *zap.Logger) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	content, err := os.ReadFile(formulaList)
	if err != nil {
		return fmt.Errorf("failed to read formula list: %w", err)
	}
	formulas := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")

	seed := resolveSeed(randomSeed, cfg.Seed)
	rng := rand.New(rand.NewSource(seed))
	sampled := dataset.Sample(formulas, cfg.MaxImages, rng)

	if err := os.MkdirAll(cfg.ImageDir, 0o755); err != nil {
		return fmt.Errorf("failed to create image dir: %w", err)
	}

	log.Info("rendering formulas",
		zap.Int("total", len(sampled)),
		zap.Int("workers", cfg.Workers),
		zap.Int64("seed", seed))
	fmt.Printf("Number of workers: %d\n", cfg.Workers)
	fmt.Println("Turning formulas into images...")

	session := progress.NewSession(len(sampled), cfg.ProgressEveryPct, log)
	bar, err := pterm.DefaultProgressbar.WithTotal(len(sampled)).WithTitle("渲染进度").Start()
	if err == nil {
		session.SetObserver(func(processed, failed, total int) {
			bar.Increment()
			if failed > 0 {
				bar.UpdateTitle(fmt.Sprintf("渲染进度 (%d failed)", failed))
			}
		})
	}

	pool := render.NewPool(cfg, cfg.ImageDir, render.NewExecRunner(), log)
	results := pool.RenderAll(ctx, sampled, session)

	if bar != nil {
		_, _ = bar.Stop()
	}

	processed, failed := session.Snapshot()
	elapsed := session.Elapsed()
	log.Info("rendering finished",
		zap.Int("processed", processed),
		zap.Int("failed", failed),
		zap.Duration("elapsed", elapsed))
	fmt.Printf("Rendered %d formulas (%d failed) in %s\n", processed-failed, failed, elapsed.Round(time.Second))

	fmt.Println("Writing to .lst files...")
	index, err := dataset.BuildIndex(sampled, results)
	if err != nil {
		return err
	}
	if err := index.Write(cfg.DatasetFile, cfg.FormulaFile); err != nil {
		return err
	}

	recordRun(cfg, log, stats.RunRecord{
		ID:        uuid.New().String(),
		Kind:      stats.RunKindGenerate,
		StartedAt: session.StartTime,
		Duration:  elapsed,
		Sampled:   len(sampled),
		Rendered:  processed - failed,
		Failed:    failed,
	})

	return nil
}
