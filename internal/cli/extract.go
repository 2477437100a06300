package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nerdneilsfield/go-latex-dataset/internal/config"
	"github.com/nerdneilsfield/go-latex-dataset/internal/dataset"
	"github.com/nerdneilsfield/go-latex-dataset/internal/extractor"
	"github.com/nerdneilsfield/go-latex-dataset/internal/logger"
	"github.com/nerdneilsfield/go-latex-dataset/internal/stats"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// extract 命令的标志
	formulaOutput    string
	normalizedOutput string
)

// NewExtractCommand 创建 extract 命令
func NewExtractCommand() *cobra.Command {
	extractCmd := &cobra.Command{
		Use:   "extract tar_directory",
		Short: "Extract formulas from a directory of LaTeX source archives",
		Long: `Extract scans every *.tar.gz archive in the given directory, pulls
candidate formulas out of each LaTeX document with a set of math
delimiter patterns, deduplicates them by exact text and writes two
line-oriented lists: the raw formulas and a normalized variant with
\label{...} cross references removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewLoggerWithVerbose(debugMode, verboseMode)
			defer func() {
				_ = log.Sync()
			}()
			return runExtract(args[0], log)
		},
	}

	extractCmd.Flags().StringVar(&formulaOutput, "output", "formulas.lst", "原始公式列表的输出路径")
	extractCmd.Flags().StringVar(&normalizedOutput, "normalized-output", "formulas-normalized.lst", "规范化公式列表的输出路径")

	return extractCmd
}

// runExtract 执行抽取流程：遍历语料 → 抽取 → 去重 → 落盘
func runExtract(tarDir string, log *zap.Logger) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	start := time.Now()

	ext := extractor.NewExtractor(cfg.MinFormulaLength, cfg.MaxFormulaLength)
	walker := extractor.NewWalker(ext, log)

	result, err := walker.Walk(tarDir)
	if err != nil {
		return err
	}

	unique := extractor.Deduplicate(result.Formulas)
	log.Info("extraction finished",
		zap.Int("archives", result.Archives),
		zap.Int("documents", result.Documents),
		zap.Int("formulas", len(result.Formulas)),
		zap.Int("unique", len(unique)))
	fmt.Printf("Parsed %d formulas (%d unique)\n", len(result.Formulas), len(unique))

	if err := dataset.WriteFormulaList(formulaOutput, unique); err != nil {
		return fmt.Errorf("failed to write formula list: %w", err)
	}
	if err := dataset.WriteFormulaList(normalizedOutput, result.Normalized); err != nil {
		return fmt.Errorf("failed to write normalized list: %w", err)
	}

	recordRun(cfg, log, stats.RunRecord{
		ID:             uuid.New().String(),
		Kind:           stats.RunKindExtract,
		StartedAt:      start,
		Duration:       time.Since(start),
		Archives:       result.Archives,
		Documents:      result.Documents,
		FormulasFound:  len(result.Formulas),
		UniqueFormulas: len(unique),
	})

	return nil
}

// recordRun 把运行记录写入统计数据库，统计失败只告警不影响主流程
func recordRun(cfg *config.Config, log *zap.Logger, record stats.RunRecord) {
	db, err := stats.NewDatabase(cfg.StatsDBPath, log)
	if err != nil {
		log.Warn("failed to open stats db", zap.Error(err))
		return
	}
	if err := db.AddRun(record); err != nil {
		log.Warn("failed to record run stats", zap.Error(err))
	}
}
