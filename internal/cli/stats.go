package cli

import (
	"fmt"

	"github.com/nerdneilsfield/go-latex-dataset/internal/config"
	"github.com/nerdneilsfield/go-latex-dataset/internal/logger"
	"github.com/nerdneilsfield/go-latex-dataset/internal/stats"
	"github.com/spf13/cobra"
)

var (
	// stats 命令的标志
	recentLimit int
)

// NewStatsCommand 创建 stats 命令
func NewStatsCommand() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "View extraction and rendering statistics",
		Long: `View accumulated statistics about past extract and generate runs:
total unique formulas, rendered and failed counts, and the most
recent run records.

Examples:
  # Show overview of all statistics
  latexdataset stats

  # Show the last 20 runs
  latexdataset stats --recent 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewLoggerWithVerbose(debugMode, verboseMode)
			defer func() {
				_ = log.Sync()
			}()

			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := stats.NewDatabase(cfg.StatsDBPath, log)
			if err != nil {
				return err
			}

			visualizer := stats.NewVisualizer(db)
			if recentLimit > 0 {
				visualizer.ShowRecent(recentLimit)
			} else {
				visualizer.ShowOverview()
			}
			return nil
		},
	}

	statsCmd.Flags().IntVar(&recentLimit, "recent", 0, "显示最近 N 次运行记录")

	return statsCmd
}
