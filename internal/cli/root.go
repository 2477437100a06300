package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// 全局标志
	cfgFile     string
	debugMode   bool
	verboseMode bool
	randomSeed  int64
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "latexdataset",
		Short: "latexdataset 从 LaTeX 语料构建公式图片数据集",
		Long: `latexdataset 从 LaTeX 源码语料中抽取数学公式，并通过外部排版
工具链（pdflatex + pdftoppm）把每条唯一公式渲染成栅格图片，
输出公式列表、索引文件和图片目录三份互相一致的产物。

工作流程:
  1. extract:  扫描 tar.gz 归档语料，抽取并去重公式
  2. generate: 采样公式并并行渲染成图片，生成数据集索引
  3. validate: 离线校验索引、公式列表和图片目录的一致性`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认搜索 $HOME 和当前目录下的 .latexdataset.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "启用调试日志")
	rootCmd.PersistentFlags().BoolVarP(&verboseMode, "verbose", "v", false, "显示详细日志")

	rootCmd.AddCommand(NewExtractCommand())
	rootCmd.AddCommand(NewGenerateCommand())
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewStatsCommand())

	return rootCmd
}
