package cli

import (
	"fmt"
	"os"

	"github.com/nerdneilsfield/go-latex-dataset/internal/config"
	"github.com/nerdneilsfield/go-latex-dataset/internal/dataset"
	"github.com/spf13/cobra"
)

// NewValidateCommand 创建 validate 命令
func NewValidateCommand() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate dataset_list formula_list image_dir",
		Short: "Check consistency between the index, formula list and images",
		Long: `Validate parses the dataset index, verifies that every referenced
image exists in the image directory and that the maximum id plus one
matches the formula list length. The command only reports the numbers
for operator review; it never modifies any artifact and always exits
with status 0.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0], args[1], args[2])
		},
	}

	return validateCmd
}

// runValidate 执行一致性校验并打印报告
func runValidate(indexFile, formulaFile, imageDir string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	report, err := dataset.Validate(indexFile, formulaFile, imageDir, cfg.Toolchain.RasterExt)
	if err != nil {
		return err
	}

	report.Print(os.Stdout)
	return nil
}
