package dataset

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Report 一致性检查的诊断结果。
// 只汇报数字，不修改任何产物，也不因不一致而报错。
type Report struct {
	Rows           int  // 索引行数
	MaxID          int  // 索引中出现的最大 id
	FormulaCount   int  // 公式列表行数
	MissingImages  int  // 引用了不存在图片的索引行数
	LengthMismatch bool // max_id+1 是否不等于公式行数
}

// Validate 校验索引、公式列表和图片目录三者的一致性。
// 每条索引行引用的图片（基名加栅格扩展名）都应存在于 imageDir，
// 且最大 id 加一应等于公式列表的行数。
func Validate(indexFile, formulaFile, imageDir, rasterExt string) (*Report, error) {
	indexContent, err := os.ReadFile(indexFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}
	formulaContent, err := os.ReadFile(formulaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read formula file: %w", err)
	}
	entries, err := os.ReadDir(imageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image dir: %w", err)
	}

	images := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		images[entry.Name()] = struct{}{}
	}

	report := &Report{}
	for _, line := range strings.Split(string(indexContent), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, " ")
		if len(fields) < 3 {
			report.MissingImages++
			report.Rows++
			continue
		}

		id, err := strconv.Atoi(fields[0])
		if err == nil && id > report.MaxID {
			report.MaxID = id
		}
		if _, ok := images[fields[1]+rasterExt]; !ok {
			report.MissingImages++
		}
		report.Rows++
	}

	report.FormulaCount = len(strings.Split(strings.TrimSuffix(string(formulaContent), "\n"), "\n"))
	report.LengthMismatch = report.MaxID+1 != report.FormulaCount

	return report, nil
}

// Print 把报告渲染成表格写入 w
func (r *Report) Print(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Dataset Consistency Report")
	t.AppendRows([]table.Row{
		{"Index rows", r.Rows},
		{"Max id", r.MaxID},
		{"Formula lines", r.FormulaCount},
		{"Missing images", r.MissingImages},
	})
	t.Render()

	if r.LengthMismatch {
		fmt.Fprintln(w, text.FgRed.Sprintf(
			"Max id in dataset != formula file length (%d vs %d)", r.MaxID, r.FormulaCount))
	}
	fmt.Fprintf(w, "%d files missing\n", r.MissingImages)
}
