package dataset

import (
	"fmt"
	"os"
	"strings"

	"github.com/nerdneilsfield/go-latex-dataset/internal/render"
)

// Record 索引文件中的一行：id → 图片基名 → 渲染策略
type Record struct {
	ID      int
	Image   string
	Variant string
}

// Index 数据集索引：稠密 id 的记录行加上幸存公式列表。
// Formulas 的第 id 行就是产生该 id 的公式，两份产物位置严格对应。
type Index struct {
	Records  []Record
	Formulas []string
}

// BuildIndex 按原始顺序走一遍 (公式, 渲染结果) 配对。
// 渲染失败的公式直接跳过，幸存公式从 0 开始分配稠密 id，
// 每个 (图片, 策略) 产出一条记录。
func BuildIndex(formulas []string, results []render.Result) (*Index, error) {
	if len(formulas) != len(results) {
		return nil, fmt.Errorf("formulas and results length mismatch: %d vs %d",
			len(formulas), len(results))
	}

	idx := &Index{}
	id := 0
	for i, result := range results {
		if result == nil {
			continue
		}
		for _, img := range result {
			idx.Records = append(idx.Records, Record{
				ID:      id,
				Image:   img.Name,
				Variant: img.Variant,
			})
		}
		idx.Formulas = append(idx.Formulas, formulas[i])
		id++
	}

	return idx, nil
}

// Write 把索引行和公式列表写成两份产物
func (idx *Index) Write(datasetFile, formulaFile string) error {
	lines := make([]string, 0, len(idx.Records))
	for _, rec := range idx.Records {
		lines = append(lines, fmt.Sprintf("%d %s %s", rec.ID, rec.Image, rec.Variant))
	}

	if err := os.WriteFile(datasetFile, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write dataset file: %w", err)
	}

	if err := os.WriteFile(formulaFile, []byte(strings.Join(idx.Formulas, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write formula file: %w", err)
	}
	return nil
}

// WriteFormulaList 把公式列表写成一行一条的产物，抽取阶段使用
func WriteFormulaList(path string, formulas []string) error {
	return os.WriteFile(path, []byte(strings.Join(formulas, "\n")), 0o644)
}
