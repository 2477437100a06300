package extractor

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// WalkResult 保存一次语料遍历的聚合结果
type WalkResult struct {
	Formulas   []string // 原始公式
	Normalized []string // 去除 \label 的变体，与 Formulas 等长
	Archives   int      // 处理的归档数
	Documents  int      // 读取的文档成员数
}

// Walker 遍历 tar.gz 归档语料库并汇集抽取结果
type Walker struct {
	extractor *Extractor
	logger    *zap.Logger
}

// NewWalker 创建语料遍历器
func NewWalker(extractor *Extractor, logger *zap.Logger) *Walker {
	return &Walker{
		extractor: extractor,
		logger:    logger,
	}
}

// Walk 扫描目录下所有 *.tar.gz 归档。
// 只有名字中带路径分隔符的成员才是文档，其余视为目录项。
// 单个归档或成员的读取失败只记录日志，不中断整体遍历。
func (w *Walker) Walk(dir string) (*WalkResult, error) {
	archives, err := filepath.Glob(filepath.Join(dir, "*.tar.gz"))
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}
	if len(archives) == 0 {
		return nil, fmt.Errorf("no .tar.gz archives found in %s", dir)
	}

	result := &WalkResult{}
	for _, archive := range archives {
		if err := w.walkArchive(archive, result); err != nil {
			w.logger.Warn("skipping unreadable archive",
				zap.String("archive", archive),
				zap.Error(err))
			continue
		}
		result.Archives++
		w.logger.Info("archive processed",
			zap.Int("done", result.Archives),
			zap.Int("total", len(archives)),
			zap.Int("formulas", len(result.Formulas)))
	}

	return result, nil
}

// walkArchive 读取单个归档的全部文档成员
func (w *Walker) walkArchive(path string, result *WalkResult) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		// .tar 成员列表包含纯目录项
		if !strings.Contains(hdr.Name, "/") || hdr.Typeflag == tar.TypeDir {
			continue
		}

		content, err := io.ReadAll(tr)
		if err != nil {
			w.logger.Warn("skipping unreadable member",
				zap.String("archive", path),
				zap.String("member", hdr.Name),
				zap.Error(err))
			continue
		}
		result.Documents++

		formulas, normalized := w.extractor.Extract(string(content))
		result.Formulas = append(result.Formulas, formulas...)
		result.Normalized = append(result.Normalized, normalized...)
	}
}
