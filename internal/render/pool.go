package render

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/nerdneilsfield/go-latex-dataset/internal/config"
	"github.com/nerdneilsfield/go-latex-dataset/internal/progress"
	"go.uber.org/zap"
)

// DefaultVariant 默认渲染策略标签
const DefaultVariant = "basic"

// RenderedImage 一次成功渲染产出的图片
type RenderedImage struct {
	Name    string // 不含扩展名的图片基名
	Variant string // 渲染策略标签
}

// Result 单个公式的渲染结果，nil 表示失败。
// 一个公式原则上可以由多种策略各渲染一张，默认管线只产出一张。
type Result []RenderedImage

// Pool 固定大小的并行渲染工作池。
// 每个公式经过 tex → pdf → png 三段外部管线，单项失败被完全隔离，
// 不会影响池中其他条目。
type Pool struct {
	cfg     *config.Config
	workDir string
	runner  Runner
	logger  *zap.Logger
}

// NewPool 创建渲染工作池，workDir 是图片和中间产物的输出目录
func NewPool(cfg *config.Config, workDir string, runner Runner, logger *zap.Logger) *Pool {
	return &Pool{
		cfg:     cfg,
		workDir: workDir,
		runner:  runner,
		logger:  logger,
	}
}

// RenderAll 渲染全部公式，results[i] 对应 formulas[i]。
// 工作协程乱序完成，结果按提交下标写入各自的槽位，顺序不变。
// 全部条目完成后清理工作目录中的所有中间产物，只留栅格图片。
func (p *Pool) RenderAll(ctx context.Context, formulas []string, session *progress.Session) []Result {
	results := make([]Result, len(formulas))

	jobs := make(chan int, len(formulas))
	for i := range formulas {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				res := p.renderOne(ctx, formulas[idx])
				results[idx] = res
				session.Record(res == nil)
			}
		}()
	}
	wg.Wait()

	p.purgeIntermediates()

	return results
}

// renderOne 执行单个公式的三段管线。
// 任何失败（地址推导、编译、栅格化、多页输出、panic）都转成 nil 结果。
func (p *Pool) renderOne(ctx context.Context, formula string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("render item panic recovered", zap.Any("panic", r))
			result = nil
		}
	}()

	addr, err := Address(formula)
	if err != nil {
		p.logger.Debug("content address derivation failed", zap.Error(err))
		return nil
	}

	baseName := addr + "_" + DefaultVariant
	rasterPath := filepath.Join(p.workDir, baseName+p.cfg.Toolchain.RasterExt)

	// 内容地址相同意味着产物相同，重复运行时直接复用
	if _, err := os.Stat(rasterPath); err == nil {
		return Result{{Name: baseName, Variant: DefaultVariant}}
	}

	texPath := filepath.Join(p.workDir, baseName+".tex")
	manifest := []string{texPath}

	latexDoc := WrapFormula(Canonicalize(formula))
	if err := os.WriteFile(texPath, []byte(latexDoc), 0o644); err != nil {
		p.logger.Warn("failed to write tex source",
			zap.String("address", addr),
			zap.Error(err))
		p.removeArtifacts(manifest)
		return nil
	}

	// 编译器除了 .pdf 还会写出 .aux 和 .log
	for _, ext := range []string{".pdf", ".aux", ".log"} {
		manifest = append(manifest, filepath.Join(p.workDir, baseName+ext))
	}

	compileArgs := append(append([]string{}, p.cfg.Toolchain.CompilerArgs...), baseName+".tex")
	if err := p.runTool(ctx, p.cfg.Toolchain.Compiler, compileArgs...); err != nil {
		p.logger.Debug("compile failed",
			zap.String("address", addr),
			zap.Error(err))
		p.removeArtifacts(manifest)
		return nil
	}

	rasterArgs := append([]string{baseName + ".pdf", baseName}, p.cfg.Toolchain.RasterizerArgs...)
	if err := p.runTool(ctx, p.cfg.Toolchain.Rasterizer, rasterArgs...); err != nil {
		p.logger.Debug("rasterize failed",
			zap.String("address", addr),
			zap.Error(err))
		p.removeArtifacts(manifest)
		return nil
	}

	// 多页输出说明公式溢出了单页展示，按失败处理
	pages, _ := filepath.Glob(filepath.Join(p.workDir, baseName+"-*"))
	if len(pages) > 1 {
		p.logger.Debug("ambiguous multi-page output",
			zap.String("address", addr),
			zap.Int("pages", len(pages)))
		p.removeArtifacts(append(manifest, pages...))
		return nil
	}

	return Result{{Name: baseName, Variant: DefaultVariant}}
}

// runTool 在超时约束下执行一次外部命令，挂起的进程会被取消并按失败处理
func (p *Pool) runTool(ctx context.Context, name string, args ...string) error {
	toolCtx, cancel := context.WithTimeout(ctx, p.cfg.RenderTimeout)
	defer cancel()
	return p.runner.Run(toolCtx, p.workDir, name, args...)
}

// removeArtifacts 按精确路径删除清单里的产物，不存在的忽略
func (p *Pool) removeArtifacts(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.logger.Warn("failed to remove artifact",
				zap.String("path", path),
				zap.Error(err))
		}
	}
}

// purgeIntermediates 清理工作目录里的全部中间产物类别，栅格图片除外
func (p *Pool) purgeIntermediates() {
	for _, ext := range []string{"*.tex", "*.aux", "*.log", "*.pdf"} {
		matches, err := filepath.Glob(filepath.Join(p.workDir, ext))
		if err != nil {
			continue
		}
		p.removeArtifacts(matches)
	}
}
