package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerdneilsfield/go-latex-dataset/internal/config"
	"github.com/nerdneilsfield/go-latex-dataset/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRunner 模拟外部工具链：编译时写出 pdf/aux/log，栅格化时写出 png
type fakeRunner struct {
	mu          sync.Mutex
	invocations int

	failCompile map[string]bool // 编译失败的图片基名
	failRaster  map[string]bool // 栅格化失败的图片基名
	pages       map[string]int  // 产出多页输出的图片基名 → 页数
	panicOn     map[string]bool // 执行时 panic 的图片基名
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		failCompile: map[string]bool{},
		failRaster:  map[string]bool{},
		pages:       map[string]int{},
		panicOn:     map[string]bool{},
	}
}

func (r *fakeRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	r.mu.Lock()
	r.invocations++
	r.mu.Unlock()

	switch name {
	case "pdflatex":
		base := strings.TrimSuffix(args[len(args)-1], ".tex")
		if r.panicOn[base] {
			panic("toolchain exploded")
		}
		if r.failCompile[base] {
			return fmt.Errorf("pdflatex failed: exit status 1")
		}
		for _, ext := range []string{".pdf", ".aux", ".log"} {
			if err := os.WriteFile(filepath.Join(dir, base+ext), []byte("x"), 0o644); err != nil {
				return err
			}
		}
	case "pdftoppm":
		base := args[1]
		if r.failRaster[base] {
			return fmt.Errorf("pdftoppm failed: exit status 1")
		}
		if n := r.pages[base]; n > 1 {
			for i := 1; i <= n; i++ {
				path := filepath.Join(dir, fmt.Sprintf("%s-%d.png", base, i))
				if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
					return err
				}
			}
			return nil
		}
		if err := os.WriteFile(filepath.Join(dir, base+".png"), []byte("png"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invocations
}

// hangingRunner 对指定基名模拟挂死的外部进程：阻塞到 ctx 超时为止
type hangingRunner struct {
	inner    *fakeRunner
	hangBase string
}

func (r *hangingRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	if name == "pdflatex" && strings.TrimSuffix(args[len(args)-1], ".tex") == r.hangBase {
		<-ctx.Done()
		return fmt.Errorf("%s timed out: %w", name, ctx.Err())
	}
	return r.inner.Run(ctx, dir, name, args...)
}

func testPool(t *testing.T, runner Runner) (*Pool, string) {
	t.Helper()
	workDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Workers = 4
	return NewPool(cfg, workDir, runner, zap.NewNop()), workDir
}

func baseNameOf(t *testing.T, formula string) string {
	t.Helper()
	addr, err := Address(formula)
	require.NoError(t, err)
	return addr + "_" + DefaultVariant
}

func TestPoolRenderAll(t *testing.T) {
	t.Run("Order Preserved With Isolated Failures", func(t *testing.T) {
		formulas := []string{"a_0 + b_0", "a_1 + b_1", "a_2 + b_2", "a_3 + b_3"}
		runner := newFakeRunner()
		runner.failCompile[baseNameOf(t, formulas[1])] = true
		runner.failRaster[baseNameOf(t, formulas[2])] = true

		pool, workDir := testPool(t, runner)
		session := progress.NewSession(len(formulas), 1.0, zap.NewNop())
		results := pool.RenderAll(context.Background(), formulas, session)

		require.Len(t, results, len(formulas))
		for i, expectSuccess := range []bool{true, false, false, true} {
			if expectSuccess {
				require.NotNil(t, results[i], "formula %d", i)
				require.Len(t, results[i], 1)
				assert.Equal(t, baseNameOf(t, formulas[i]), results[i][0].Name)
				assert.Equal(t, DefaultVariant, results[i][0].Variant)
				assert.FileExists(t, filepath.Join(workDir, results[i][0].Name+".png"))
			} else {
				assert.Nil(t, results[i], "formula %d", i)
			}
		}

		processed, failed := session.Snapshot()
		assert.Equal(t, len(formulas), processed)
		assert.Equal(t, 2, failed)
	})

	t.Run("Intermediates Purged After Run", func(t *testing.T) {
		formulas := []string{"x_0 + y_0", "x_1 + y_1"}
		runner := newFakeRunner()
		pool, workDir := testPool(t, runner)
		session := progress.NewSession(len(formulas), 1.0, zap.NewNop())
		pool.RenderAll(context.Background(), formulas, session)

		for _, pattern := range []string{"*.tex", "*.aux", "*.log", "*.pdf"} {
			matches, err := filepath.Glob(filepath.Join(workDir, pattern))
			require.NoError(t, err)
			assert.Empty(t, matches, pattern)
		}
		// 栅格图片是唯一幸存的产物
		images, err := filepath.Glob(filepath.Join(workDir, "*.png"))
		require.NoError(t, err)
		assert.Len(t, images, len(formulas))
	})

	t.Run("Existing Raster Skips Toolchain", func(t *testing.T) {
		formula := "p + q + r"
		runner := newFakeRunner()
		pool, workDir := testPool(t, runner)

		base := baseNameOf(t, formula)
		require.NoError(t, os.WriteFile(filepath.Join(workDir, base+".png"), []byte("png"), 0o644))

		session := progress.NewSession(1, 1.0, zap.NewNop())
		results := pool.RenderAll(context.Background(), []string{formula}, session)

		require.NotNil(t, results[0])
		assert.Equal(t, base, results[0][0].Name)
		assert.Equal(t, 0, runner.count())
	})

	t.Run("Ambiguous Multi Page Output Fails", func(t *testing.T) {
		formula := "long formula spanning pages"
		runner := newFakeRunner()
		base := baseNameOf(t, formula)
		runner.pages[base] = 3

		pool, workDir := testPool(t, runner)
		session := progress.NewSession(1, 1.0, zap.NewNop())
		results := pool.RenderAll(context.Background(), []string{formula}, session)

		assert.Nil(t, results[0])
		matches, err := filepath.Glob(filepath.Join(workDir, base+"*"))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("Worker Panic Converted To Nil Result", func(t *testing.T) {
		formulas := []string{"before panic", "panics here", "after panic"}
		runner := newFakeRunner()
		runner.panicOn[baseNameOf(t, formulas[1])] = true

		pool, _ := testPool(t, runner)
		session := progress.NewSession(len(formulas), 1.0, zap.NewNop())
		results := pool.RenderAll(context.Background(), formulas, session)

		assert.NotNil(t, results[0])
		assert.Nil(t, results[1])
		assert.NotNil(t, results[2])
	})

	t.Run("Hung Tool Degrades To Nil Result", func(t *testing.T) {
		formulas := []string{"quick one", "hangs forever", "another quick one"}
		runner := &hangingRunner{
			inner:    newFakeRunner(),
			hangBase: baseNameOf(t, formulas[1]),
		}

		pool, _ := testPool(t, runner)
		pool.cfg.RenderTimeout = 50 * time.Millisecond

		session := progress.NewSession(len(formulas), 1.0, zap.NewNop())
		results := pool.RenderAll(context.Background(), formulas, session)

		// 挂起的条目被超时取消并按失败处理，其余条目不受影响
		assert.NotNil(t, results[0])
		assert.Nil(t, results[1])
		assert.NotNil(t, results[2])

		processed, failed := session.Snapshot()
		assert.Equal(t, len(formulas), processed)
		assert.Equal(t, 1, failed)
	})

	t.Run("Address Failure Converted To Nil Result", func(t *testing.T) {
		runner := newFakeRunner()
		pool, _ := testPool(t, runner)
		session := progress.NewSession(2, 1.0, zap.NewNop())
		results := pool.RenderAll(context.Background(), []string{"%%%", "valid formula"}, session)

		assert.Nil(t, results[0])
		assert.NotNil(t, results[1])
		assert.Equal(t, 2, runner.count())
	})
}
