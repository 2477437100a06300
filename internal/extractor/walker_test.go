package extractor

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// writeArchive 写一个 tar.gz 归档，members 是 成员名 → 内容
func writeArchive(t *testing.T, path string, members map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	for name, content := range members {
		hdr := &tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestWalker(t *testing.T) {
	ext := NewExtractor(40, 1024)
	walker := NewWalker(ext, zap.NewNop())

	t.Run("Walks All Archives", func(t *testing.T) {
		tmpDir := t.TempDir()
		formula := strings.Repeat("a", 50)
		doc := "intro $" + formula + "$ outro"

		writeArchive(t, filepath.Join(tmpDir, "one.tar.gz"), map[string]string{
			"paper1/main.tex": doc,
		})
		writeArchive(t, filepath.Join(tmpDir, "two.tar.gz"), map[string]string{
			"paper2/main.tex": doc,
		})

		result, err := walker.Walk(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Archives)
		assert.Equal(t, 2, result.Documents)
		assert.Len(t, result.Formulas, 2)
		assert.Len(t, result.Normalized, 2)
		assert.Equal(t, formula, result.Formulas[0])
	})

	t.Run("Skips Directory Only Members", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeArchive(t, filepath.Join(tmpDir, "dirs.tar.gz"), map[string]string{
			// 名字里没有路径分隔符，按目录项处理
			"paper3": "$" + strings.Repeat("b", 50) + "$",
		})

		result, err := walker.Walk(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Documents)
		assert.Empty(t, result.Formulas)
	})

	t.Run("Empty Directory Is An Error", func(t *testing.T) {
		_, err := walker.Walk(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("Progress Counter Skips Failed Archives", func(t *testing.T) {
		tmpDir := t.TempDir()
		// aaa 排在前面且不是合法的 gzip，遍历时会被跳过
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "aaa.tar.gz"), []byte("not a gzip"), 0o644))
		writeArchive(t, filepath.Join(tmpDir, "bbb.tar.gz"), map[string]string{
			"paper/main.tex": "$" + strings.Repeat("c", 50) + "$",
		})

		core, logs := observer.New(zapcore.InfoLevel)
		observed := NewWalker(ext, zap.New(core))

		result, err := observed.Walk(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Archives)

		entries := logs.FilterMessage("archive processed").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		// done 报告的是成功计数，跳过的归档不计入
		assert.Equal(t, int64(1), fields["done"])
		assert.Equal(t, int64(2), fields["total"])
	})
}
