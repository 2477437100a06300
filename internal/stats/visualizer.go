package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Visualizer 统计数据可视化器
type Visualizer struct {
	db *Database
}

// NewVisualizer 创建可视化器
func NewVisualizer(db *Database) *Visualizer {
	return &Visualizer{db: db}
}

// ShowOverview 显示总览
func (v *Visualizer) ShowOverview() {
	stats := v.db.GetStats()

	title := color.New(color.FgCyan, color.Bold)
	title.Println("📊 Dataset Generation Statistics")
	title.Println(strings.Repeat("=", 50))

	fmt.Println()
	v.printSection("🎯 Overall Statistics", [][]string{
		{"Total Runs", formatNumber(stats.TotalRuns)},
		{"Total Unique Formulas", formatNumber(stats.TotalFormulas)},
		{"Total Rendered", formatNumber(stats.TotalRendered)},
		{"Total Failed", formatNumber(stats.TotalFailed)},
		{"Database Created", formatTime(stats.CreatedAt)},
		{"Last Updated", formatTime(stats.LastUpdated)},
	})
}

// ShowRecent 显示最近的运行记录
func (v *Visualizer) ShowRecent(limit int) {
	stats := v.db.GetStats()

	title := color.New(color.FgMagenta, color.Bold)
	title.Println("🕑 Recent Runs")
	title.Println(strings.Repeat("=", 50))

	records := stats.RecentRecords
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	if len(records) == 0 {
		fmt.Println("No run data available.")
		return
	}

	fmt.Println()
	for _, rec := range records {
		switch rec.Kind {
		case RunKindExtract:
			fmt.Printf("  %s  extract   archives=%d documents=%d formulas=%d unique=%d (%s)\n",
				formatTime(rec.StartedAt), rec.Archives, rec.Documents,
				rec.FormulasFound, rec.UniqueFormulas, formatDuration(rec.Duration))
		case RunKindGenerate:
			fmt.Printf("  %s  generate  sampled=%d rendered=%d failed=%d (%s)\n",
				formatTime(rec.StartedAt), rec.Sampled, rec.Rendered,
				rec.Failed, formatDuration(rec.Duration))
		}
	}
}

// printSection 打印一个小节的键值对
func (v *Visualizer) printSection(title string, rows [][]string) {
	sectionTitle := color.New(color.FgYellow, color.Bold)
	sectionTitle.Println(title)

	for _, row := range rows {
		fmt.Printf("  %-24s %s\n", row[0]+":", row[1])
	}
}

func formatNumber(n int) string {
	return fmt.Sprintf("%d", n)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
