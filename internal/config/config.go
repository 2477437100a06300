package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// ToolchainConfig 保存外部排版工具链配置
type ToolchainConfig struct {
	Compiler       string   `mapstructure:"compiler"`        // LaTeX 编译器命令（默认 pdflatex）
	CompilerArgs   []string `mapstructure:"compiler_args"`   // 编译器附加参数
	Rasterizer     string   `mapstructure:"rasterizer"`      // PDF 栅格化命令（默认 pdftoppm）
	RasterizerArgs []string `mapstructure:"rasterizer_args"` // 栅格化附加参数
	RasterExt      string   `mapstructure:"raster_ext"`      // 栅格图片扩展名（默认 .png）
}

// Config 保存数据集生成器的所有配置
type Config struct {
	// 公式抽取
	MinFormulaLength int `mapstructure:"min_formula_length"` // 保留公式的最小字节数（不含）
	MaxFormulaLength int `mapstructure:"max_formula_length"` // 保留公式的最大字节数（不含）

	// 渲染
	MaxImages        int             `mapstructure:"max_images"`         // 采样后的最大渲染数量
	Workers          int             `mapstructure:"workers"`            // 渲染工作协程数
	RenderTimeout    time.Duration   `mapstructure:"render_timeout"`     // 单次外部命令的超时时间
	ImageDir         string          `mapstructure:"image_dir"`          // 栅格图片输出目录
	Toolchain        ToolchainConfig `mapstructure:"toolchain"`          // 外部工具链
	ProgressEveryPct float64         `mapstructure:"progress_every_pct"` // 进度汇报间隔（占总量的百分比）

	// 产物
	DatasetFile string `mapstructure:"dataset_file"`  // 索引文件名
	FormulaFile string `mapstructure:"formula_file"`  // 公式列表文件名
	StatsDBPath string `mapstructure:"stats_db_path"` // 运行统计数据库路径

	// 采样
	Seed int64 `mapstructure:"seed"` // 随机种子，0 表示取当前时间

	Debug   bool `mapstructure:"debug"`
	Verbose bool `mapstructure:"verbose"`
}

// LoadConfig 加载配置文件，找不到时返回默认配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		// 搜索配置文件
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName(".latexdataset")
		v.SetConfigType("yaml")
	}

	// 读取配置
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 设置默认值
	setDefaults(&cfg)

	// 验证配置
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// setDefaults 为空字段填充默认值
func setDefaults(cfg *Config) {
	if cfg.MinFormulaLength <= 0 {
		cfg.MinFormulaLength = 40
	}
	if cfg.MaxFormulaLength <= 0 {
		cfg.MaxFormulaLength = 1024
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 300 * 1000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()*2 + 1
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 2 * time.Minute
	}
	if cfg.ImageDir == "" {
		cfg.ImageDir = "formula_images"
	}
	if cfg.ProgressEveryPct <= 0 {
		cfg.ProgressEveryPct = 1.0
	}
	if cfg.DatasetFile == "" {
		cfg.DatasetFile = "im2latex.lst"
	}
	if cfg.FormulaFile == "" {
		cfg.FormulaFile = "im2latex_formulas.lst"
	}
	if cfg.StatsDBPath == "" {
		cfg.StatsDBPath = ".latexdataset_stats.json"
	}
	if cfg.Toolchain.Compiler == "" {
		cfg.Toolchain.Compiler = "pdflatex"
	}
	if len(cfg.Toolchain.CompilerArgs) == 0 {
		cfg.Toolchain.CompilerArgs = []string{"-interaction=nonstopmode", "-halt-on-error"}
	}
	if cfg.Toolchain.Rasterizer == "" {
		cfg.Toolchain.Rasterizer = "pdftoppm"
	}
	if len(cfg.Toolchain.RasterizerArgs) == 0 {
		cfg.Toolchain.RasterizerArgs = []string{"-png", "-singlefile"}
	}
	if cfg.Toolchain.RasterExt == "" {
		cfg.Toolchain.RasterExt = ".png"
	}
}

// Validate 检查配置的合法性
func (c *Config) Validate() error {
	if c.MinFormulaLength >= c.MaxFormulaLength {
		return fmt.Errorf("min_formula_length (%d) must be smaller than max_formula_length (%d)",
			c.MinFormulaLength, c.MaxFormulaLength)
	}
	if c.ProgressEveryPct > 100 {
		return fmt.Errorf("progress_every_pct must be in (0, 100], got %f", c.ProgressEveryPct)
	}
	return nil
}
