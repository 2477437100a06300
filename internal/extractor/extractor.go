package extractor

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// 按优先顺序排列的数学定界符模式，捕获组 1 为公式内容
var formulaPatterns = []*regexp2.Regexp{
	regexp2.MustCompile(`(?s)\\begin\{equation\}(.*?)\\end\{equation\}`, 0),
	regexp2.MustCompile(`(?s)\$\$(.*?)\$\$`, 0),
	regexp2.MustCompile(`(?s)\$(.*?)\$`, 0),
	regexp2.MustCompile(`(?s)\\\[(.*?)\\\]`, 0),
	regexp2.MustCompile(`(?s)\\\((.*?)\\\)`, 0),
}

// \label{...} 交叉引用标记，贪婪匹配到行内最后一个右花括号
var labelPattern = regexp2.MustCompile(`\\label\{.*\}`, 0)

// Extractor 从原始 LaTeX 文档中抽取公式
type Extractor struct {
	minLength int
	maxLength int
}

// NewExtractor 创建公式抽取器，长度窗口两端均为开区间
func NewExtractor(minLength, maxLength int) *Extractor {
	return &Extractor{
		minLength: minLength,
		maxLength: maxLength,
	}
}

// Extract 返回文档中检测到的公式。
// 第一个切片是原始公式，第二个是去掉 \label{...} 的规范化变体，
// 两者等长且位置一一对应。不同模式的重叠匹配会各自保留。
func (e *Extractor) Extract(latex string) ([]string, []string) {
	var formulas []string
	var normalized []string

	for _, pattern := range formulaPatterns {
		match, err := pattern.FindStringMatch(latex)
		if err != nil {
			continue
		}
		for match != nil {
			body := strings.TrimSpace(match.Groups()[1].String())
			if len(body) > e.minLength && len(body) < e.maxLength {
				body = strings.ReplaceAll(body, "\n", "")
				body = strings.ReplaceAll(body, "\r", "")
				formulas = append(formulas, body)
				normalized = append(normalized, stripLabels(body))
			}
			match, err = pattern.FindNextMatch(match)
			if err != nil {
				break
			}
		}
	}

	return formulas, normalized
}

// stripLabels 去除公式中的交叉引用标记
func stripLabels(formula string) string {
	out, err := labelPattern.Replace(formula, "", -1, -1)
	if err != nil {
		return formula
	}
	return out
}
