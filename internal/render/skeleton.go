package render

import "fmt"

// basicSkeleton 最小的数学展示文档骨架，%s 处填入公式
const basicSkeleton = `\documentclass[12pt]{article}
\pagestyle{empty}
\usepackage{amsmath}
\begin{document}

\begin{displaymath}
%s
\end{displaymath}

\end{document}
`

// WrapFormula 把规范化后的公式包进文档骨架
func WrapFormula(formula string) string {
	return fmt.Sprintf(basicSkeleton, formula)
}
