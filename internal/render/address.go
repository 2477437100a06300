package render

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength 内容地址的十六进制字符数
const AddressLength = 20

// Canonicalize 返回公式的规范形式：去掉开头的 % 注释字符
func Canonicalize(formula string) string {
	return strings.TrimLeft(formula, "%")
}

// Address 从公式的规范形式推导内容地址。
// 同样的公式文本永远得到同样的地址，所以重复运行时
// 已渲染的公式可以安全跳过。
func Address(formula string) (string, error) {
	canonical := Canonicalize(formula)
	if canonical == "" {
		return "", fmt.Errorf("formula is empty after canonicalization")
	}

	sum := sha1.Sum([]byte(canonical))
	return hex.EncodeToString(sum[:])[:AddressLength], nil
}
