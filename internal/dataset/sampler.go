package dataset

import "math/rand"

// Sample 随机打乱公式集合后截断到 max 条。
// 随机源由调用方注入，测试里换成固定种子即可复现采样结果。
// 打乱后截断得到的是均匀随机子集，不是前 N 条。
func Sample(formulas []string, max int, rng *rand.Rand) []string {
	sampled := make([]string, len(formulas))
	copy(sampled, formulas)

	rng.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})

	if max > 0 && len(sampled) > max {
		sampled = sampled[:max]
	}
	return sampled
}
