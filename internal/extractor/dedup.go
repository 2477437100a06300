package extractor

// Deduplicate 按原始文本精确去重，返回顺序不保证稳定
func Deduplicate(formulas []string) []string {
	seen := make(map[string]struct{}, len(formulas))
	unique := make([]string, 0, len(formulas))
	for _, f := range formulas {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		unique = append(unique, f)
	}
	return unique
}
