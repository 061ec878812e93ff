package errors

import (
	"fmt"
	"strings"

	"github.com/tangzhangming/pcode/internal/i18n"
)

// ============================================================================
// 相似名称查找
// ============================================================================

// FindSimilar 查找相似的名称
func FindSimilar(name string, candidates []string, maxDistance int) string {
	if len(candidates) == 0 {
		return ""
	}

	bestMatch := ""
	bestDistance := maxDistance + 1

	for _, candidate := range candidates {
		distance := levenshteinDistance(name, candidate)
		if distance < bestDistance {
			bestDistance = distance
			bestMatch = candidate
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// DidYouMean 生成 "did you mean" 提示，没有足够相似的候选时返回空串
func DidYouMean(name string, candidates []string) string {
	maxDistance := len(name) / 3
	if maxDistance < 1 {
		maxDistance = 1
	}
	match := FindSimilar(name, candidates, maxDistance)
	if match == "" || strings.EqualFold(match, name) {
		return ""
	}
	if i18n.GetLanguage() == i18n.LangChinese {
		return fmt.Sprintf("你是否想使用 '%s'?", match)
	}
	return fmt.Sprintf("did you mean '%s'?", match)
}

// levenshteinDistance 计算 Levenshtein 编辑距离（忽略大小写）
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	s1 = strings.ToLower(s1)
	s2 = strings.ToLower(s2)

	d := make([][]int, len(s1)+1)
	for i := range d {
		d[i] = make([]int, len(s2)+1)
	}
	for i := 0; i <= len(s1); i++ {
		d[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		d[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			d[i][j] = min(
				d[i-1][j]+1,      // 删除
				d[i][j-1]+1,      // 插入
				d[i-1][j-1]+cost, // 替换
			)
		}
	}

	return d[len(s1)][len(s2)]
}
