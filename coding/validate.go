package coding

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"contentCoder/core"
)

// ValidateCoding 校验候选编码并修复分类变量的值。
// 候选映射里没有的变量直接省略，不会补默认值。分类变量保证最终值
// 一定在选项中，李克特量表、数值和文本变量的值原样通过。
func ValidateCoding(candidate map[string]any, variables []core.Variable) core.CodingResult {
	valid := core.CodingResult{}

	for _, v := range variables {
		value, ok := candidate[v.Name]
		if !ok {
			continue
		}

		if v.Kind == core.KindCategorical && len(v.Options) > 0 {
			valid[v.Name] = repairCategorical(v, value)
		} else {
			valid[v.Name] = value
		}
	}

	return valid
}

// repairCategorical 把模型返回的分类值收敛到声明的选项上。
// 完全相等直接接受；否则在大小写无关包含关系成立的选项里按字符
// 重合度打分，超过阈值取最高分的选项，不然退回第一个选项。
func repairCategorical(v core.Variable, value any) string {
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprint(value)
	}

	for _, option := range v.Options {
		if s == option {
			return s
		}
	}

	bestScore := 0.0
	bestMatch := ""
	lowerValue := strings.ToLower(s)

	for _, option := range v.Options {
		lowerOption := strings.ToLower(option)
		if !strings.Contains(lowerOption, lowerValue) && !strings.Contains(lowerValue, lowerOption) {
			continue
		}
		if score := similarityScore(option, s); score > bestScore {
			bestScore = score
			bestMatch = option
		}
	}

	if bestMatch != "" && bestScore > 0.5 {
		return bestMatch
	}

	log.Printf("变量 %s 的值 '%s' 不在有效选项中，使用默认值", v.Name, s)
	return v.Options[0]
}

// similarityScore 两个字符串小写后共享的不同字符数除以较长一方的
// 字符数，都按Unicode字符计
func similarityScore(option, value string) float64 {
	optionRunes := make(map[rune]struct{})
	for _, r := range strings.ToLower(option) {
		optionRunes[r] = struct{}{}
	}
	shared := make(map[rune]struct{})
	for _, r := range strings.ToLower(value) {
		if _, ok := optionRunes[r]; ok {
			shared[r] = struct{}{}
		}
	}

	longest := utf8.RuneCountInString(option)
	if n := utf8.RuneCountInString(value); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	return float64(len(shared)) / float64(longest)
}
