package reliability

// PercentageAgreement 百分比一致性：所有无序观察值对里，双方都有的
// 变量中取值完全相等的比例。观察值不足或没有可比较的值对时返回0。
func PercentageAgreement(observations []map[string]any) float64 {
	if len(observations) < 2 {
		return 0
	}

	totalAgreements := 0
	totalComparisons := 0

	for i := 0; i < len(observations); i++ {
		for j := i + 1; j < len(observations); j++ {
			for variable, value := range observations[i] {
				other, ok := observations[j][variable]
				if !ok {
					continue
				}
				totalComparisons++
				if value == other {
					totalAgreements++
				}
			}
		}
	}

	if totalComparisons == 0 {
		return 0
	}
	return float64(totalAgreements) / float64(totalComparisons)
}

// AlphaCoefficient 简化版的 Krippendorff's Alpha。观察不一致率把所有
// 变量的值对合并成一个比例；期望不一致率按每个变量的边际分布单独计算，
// 再对有至少两个观察值的变量取平均。期望不一致率为0时返回1。
func AlphaCoefficient(observations []map[string]any, categories map[string][]any) float64 {
	if len(observations) < 2 {
		return 0
	}

	// 观察到的不一致
	disagreements := 0
	totalPairs := 0

	for variable := range categories {
		var values []any
		for _, obs := range observations {
			if value, ok := obs[variable]; ok {
				values = append(values, value)
			}
		}
		if len(values) < 2 {
			continue
		}

		for i := 0; i < len(values); i++ {
			for j := i + 1; j < len(values); j++ {
				if values[i] != values[j] {
					disagreements++
				}
				totalPairs++
			}
		}
	}

	if totalPairs == 0 {
		return 0
	}
	observedDisagreement := float64(disagreements) / float64(totalPairs)

	// 期望的不一致
	expectedDisagreement := 0.0
	contributing := 0

	for variable, categoryValues := range categories {
		if len(categoryValues) == 0 {
			continue
		}

		valueCounts := map[any]int{}
		totalValues := 0
		for _, obs := range observations {
			if value, ok := obs[variable]; ok {
				valueCounts[value]++
				totalValues++
			}
		}
		if totalValues < 2 {
			continue
		}

		varExpected := 0.0
		for v1, c1 := range valueCounts {
			for v2, c2 := range valueCounts {
				if v1 != v2 {
					varExpected += (float64(c1) / float64(totalValues)) * (float64(c2) / float64(totalValues))
				}
			}
		}

		expectedDisagreement += varExpected
		contributing++
	}

	if contributing == 0 {
		return 1
	}
	expectedDisagreement /= float64(contributing)
	if expectedDisagreement == 0 {
		return 1
	}

	return 1 - observedDisagreement/expectedDisagreement
}

// InterpretAlpha 解释Krippendorff's Alpha系数：通常大于0.8被认为是可靠的，
// 大于0.667被认为是可接受的
func InterpretAlpha(alpha float64) string {
	switch {
	case alpha > 0.8:
		return "可靠"
	case alpha > 0.667:
		return "可接受"
	default:
		return "低于可接受水平"
	}
}
