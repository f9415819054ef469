package coding

import (
	"strings"
	"testing"

	"contentCoder/core"
)

// 测试变量描述文本和编码提示词的构建

func TestBuildVariablesTextCategorical(t *testing.T) {
	variables := []core.Variable{
		{
			Name:    "情感倾向",
			Kind:    core.KindCategorical,
			Options: []string{"正面", "中立", "负面"},
			Guide:   "根据整体情绪判断",
		},
	}

	text := BuildVariablesText(variables)

	expected := "情感倾向 (分类变量) [选项: 正面, 中立, 负面]\n编码指南: 根据整体情绪判断\n\n"
	if text != expected {
		t.Errorf("Expected %q, got %q", expected, text)
	}
}

func TestBuildVariablesTextLikertPadding(t *testing.T) {
	// 标签不足量表级数时用数字补齐
	variables := []core.Variable{
		{
			Name:         "满意度",
			Kind:         core.KindLikert,
			LikertScale:  5,
			LikertLabels: []string{"很不满意", "不满意", "一般"},
		},
	}

	text := BuildVariablesText(variables)

	if !strings.Contains(text, "[量表: 很不满意, 不满意, 一般, 4, 5]") {
		t.Errorf("Expected padded likert labels, got %q", text)
	}
}

func TestBuildVariablesTextLikertWithoutLabels(t *testing.T) {
	text := BuildVariablesText([]core.Variable{
		{Name: "认可度", Kind: core.KindLikert, LikertScale: 7},
	})
	if !strings.Contains(text, "[量表: 1-7]") {
		t.Errorf("Expected numeric range for unlabeled scale, got %q", text)
	}

	// 未设置级数时默认五级
	text = BuildVariablesText([]core.Variable{
		{Name: "认可度", Kind: core.KindLikert},
	})
	if !strings.Contains(text, "[量表: 1-5]") {
		t.Errorf("Expected default 5-point scale, got %q", text)
	}
}

func TestBuildCodingPrompt(t *testing.T) {
	template := "内容：{content}\n变量：{variables}"

	prompt := BuildCodingPrompt(template, "一篇新闻", "变量描述")

	if prompt != "内容：一篇新闻\n变量：变量描述" {
		t.Errorf("Unexpected prompt: %q", prompt)
	}
}

func TestDefaultTemplatesArePopulated(t *testing.T) {
	for _, template := range []string{DefaultTextTemplate, DefaultVideoTemplate} {
		if !strings.Contains(template, "{content}") {
			t.Error("Expected template to contain {content} placeholder")
		}
		if !strings.Contains(template, "{variables}") {
			t.Error("Expected template to contain {variables} placeholder")
		}
		if !strings.Contains(template, "JSON") {
			t.Error("Expected template to request JSON output")
		}
		if !strings.Contains(template, "只能从提供的选项中选择一个") {
			t.Error("Expected template to constrain categorical choices")
		}
		if !strings.Contains(template, "请返回1到量表级数之间的数值") {
			t.Error("Expected template to constrain likert values")
		}
	}
}
