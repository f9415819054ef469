package coding

import (
	"fmt"
	"strconv"
	"strings"

	"contentCoder/core"
)

// 系统提示词
const (
	textCodingPersona  = "你是一位内容分析和编码专家，精通各种内容编码规则和方法。请严格按照变量定义和编码指南进行编码，对于分类变量，只能从提供的选项中选择一个值。"
	videoCodingPersona = "你是一位内容分析专家，擅长根据视频内容为变量赋值。请根据视频帧描述，为每个变量提供合适的编码值。对于分类变量，你必须且只能从提供的选项中选择一个，不要创建新的选项。"
	suggestionPersona  = "你是内容分析和编码专家。"
	analysisPersona    = "你是一位专业的视频内容分析专家，擅长从视频内容中提取主题、情感和关键信息。"
)

// 帧描述提示词
const frameDescriptionPrompt = "请详细描述这个视频帧中的内容，包括场景、人物、活动和可能的主题。"

// DefaultTextTemplate 文本编码的默认提示词模板，{content} 和 {variables} 会被替换
const DefaultTextTemplate = `请根据以下内容，为指定的变量进行编码。

内容:
{content}

需要编码的变量:
{variables}

请以JSON格式返回编码结果，格式为：
{
    "变量名1": "编码值1",
    "变量名2": "编码值2",
    ...
}

重要说明：
1. 对于分类变量，你必须且只能从提供的选项中选择一个，不要创建新的选项。
2. 对于李克特量表，请返回1到量表级数之间的数值。
3. 请严格按照每个变量的编码指南进行编码。
4. 请确保编码结果符合变量的要求和内容特点。
`

// DefaultVideoTemplate 视频编码的默认提示词模板
const DefaultVideoTemplate = `请根据以下视频描述，为指定的变量进行编码。

视频描述:
{content}

需要编码的变量:
{variables}

请以JSON格式返回编码结果，格式为：
{
    "变量名1": "编码值1",
    "变量名2": "编码值2",
    ...
}

重要说明：
1. 对于分类变量，你必须且只能从提供的选项中选择一个，不要创建新的选项。
2. 对于李克特量表，请返回1到量表级数之间的数值。
3. 请确保编码结果符合变量的要求和视频内容。
`

// BuildVariablesText 把变量定义渲染成提示词里的变量描述块。
// 每个变量一段：名称、类型、分类变量的选项或量表的级别，
// 编码指南单独一行，段与段之间空行分隔。
func BuildVariablesText(variables []core.Variable) string {
	var b strings.Builder

	for _, v := range variables {
		fmt.Fprintf(&b, "%s (%s)", v.Name, v.Kind)

		switch v.Kind {
		case core.KindCategorical:
			if len(v.Options) > 0 {
				fmt.Fprintf(&b, " [选项: %s]", strings.Join(v.Options, ", "))
			}
		case core.KindLikert:
			fmt.Fprintf(&b, " [量表: %s]", likertScaleText(v))
		}

		if v.Guide != "" {
			fmt.Fprintf(&b, "\n编码指南: %s", v.Guide)
		}

		b.WriteString("\n\n")
	}

	return b.String()
}

// likertScaleText 渲染量表级别。有标签时展示标签，不足级数的部分用
// 序号补齐；没有标签时展示 "1-N"。
func likertScaleText(v core.Variable) string {
	scale := v.LikertScale
	if scale <= 0 {
		scale = 5
	}

	if len(v.LikertLabels) == 0 {
		return fmt.Sprintf("1-%d", scale)
	}

	labels := make([]string, 0, scale)
	labels = append(labels, v.LikertLabels...)
	for i := len(labels); i < scale; i++ {
		labels = append(labels, strconv.Itoa(i+1))
	}
	return strings.Join(labels, ", ")
}

// BuildCodingPrompt 把 {content} 和 {variables} 占位符替换进模板，
// 自定义提示词和默认模板走同一条路径
func BuildCodingPrompt(template, content, variablesText string) string {
	prompt := strings.ReplaceAll(template, "{content}", content)
	return strings.ReplaceAll(prompt, "{variables}", variablesText)
}
