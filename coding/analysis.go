package coding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"contentCoder/core"
)

// 整体分析时的帧描述提示词，比编码用的多关注动作
const analysisFramePrompt = "请详细描述这个视频帧中的内容，包括场景、人物、动作和可能的主题。"

// DefaultAnalysisPrompt 整体视频分析的默认提示
const DefaultAnalysisPrompt = "请分析这个视频的内容和主题"

// AnalyzeVideo 对整段视频做开放式内容分析。与自动编码不同，这里分析
// 全部帧，失败的帧以占位描述保留在上下文中，最后由文本模型汇总成一段
// 结构化的分析文本。
func (o *CodingOrchestrator) AnalyzeVideo(ctx context.Context, frames []core.Frame, prompt string) (string, error) {
	if o.client == nil {
		return "", ErrNoAPIKey
	}
	if len(frames) == 0 {
		return "", fmt.Errorf("没有可分析的视频帧")
	}
	if prompt == "" {
		prompt = DefaultAnalysisPrompt
	}

	descriptions := make([]string, 0, len(frames))
	for _, frame := range frames {
		description, err := o.describeFrame(ctx, frame, analysisFramePrompt, "high", 500, 0)
		switch {
		case errors.Is(err, errNoDescription):
			descriptions = append(descriptions, fmt.Sprintf("时间点: %g秒\n描述: 无法获取描述", frame.TimestampSec))
		case err != nil:
			log.Printf("分析帧失败: %v", err)
			descriptions = append(descriptions, fmt.Sprintf("时间点: %g秒\n描述: 分析失败 (%v)", frame.TimestampSec, err))
		default:
			descriptions = append(descriptions, formatFrameDescription(frame, description))
		}
	}

	combined := strings.Join(descriptions, "\n\n")

	userPrompt := fmt.Sprintf(`
根据以下视频帧描述，%s

视频帧描述：
%s

请提供详细的分析，包括但不限于：
1. 视频的主要内容和主题
2. 关键场景和重要时刻
3. 人物及其行为、表情和互动
4. 视频风格和情感基调
5. 其他值得注意的关键元素

请以结构化的方式组织你的分析。
`, prompt, combined)

	analysis, err := o.completeWithRetry(ctx, "AnalyzeVideo", CompletionRequest{
		Model: o.cfg.TextModel,
		Messages: []ChatMessage{
			{Role: RoleSystem, Text: analysisPersona},
			{Role: RoleUser, Text: userPrompt},
		},
		Temperature: 0.3,
		MaxTokens:   1500,
	})
	if err != nil {
		log.Printf("视频分析失败: %v", err)
		return "", err
	}
	if analysis == "" {
		return "无法获取分析结果", nil
	}
	return analysis, nil
}

// Suggest 获取开放式的AI编码建议。提示词在前、待分析内容在后，
// 中间以空行分隔。
func (o *CodingOrchestrator) Suggest(ctx context.Context, content, prompt string) (string, error) {
	if o.client == nil {
		return "", ErrNoAPIKey
	}

	policy := RetryPolicy{MaxRetries: 3, InitialBackoff: 2 * time.Second, BackoffFactor: 2}

	var suggestion string
	err := policy.Do("Suggest", func() error {
		callCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		defer cancel()

		resp, err := o.client.CreateChatCompletion(callCtx, CompletionRequest{
			Model: o.cfg.TextModel,
			Messages: []ChatMessage{
				{Role: RoleSystem, Text: suggestionPersona},
				{Role: RoleUser, Text: prompt + "\n\n" + content},
			},
			Temperature: 0.3,
			MaxTokens:   500,
		})
		if err != nil {
			return err
		}
		suggestion, _ = resp.FirstText()
		return nil
	})
	if err != nil {
		log.Printf("获取AI建议失败: %v", err)
		return "", err
	}
	return suggestion, nil
}
