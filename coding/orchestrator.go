package coding

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"contentCoder/config"
	"contentCoder/core"
)

// 单次请求里发送给视觉模型的最大帧数，避免请求过大
const maxCodingFrames = 4

// 模型返回了响应但没有任何choice
var errNoDescription = errors.New("没有收到帧描述响应")

// CodingOrchestrator 驱动完整的自动编码流程：构建提示词、调用模型、
// 提取回复中的结果并校验修复。本身不做任何持久化，保存结果由调用方负责。
type CodingOrchestrator struct {
	client ModelClient
	cfg    *config.Config
	retry  RetryPolicy
}

// NewCodingOrchestrator 创建编码编排器。client 为 nil 表示没有可用的
// 模型客户端，所有编码操作会直接返回 ErrNoAPIKey。
func NewCodingOrchestrator(client ModelClient, cfg *config.Config) *CodingOrchestrator {
	return &CodingOrchestrator{
		client: client,
		cfg:    cfg,
		retry:  RetryPolicy{MaxRetries: 2, InitialBackoff: 5 * time.Second, BackoffFactor: 2},
	}
}

// CodeText 为一段文本内容自动编码。customPrompt 为空时使用默认模板。
func (o *CodingOrchestrator) CodeText(ctx context.Context, content string, variables []core.Variable, customPrompt string) (core.CodingResult, error) {
	if o.client == nil {
		log.Printf("未设置API密钥，无法进行自动编码")
		return nil, ErrNoAPIKey
	}

	template := customPrompt
	if template == "" {
		template = DefaultTextTemplate
	}

	return o.runCodingPipeline(ctx, "CodeText", textCodingPersona, template, content, variables, 0.2)
}

// CodeVideo 为一段视频自动编码。先用视觉模型逐帧生成描述，再把带时间戳
// 的描述合并成一段文本，按文本编码流程处理。单个帧分析失败只记录日志并
// 跳过该帧，全部帧都失败时整个操作失败。
func (o *CodingOrchestrator) CodeVideo(ctx context.Context, frames []core.Frame, variables []core.Variable, customPrompt string) (core.CodingResult, error) {
	if o.client == nil {
		log.Printf("未设置API密钥，无法进行自动编码")
		return nil, ErrNoAPIKey
	}

	selected := selectFrames(frames, maxCodingFrames)
	descriptions := make([]string, 0, len(selected))

	for i, frame := range selected {
		log.Printf("分析第 %d/%d 帧...", i+1, len(selected))

		description, err := o.describeFrame(ctx, frame, frameDescriptionPrompt, "", 500, 0.2)
		if err != nil {
			log.Printf("分析视频帧失败: %v", err)
			continue
		}
		descriptions = append(descriptions, formatFrameDescription(frame, description))
	}

	if len(descriptions) == 0 {
		log.Printf("所有视频帧分析失败，无法进行编码")
		return nil, ErrExtractionFailed
	}

	combined := strings.Join(descriptions, "\n\n")

	template := customPrompt
	if template == "" {
		template = DefaultVideoTemplate
	}

	return o.runCodingPipeline(ctx, "CodeVideo", videoCodingPersona, template, combined, variables, 0.3)
}

// runCodingPipeline 文本和视频编码共用的后半段：渲染提示词、带重试地
// 调用文本模型、提取并校验结果
func (o *CodingOrchestrator) runCodingPipeline(ctx context.Context, name, persona, template, content string, variables []core.Variable, temperature float32) (core.CodingResult, error) {
	variablesText := BuildVariablesText(variables)
	userPrompt := BuildCodingPrompt(template, content, variablesText)

	raw, err := o.completeWithRetry(ctx, name, CompletionRequest{
		Model: o.cfg.TextModel,
		Messages: []ChatMessage{
			{Role: RoleSystem, Text: persona},
			{Role: RoleUser, Text: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, err
	}

	candidate, ok := ExtractMapping(raw)
	if !ok {
		return nil, ErrExtractionFailed
	}

	return ValidateCoding(candidate, variables), nil
}

// completeWithRetry 按编排器的重试策略调用文本模型，返回第一个choice
// 的文本。传输错误会触发重试，空回复不会。
func (o *CodingOrchestrator) completeWithRetry(ctx context.Context, name string, req CompletionRequest) (string, error) {
	var raw string

	err := o.retry.Do(name, func() error {
		callCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		defer cancel()

		resp, err := o.client.CreateChatCompletion(callCtx, req)
		if err != nil {
			return err
		}
		raw, _ = resp.FirstText()
		return nil
	})
	if err != nil {
		return "", err
	}
	return raw, nil
}

// describeFrame 用视觉模型描述单个帧，不重试
func (o *CodingOrchestrator) describeFrame(ctx context.Context, frame core.Frame, prompt, detail string, maxTokens int, temperature float32) (string, error) {
	data, err := frameImageData(frame)
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(callCtx, CompletionRequest{
		Model: o.cfg.VisionModel,
		Messages: []ChatMessage{
			{Role: RoleUser, Text: prompt, ImageData: data, Detail: detail},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	description, ok := resp.FirstText()
	if !ok {
		return "", errNoDescription
	}
	return description, nil
}

// formatFrameDescription 给帧描述加上人类可读的时间戳标签
func formatFrameDescription(frame core.Frame, description string) string {
	return fmt.Sprintf("时间点: %s (第%d秒)\n描述: %s",
		core.FormatTime(frame.TimestampSec), int(frame.TimestampSec), description)
}

// selectFrames 按时间戳从早到晚排序后最多取 limit 帧
func selectFrames(frames []core.Frame, limit int) []core.Frame {
	sorted := make([]core.Frame, len(frames))
	copy(sorted, frames)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TimestampSec < sorted[j].TimestampSec
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// frameImageData 返回帧图片的base64编码，优先使用内联数据
func frameImageData(frame core.Frame) (string, error) {
	if frame.Data != "" {
		return frame.Data, nil
	}
	if frame.Path == "" {
		return "", fmt.Errorf("帧缺少图片数据和路径")
	}

	raw, err := os.ReadFile(frame.Path)
	if err != nil {
		return "", fmt.Errorf("读取帧图片失败: %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
