package coding

import (
	"context"
	"log"

	"contentCoder/config"

	openai "github.com/sashabaranov/go-openai"
)

// 消息角色
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 一条对话消息。ImageData 非空时作为多模态消息发送，
// 图片部分在前、文本部分在后。
type ChatMessage struct {
	Role      string
	Text      string
	ImageData string // base64编码的JPEG
	Detail    string // 图片细节级别，如 "high"，空则用服务端默认
}

type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float32
	MaxTokens   int
}

type CompletionChoice struct {
	Role    string
	Content string
}

// CompletionResult 模型回复，Choices 按服务端返回顺序排列
type CompletionResult struct {
	Choices []CompletionChoice
}

// FirstText 返回第一个choice的文本，没有choice时ok为false
func (r CompletionResult) FirstText() (string, bool) {
	if len(r.Choices) == 0 {
		return "", false
	}
	return r.Choices[0].Content, true
}

// ModelClient 对话模型客户端。实现方保证请求失败时返回 *TransportError。
type ModelClient interface {
	CreateChatCompletion(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// OpenAIModelClient 通过OpenAI兼容接口调用远程模型
type OpenAIModelClient struct {
	cli *openai.Client
}

// NewOpenAIModelClient 创建远程模型客户端，未配置密钥时直接返回 ErrNoAPIKey，
// 不会发起任何网络请求
func NewOpenAIModelClient(cfg *config.Config) (*OpenAIModelClient, error) {
	if !cfg.HasValidAPI() {
		return nil, ErrNoAPIKey
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIModelClient{cli: openai.NewClientWithConfig(clientConfig)}, nil
}

func (c *OpenAIModelClient) CreateChatCompletion(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	oreq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	resp, err := c.cli.CreateChatCompletion(ctx, oreq)
	if err != nil {
		return CompletionResult{}, &TransportError{Op: "chat_completion", Err: err}
	}

	result := CompletionResult{}
	for _, choice := range resp.Choices {
		result.Choices = append(result.Choices, CompletionChoice{
			Role:    choice.Message.Role,
			Content: choice.Message.Content,
		})
	}
	return result, nil
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		if m.ImageData == "" {
			out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Text})
			continue
		}

		imageURL := &openai.ChatMessageImageURL{URL: "data:image/jpeg;base64," + m.ImageData}
		if m.Detail != "" {
			imageURL.Detail = openai.ImageURLDetail(m.Detail)
		}
		out = append(out, openai.ChatCompletionMessage{
			Role: m.Role,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: imageURL},
				{Type: openai.ChatMessagePartTypeText, Text: m.Text},
			},
		})
	}
	return out
}

// MockModelClient 脚本化的模型客户端，测试和无密钥试用时使用。
// 第 i 次调用返回 Replies[i]，超出后重复最后一条；Errs[i] 非nil时该次调用失败。
type MockModelClient struct {
	Replies  []string
	Errs     []error
	Requests []CompletionRequest
}

func (m *MockModelClient) CreateChatCompletion(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	m.Requests = append(m.Requests, req)
	i := len(m.Requests) - 1
	log.Printf("[Mock] 模型调用 #%d, 消息数: %d", i+1, len(req.Messages))

	if i < len(m.Errs) && m.Errs[i] != nil {
		return CompletionResult{}, m.Errs[i]
	}

	if len(m.Replies) == 0 {
		return CompletionResult{}, nil
	}
	reply := m.Replies[len(m.Replies)-1]
	if i < len(m.Replies) {
		reply = m.Replies[i]
	}
	return CompletionResult{
		Choices: []CompletionChoice{{Role: RoleAssistant, Content: reply}},
	}, nil
}
