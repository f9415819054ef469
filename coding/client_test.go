package coding

import (
	"context"
	"errors"
	"testing"

	"contentCoder/config"

	openai "github.com/sashabaranov/go-openai"
)

func TestNewOpenAIModelClientRequiresAPIKey(t *testing.T) {
	// 没有密钥时直接失败，不应该构造出可用的客户端
	_, err := NewOpenAIModelClient(&config.Config{BaseURL: "https://api.example.com/v1"})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey, got %v", err)
	}

	client, err := NewOpenAIModelClient(testConfig())
	if err != nil {
		t.Fatalf("Failed to create client with valid config: %v", err)
	}
	if client == nil {
		t.Fatal("Expected a non-nil client")
	}
}

func TestFirstText(t *testing.T) {
	if text, ok := (CompletionResult{}).FirstText(); ok {
		t.Errorf("Expected no text for empty result, got %q", text)
	}

	result := CompletionResult{Choices: []CompletionChoice{
		{Role: RoleAssistant, Content: "第一条"},
		{Role: RoleAssistant, Content: "第二条"},
	}}
	text, ok := result.FirstText()
	if !ok {
		t.Fatal("Expected text from populated result")
	}
	if text != "第一条" {
		t.Errorf("Expected first choice content, got %q", text)
	}
}

func TestToOpenAIMessagesVision(t *testing.T) {
	// 纯文本消息保持普通格式，带图片的消息转成多模态格式，图片在前文本在后
	messages := toOpenAIMessages([]ChatMessage{
		{Role: RoleSystem, Text: "你是视频内容分析专家。"},
		{Role: RoleUser, Text: "请描述这张图片", ImageData: "aGVsbG8=", Detail: "high"},
	})

	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}

	plain := messages[0]
	if plain.Content != "你是视频内容分析专家。" || plain.MultiContent != nil {
		t.Errorf("Expected plain text message, got %+v", plain)
	}

	vision := messages[1]
	if vision.Content != "" {
		t.Errorf("Expected empty Content on multimodal message, got %q", vision.Content)
	}
	if len(vision.MultiContent) != 2 {
		t.Fatalf("Expected 2 content parts, got %d", len(vision.MultiContent))
	}
	image := vision.MultiContent[0]
	if image.Type != openai.ChatMessagePartTypeImageURL {
		t.Errorf("Expected image part first, got %v", image.Type)
	}
	if image.ImageURL.URL != "data:image/jpeg;base64,aGVsbG8=" {
		t.Errorf("Unexpected image URL: %q", image.ImageURL.URL)
	}
	if image.ImageURL.Detail != openai.ImageURLDetailHigh {
		t.Errorf("Expected high detail, got %v", image.ImageURL.Detail)
	}
	text := vision.MultiContent[1]
	if text.Type != openai.ChatMessagePartTypeText || text.Text != "请描述这张图片" {
		t.Errorf("Unexpected text part: %+v", text)
	}
}

func TestMockModelClientScripting(t *testing.T) {
	// 回复按序返回，超出后重复最后一条；Errs对应位置非nil时该次调用失败
	scripted := errors.New("第二次调用失败")
	mock := &MockModelClient{
		Replies: []string{"第一", "第二"},
		Errs:    []error{nil, scripted},
	}
	req := CompletionRequest{Model: "test-model", Messages: []ChatMessage{{Role: RoleUser, Text: "hi"}}}

	result, err := mock.CreateChatCompletion(context.Background(), req)
	if err != nil {
		t.Fatalf("Failed on first scripted call: %v", err)
	}
	if text, _ := result.FirstText(); text != "第一" {
		t.Errorf("Expected 第一, got %q", text)
	}

	if _, err := mock.CreateChatCompletion(context.Background(), req); !errors.Is(err, scripted) {
		t.Errorf("Expected scripted error on second call, got %v", err)
	}

	result, err = mock.CreateChatCompletion(context.Background(), req)
	if err != nil {
		t.Fatalf("Failed on third call: %v", err)
	}
	if text, _ := result.FirstText(); text != "第二" {
		t.Errorf("Expected last reply to repeat, got %q", text)
	}

	if len(mock.Requests) != 3 {
		t.Errorf("Expected 3 recorded requests, got %d", len(mock.Requests))
	}
}
