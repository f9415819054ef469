package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"contentCoder/coding"
	"contentCoder/config"
	"contentCoder/core"
)

func serverTestConfig() *config.Config {
	return &config.Config{
		APIKey:      "sk-test",
		BaseURL:     "https://api.example.com/v1",
		TextModel:   "test-text-model",
		VisionModel: "test-vision-model",
	}
}

func newCodingHandlers(client coding.ModelClient) *CodingHandlers {
	return NewCodingHandlers(coding.NewCodingOrchestrator(client, serverTestConfig()))
}

func TestCodeTextHandlerMethodNotAllowed(t *testing.T) {
	h := newCodingHandlers(&coding.MockModelClient{})

	req := httptest.NewRequest(http.MethodGet, "/code-text", nil)
	rec := httptest.NewRecorder()
	h.CodeTextHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}

func TestCodeTextHandlerValidation(t *testing.T) {
	h := newCodingHandlers(&coding.MockModelClient{})

	cases := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", "not json", "Invalid request body"},
		{"missing content", `{"variables": [{"name": "情感", "type": "分类变量"}]}`, "content is required"},
		{"missing variables", `{"content": "一篇新闻"}`, "variables is required"},
	}

	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/code-text", strings.NewReader(c.body))
		rec := httptest.NewRecorder()
		h.CodeTextHandler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", c.name, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), c.want) {
			t.Errorf("%s: expected %q in body, got %s", c.name, c.want, rec.Body.String())
		}
	}
}

func TestCodeTextHandlerSuccess(t *testing.T) {
	mock := &coding.MockModelClient{Replies: []string{`{"情感倾向": "正面"}`}}
	h := newCodingHandlers(mock)

	body := `{
		"content": "这是一篇振奋人心的报道",
		"variables": [{"name": "情感倾向", "type": "分类变量", "options": ["正面", "中立", "负面"]}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/code-text", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CodeTextHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp core.CodingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("Expected success status, got %q", resp.Status)
	}
	if resp.Result["情感倾向"] != "正面" {
		t.Errorf("Unexpected result: %v", resp.Result)
	}
	if len(mock.Requests) != 1 {
		t.Errorf("Expected 1 model call, got %d", len(mock.Requests))
	}
}

func TestCodeTextHandlerNoAPIKey(t *testing.T) {
	// 未配置密钥时返回400并附带配置提示
	h := newCodingHandlers(nil)

	body := `{
		"content": "一篇新闻",
		"variables": [{"name": "情感倾向", "type": "分类变量", "options": ["正面", "负面"]}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/code-text", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CodeTextHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["error"] != "自动编码失败" {
		t.Errorf("Unexpected error field: %v", resp["error"])
	}
	if resp["message"] != "未设置API密钥，请在config.json或环境变量API_KEY中配置后重试" {
		t.Errorf("Expected the configuration hint, got %v", resp["message"])
	}
}

func TestCodeTextHandlerExtractionFailed(t *testing.T) {
	mock := &coding.MockModelClient{Replies: []string{"抱歉，我没法编码。"}}
	h := newCodingHandlers(mock)

	body := `{
		"content": "一篇新闻",
		"variables": [{"name": "情感倾向", "type": "分类变量", "options": ["正面", "负面"]}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/code-text", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CodeTextHandler(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCodeVideoHandlerValidation(t *testing.T) {
	h := newCodingHandlers(&coding.MockModelClient{})

	req := httptest.NewRequest(http.MethodPost, "/code-video", strings.NewReader(`{"variables": [{"name": "v"}]}`))
	rec := httptest.NewRecorder()
	h.CodeVideoHandler(rec, req)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "frames is required") {
		t.Errorf("Expected frames validation error, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/code-video", strings.NewReader(`{"frames": [{"timestamp_sec": 0, "data": "ZjA="}]}`))
	rec = httptest.NewRecorder()
	h.CodeVideoHandler(rec, req)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "variables is required") {
		t.Errorf("Expected variables validation error, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAnalyzeVideoHandlerSuccess(t *testing.T) {
	mock := &coding.MockModelClient{Replies: []string{"帧描述", "视频讲述了一场产品发布会"}}
	h := newCodingHandlers(mock)

	body := `{"frames": [{"timestamp_sec": 0, "data": "ZjA="}]}`
	req := httptest.NewRequest(http.MethodPost, "/analyze-video", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.AnalyzeVideoHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp core.AnalyzeVideoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Analysis != "视频讲述了一场产品发布会" || resp.Status != "success" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestSuggestHandler(t *testing.T) {
	mock := &coding.MockModelClient{Replies: []string{"建议增加情感变量"}}
	h := newCodingHandlers(mock)

	// prompt 是必填项
	req := httptest.NewRequest(http.MethodPost, "/suggest", strings.NewReader(`{"content": "一篇新闻"}`))
	rec := httptest.NewRecorder()
	h.SuggestHandler(rec, req)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "prompt is required") {
		t.Errorf("Expected prompt validation error, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/suggest", strings.NewReader(`{"content": "一篇新闻", "prompt": "请给出编码建议"}`))
	rec = httptest.NewRecorder()
	h.SuggestHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp core.SuggestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Suggestion != "建议增加情感变量" || resp.Status != "success" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestCodingErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{coding.ErrNoAPIKey, http.StatusBadRequest},
		{coding.ErrExtractionFailed, http.StatusUnprocessableEntity},
		{&coding.TransportError{Op: "chat_completion", Err: errors.New("refused")}, http.StatusBadGateway},
		{errors.New("其他错误"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		if got := codingErrorStatus(c.err); got != c.want {
			t.Errorf("codingErrorStatus(%v): expected %d, got %d", c.err, c.want, got)
		}
	}

	// 普通错误的消息原样透传
	body := codingErrorBody("自动编码失败", errors.New("连接超时"))
	if body["message"] != "连接超时" {
		t.Errorf("Expected the raw error message, got %v", body["message"])
	}
}
