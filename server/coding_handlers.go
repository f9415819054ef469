package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"contentCoder/coding"
	"contentCoder/core"
)

// CodingHandlers 自动编码相关的HTTP处理器
type CodingHandlers struct {
	orchestrator *coding.CodingOrchestrator
}

// NewCodingHandlers 创建编码处理器实例
func NewCodingHandlers(orchestrator *coding.CodingOrchestrator) *CodingHandlers {
	return &CodingHandlers{orchestrator: orchestrator}
}

// codingErrorStatus 把编码错误映射到HTTP状态码：缺少密钥是客户端配置
// 问题，模型服务不可达算网关错误，提取失败说明回复无法处理
func codingErrorStatus(err error) int {
	var transportErr *coding.TransportError
	switch {
	case errors.Is(err, coding.ErrNoAPIKey):
		return http.StatusBadRequest
	case errors.Is(err, coding.ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// codingErrorBody 组装编码错误响应，缺少API密钥时附带配置提示
func codingErrorBody(operation string, err error) map[string]interface{} {
	message := err.Error()
	if errors.Is(err, coding.ErrNoAPIKey) {
		message = "未设置API密钥，请在config.json或环境变量API_KEY中配置后重试"
	}
	return map[string]interface{}{
		"error":   operation,
		"message": message,
	}
}

// CodeTextHandler 文本自动编码
func (h *CodingHandlers) CodeTextHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
			"error":   "Method not allowed",
			"message": "Only POST method is supported",
		})
		return
	}

	var req core.CodeTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}
	if len(req.Variables) == 0 {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "variables is required"})
		return
	}

	result, err := h.orchestrator.CodeText(r.Context(), req.Content, req.Variables, req.CustomPrompt)
	if err != nil {
		core.WriteJSON(w, codingErrorStatus(err), codingErrorBody("自动编码失败", err))
		return
	}

	core.WriteJSON(w, http.StatusOK, core.CodingResponse{Result: result, Status: "success"})
}

// CodeVideoHandler 视频自动编码，帧以base64数据或服务器本地路径提供
func (h *CodingHandlers) CodeVideoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
			"error":   "Method not allowed",
			"message": "Only POST method is supported",
		})
		return
	}

	var req core.CodeVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	if len(req.Frames) == 0 {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "frames is required"})
		return
	}
	if len(req.Variables) == 0 {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "variables is required"})
		return
	}

	result, err := h.orchestrator.CodeVideo(r.Context(), req.Frames, req.Variables, req.CustomPrompt)
	if err != nil {
		core.WriteJSON(w, codingErrorStatus(err), codingErrorBody("自动编码失败", err))
		return
	}

	core.WriteJSON(w, http.StatusOK, core.CodingResponse{Result: result, Status: "success"})
}

// AnalyzeVideoHandler 开放式视频内容分析
func (h *CodingHandlers) AnalyzeVideoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
			"error":   "Method not allowed",
			"message": "Only POST method is supported",
		})
		return
	}

	var req core.AnalyzeVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	if len(req.Frames) == 0 {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "frames is required"})
		return
	}

	analysis, err := h.orchestrator.AnalyzeVideo(r.Context(), req.Frames, req.Prompt)
	if err != nil {
		core.WriteJSON(w, codingErrorStatus(err), codingErrorBody("视频分析失败", err))
		return
	}

	core.WriteJSON(w, http.StatusOK, core.AnalyzeVideoResponse{Analysis: analysis, Status: "success"})
}

// SuggestHandler 获取AI编码建议
func (h *CodingHandlers) SuggestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
			"error":   "Method not allowed",
			"message": "Only POST method is supported",
		})
		return
	}

	var req core.SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "prompt is required"})
		return
	}

	suggestion, err := h.orchestrator.Suggest(r.Context(), req.Content, req.Prompt)
	if err != nil {
		core.WriteJSON(w, codingErrorStatus(err), codingErrorBody("获取AI建议失败", err))
		return
	}

	core.WriteJSON(w, http.StatusOK, core.SuggestResponse{Suggestion: suggestion, Status: "success"})
}
