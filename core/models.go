package core

// ========== 编码方案相关结构体 ==========

// VariableKind 变量类型
type VariableKind string

const (
	KindCategorical VariableKind = "分类变量"
	KindLikert      VariableKind = "李克特量表"
	KindNumeric     VariableKind = "数值变量"
	KindText        VariableKind = "文本变量"
)

// Variable 编码方案中的一个变量
type Variable struct {
	Name         string       `json:"name"`
	Kind         VariableKind `json:"type"`
	Options      []string     `json:"options,omitempty"`       // 分类变量的选项，顺序有意义
	LikertScale  int          `json:"likert_scale,omitempty"`  // 李克特量表级数
	LikertLabels []string     `json:"likert_labels,omitempty"` // 量表标签，不足时用序号补齐
	Guide        string       `json:"guide,omitempty"`         // 编码指南，原样注入提示词
}

// CodingResult 变量名到编码值的映射。允许缺少模型未回答的变量，
// 分类变量的值保证在该变量的选项中。
type CodingResult map[string]any

type Frame struct {
	TimestampSec float64 `json:"timestamp_sec"`
	Path         string  `json:"path,omitempty"` // 帧图片文件路径
	Data         string  `json:"data,omitempty"` // base64编码的JPEG，优先于Path
}

// ========== 可靠性测试相关结构体 ==========

// Observation 一名编码员对一个内容条目的全部编码
type Observation struct {
	ContentID string         `json:"content_id"`
	CoderID   string         `json:"coder_id"`
	Values    map[string]any `json:"variables"`
}

// ReliabilityDataset 导入的多编码员数据集，按项目持久化
type ReliabilityDataset struct {
	Data      []Observation  `json:"data"`
	Variables []string       `json:"variables"`
	Results   map[string]any `json:"results,omitempty"`
}

// ========== HTTP请求和响应结构体 ==========

type CodeTextRequest struct {
	Content      string     `json:"content"`
	Variables    []Variable `json:"variables"`
	CustomPrompt string     `json:"custom_prompt,omitempty"`
}

type CodeVideoRequest struct {
	Frames       []Frame    `json:"frames"`
	Variables    []Variable `json:"variables"`
	CustomPrompt string     `json:"custom_prompt,omitempty"`
}

type CodingResponse struct {
	Result  CodingResult `json:"result"`
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
}

type AnalyzeVideoRequest struct {
	Frames []Frame `json:"frames"`
	Prompt string  `json:"prompt,omitempty"`
}

type AnalyzeVideoResponse struct {
	Analysis string `json:"analysis"`
	Status   string `json:"status"`
}

type SuggestRequest struct {
	Content string `json:"content"`
	Prompt  string `json:"prompt"`
}

type SuggestResponse struct {
	Suggestion string `json:"suggestion"`
	Status     string `json:"status"`
}

type CalculateRequest struct {
	Project   string   `json:"project"`
	Variables []string `json:"variables"`
	Methods   []string `json:"methods"`
}

type CalculateResponse struct {
	Project      string         `json:"project"`
	Results      map[string]any `json:"results"`
	Observations int            `json:"observations"`
	Status       string         `json:"status"`
	Message      string         `json:"message,omitempty"`
}

type ImportResponse struct {
	Project   string   `json:"project"`
	Rows      int      `json:"rows"`
	Variables []string `json:"variables"`
	Status    string   `json:"status"`
	Message   string   `json:"message,omitempty"`
}

type ProjectSaveRequest struct {
	Project  string `json:"project"`
	Key      string `json:"key"`
	Document any    `json:"document"`
}
