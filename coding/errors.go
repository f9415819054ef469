package coding

import (
	"errors"
	"fmt"
)

// 哨兵错误，调用方用 errors.Is 区分失败类别
var (
	// ErrNoAPIKey 表示尚未配置API密钥，在发起任何网络请求之前返回
	ErrNoAPIKey = errors.New("未设置API密钥")

	// ErrExtractionFailed 表示所有解析策略都无法从模型回复中提取编码结果
	ErrExtractionFailed = errors.New("无法从响应中提取JSON")
)

// TransportError 表示对模型服务的调用失败（网络错误或HTTP错误状态），
// 重试耗尽之后才会返回给调用方
type TransportError struct {
	Op  string // 失败的操作，例如 "chat_completion"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
