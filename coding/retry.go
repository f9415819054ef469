package coding

import (
	"log"
	"math"
	"time"
)

// RetryPolicy 指数退避重试策略。
// MaxRetries 是总尝试次数（含第一次），不是额外重试次数。
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	BackoffFactor  float64
}

// Do 反复执行 op 直到成功或尝试次数耗尽，返回最后一次的错误。
// 第 n 次失败后等待 InitialBackoff * BackoffFactor^(n-1)。
func (p RetryPolicy) Do(name string, op func() error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		lastErr = err
		log.Printf("函数 %s 调用失败 (尝试 %d/%d): %v", name, attempt, p.MaxRetries, err)

		if attempt < p.MaxRetries {
			sleep := time.Duration(float64(p.InitialBackoff) * math.Pow(p.BackoffFactor, float64(attempt-1)))
			log.Printf("等待 %g 秒后重试...", sleep.Seconds())
			time.Sleep(sleep)
		} else {
			log.Printf("函数 %s 在 %d 次尝试后仍然失败", name, p.MaxRetries)
		}
	}

	return lastErr
}
