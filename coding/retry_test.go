package coding

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	// 一直失败的操作应该刚好执行 MaxRetries 次，并把最后一次的错误返回
	policy := RetryPolicy{MaxRetries: 3, InitialBackoff: time.Millisecond, BackoffFactor: 2}

	calls := 0
	err := policy.Do("alwaysFail", func() error {
		calls++
		return fmt.Errorf("第%d次失败", calls)
	})

	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
	if err == nil {
		t.Fatal("Expected an error after all attempts failed")
	}
	if err.Error() != "第3次失败" {
		t.Errorf("Expected the last error to propagate, got %v", err)
	}
}

func TestRetryPolicySucceedsOnSecondAttempt(t *testing.T) {
	// 第二次成功后立即返回，不再继续尝试
	policy := RetryPolicy{MaxRetries: 3, InitialBackoff: time.Millisecond, BackoffFactor: 2}

	calls := 0
	err := policy.Do("secondTry", func() error {
		calls++
		if calls < 2 {
			return errors.New("暂时失败")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls)
	}
}

func TestRetryPolicyBackoffGrowth(t *testing.T) {
	// 退避时间按倍数增长：10ms + 20ms，总等待不少于30ms
	policy := RetryPolicy{MaxRetries: 3, InitialBackoff: 10 * time.Millisecond, BackoffFactor: 2}

	start := time.Now()
	_ = policy.Do("backoff", func() error { return errors.New("失败") })
	elapsed := time.Since(start)

	if elapsed < 30*time.Millisecond {
		t.Errorf("Expected at least 30ms of backoff, got %v", elapsed)
	}
	t.Logf("Total backoff time: %v", elapsed)
}

func TestRetryPolicySingleAttempt(t *testing.T) {
	// 只允许一次尝试时，最后一次失败后不再等待
	policy := RetryPolicy{MaxRetries: 1, InitialBackoff: time.Hour, BackoffFactor: 2}

	calls := 0
	start := time.Now()
	err := policy.Do("single", func() error {
		calls++
		return errors.New("失败")
	})

	if calls != 1 {
		t.Errorf("Expected exactly 1 attempt, got %d", calls)
	}
	if err == nil {
		t.Error("Expected the failure to propagate")
	}
	if time.Since(start) > time.Second {
		t.Error("Expected no backoff sleep after the final attempt")
	}
}
