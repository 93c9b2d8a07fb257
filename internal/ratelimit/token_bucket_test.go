package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketAllowDrainsCapacity(t *testing.T) {
	tb := NewTokenBucket(60, 2)

	assert.True(t, tb.Allow(), "第一个令牌应该可用")
	assert.True(t, tb.Allow(), "第二个令牌应该可用")
	assert.False(t, tb.Allow(), "桶耗尽后应拒绝请求")
}

func TestTokenBucketWaitRespectsContext(t *testing.T) {
	// QPM=1 意味着补充一个令牌需要一分钟，上下文应先超时
	tb := NewTokenBucket(1, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryWithBackoffRetriesRetryableErrors(t *testing.T) {
	tb := NewTokenBucket(6000, 100).WithRetryPolicy(time.Millisecond, 3)

	calls := 0
	err := tb.RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("429 Too Many Requests")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls, "前两次可重试失败后应第三次成功")
}

func TestRetryWithBackoffStopsOnPermanentError(t *testing.T) {
	tb := NewTokenBucket(6000, 100).WithRetryPolicy(time.Millisecond, 3)

	calls := 0
	permanent := errors.New("invalid api key")
	err := tb.RetryWithBackoff(context.Background(), func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls, "不可重试错误不应触发重试")
}

type countingEmbedder struct {
	calls int
	fail  int // 前fail次调用返回可重试错误
}

func (c *countingEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	c.calls++
	if c.calls <= c.fail {
		return nil, errors.New("rate limit exceeded")
	}
	return [][]float64{{1, 0}}, nil
}

func TestRateLimitedEmbedderRetries(t *testing.T) {
	inner := &countingEmbedder{fail: 1}
	re := NewRateLimitedEmbedder(inner, 6000).WithRetryPolicy(time.Millisecond, 2)

	vectors, err := re.EmbedStrings(context.Background(), []string{"Java Python"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, 2, inner.calls)
}
