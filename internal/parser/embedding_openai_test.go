package parser

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-matcher-go/internal/config"
)

// newTestEmbedder 构造指向本地httptest服务的向量化器
func newTestEmbedder(t *testing.T, handler http.HandlerFunc) (*OpenAIEmbedder, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	embedder, err := NewOpenAIEmbedder(config.EmbeddingConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Model:      "text-embedding-v3",
		Dimensions: 4,
	})
	require.NoError(t, err, "创建向量化器不应失败")
	return embedder, server
}

// TestEmbedStringsNormalizesVectors 验证返回的向量被L2归一化
func TestEmbedStringsNormalizesVectors(t *testing.T) {
	embedder, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"), "请求应携带Bearer令牌")

		resp := openAIEmbeddingResponse{
			Object: "list",
			Data: []openAIDataEntry{
				{Object: "embedding", Index: 0, Embedding: []float64{3, 0, 4, 0}},
			},
			Model: "text-embedding-v3",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	vectors, err := embedder.EmbedStrings(context.Background(), []string{"java python"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)

	// [3,0,4,0] 的模长是5，归一化后应为[0.6,0,0.8,0]
	assert.InDelta(t, 0.6, vectors[0][0], 1e-9)
	assert.InDelta(t, 0.8, vectors[0][2], 1e-9)

	var norm float64
	for _, v := range vectors[0] {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9, "归一化后向量模长应为1")
}

// TestEmbedStringsReordersByIndex 验证乱序返回的向量按Index重排
func TestEmbedStringsReordersByIndex(t *testing.T) {
	embedder, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		resp := openAIEmbeddingResponse{
			Object: "list",
			Data: []openAIDataEntry{
				{Object: "embedding", Index: 1, Embedding: []float64{0, 1, 0, 0}},
				{Object: "embedding", Index: 0, Embedding: []float64{1, 0, 0, 0}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	vectors, err := embedder.EmbedStrings(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, 1.0, vectors[0][0], "第一条文本的向量应排在前面")
	assert.Equal(t, 1.0, vectors[1][1], "第二条文本的向量应排在后面")
}

// TestEmbedStringsAPIError 验证非200响应被转换为错误
func TestEmbedStringsAPIError(t *testing.T) {
	embedder, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"message": "invalid api key",
			"type":    "auth_error",
		})
	})

	_, err := embedder.EmbedStrings(context.Background(), []string{"text"})
	require.Error(t, err, "认证失败应返回错误")
	assert.Contains(t, err.Error(), "invalid api key")
}

// TestEmbedStringsEmptyInput 验证空输入直接返回空结果，不发起请求
func TestEmbedStringsEmptyInput(t *testing.T) {
	called := false
	embedder, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	vectors, err := embedder.EmbedStrings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.False(t, called, "空输入不应发起HTTP请求")
}

// TestNewOpenAIEmbedderRequiresKey 验证缺少API Key时报错
func TestNewOpenAIEmbedderRequiresKey(t *testing.T) {
	_, err := NewOpenAIEmbedder(config.EmbeddingConfig{})
	require.Error(t, err, "缺少API密钥应返回错误")
}

// TestNormalizeL2ZeroVector 验证零向量不会被除零
func TestNormalizeL2ZeroVector(t *testing.T) {
	v := NormalizeL2([]float64{0, 0, 0})
	assert.Equal(t, []float64{0, 0, 0}, v, "零向量应原样返回")
}
