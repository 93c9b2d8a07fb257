package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScoreIdenticalVectors 验证相同单位向量的得分为100
func TestScoreIdenticalVectors(t *testing.T) {
	v := []float64{0.6, 0.8}
	score, err := Score(v, v)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, score, 1e-9, "相同向量的余弦得分应为100")
}

// TestScoreOrthogonalVectors 验证正交向量得分为0
func TestScoreOrthogonalVectors(t *testing.T) {
	score, err := Score([]float64{1, 0}, []float64{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score, 1e-9)
}

// TestScoreNegativeNotClamped 验证负相似度按原样保留，不做下限截断
func TestScoreNegativeNotClamped(t *testing.T) {
	score, err := Score([]float64{1, 0}, []float64{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -100.0, score, 1e-9, "反向向量的得分应为-100，不被截断为0")
}

// TestScoreDimensionMismatch 验证维度不一致时报错
func TestScoreDimensionMismatch(t *testing.T) {
	_, err := Score([]float64{1, 0}, []float64{1, 0, 0})
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

// TestRound2 验证两位小数舍入
func TestRound2(t *testing.T) {
	assert.Equal(t, 87.65, Round2(87.654))
	assert.Equal(t, 87.66, Round2(87.656))
	assert.Equal(t, 0.0, Round2(0.0049))
}
