package matcher

import (
	"math"
)

// Score 计算两个已做L2归一化向量的余弦相似度并放大到百分制。
// 单位向量的点积即余弦值，落在[-1,1]；负值按原样保留，不做下限截断。
func Score(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot * 100, nil
}

// Round2 四舍五入保留两位小数，结果构造时统一调用
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
