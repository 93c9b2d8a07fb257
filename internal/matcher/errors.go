package matcher

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrEmptyJobDescription = errors.New("职位描述为空")
	ErrEmptyBatch          = errors.New("简历批次为空")
	ErrExtractTextFailed   = errors.New("提取简历文本失败")
	ErrConvertFailed       = errors.New("转换简历文档失败")
	ErrEmbeddingFailed     = errors.New("文本向量化失败")
	ErrDimensionMismatch   = errors.New("向量维度不一致")
)

// MatchError 包含详细错误信息的自定义错误
type MatchError struct {
	ResumeName string
	Op         string
	BaseErr    error
	Detail     string
}

func (e *MatchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 文件:%s): %s", e.BaseErr, e.Op, e.ResumeName, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 文件:%s)", e.BaseErr, e.Op, e.ResumeName)
}

func (e *MatchError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *MatchError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewExtractError(resumeName, detail string) error {
	return &MatchError{
		ResumeName: resumeName,
		Op:         "extract",
		BaseErr:    ErrExtractTextFailed,
		Detail:     detail,
	}
}

func NewConvertError(resumeName, detail string) error {
	return &MatchError{
		ResumeName: resumeName,
		Op:         "convert",
		BaseErr:    ErrConvertFailed,
		Detail:     detail,
	}
}

func NewEmbeddingError(resumeName, detail string) error {
	return &MatchError{
		ResumeName: resumeName,
		Op:         "embed",
		BaseErr:    ErrEmbeddingFailed,
		Detail:     detail,
	}
}
