package handler

import (
	"context"
	"fmt"

	"resume-matcher-go/internal/gen"
)

// GenHandler 文本生成处理器，封装求职信与测试用例生成
type GenHandler struct {
	coverLetter *gen.CoverLetterGenerator
	testCases   *gen.TestCaseGenerator
}

// NewGenHandler 创建生成处理器
func NewGenHandler(coverLetter *gen.CoverLetterGenerator, testCases *gen.TestCaseGenerator) *GenHandler {
	return &GenHandler{
		coverLetter: coverLetter,
		testCases:   testCases,
	}
}

// CoverLetterResponse 求职信生成响应
type CoverLetterResponse struct {
	CoverLetter string `json:"cover_letter"`
}

// HandleCoverLetter 生成求职信
func (h *GenHandler) HandleCoverLetter(ctx context.Context, req gen.CoverLetterRequest) (*CoverLetterResponse, error) {
	if h.coverLetter == nil {
		return nil, fmt.Errorf("求职信生成器未初始化")
	}
	text, err := h.coverLetter.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return &CoverLetterResponse{CoverLetter: text}, nil
}

// TestCasesResponse 测试用例生成响应
type TestCasesResponse struct {
	TestCases []gen.TestCase `json:"test_cases"`
}

// HandleTestCases 生成测试用例
func (h *GenHandler) HandleTestCases(ctx context.Context, req gen.TestCaseRequest) (*TestCasesResponse, error) {
	if h.testCases == nil {
		return nil, fmt.Errorf("测试用例生成器未初始化")
	}
	cases, err := h.testCases.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return &TestCasesResponse{TestCases: cases}, nil
}

// HandleTestCasesXLSX 生成测试用例并导出为xlsx
func (h *GenHandler) HandleTestCasesXLSX(ctx context.Context, req gen.TestCaseRequest) ([]byte, error) {
	resp, err := h.HandleTestCases(ctx, req)
	if err != nil {
		return nil, err
	}
	return gen.ExportTestCasesXLSX(resp.TestCases)
}
