package gen

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseTestCasesValidLines 验证合法行被解析为7字段结构
func TestParseTestCasesValidLines(t *testing.T) {
	output := `Here are the test cases:
TC001, Verify login with valid credentials, User must have valid account, 1. Open login page 2. Enter credentials 3. Click Login, User should be redirected to dashboard, Positive, High
TC002, Verify login with wrong password, User exists, 1. Open login page 2. Enter wrong password, Error message shown, Negative, Medium
Some trailing commentary.`

	cases := ParseTestCases(output, 5)
	require.Len(t, cases, 2)

	assert.Equal(t, "TC001", cases[0].ID)
	assert.Equal(t, "Verify login with valid credentials", cases[0].Title)
	assert.Equal(t, "User must have valid account", cases[0].Preconditions)
	assert.Equal(t, "1. Open login page 2. Enter credentials 3. Click Login", cases[0].Steps)
	assert.Equal(t, "User should be redirected to dashboard", cases[0].ExpectedResult)
	assert.Equal(t, "Positive", cases[0].Type)
	assert.Equal(t, "High", cases[0].Severity)
	assert.Equal(t, "TC002", cases[1].ID)
}

// TestParseTestCasesRejectsMalformedLines 验证前缀或逗号数不符的行被丢弃
func TestParseTestCasesRejectsMalformedLines(t *testing.T) {
	output := `TC1, too short prefix, a, b, c, d, e
TC001, only five fields, a, b, c, d
TC002, too many fields, a, b, c, d, e, f
- TC003, bulleted line, a, b, c, d, e
TC004, valid line, a, b, c, d, e`

	cases := ParseTestCases(output, 5)
	require.Len(t, cases, 1, "只有逗号数恰好为6且前缀合法的行被接受")
	assert.Equal(t, "TC004", cases[0].ID)
}

// TestParseTestCasesKeepsFirstN 验证超出上限的合法行被截断
func TestParseTestCasesKeepsFirstN(t *testing.T) {
	output := `TC001, a, b, c, d, e, f
TC002, a, b, c, d, e, f
TC003, a, b, c, d, e, f`

	cases := ParseTestCases(output, 2)
	require.Len(t, cases, 2)
	assert.Equal(t, "TC001", cases[0].ID)
	assert.Equal(t, "TC002", cases[1].ID)
}

// stubChatModel 返回固定内容的对话模型
type stubChatModel struct {
	content string
	err     error
}

func (s *stubChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.content, nil), nil
}

func (s *stubChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, assert.AnError
}

func (s *stubChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

// TestTestCaseGeneratorEndToEnd 验证生成器把模型输出解析为结构化用例
func TestTestCaseGeneratorEndToEnd(t *testing.T) {
	stub := &stubChatModel{content: `TC001, Check search, Index ready, 1. Type query 2. Press enter, Results shown, Positive, High`}
	generator := NewTestCaseGenerator(stub, zerolog.Nop())

	cases, err := generator.Generate(context.Background(), TestCaseRequest{
		FeatureName: "Search",
		Description: "full text search box",
	})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "Check search", cases[0].Title)
}

// TestTestCaseGeneratorNoValidOutput 验证模型输出全不合法时报错
func TestTestCaseGeneratorNoValidOutput(t *testing.T) {
	stub := &stubChatModel{content: "I cannot generate test cases."}
	generator := NewTestCaseGenerator(stub, zerolog.Nop())

	_, err := generator.Generate(context.Background(), TestCaseRequest{FeatureName: "X"})
	require.Error(t, err)
}

// TestTestCaseGeneratorEmptyFeature 验证空功能名被拒绝
func TestTestCaseGeneratorEmptyFeature(t *testing.T) {
	generator := NewTestCaseGenerator(&stubChatModel{}, zerolog.Nop())
	_, err := generator.Generate(context.Background(), TestCaseRequest{})
	require.Error(t, err)
}

// TestCoverLetterGenerator 验证求职信生成的正常与异常路径
func TestCoverLetterGenerator(t *testing.T) {
	stub := &stubChatModel{content: "Dear hiring manager, ..."}
	generator := NewCoverLetterGenerator(stub, zerolog.Nop())

	output, err := generator.Generate(context.Background(), CoverLetterRequest{
		JobTitle: "QA Engineer",
		Skills:   "Selenium, Python",
	})
	require.NoError(t, err)
	assert.Contains(t, output, "Dear hiring manager")

	_, err = generator.Generate(context.Background(), CoverLetterRequest{})
	require.Error(t, err, "空职位名称应被拒绝")
}

// TestExportTestCasesXLSX 验证用例表格可以被序列化
func TestExportTestCasesXLSX(t *testing.T) {
	data, err := ExportTestCasesXLSX([]TestCase{
		{ID: "TC001", Title: "t", Preconditions: "p", Steps: "s", ExpectedResult: "e", Type: "Positive", Severity: "High"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
