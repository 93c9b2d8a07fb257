package gen

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// 测试用例报表的列名，与解析出的7个字段一一对应
var TestCaseColumns = []string{"Test ID", "Title", "Preconditions", "Steps", "Expected Result", "Type", "Severity"}

// 合法测试用例行的前缀：TC加三位数字加逗号
var testCaseLinePattern = regexp.MustCompile(`^TC\d{3},`)

// TestCase 一条结构化的手工测试用例
type TestCase struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Preconditions  string `json:"preconditions"`
	Steps          string `json:"steps"`
	ExpectedResult string `json:"expected_result"`
	Type           string `json:"type"`
	Severity       string `json:"severity"`
}

// TestCaseRequest 测试用例生成的输入
type TestCaseRequest struct {
	FeatureName string `json:"feature_name"`
	Description string `json:"description"`
	NumCases    int    `json:"num_cases"` // 缺省为5
}

// TestCaseGenerator 基于对话模型生成结构化测试用例
type TestCaseGenerator struct {
	chatModel model.ChatModel
	logger    zerolog.Logger
}

// NewTestCaseGenerator 创建测试用例生成器
func NewTestCaseGenerator(chatModel model.ChatModel, logger zerolog.Logger) *TestCaseGenerator {
	return &TestCaseGenerator{
		chatModel: chatModel,
		logger:    logger,
	}
}

// Generate 生成并解析指定数量的测试用例
func (g *TestCaseGenerator) Generate(ctx context.Context, req TestCaseRequest) ([]TestCase, error) {
	if strings.TrimSpace(req.FeatureName) == "" {
		return nil, fmt.Errorf("功能名称不能为空")
	}
	numCases := req.NumCases
	if numCases <= 0 {
		numCases = 5
	}

	prompt := fmt.Sprintf(`You are a senior QA engineer.

Generate exactly %d clear, structured, one-line manual test cases.

Feature: %s
Description: %s

Each test case must be ONE SINGLE LINE in this format:
Test ID, Title, Preconditions, Steps, Expected Result, Type, Severity

Example:
TC001, Verify login with valid credentials, User must have valid account, 1. Open login page 2. Enter credentials 3. Click Login, User should be redirected to dashboard, Positive, High

Rules:
- Write exactly %d test cases (TC001 onwards)
- Each must have exactly 6 commas (7 fields total)
- Output only the test case lines (no bullets, numbering, or comments)
- Order test cases from most complex to simplest
- Use concise QA-style language`, numCases, req.FeatureName, req.Description, numCases)

	messages := []*schema.Message{
		schema.UserMessage(prompt),
	}

	result, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("测试用例生成失败: %w", err)
	}

	cases := ParseTestCases(result.Content, numCases)
	if len(cases) == 0 {
		return nil, fmt.Errorf("模型输出中没有合法的测试用例行")
	}

	g.logger.Info().
		Str("feature", req.FeatureName).
		Int("requested", numCases).
		Int("parsed", len(cases)).
		Msg("测试用例生成完成")
	return cases, nil
}

// ParseTestCases 从模型输出中抽取合法的测试用例行。
// 只接受以TC###,开头且恰好包含6个逗号（7个字段）的行，最多保留maxCases条。
func ParseTestCases(text string, maxCases int) []TestCase {
	var cases []TestCase
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !testCaseLinePattern.MatchString(line) || strings.Count(line, ",") != 6 {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cases = append(cases, TestCase{
			ID:             parts[0],
			Title:          parts[1],
			Preconditions:  parts[2],
			Steps:          parts[3],
			ExpectedResult: parts[4],
			Type:           parts[5],
			Severity:       parts[6],
		})
		if len(cases) == maxCases {
			break
		}
	}
	return cases
}

// ExportTestCasesXLSX 把测试用例渲染为xlsx表格
func ExportTestCasesXLSX(cases []TestCase) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(TestCaseColumns))
	for i, col := range TestCaseColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("写入表头失败: %w", err)
	}

	for i, tc := range cases {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("计算单元格坐标失败: %w", err)
		}
		row := []interface{}{tc.ID, tc.Title, tc.Preconditions, tc.Steps, tc.ExpectedResult, tc.Type, tc.Severity}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("写入第%d行失败: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("序列化xlsx失败: %w", err)
	}
	return buf.Bytes(), nil
}
