package gen

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// CoverLetterRequest 求职信生成的输入
type CoverLetterRequest struct {
	JobTitle   string `json:"job_title"`
	Skills     string `json:"skills"`     // 逗号分隔的技能列表
	Experience string `json:"experience"` // 经历摘要
	Company    string `json:"company"`    // 目标公司或职位描述
}

// CoverLetterGenerator 基于对话模型生成简历摘要和求职信
type CoverLetterGenerator struct {
	chatModel model.ChatModel
	logger    zerolog.Logger
}

// NewCoverLetterGenerator 创建求职信生成器
func NewCoverLetterGenerator(chatModel model.ChatModel, logger zerolog.Logger) *CoverLetterGenerator {
	return &CoverLetterGenerator{
		chatModel: chatModel,
		logger:    logger,
	}
}

// Generate 生成专业的简历摘要和求职信文本
func (g *CoverLetterGenerator) Generate(ctx context.Context, req CoverLetterRequest) (string, error) {
	if strings.TrimSpace(req.JobTitle) == "" {
		return "", fmt.Errorf("职位名称不能为空")
	}

	prompt := fmt.Sprintf(`Create a professional resume summary and cover letter for:
Job: %s
Skills: %s
Experience: %s
Company: %s`, req.JobTitle, req.Skills, req.Experience, req.Company)

	messages := []*schema.Message{
		schema.SystemMessage("You are a professional career writer. Produce a concise resume summary followed by a tailored cover letter."),
		schema.UserMessage(prompt),
	}

	result, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("求职信生成失败: %w", err)
	}

	output := strings.TrimSpace(result.Content)
	if output == "" {
		return "", fmt.Errorf("模型返回空内容")
	}

	g.logger.Info().
		Str("job_title", req.JobTitle).
		Int("output_len", len(output)).
		Msg("求职信生成完成")
	return output, nil
}
