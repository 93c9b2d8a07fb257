package matcher

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-matcher-go/internal/constants"
	"resume-matcher-go/internal/parser"
	"resume-matcher-go/internal/tracing"
	"resume-matcher-go/internal/types"
)

// JobVectorCache 职位描述向量缓存，同一JD在缓存有效期内不重复向量化
type JobVectorCache interface {
	// GetJobVector 按签名哈希取缓存向量，第二个返回值表示是否命中
	GetJobVector(ctx context.Context, signatureHash string) ([]float64, bool, error)
	// SetJobVector 写入JD向量缓存
	SetJobVector(ctx context.Context, signatureHash string, vector []float64) error
}

// ParsedTextDeduper 解析文本去重器，识别同一批次外重复提交的简历文本
type ParsedTextDeduper interface {
	// CheckAndAddParsedTextMD5 记录文本MD5，返回true表示首次出现
	CheckAndAddParsedTextMD5(ctx context.Context, md5Hex string) (bool, error)
}

// Engine 匹配排序引擎，编排提取、归一化、向量化、打分和分类的完整流程
type Engine struct {
	extractor    parser.TextExtractor
	converter    parser.DocumentConverter
	embedder     embedding.Embedder
	modelVersion string

	// 可选组件，nil时对应能力静默关闭
	vectorCache JobVectorCache
	deduper     ParsedTextDeduper

	logger zerolog.Logger
	tracer trace.Tracer
}

// EngineOption 引擎的配置选项
type EngineOption func(*Engine)

// WithVectorCache 启用JD向量缓存
func WithVectorCache(cache JobVectorCache) EngineOption {
	return func(e *Engine) {
		e.vectorCache = cache
	}
}

// WithDeduper 启用解析文本MD5去重记录
func WithDeduper(deduper ParsedTextDeduper) EngineOption {
	return func(e *Engine) {
		e.deduper = deduper
	}
}

// WithEngineLogger 配置引擎日志记录器
func WithEngineLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithModelVersion 配置向量模型版本标识，参与缓存键计算
func WithModelVersion(version string) EngineOption {
	return func(e *Engine) {
		e.modelVersion = version
	}
}

// NewEngine 创建匹配排序引擎
func NewEngine(extractor parser.TextExtractor, converter parser.DocumentConverter, embedder embedding.Embedder, options ...EngineOption) *Engine {
	engine := &Engine{
		extractor: extractor,
		converter: converter,
		embedder:  embedder,
		logger:    zerolog.Nop(),
		tracer:    otel.Tracer("matcher-engine"),
	}

	for _, option := range options {
		option(engine)
	}

	return engine
}

// Rank 对一批简历与一份职位描述做语义匹配，返回排好序的结果表。
// 单份简历的任何失败都不会中断批次，唯一的中止条件是输入前置检查。
func (e *Engine) Rank(ctx context.Context, job string, resumes []types.ResumeDocument) (*types.ResultTable, error) {
	// 前置检查：空JD或空批次直接拒绝
	if strings.TrimSpace(job) == "" {
		return nil, ErrEmptyJobDescription
	}
	if len(resumes) == 0 {
		return nil, ErrEmptyBatch
	}

	ctx, span := e.tracer.Start(ctx, "Engine.Rank",
		trace.WithAttributes(
			attribute.Int("resume.count", len(resumes)),
			attribute.String("job.description", tracing.SafeJobDescription(job)),
		))
	defer span.End()

	table := &types.ResultTable{}

	// JD只归一化和向量化一次，整个批次复用同一个向量
	jobVector, err := e.embedJobDescription(ctx, job)
	if err != nil {
		// 向量模型不可用是唯一不可恢复的条件
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		return nil, err
	}

	for _, resume := range resumes {
		if resume.Format == types.FormatUnsupported {
			warning := fmt.Sprintf("不支持的文件格式，已跳过: %s", resume.FileName)
			e.logger.Warn().Str("file", resume.FileName).Msg("不支持的简历格式")
			table.Warnings = append(table.Warnings, warning)
			continue
		}

		result := e.processResume(ctx, resume, jobVector, table)
		table.Results = append(table.Results, result)
	}

	// 降序稳定排序，同分保持提交顺序
	sort.SliceStable(table.Results, func(i, j int) bool {
		return table.Results[i].MatchPercent > table.Results[j].MatchPercent
	})

	// 自适应阈值：max(下限, 均值×系数)
	table.Threshold = computeThreshold(table.Results)

	for i := range table.Results {
		if table.Results[i].MatchPercent >= table.Threshold {
			table.Results[i].Status = constants.StatusMatched
		} else {
			table.Results[i].Status = constants.StatusNotMatched
		}
		table.Results[i].Seq = i + 1
	}

	e.logger.Info().
		Int("resumes", len(table.Results)).
		Int("matched", table.MatchedCount()).
		Float64("threshold", table.Threshold).
		Msg("匹配批次完成")

	return table, nil
}

// embedJobDescription 归一化JD并返回其向量，优先走缓存
func (e *Engine) embedJobDescription(ctx context.Context, job string) ([]float64, error) {
	signature := Normalize(job)
	signatureHash := textMD5(signature + "|" + e.modelVersion)

	if e.vectorCache != nil {
		if vector, ok, err := e.vectorCache.GetJobVector(ctx, signatureHash); err != nil {
			e.logger.Warn().Err(err).Msg("读取JD向量缓存失败，回退到重新向量化")
		} else if ok {
			e.logger.Debug().Str("hash", signatureHash).Msg("JD向量缓存命中")
			return vector, nil
		}
	}

	vectors, err := e.embedder.EmbedStrings(ctx, []string{signature})
	if err != nil {
		return nil, fmt.Errorf("职位描述向量化失败: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("职位描述向量化返回空结果")
	}

	if e.vectorCache != nil {
		if err := e.vectorCache.SetJobVector(ctx, signatureHash, vectors[0]); err != nil {
			e.logger.Warn().Err(err).Msg("写入JD向量缓存失败")
		}
	}
	return vectors[0], nil
}

// processResume 处理单份简历，任何失败都降级为零分结果而不是错误
func (e *Engine) processResume(ctx context.Context, resume types.ResumeDocument, jobVector []float64, table *types.ResultTable) types.MatchResult {
	ctx, span := e.tracer.Start(ctx, "Engine.processResume",
		trace.WithAttributes(attribute.String("resume.file", resume.FileName)))
	defer span.End()

	rawText := e.extractText(ctx, resume, table)

	// 空文本是合法的终态：零分占位结果，联系方式用"-"占位（提取从未运行过）
	if strings.TrimSpace(rawText) == "" {
		return types.MatchResult{
			ResumeName:   resume.FileName,
			MatchPercent: 0,
			Mobile:       constants.SentinelNoText,
			Email:        constants.SentinelNoText,
		}
	}

	// 联系方式从原始文本提取，与归一化无关
	result := types.MatchResult{
		ResumeName: resume.FileName,
		Mobile:     ExtractMobile(rawText),
		Email:      ExtractEmail(rawText),
	}

	if e.deduper != nil {
		if fresh, err := e.deduper.CheckAndAddParsedTextMD5(ctx, textMD5(rawText)); err != nil {
			e.logger.Warn().Err(err).Str("file", resume.FileName).Msg("解析文本去重检查失败")
		} else if !fresh {
			e.logger.Info().Str("file", resume.FileName).Msg("检测到重复提交的简历文本")
		}
	}

	signature := Normalize(rawText)
	vectors, err := e.embedder.EmbedStrings(ctx, []string{signature})
	if err != nil || len(vectors) == 0 {
		// 单份简历的向量化失败不中断批次，降级为零分
		warning := fmt.Sprintf("简历向量化失败，计为零分: %s", resume.FileName)
		e.logger.Warn().Err(err).Str("file", resume.FileName).Msg("简历向量化失败")
		tracing.RecordErrorWithInfo(span, err, tracing.ErrorTypeEmbedding,
			attribute.String("resume.signature", tracing.SafeResumeContent(signature)))
		table.Warnings = append(table.Warnings, warning)
		return result
	}

	score, err := Score(jobVector, vectors[0])
	if err != nil {
		warning := fmt.Sprintf("相似度计算失败，计为零分: %s", resume.FileName)
		e.logger.Warn().Err(err).Str("file", resume.FileName).Msg("相似度计算失败")
		table.Warnings = append(table.Warnings, warning)
		return result
	}

	result.MatchPercent = Round2(score)
	span.SetAttributes(attribute.Float64("resume.score", result.MatchPercent))
	return result
}

// extractText 按格式提取简历文本，失败时返回空字符串并追加警告
func (e *Engine) extractText(ctx context.Context, resume types.ResumeDocument, table *types.ResultTable) string {
	data := resume.Data

	if resume.Format == types.FormatDOCX {
		converted, err := e.converter.ConvertToPDF(ctx, resume.FileName, data)
		if err != nil {
			warning := fmt.Sprintf("文档转换失败，计为零分: %s", resume.FileName)
			e.logger.Warn().Err(err).Str("file", resume.FileName).Msg("DOCX转换失败")
			table.Warnings = append(table.Warnings, warning)
			return ""
		}
		data = converted
	}

	text, _, err := e.extractor.ExtractTextFromBytes(ctx, data, resume.FileName, nil)
	if err != nil {
		warning := fmt.Sprintf("文本提取失败，计为零分: %s", resume.FileName)
		e.logger.Warn().Err(err).Str("file", resume.FileName).Msg("文本提取失败")
		table.Warnings = append(table.Warnings, warning)
		return ""
	}
	return text
}

// computeThreshold 计算自适应阈值：max(固定下限, 批次均分×系数)
func computeThreshold(results []types.MatchResult) float64 {
	if len(results) == 0 {
		return constants.ThresholdFloor
	}

	var sum float64
	for _, r := range results {
		sum += r.MatchPercent
	}
	mean := sum / float64(len(results))

	threshold := mean * constants.ThresholdMultiplier
	if threshold < constants.ThresholdFloor {
		threshold = constants.ThresholdFloor
	}
	return threshold
}

func textMD5(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
