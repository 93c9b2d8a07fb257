package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"resume-matcher-go/internal/config"
	"resume-matcher-go/internal/constants"
	"resume-matcher-go/internal/logger"
	"resume-matcher-go/internal/matcher"
	"resume-matcher-go/internal/report"
	storage2 "resume-matcher-go/internal/storage"
	"resume-matcher-go/internal/storage/models"
	"resume-matcher-go/internal/types"

	"github.com/gofrs/uuid/v5"
)

// MatchHandler 匹配处理器，负责协调一次JD对一批简历的完整匹配流程
type MatchHandler struct {
	cfg      *config.Config
	storage  *storage2.Storage
	engine   *matcher.Engine
	exporter *report.Exporter
}

// NewMatchHandler 创建一个新的匹配处理器
func NewMatchHandler(
	cfg *config.Config,
	storage *storage2.Storage,
	engine *matcher.Engine,
	exporter *report.Exporter,
) *MatchHandler {
	return &MatchHandler{
		cfg:      cfg,
		storage:  storage,
		engine:   engine,
		exporter: exporter,
	}
}

// MatchRunResponse 匹配运行响应
type MatchRunResponse struct {
	RunID        string              `json:"run_id"`
	Results      []types.MatchResult `json:"results"`
	Threshold    float64             `json:"threshold"`
	MatchedCount int                 `json:"matched_count"`
	Warnings     []string            `json:"warnings,omitempty"`
	ArtifactKeys map[string]string   `json:"artifact_keys,omitempty"`
}

// HandleMatch 执行一次完整的匹配运行：
// 打分排序 -> 导出报表 -> 上传产物 -> 落库 -> 发布完成事件。
// 存储侧的失败只降级为警告，匹配结果始终返回。
func (h *MatchHandler) HandleMatch(ctx context.Context, jobDescription string, resumes []types.ResumeDocument) (*MatchRunResponse, error) {
	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	runID := uuidV7.String()

	logger.Info().
		Str("run_id", runID).
		Int("resume_count", len(resumes)).
		Msg("开始匹配运行")

	// 1. 打分排序。输入级错误(空JD/空批次)直接向上返回
	table, err := h.engine.Rank(ctx, jobDescription, resumes)
	if err != nil {
		return nil, err
	}

	// 2. 导出报表产物
	var artifacts *report.Artifacts
	if h.exporter != nil {
		artifacts, err = h.exporter.Export(ctx, table)
		if err != nil {
			logger.Warn().Err(err).Str("run_id", runID).Msg("导出报表失败")
			table.Warnings = append(table.Warnings, fmt.Sprintf("导出报表失败: %v", err))
		} else {
			table.Warnings = append(table.Warnings, artifacts.Warnings...)
		}
	}

	// 3. 上传原始简历与报表到MinIO
	artifactKeys := h.uploadArtifacts(ctx, runID, resumes, artifacts)

	event := types.MatchRunCompletedEvent{
		RunID:        runID,
		ResumeCount:  len(resumes),
		MatchedCount: table.MatchedCount(),
		Threshold:    table.Threshold,
		ArtifactKeys: artifactKeys,
		CompletedAt:  time.Now(),
	}

	// 4. 落库。MySQL可用时完成事件经发件箱同事务落库，由中继投递
	enqueued := h.persistRun(ctx, runID, jobDescription, table, artifactKeys, event)

	// 5. 未走发件箱时直接发布完成事件
	if !enqueued {
		h.publishCompleted(ctx, event)
	}

	return &MatchRunResponse{
		RunID:        runID,
		Results:      table.Results,
		Threshold:    table.Threshold,
		MatchedCount: table.MatchedCount(),
		Warnings:     table.Warnings,
		ArtifactKeys: artifactKeys,
	}, nil
}

// uploadArtifacts 上传原始简历与报表产物，失败只记警告
func (h *MatchHandler) uploadArtifacts(ctx context.Context, runID string, resumes []types.ResumeDocument, artifacts *report.Artifacts) map[string]string {
	artifactKeys := make(map[string]string)
	if h.storage == nil || h.storage.MinIO == nil {
		return artifactKeys
	}

	for _, doc := range resumes {
		if _, err := h.storage.MinIO.UploadResumeFile(ctx, runID, doc.FileName, doc.Data); err != nil {
			logger.Warn().Err(err).Str("run_id", runID).Str("file", doc.FileName).Msg("上传原始简历到MinIO失败")
		}
	}

	if artifacts == nil {
		return artifactKeys
	}

	type artifact struct {
		kind        string
		data        []byte
		contentType string
	}
	for _, a := range []artifact{
		{"xlsx", artifacts.XLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"csv", artifacts.CSV, "text/csv"},
		{"pdf", artifacts.PDF, "application/pdf"},
	} {
		if len(a.data) == 0 {
			continue
		}
		key, err := h.storage.MinIO.UploadArtifact(ctx, runID, a.kind, a.data, a.contentType)
		if err != nil {
			logger.Warn().Err(err).Str("run_id", runID).Str("kind", a.kind).Msg("上传报表产物到MinIO失败")
			continue
		}
		artifactKeys[a.kind] = key
	}
	return artifactKeys
}

// persistRun 保存匹配批次及结果行，失败只记警告。
// 返回完成事件是否已写入发件箱。
func (h *MatchHandler) persistRun(ctx context.Context, runID, jobDescription string, table *types.ResultTable, artifactKeys map[string]string, event types.MatchRunCompletedEvent) bool {
	if h.storage == nil || h.storage.MySQL == nil {
		return false
	}

	keysJSON, err := models.StringMapToJSON(artifactKeys)
	if err != nil {
		logger.Warn().Err(err).Str("run_id", runID).Msg("序列化产物键失败")
	}
	warningsJSON, err := models.StringSliceToJSON(table.Warnings)
	if err != nil {
		logger.Warn().Err(err).Str("run_id", runID).Msg("序列化警告列表失败")
	}

	run := &models.MatchRun{
		RunID:          runID,
		JobDescription: jobDescription,
		ResumeCount:    len(table.Results),
		MatchedCount:   table.MatchedCount(),
		Threshold:      table.Threshold,
		Status:         constants.RunStatusCompleted,
		ArtifactKeys:   keysJSON,
		Warnings:       warningsJSON,
		ModelVersion:   h.cfg.Embedding.Model,
	}

	rows := make([]models.MatchResultRow, 0, len(table.Results))
	for _, r := range table.Results {
		rows = append(rows, models.MatchResultRow{
			RunID:        runID,
			Seq:          r.Seq,
			ResumeName:   r.ResumeName,
			MatchPercent: r.MatchPercent,
			Mobile:       r.Mobile,
			Email:        r.Email,
			Status:       r.Status,
		})
	}

	var outboxMsg *models.OutboxMessage
	if h.storage.RabbitMQ != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			logger.Warn().Err(err).Str("run_id", runID).Msg("序列化完成事件失败")
		} else {
			outboxMsg = &models.OutboxMessage{
				AggregateID:      runID,
				EventType:        "match.run.completed",
				TargetExchange:   h.cfg.RabbitMQ.MatchEventsExchange,
				TargetRoutingKey: h.cfg.RabbitMQ.RunCompletedRoutingKey,
				Payload:          string(payload),
				Status:           "PENDING",
			}
		}
	}

	if err := h.storage.MySQL.SaveMatchRun(ctx, run, rows, outboxMsg); err != nil {
		logger.Warn().Err(err).Str("run_id", runID).Msg("保存匹配批次到MySQL失败")
		return false
	}
	return outboxMsg != nil
}

// publishCompleted 直接发布匹配完成事件，失败只记警告
func (h *MatchHandler) publishCompleted(ctx context.Context, event types.MatchRunCompletedEvent) {
	if h.storage == nil || h.storage.RabbitMQ == nil {
		return
	}
	if err := h.storage.RabbitMQ.PublishRunCompleted(ctx, event); err != nil {
		logger.Warn().Err(err).Str("run_id", event.RunID).Msg("发布匹配完成事件失败")
	}
}
