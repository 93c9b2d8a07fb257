package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-matcher-go/internal/config"
	storage2 "resume-matcher-go/internal/storage"
	"resume-matcher-go/internal/storage/models"
	"resume-matcher-go/internal/types"
)

// ErrStorageUnavailable 历史查询依赖MySQL，未配置时返回此错误
var ErrStorageUnavailable = errors.New("持久化存储未配置")

// RunHandler 历史匹配批次查询处理器
type RunHandler struct {
	cfg     *config.Config
	storage *storage2.Storage
}

// NewRunHandler 创建历史批次查询处理器
func NewRunHandler(cfg *config.Config, storage *storage2.Storage) *RunHandler {
	return &RunHandler{cfg: cfg, storage: storage}
}

// RunSummary 匹配批次摘要
type RunSummary struct {
	RunID        string    `json:"run_id"`
	ResumeCount  int       `json:"resume_count"`
	MatchedCount int       `json:"matched_count"`
	Threshold    float64   `json:"threshold"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunDetail 匹配批次详情，含全部结果行
type RunDetail struct {
	RunSummary
	Results      []types.MatchResult `json:"results"`
	Warnings     []string            `json:"warnings,omitempty"`
	ArtifactKeys map[string]string   `json:"artifact_keys,omitempty"`
}

func summaryFromModel(run *models.MatchRun) RunSummary {
	return RunSummary{
		RunID:        run.RunID,
		ResumeCount:  run.ResumeCount,
		MatchedCount: run.MatchedCount,
		Threshold:    run.Threshold,
		Status:       run.Status,
		CreatedAt:    run.CreatedAt,
	}
}

// ListRuns 按创建时间倒序分页列出匹配批次
func (h *RunHandler) ListRuns(ctx context.Context, limit, offset int) ([]RunSummary, error) {
	if h.storage == nil || h.storage.MySQL == nil {
		return nil, ErrStorageUnavailable
	}

	runs, err := h.storage.MySQL.ListMatchRuns(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	summaries := make([]RunSummary, 0, len(runs))
	for i := range runs {
		summaries = append(summaries, summaryFromModel(&runs[i]))
	}
	return summaries, nil
}

// GetRun 获取匹配批次详情
func (h *RunHandler) GetRun(ctx context.Context, runID string) (*RunDetail, error) {
	if h.storage == nil || h.storage.MySQL == nil {
		return nil, ErrStorageUnavailable
	}

	run, rows, err := h.storage.MySQL.GetMatchRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	detail := &RunDetail{
		RunSummary: summaryFromModel(run),
		Results:    make([]types.MatchResult, 0, len(rows)),
	}
	for _, row := range rows {
		detail.Results = append(detail.Results, types.MatchResult{
			Seq:          row.Seq,
			ResumeName:   row.ResumeName,
			MatchPercent: row.MatchPercent,
			Mobile:       row.Mobile,
			Email:        row.Email,
			Status:       row.Status,
		})
	}

	if len(run.ArtifactKeys) > 0 {
		if err := json.Unmarshal(run.ArtifactKeys, &detail.ArtifactKeys); err != nil {
			return nil, fmt.Errorf("解析产物键失败: %w", err)
		}
	}
	if len(run.Warnings) > 0 {
		if err := json.Unmarshal(run.Warnings, &detail.Warnings); err != nil {
			return nil, fmt.Errorf("解析警告列表失败: %w", err)
		}
	}
	return detail, nil
}

// GetArtifactURL 返回报表产物的预签名下载URL
func (h *RunHandler) GetArtifactURL(ctx context.Context, runID, kind string) (string, error) {
	if h.storage == nil || h.storage.MySQL == nil || h.storage.MinIO == nil {
		return "", ErrStorageUnavailable
	}

	run, _, err := h.storage.MySQL.GetMatchRun(ctx, runID)
	if err != nil {
		return "", err
	}

	var keys map[string]string
	if len(run.ArtifactKeys) > 0 {
		if err := json.Unmarshal(run.ArtifactKeys, &keys); err != nil {
			return "", fmt.Errorf("解析产物键失败: %w", err)
		}
	}
	objectKey, ok := keys[kind]
	if !ok {
		return "", fmt.Errorf("批次 %s 没有类型为 %s 的产物", runID, kind)
	}

	return h.storage.MinIO.GetPresignedURL(ctx, objectKey, 24*time.Hour)
}
