package types

import (
	"path/filepath"
	"strings"
	"time"
)

// FileFormat 简历文件的声明格式，按文件扩展名判定
type FileFormat string

const (
	FormatPDF         FileFormat = "pdf"
	FormatDOCX        FileFormat = "docx"
	FormatUnsupported FileFormat = "unsupported"
)

// FormatFromFilename 根据文件扩展名判定格式，大小写不敏感
func FormatFromFilename(name string) FileFormat {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	default:
		return FormatUnsupported
	}
}

// ResumeDocument 一次匹配运行中上传的单份简历
// 生命周期：上传时创建，文本提取后即丢弃，不做持久化
type ResumeDocument struct {
	FileName string     // 原始文件名，同时作为结果中的简历标识
	Format   FileFormat // 声明格式
	Data     []byte     // 原始二进制内容
}

// MatchResult 单份简历的匹配结果
type MatchResult struct {
	Seq          int     `json:"seq"`           // 1起始的序号，排序后分配
	ResumeName   string  `json:"resume_name"`   // 简历文件名
	MatchPercent float64 `json:"match_percent"` // 匹配百分比，保留2位小数
	Mobile       string  `json:"mobile"`        // 手机号或哨兵值
	Email        string  `json:"email"`         // 邮箱或哨兵值
	Status       string  `json:"status"`        // Matched / Not Matched
}

// ResultTable 一次运行的有序结果集
// 按MatchPercent降序排列，序号连续且从1开始；同分保持提交顺序
type ResultTable struct {
	Results   []MatchResult `json:"results"`
	Threshold float64       `json:"threshold"` // 本次运行派生的阈值，不跨运行保留
	Warnings  []string      `json:"warnings"`  // 不支持格式/转换失败等运行级警告
}

// MatchedCount 返回状态为Matched的结果数
func (t *ResultTable) MatchedCount() int {
	n := 0
	for _, r := range t.Results {
		if r.Status == "Matched" {
			n++
		}
	}
	return n
}

// MatchRunCompletedEvent 匹配运行完成事件
// 发布到RabbitMQ，由外部通知/邮件服务消费；邮件投递本身不在本服务内
type MatchRunCompletedEvent struct {
	RunID        string            `json:"run_id"`
	ResumeCount  int               `json:"resume_count"`
	MatchedCount int               `json:"matched_count"`
	Threshold    float64           `json:"threshold"`
	ArtifactKeys map[string]string `json:"artifact_keys,omitempty"` // kind -> 对象存储key
	CompletedAt  time.Time         `json:"completed_at"`
}
