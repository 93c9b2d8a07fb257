package constants

import "time"

const (
	// 匹配状态（英文输出，直接进入报表）
	StatusMatched    = "Matched"
	StatusNotMatched = "Not Matched"

	// 联系方式哨兵值
	// SentinelNotFound 表示提取了文本但未匹配到手机号/邮箱
	SentinelNotFound = "Not Found"
	// SentinelNoText 表示文本提取失败，联系字段根本没有运行过
	SentinelNoText = "-"

	// 自适应阈值的固定策略参数，不可配置
	ThresholdFloor      = 25.0
	ThresholdMultiplier = 0.8

	// MatchPercentPrecision 匹配百分比保留的小数位数
	MatchPercentPrecision = 2

	// 匹配运行状态
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"

	// 报表产物类型
	ArtifactXLSX = "xlsx"
	ArtifactCSV  = "csv"
	ArtifactPDF  = "pdf"

	// 缓存时长
	JobVectorCacheDuration = 24 * time.Hour
	TextMD5RecordDuration  = 24 * time.Hour
)

// ReportColumns 报表列名，与CSV/表格文档的列顺序一致
var ReportColumns = []string{"S.No", "Resume Name", "Match %", "Mobile Number", "Email", "Status"}

// SkillVocabulary 技能关键词词表
// 归一化器按整词、不区分大小写扫描这些词条；顺序即扫描优先级
var SkillVocabulary = []string{
	"Java",
	"Python",
	"AWS",
	"SQL",
	"Testing",
	"Machine Learning",
	"AI",
	"Automation",
	"DevOps",
	"Selenium",
	"C++",
	"Cloud",
}
