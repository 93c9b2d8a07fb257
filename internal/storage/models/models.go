package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// MatchRun 匹配批次表，一次JD对一批简历的完整匹配
type MatchRun struct {
	RunID          string         `gorm:"type:char(36);primaryKey"`
	JobDescription string         `gorm:"type:text;not null"`
	ResumeCount    int            `gorm:"not null"`
	MatchedCount   int            `gorm:"not null"`
	Threshold      float64        `gorm:"type:double;not null"`
	Status         string         `gorm:"type:varchar(50);default:'COMPLETED';index:idx_match_runs_status"`
	ArtifactKeys   datatypes.JSON `gorm:"type:json"` // 产物类型 -> MinIO对象键
	Warnings       datatypes.JSON `gorm:"type:json"`
	ModelVersion   string         `gorm:"type:varchar(100)"`
	CreatedAt      time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_match_runs_created_at"`
	UpdatedAt      time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (MatchRun) TableName() string {
	return "match_runs"
}

// MatchResultRow 单份简历的匹配结果行
type MatchResultRow struct {
	ResultID     uint64    `gorm:"primaryKey;autoIncrement"`
	RunID        string    `gorm:"type:char(36);not null;index:idx_mrr_run_id;uniqueIndex:idx_mrr_run_seq,priority:1"`
	Seq          int       `gorm:"not null;uniqueIndex:idx_mrr_run_seq,priority:2"`
	ResumeName   string    `gorm:"type:varchar(255);not null"`
	MatchPercent float64   `gorm:"type:double;not null"`
	Mobile       string    `gorm:"type:varchar(50)"`
	Email        string    `gorm:"type:varchar(255)"`
	Status       string    `gorm:"type:varchar(50);not null;index:idx_mrr_status"`
	CreatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	MatchRun *MatchRun `gorm:"foreignKey:RunID;references:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (MatchResultRow) TableName() string {
	return "match_result_rows"
}

// StringToJSON 将字符串转换为datatypes.JSON
func StringToJSON(s string) datatypes.JSON {
	return datatypes.JSON(s)
}

// MapToJSON 将map转换为datatypes.JSON
func MapToJSON(m map[string]interface{}) (datatypes.JSON, error) {
	bytes, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// StringMapToJSON 将map[string]string转换为datatypes.JSON
func StringMapToJSON(m map[string]string) (datatypes.JSON, error) {
	bytes, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// StringSliceToJSON 将字符串切片转换为datatypes.JSON
func StringSliceToJSON(s []string) (datatypes.JSON, error) {
	bytes, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}
