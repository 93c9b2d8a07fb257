package models

import (
	"time"
)

// OutboxMessage 事务发件箱消息表
// 与业务写库同事务落库，由MessageRelay轮询发布到RabbitMQ
type OutboxMessage struct {
	ID               uint64     `gorm:"primaryKey;autoIncrement"`
	AggregateID      string     `gorm:"type:char(36);not null;index:idx_outbox_aggregate_id"` // 关联的匹配批次ID
	EventType        string     `gorm:"type:varchar(100);not null"`
	TargetExchange   string     `gorm:"type:varchar(255);not null"`
	TargetRoutingKey string     `gorm:"type:varchar(255);not null"`
	Payload          string     `gorm:"type:text;not null"`
	Status           string     `gorm:"type:varchar(20);default:'PENDING';index:idx_outbox_status"`
	RetryCount       int        `gorm:"default:0"`
	ErrorMessage     string     `gorm:"type:text"`
	ProcessedAt      *time.Time `gorm:"type:datetime(6)"`
	CreatedAt        time.Time  `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_outbox_created_at"`
}

func (OutboxMessage) TableName() string {
	return "outbox_messages"
}
