package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// 金额以 JSON 数字输出
	decimal.MarshalJSONWithoutQuotes = true
}

// EventStatus 活动状态
type EventStatus string

const (
	EventStatusActive EventStatus = "active" // 进行中，同一时间最多一个
	EventStatusClosed EventStatus = "closed" // 已结束
)

// EventModel 募捐活动
type EventModel struct {
	Id          string `json:"id" gorm:"primaryKey;size:36"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description" gorm:"type:text;not null"`

	// 金额信息
	Goal          decimal.Decimal `json:"goal" gorm:"type:decimal(12,2);not null"`
	CurrentAmount decimal.Decimal `json:"current_amount" gorm:"type:decimal(12,2);not null"`

	// 时间信息
	StartDate time.Time  `json:"start_date" gorm:"not null"`
	EndDate   *time.Time `json:"end_date"`

	Status EventStatus `json:"status" gorm:"size:16;not null;index"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "events"
}
