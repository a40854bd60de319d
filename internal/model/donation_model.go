package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending" // 已初始化，等待确认
	PaymentStatusSuccess PaymentStatus = "success" // 终态
	PaymentStatusFailed  PaymentStatus = "failed"  // 终态
)

// Terminal 是否为终态
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// DonationModel 捐款记录
type DonationModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	// 捐款人信息
	Name    string `json:"name" gorm:"not null"`
	Email   string `json:"email" gorm:"not null"`
	Phone   string `json:"phone" gorm:"not null"`
	Message string `json:"message" gorm:"type:text"`

	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	PaymentMethod string          `json:"payment_method" gorm:"not null"`
	PaymentStatus PaymentStatus   `json:"payment_status" gorm:"size:16;not null;index"`

	// 网关信息
	Reference        string `json:"reference" gorm:"size:64;not null;uniqueIndex"`
	AuthorizationURL string `json:"-"`
}

// TableName 自定义表名
func (DonationModel) TableName() string {
	return "donations"
}
