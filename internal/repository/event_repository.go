package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blues/fundraiser/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// EventRepository 活动存储
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建活动存储
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// WithTx 绑定到事务
func (r *EventRepository) WithTx(tx *gorm.DB) *EventRepository {
	return &EventRepository{db: tx}
}

// FindActive 获取进行中的活动
func (r *EventRepository) FindActive(ctx context.Context) (*model.EventModel, error) {
	var event model.EventModel
	err := r.db.WithContext(ctx).
		Where("status = ?", model.EventStatusActive).
		Order("start_date DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query active event: %w", err)
	}
	return &event, nil
}

// Count 活动总数
func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.EventModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// Create 创建活动
func (r *EventRepository) Create(ctx context.Context, event *model.EventModel) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// AddToActive 累加进行中活动的已筹金额，返回受影响行数
func (r *EventRepository) AddToActive(ctx context.Context, amount decimal.Decimal) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.EventModel{}).
		Where("status = ?", model.EventStatusActive).
		Update("current_amount", gorm.Expr("current_amount + ?", amount))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update event amount: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CloseExpired 关闭已过结束时间的活动
func (r *EventRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.EventModel{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", model.EventStatusActive, now).
		Update("status", model.EventStatusClosed)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to close expired events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
