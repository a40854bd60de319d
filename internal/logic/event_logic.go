package logic

import (
	"context"
	"errors"
	"time"

	"github.com/blues/fundraiser/internal/model"
	"github.com/blues/fundraiser/internal/repository"
	"gorm.io/gorm"
)

// EventLogic 活动业务逻辑
type EventLogic struct {
	events *repository.EventRepository
}

// NewEventLogic 创建活动业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{events: repository.NewEventRepository(db)}
}

// GetActive 获取进行中的活动
func (e *EventLogic) GetActive(ctx context.Context) (*model.EventModel, error) {
	event, err := e.events.FindActive(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveEvent
		}
		return nil, err
	}
	return event, nil
}

// CloseExpired 关闭已过结束时间的活动
func (e *EventLogic) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	return e.events.CloseExpired(ctx, now)
}
