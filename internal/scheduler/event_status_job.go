package scheduler

import (
	"context"
	"time"

	"github.com/blues/fundraiser/internal/config"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/logic"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// EventStatusJob 活动到期后关闭
type EventStatusJob struct {
	eventLogic *logic.EventLogic
	config     *config.Config
	now        func() time.Time
}

// NewEventStatusJob 创建活动状态更新任务
func NewEventStatusJob(db *gorm.DB, cfg *config.Config) *EventStatusJob {
	return &EventStatusJob{
		eventLogic: logic.NewEventLogic(db),
		config:     cfg,
		now:        time.Now,
	}
}

// GetName 获取任务名称
func (j *EventStatusJob) GetName() string {
	return "event_status_updater"
}

// GetSchedule 获取调度配置
func (j *EventStatusJob) GetSchedule() gocron.JobDefinition {
	interval := j.config.Scheduler.Interval
	if interval <= 0 {
		interval = 60
	}
	return gocron.DurationJob(time.Duration(interval) * time.Second)
}

// Execute 执行任务
func (j *EventStatusJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	closed, err := j.eventLogic.CloseExpired(ctx, j.now())
	if err != nil {
		logger.Error("Failed to close expired events: %v", err)
		return
	}
	if closed > 0 {
		logger.Info("Closed %d expired event(s)", closed)
	}
}
