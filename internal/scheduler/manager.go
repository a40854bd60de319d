package scheduler

import (
	"fmt"

	"github.com/blues/fundraiser/internal/config"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/middleware"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	config    *config.Config
	limiter   *middleware.RateLimiter
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, cfg *config.Config, limiter *middleware.RateLimiter) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		config:    cfg,
		limiter:   limiter,
	}, nil
}

// Start 创建并启动任务管理器
func Start(db *gorm.DB, cfg *config.Config, limiter *middleware.RateLimiter) (*Manager, error) {
	manager, err := NewManager(db, cfg, limiter)
	if err != nil {
		return nil, err
	}

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager, nil
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.register(NewEventStatusJob(m.db, m.config))

	if m.limiter != nil {
		m.register(NewLimiterCleanupJob(m.limiter, m.config.RateLimit.IdleTTL))
	}
}

// register 以单例模式注册任务，上一次未结束时顺延
func (m *Manager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Jobs 已注册的任务数量
func (m *Manager) Jobs() int {
	return len(m.scheduler.Jobs())
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
