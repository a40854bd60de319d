package scheduler

import (
	"time"

	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/middleware"
	"github.com/go-co-op/gocron/v2"
)

// LimiterCleanupJob 清理长时间未访问的限流器
type LimiterCleanupJob struct {
	limiter *middleware.RateLimiter
	idle    time.Duration
}

func NewLimiterCleanupJob(limiter *middleware.RateLimiter, idle time.Duration) *LimiterCleanupJob {
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &LimiterCleanupJob{limiter: limiter, idle: idle}
}

func (j *LimiterCleanupJob) GetName() string {
	return "rate_limiter_cleanup"
}

func (j *LimiterCleanupJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.idle)
}

func (j *LimiterCleanupJob) Execute() {
	if removed := j.limiter.Cleanup(j.idle); removed > 0 {
		logger.Debug("Removed %d idle rate limiters", removed)
	}
}
