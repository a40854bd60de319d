package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/blues/fundraiser/internal/config"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// singleActiveIndex 保证同一时间最多一个进行中的活动，mysql 不支持部分索引
const singleActiveIndex = "CREATE UNIQUE INDEX IF NOT EXISTS idx_events_single_active ON events (status) WHERE status = 'active'"

func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		return sqlite.Open(cfg.Path + "?_busy_timeout=5000&_foreign_keys=on"), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Init 连接数据库，建表并写入默认活动
func Init(cfg config.DatabaseConfig, seed config.EventConfig) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	logMode := gormLogger.Silent
	if logger.ParseLogLevel(cfg.LogLevel) == logger.DEBUG {
		logMode = gormLogger.Info
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: gormLogger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if d.Name() == "sqlite" {
		// 单文件数据库，串行写入避免 database is locked
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// 自动迁移
	if err := db.AutoMigrate(
		&model.EventModel{},
		&model.DonationModel{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if d.Name() != "mysql" {
		if err := db.Exec(singleActiveIndex).Error; err != nil {
			return nil, fmt.Errorf("failed to create single active event index: %w", err)
		}
	}

	if err := seedEvent(db, seed); err != nil {
		return nil, err
	}

	logger.Info("Database initialized successfully (driver=%s)", d.Name())
	return db, nil
}

// seedEvent 活动表为空时写入默认活动
func seedEvent(db *gorm.DB, seed config.EventConfig) error {
	var count int64
	if err := db.Model(&model.EventModel{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count events: %w", err)
	}
	if count > 0 {
		return nil
	}

	event := model.EventModel{
		Id:            uuid.NewString(),
		Name:          seed.Name,
		Description:   seed.Description,
		Goal:          decimal.NewFromFloat(seed.Goal),
		CurrentAmount: decimal.NewFromFloat(seed.CurrentAmount),
		StartDate:     time.Now(),
		Status:        model.EventStatusActive,
	}
	if err := db.Create(&event).Error; err != nil {
		return fmt.Errorf("failed to seed event: %w", err)
	}

	logger.Info("Seeded default event %s", event.Id)
	return nil
}
