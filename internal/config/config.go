package config

import (
	"strings"
	"time"

	"github.com/blues/fundraiser/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Paystack  PaystackConfig  `mapstructure:"paystack"`
	Event     EventConfig     `mapstructure:"event"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	Mode         string   `mapstructure:"mode"`
	AllowOrigins []string `mapstructure:"allow_origins"`
	// 为空时不信任任何代理，ClientIP 取连接地址
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// DatabaseConfig 数据库配置，driver 为 sqlite 时只使用 Path
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // sqlite, postgres, mysql
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	LogLevel string `mapstructure:"-"`
}

// PaystackConfig 支付网关配置
type PaystackConfig struct {
	SecretKey      string        `mapstructure:"secret_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Currency       string        `mapstructure:"currency"`
	Channels       []string      `mapstructure:"channels"`
	CallbackURL    string        `mapstructure:"callback_url"` // 为空时根据请求地址生成
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
}

// Configured 是否配置了密钥
func (p PaystackConfig) Configured() bool {
	return p.SecretKey != ""
}

// EventConfig 首次启动时写入的默认活动
type EventConfig struct {
	Name          string  `mapstructure:"name"`
	Description   string  `mapstructure:"description"`
	Goal          float64 `mapstructure:"goal"`
	CurrentAmount float64 `mapstructure:"current_amount"`
}

type SchedulerConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Interval int  `mapstructure:"interval"` // 秒
}

type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Rate    float64       `mapstructure:"rate"` // 每秒请求数
	Burst   int           `mapstructure:"burst"`
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.Options 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.Options 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.Options 接口
func (l LogConfig) GetFile() string {
	return l.File
}

const defaultEventDescription = "We are deeply saddened by the loss of our classmate's father, Mr. James Agyeman. " +
	"As a class, we are coming together to support our friend during this difficult time."

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "fundraiser.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "fundraiser")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("paystack.secret_key", "")
	v.SetDefault("paystack.base_url", "https://api.paystack.co")
	v.SetDefault("paystack.currency", "GHS")
	v.SetDefault("paystack.channels", []string{"card", "bank", "ussd", "qr", "mobile_money"})
	v.SetDefault("paystack.callback_url", "")
	v.SetDefault("paystack.timeout", 30*time.Second)
	v.SetDefault("paystack.max_concurrency", 16)

	v.SetDefault("event.name", "Memorial Fund for James Agyeman")
	v.SetDefault("event.description", defaultEventDescription)
	v.SetDefault("event.goal", 5000.0)
	v.SetDefault("event.current_amount", 2250.0)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", 60)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rate", 5.0)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.idle_ttl", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

func Load() *Config {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/fundraiser")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("paystack.secret_key", "PAYSTACK_SECRET_KEY")
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("database.path", "DATABASE_PATH")

	if err := v.ReadInConfig(); err != nil {
		logger.Warn("Could not read config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	config.Paystack.SecretKey = strings.TrimSpace(config.Paystack.SecretKey)
	config.Paystack.BaseURL = strings.TrimRight(config.Paystack.BaseURL, "/")
	config.Database.LogLevel = config.Log.Level

	return &config
}
