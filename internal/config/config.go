package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server     ServerConfig              `mapstructure:"server"`     // 服务器配置
	Postgres   PostgresConfig            `mapstructure:"postgres"`   // PostgreSQL配置
	Sync       SyncConfig                `mapstructure:"sync"`       // 调度配置
	Aggregator AggregatorConfig          `mapstructure:"aggregator"` // 第三方聚合API配置
	Platforms  map[string]PlatformConfig `mapstructure:"platforms"`  // 多平台独立配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// PostgresConfig PostgreSQL数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// SyncConfig 调度配置（全局触发器与健康阈值）
type SyncConfig struct {
	StartupDelay      time.Duration `mapstructure:"startup_delay"`      // 启动后首次全量抓取延迟
	GlobalInterval    time.Duration `mapstructure:"global_interval"`    // 全量兜底抓取周期
	HealthInterval    time.Duration `mapstructure:"health_interval"`    // 健康巡检周期
	RetentionInterval time.Duration `mapstructure:"retention_interval"` // 过期清理周期
	RetentionAge      time.Duration `mapstructure:"retention_age"`      // 已结束比赛保留时长
	DegradedAfter     time.Duration `mapstructure:"degraded_after"`     // 超过该时长无成功抓取→degraded
	WarningAfter      time.Duration `mapstructure:"warning_after"`      // 超过该时长→warning
	CriticalAfter     time.Duration `mapstructure:"critical_after"`     // 超过该时长或从未成功→critical
}

// AggregatorConfig 第三方聚合API配置（所有平台共用一个入口）
type AggregatorConfig struct {
	BaseURL string `mapstructure:"base_url"` // API基础地址
	APIKey  string `mapstructure:"api_key"`  // 认证Key（env覆盖）
	Timeout int    `mapstructure:"timeout"`  // 请求超时（秒）
}

// PlatformConfig 单个平台的独立配置
type PlatformConfig struct {
	BaseURL            string        `mapstructure:"base_url"`            // 官方API基础地址
	ScrapeURL          string        `mapstructure:"scrape_url"`          // 比赛列表页地址（scraping用）
	AggregatorResource string        `mapstructure:"aggregator_resource"` // 聚合API中该平台的resource标识
	Timeout            int           `mapstructure:"timeout"`             // 单次请求超时（秒）
	RetryCount         int           `mapstructure:"retry_count"`         // 单适配器最大尝试次数
	RetryBaseDelay     time.Duration `mapstructure:"retry_base_delay"`    // 退避基础间隔
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`           // 结果缓存TTL
	SyncInterval       time.Duration `mapstructure:"sync_interval"`       // 该平台定时抓取周期
	Chain              []string      `mapstructure:"chain"`               // 适配器链（按顺序尝试）
	Proxy              string        `mapstructure:"proxy"`               // 代理地址
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load()

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("AGGREGATOR_API_KEY"); v != "" {
		cfg.Aggregator.APIKey = v
	}
}

// applyDefaults 配置缺省值兜底
func applyDefaults(cfg *Config) {
	if cfg.Sync.StartupDelay <= 0 {
		cfg.Sync.StartupDelay = 10 * time.Second
	}
	if cfg.Sync.GlobalInterval <= 0 {
		cfg.Sync.GlobalInterval = 6 * time.Hour
	}
	if cfg.Sync.HealthInterval <= 0 {
		cfg.Sync.HealthInterval = 10 * time.Minute
	}
	if cfg.Sync.RetentionInterval <= 0 {
		cfg.Sync.RetentionInterval = 24 * time.Hour
	}
	if cfg.Sync.RetentionAge <= 0 {
		cfg.Sync.RetentionAge = 30 * 24 * time.Hour
	}
	if cfg.Sync.DegradedAfter <= 0 {
		cfg.Sync.DegradedAfter = time.Hour
	}
	if cfg.Sync.WarningAfter <= 0 {
		cfg.Sync.WarningAfter = 2 * time.Hour
	}
	if cfg.Sync.CriticalAfter <= 0 {
		cfg.Sync.CriticalAfter = 4 * time.Hour
	}
	if cfg.Aggregator.Timeout <= 0 {
		cfg.Aggregator.Timeout = 10
	}
	for name, p := range cfg.Platforms {
		if p.Timeout <= 0 {
			p.Timeout = 10
		}
		if p.RetryCount <= 0 {
			p.RetryCount = 3
		}
		if p.RetryBaseDelay <= 0 {
			p.RetryBaseDelay = time.Second
		}
		if p.CacheTTL <= 0 {
			p.CacheTTL = 20 * time.Minute
		}
		if p.SyncInterval <= 0 {
			p.SyncInterval = time.Hour
		}
		if len(p.Chain) == 0 {
			p.Chain = []string{"official-api", "aggregator-api", "scraping", "synthetic"}
		}
		// synthetic必须兜底在链尾，保证链永不落空
		if p.Chain[len(p.Chain)-1] != "synthetic" {
			p.Chain = append(p.Chain, "synthetic")
		}
		cfg.Platforms[name] = p
	}
}
