// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
// 进程启动时加载一次，之后视为只读，不支持热更新。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Moderation    ModerationConfig    `mapstructure:"moderation"`
	Safety        SafetyConfig        `mapstructure:"safety"`
	Retention     RetentionConfig     `mapstructure:"retention"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
	RefreshTokenExpireDays int    `mapstructure:"refresh_token_expire_days"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储升级告警投递所用 Kafka 的配置。
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// ElasticsearchConfig 存储告警审计索引所用 Elasticsearch 的配置。
type ElasticsearchConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储升级证据归档所用对象存储的配置。
type MinIOConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置生成相关参数（可选，零值表示使用服务端默认）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// ModerationConfig 存储内容安全与越狱检测分类器的配置。
type ModerationConfig struct {
	Endpoint          string         `mapstructure:"endpoint"`
	APIKey            string         `mapstructure:"api_key"`
	AnalyzeAPIVersion string         `mapstructure:"analyze_api_version"`
	ShieldAPIVersion  string         `mapstructure:"shield_api_version"`
	Thresholds        map[string]int `mapstructure:"thresholds"`
	CacheTTLMinutes   int            `mapstructure:"cache_ttl_minutes"`
}

// SafetyConfig 存储安全策略核心的全部可配置项。
type SafetyConfig struct {
	// AgeBands 是升序的年龄段边界表，解析时按顺序取第一个 age <= max_age 的段。
	AgeBands         []AgeBandConfig        `mapstructure:"age_bands"`
	Anthropomorphism AnthropomorphismConfig `mapstructure:"anthropomorphism"`
	Literacy         LiteracyConfig         `mapstructure:"literacy"`
	History          HistoryConfig          `mapstructure:"history"`
}

// AgeBandConfig 定义一个年龄段及其各安全类别的严重度上限。
// 未配置上限的类别视为不受限。
type AgeBandConfig struct {
	Name               string         `mapstructure:"name"`
	MaxAge             int            `mapstructure:"max_age"`
	SeverityThresholds map[string]int `mapstructure:"severity_thresholds"`
}

// AnthropomorphismConfig 存储输出净化使用的拟人化禁用短语列表。
type AnthropomorphismConfig struct {
	BannedPhrases []string `mapstructure:"banned_phrases"`
}

// LiteracyConfig 存储 AI 素养提示注入的节奏配置。
type LiteracyConfig struct {
	InjectionInterval int `mapstructure:"injection_interval"`
}

// HistoryConfig 存储会话交互日志的窗口配置。
type HistoryConfig struct {
	MaxInteractions int `mapstructure:"max_interactions"`
	RiskWindow      int `mapstructure:"risk_window"`
	LLMWindow       int `mapstructure:"llm_window"`
}

// RetentionConfig 存储交互日志保留策略的配置。
type RetentionConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	Days          int  `mapstructure:"days"`
	IntervalHours int  `mapstructure:"interval_hours"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}
