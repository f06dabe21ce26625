package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	GinMode           string
	SuperRootUserName string
	SuperRootPassword string
	LogLevel          string
	LogFormat         string
	Feeds             FeedConfig

	// Warnings 收集加载过程中被忽略的无效配置，由调用方在日志初始化后输出。
	Warnings []string
}

// FeedConfig 描述社区信息源的抓取参数。
type FeedConfig struct {
	BaseURL string             `yaml:"baseUrl"`
	Timeout time.Duration      `yaml:"timeout"`
	Sources []FeedSourceConfig `yaml:"sources"`
}

// FeedSourceConfig 对应一个社区及其单次抓取条数。
type FeedSourceConfig struct {
	Community string `yaml:"community"`
	Limit     int    `yaml:"limit"`
	Channel   string `yaml:"channel"`
}

// DefaultFeedSources 是未提供配置文件时使用的社区列表。
var DefaultFeedSources = []FeedSourceConfig{
	{Community: "WeAreTheMusicMakers", Limit: 10, Channel: "reddit"},
	{Community: "edmproduction", Limit: 10, Channel: "reddit"},
	{Community: "audioengineering", Limit: 10, Channel: "reddit"},
	{Community: "ableton", Limit: 10, Channel: "reddit"},
	{Community: "makinghiphop", Limit: 10, Channel: "reddit"},
}

const (
	defaultFeedBaseURL = "https://www.reddit.com"
	defaultFeedTimeout = 10 * time.Second
)

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "beatstudio.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "beatstudio-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	logLevel := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	if logFormat == "" {
		logFormat = "console"
	}

	feeds, warnings := loadFeedConfig()

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      databasePath,
		SessionSecret:     sessionSecret,
		GinMode:           ginMode,
		SuperRootUserName: strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME")),
		SuperRootPassword: strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD")),
		LogLevel:          logLevel,
		LogFormat:         logFormat,
		Feeds:             feeds,
		Warnings:          warnings,
	}
}

func loadFeedConfig() (FeedConfig, []string) {
	cfg := FeedConfig{
		BaseURL: defaultFeedBaseURL,
		Timeout: defaultFeedTimeout,
		Sources: append([]FeedSourceConfig(nil), DefaultFeedSources...),
	}
	var warnings []string

	if path := strings.TrimSpace(os.Getenv("FEED_SOURCES_FILE")); path != "" {
		fileCfg, err := ReadFeedConfigFile(path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("读取信息源配置失败，使用默认值: %v", err))
		} else {
			cfg = mergeFeedConfig(cfg, fileCfg)
		}
	}

	if v := strings.TrimSpace(os.Getenv("FEED_BASE_URL")); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("FEED_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		} else {
			warnings = append(warnings, fmt.Sprintf("FEED_TIMEOUT 无效，使用默认值: %q", v))
		}
	}

	return cfg, warnings
}

// ReadFeedConfigFile 解析 YAML 格式的信息源配置文件。
func ReadFeedConfigFile(path string) (FeedConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FeedConfig{}, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg FeedConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return FeedConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func mergeFeedConfig(base, override FeedConfig) FeedConfig {
	if strings.TrimSpace(override.BaseURL) != "" {
		base.BaseURL = strings.TrimSpace(override.BaseURL)
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}

	sources := make([]FeedSourceConfig, 0, len(override.Sources))
	for _, src := range override.Sources {
		if strings.TrimSpace(src.Community) == "" {
			continue
		}
		sources = append(sources, src)
	}
	if len(sources) > 0 {
		base.Sources = sources
	}
	return base
}
