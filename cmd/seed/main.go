package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/beatstudio/internal/config"
	"github.com/beatstudio/internal/db"
	"github.com/beatstudio/internal/logging"
	"github.com/beatstudio/internal/service"
	"gorm.io/gorm"
)

// 初始化管理员、AI 设置与封面图片池
func main() {
	username := flag.String("user", "admin", "admin username")
	password := flag.String("password", "", "admin password (skipped when empty)")
	media := flag.String("media", "", "comma separated cover image URLs for the media pool")
	flag.Parse()

	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.Logger()
	for _, warning := range cfg.Warnings {
		log.Warn().Msg("config: " + warning)
	}

	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal().Err(err).Msg("数据库初始化失败")
	}

	if err := db.EnsureUser(db.DB, *username, *password); err != nil {
		log.Fatal().Err(err).Msg("创建管理员失败")
	}

	if err := seedAISettings(service.NewSystemSettingService(db.DB)); err != nil {
		log.Fatal().Err(err).Msg("写入 AI 设置失败")
	}

	created, err := seedMediaAssets(db.DB, splitList(*media))
	if err != nil {
		log.Fatal().Err(err).Msg("写入媒体库失败")
	}

	fmt.Fprintf(os.Stdout, "seed 完成：新增 %d 张封面图片\n", created)
}

// seedAISettings 仅在环境变量提供了密钥时覆盖系统设置。
func seedAISettings(settings *service.SystemSettingService) error {
	openAIKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	deepSeekKey := strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY"))
	if openAIKey == "" && deepSeekKey == "" {
		return nil
	}

	current, err := settings.GetSettings()
	if err != nil {
		return err
	}

	input := service.SystemSettingsInput{
		SiteName:       current.SiteName,
		AIProvider:     current.AIProvider,
		OpenAIAPIKey:   current.OpenAIAPIKey,
		DeepSeekAPIKey: current.DeepSeekAPIKey,
		AIDraftModel:   current.AIDraftModel,
	}
	if openAIKey != "" {
		input.OpenAIAPIKey = openAIKey
	}
	if deepSeekKey != "" {
		input.DeepSeekAPIKey = deepSeekKey
	}
	if provider := strings.TrimSpace(os.Getenv("AI_PROVIDER")); provider != "" {
		input.AIProvider = provider
	}
	if model := strings.TrimSpace(os.Getenv("AI_DRAFT_MODEL")); model != "" {
		input.AIDraftModel = model
	}

	_, err = settings.UpdateSettings(input)
	return err
}

// seedMediaAssets 写入尚不存在的图片地址，返回新增数量。
func seedMediaAssets(gdb *gorm.DB, urls []string) (int, error) {
	created := 0
	for i, url := range urls {
		var count int64
		if err := gdb.Model(&db.MediaAsset{}).Where("url = ?", url).Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}

		asset := db.MediaAsset{
			Title:     fmt.Sprintf("Cover %d", i+1),
			URL:       url,
			Status:    service.MediaStatusPublished,
			SortOrder: len(urls) - i,
		}
		if err := gdb.Create(&asset).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
