package service

import (
	"errors"
	"math/rand"

	"github.com/beatstudio/internal/db"
	"gorm.io/gorm"
)

const (
	MediaStatusPublished = "published"
	MediaStatusDraft     = "draft"
)

// ErrMediaPoolEmpty 表示媒体库中没有可用的图片。
var ErrMediaPoolEmpty = errors.New("media pool is empty")

// MediaService handles read access to the media library.
type MediaService struct {
	db *gorm.DB
}

// NewMediaService creates a MediaService instance.
func NewMediaService(gdb *gorm.DB) *MediaService {
	return &MediaService{db: gdb}
}

// ListPublished returns published assets ordered by priority.
func (s *MediaService) ListPublished() ([]db.MediaAsset, error) {
	var items []db.MediaAsset
	if err := s.db.Where("status = ?", MediaStatusPublished).
		Where("url <> ''").
		Order("sort_order desc").
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// RandomURL 从已发布的图片中等概率挑选一张。
func (s *MediaService) RandomURL(rng *rand.Rand) (string, error) {
	items, err := s.ListPublished()
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", ErrMediaPoolEmpty
	}

	var idx int
	if rng != nil {
		idx = rng.Intn(len(items))
	} else {
		idx = rand.Intn(len(items))
	}
	return items[idx].URL, nil
}
