package db

import "gorm.io/gorm"

// MediaAsset 定义媒体库中的图片，可作为文章封面。
type MediaAsset struct {
	gorm.Model
	Title     string
	URL       string `gorm:"size:512;not null"`
	Width     int
	Height    int
	Status    string `gorm:"default:published"` // published, draft
	SortOrder int    `gorm:"default:0"`
}
