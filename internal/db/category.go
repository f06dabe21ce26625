package db

import (
	"regexp"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultCategoryNames 是首次迁移时写入的博客分类。
var DefaultCategoryNames = []string{
	"Production Tips",
	"Mixing & Mastering",
	"Gear Reviews",
	"Industry News",
}

var categorySlugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Category 定义了博客分类模型
type Category struct {
	gorm.Model
	Name      string     `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Slug      string     `gorm:"size:128;index" json:"slug"`
	SortOrder int        `gorm:"default:0" json:"sortOrder"`
	Posts     []BlogPost `gorm:"many2many:blog_post_categories;" json:"-"`
}

// BlogPostCategory 是文章与分类之间的关联行。
type BlogPostCategory struct {
	BlogPostID uint `gorm:"primaryKey"`
	CategoryID uint `gorm:"primaryKey"`
}

// TableName 与 many2many 声明保持一致。
func (BlogPostCategory) TableName() string {
	return "blog_post_categories"
}

// EnsureCategories 按顺序补齐缺失的分类，已存在的名称保持不变。
func EnsureCategories(gdb *gorm.DB, names []string) error {
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		category := Category{
			Name:      name,
			Slug:      strings.Trim(categorySlugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-"),
			SortOrder: i,
		}
		if err := gdb.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&category).Error; err != nil {
			return err
		}
	}
	return nil
}
