package db

import "gorm.io/gorm"

const (
	// BlogPostStatusDraft 表示待编辑审核的草稿。
	BlogPostStatusDraft = "draft"
	// BlogPostStatusPublished 表示已公开的文章。
	BlogPostStatusPublished = "published"
)

// BlogPost 定义了博客文章模型，自动生成的草稿同样落在这张表。
type BlogPost struct {
	gorm.Model
	Title           string     `gorm:"size:255;not null" json:"title"`
	Slug            string     `gorm:"size:160;uniqueIndex;not null" json:"slug"`
	Content         string     `gorm:"type:text" json:"content"`
	Excerpt         string     `gorm:"size:512" json:"excerpt"`
	MetaTitle       string     `gorm:"size:255" json:"metaTitle"`
	MetaDescription string     `gorm:"size:512" json:"metaDescription"`
	FeaturedImage   string     `gorm:"size:512;not null" json:"featuredImage"`
	Status          string     `gorm:"size:32;index;default:draft" json:"status"`
	AIGenerated     bool       `gorm:"index;default:false" json:"aiGenerated"`
	SourceURL       string     `gorm:"size:512" json:"sourceUrl"`
	SourceTitle     string     `gorm:"size:512" json:"sourceTitle"`
	SourceName      string     `gorm:"size:128" json:"sourceName"`
	Categories      []Category `gorm:"many2many:blog_post_categories;" json:"categories,omitempty"`
}
