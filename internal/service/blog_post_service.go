package service

import (
	"errors"
	"strings"

	"github.com/beatstudio/internal/db"
	"gorm.io/gorm"
)

// ErrBlogPostNotFound 表示文章不存在。
var ErrBlogPostNotFound = errors.New("blog post not found")

const (
	defaultBlogPostPerPage = 20
	maxBlogPostPerPage     = 100
)

// BlogPostService wraps read access to blog posts.
type BlogPostService struct {
	db *gorm.DB
}

// BlogPostFilter describes filters for listing posts.
type BlogPostFilter struct {
	Status      string
	AIGenerated *bool
	Category    string
	Page        int
	PerPage     int
}

// BlogPostListResult aggregates paginated list data and counters.
type BlogPostListResult struct {
	Posts          []db.BlogPost `json:"posts"`
	Total          int64         `json:"total"`
	Page           int           `json:"page"`
	PerPage        int           `json:"per_page"`
	TotalPages     int           `json:"total_pages"`
	DraftCount     int64         `json:"draft_count"`
	PublishedCount int64         `json:"published_count"`
}

// NewBlogPostService creates a BlogPostService instance.
func NewBlogPostService(gdb *gorm.DB) *BlogPostService {
	return &BlogPostService{db: gdb}
}

// Get 读取单篇文章及其分类。
func (s *BlogPostService) Get(id uint) (*db.BlogPost, error) {
	var post db.BlogPost
	if err := s.db.Preload("Categories").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlogPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// List provides paginated posts, newest first, with status counters.
func (s *BlogPostService) List(filter BlogPostFilter) (*BlogPostListResult, error) {
	result := &BlogPostListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = defaultBlogPostPerPage
	}
	if result.PerPage > maxBlogPostPerPage {
		result.PerPage = maxBlogPostPerPage
	}

	countQuery := s.applyFilters(s.db.Model(&db.BlogPost{}), filter, true)
	if err := countQuery.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	var posts []db.BlogPost
	dataQuery := s.applyFilters(s.db.Model(&db.BlogPost{}).Preload("Categories"), filter, true)
	offset := (result.Page - 1) * result.PerPage
	if err := dataQuery.Order("blog_posts.created_at desc").
		Order("blog_posts.id desc").
		Limit(result.PerPage).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	withoutStatus := filter
	withoutStatus.Status = ""
	if err := s.applyFilters(s.db.Model(&db.BlogPost{}), withoutStatus, false).
		Where("blog_posts.status = ?", db.BlogPostStatusDraft).
		Count(&result.DraftCount).Error; err != nil {
		return nil, err
	}
	if err := s.applyFilters(s.db.Model(&db.BlogPost{}), withoutStatus, false).
		Where("blog_posts.status = ?", db.BlogPostStatusPublished).
		Count(&result.PublishedCount).Error; err != nil {
		return nil, err
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PerPage) - 1) / int64(result.PerPage))
	}

	result.Posts = posts
	return result, nil
}

func (s *BlogPostService) applyFilters(query *gorm.DB, filter BlogPostFilter, includeStatus bool) *gorm.DB {
	if includeStatus && strings.TrimSpace(filter.Status) != "" {
		query = query.Where("blog_posts.status = ?", strings.TrimSpace(filter.Status))
	}

	if filter.AIGenerated != nil {
		query = query.Where("blog_posts.ai_generated = ?", *filter.AIGenerated)
	}

	if name := strings.TrimSpace(filter.Category); name != "" {
		subQuery := s.db.Model(&db.BlogPost{}).
			Select("blog_posts.id").
			Joins("JOIN blog_post_categories ON blog_posts.id = blog_post_categories.blog_post_id").
			Joins("JOIN categories ON categories.id = blog_post_categories.category_id").
			Where("LOWER(categories.name) = ?", strings.ToLower(name))

		query = query.Where("blog_posts.id IN (?)", subQuery)
	}

	return query
}
