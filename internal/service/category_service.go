package service

import (
	"errors"
	"strings"

	"github.com/beatstudio/internal/db"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategoryNameMissing = errors.New("category name is required")
)

// CategoryService wraps blog category lookups and post links.
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb}
}

// List returns categories ordered by configured sort order.
func (s *CategoryService) List() ([]db.Category, error) {
	var categories []db.Category
	if err := s.db.Order("sort_order asc").Order("name asc").Order("id asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ResolveID 按名称（不区分大小写）查找分类 ID。
func (s *CategoryService) ResolveID(name string) (uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrCategoryNameMissing
	}

	var category db.Category
	if err := s.db.Where("LOWER(name) = ?", strings.ToLower(name)).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCategoryNotFound
		}
		return 0, err
	}
	return category.ID, nil
}

// Link 写入一条文章与分类的关联，重复关联视为成功。
func (s *CategoryService) Link(postID, categoryID uint) error {
	link := db.BlogPostCategory{BlogPostID: postID, CategoryID: categoryID}
	return s.db.Where(&link).FirstOrCreate(&link).Error
}
