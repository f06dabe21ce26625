package service

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beatstudio/internal/db"
	"github.com/beatstudio/internal/logging"
	"gorm.io/gorm"
)

const (
	// DefaultFeaturedImage 在未指定封面且媒体库为空时使用。
	DefaultFeaturedImage = "/static/images/blog/default-cover.jpg"

	maxSlugBaseLength = 80
	maxMetaTitleRunes = 60
	maxMetaDescRunes  = 160
	fallbackSlugBase  = "draft"
)

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

type categoryLinker interface {
	ResolveID(name string) (uint, error)
	Link(postID, categoryID uint) error
}

type mediaPicker interface {
	RandomURL(rng *rand.Rand) (string, error)
}

// PublishInput 汇总落库一篇草稿所需的数据。
type PublishInput struct {
	Draft         DraftContent
	Item          SourceItem
	Categories    []string
	FeaturedImage string
}

// DraftPublisher 负责生成 slug、确定封面并写入草稿及分类关联。
type DraftPublisher struct {
	db         *gorm.DB
	categories categoryLinker
	media      mediaPicker
	tokens     *slugTokenSource

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewDraftPublisher 构造 DraftPublisher，rng 为空时使用基于当前时间的随机源。
func NewDraftPublisher(gdb *gorm.DB, categories categoryLinker, media mediaPicker, rng *rand.Rand) *DraftPublisher {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &DraftPublisher{
		db:         gdb,
		categories: categories,
		media:      media,
		tokens:     newSlugTokenSource(time.Now),
		rng:        rng,
	}
}

// Publish 写入一篇状态为 draft 的文章。文章写入失败时返回错误；
// 单个分类解析或关联失败只记录日志，不回滚已写入的文章。
func (p *DraftPublisher) Publish(ctx context.Context, input PublishInput) (*db.BlogPost, error) {
	logger := logging.Ctx(ctx)

	title := strings.TrimSpace(input.Draft.Title)
	if title == "" {
		title = DefaultDraftTitle
	}
	excerpt := strings.TrimSpace(input.Draft.Excerpt)

	post := db.BlogPost{
		Title:           title,
		Slug:            Slugify(title) + "-" + p.tokens.next(),
		Content:         input.Draft.Body,
		Excerpt:         excerpt,
		MetaTitle:       truncateRunes(title, maxMetaTitleRunes),
		MetaDescription: truncateRunes(excerpt, maxMetaDescRunes),
		FeaturedImage:   p.resolveFeaturedImage(ctx, input.FeaturedImage),
		Status:          db.BlogPostStatusDraft,
		AIGenerated:     true,
		SourceURL:       input.Item.URL,
		SourceTitle:     input.Item.Title,
		SourceName:      input.Item.Source,
	}

	if err := p.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("insert draft %q: %w", post.Slug, err)
	}

	for _, name := range input.Categories {
		if err := p.linkCategory(post.ID, name); err != nil {
			logger.Warn().
				Err(err).
				Uint("post_id", post.ID).
				Str("category", name).
				Msg("分类关联失败，已跳过")
		}
	}

	return &post, nil
}

func (p *DraftPublisher) linkCategory(postID uint, name string) error {
	if p.categories == nil {
		return ErrCategoryNotFound
	}
	categoryID, err := p.categories.ResolveID(name)
	if err != nil {
		return fmt.Errorf("resolve category: %w", err)
	}
	if err := p.categories.Link(postID, categoryID); err != nil {
		return fmt.Errorf("link category %d: %w", categoryID, err)
	}
	return nil
}

// resolveFeaturedImage 依次使用显式地址、媒体库随机图片和静态默认图，结果总是非空。
func (p *DraftPublisher) resolveFeaturedImage(ctx context.Context, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}

	if p.media != nil {
		p.rngMu.Lock()
		url, err := p.media.RandomURL(p.rng)
		p.rngMu.Unlock()
		if err == nil && strings.TrimSpace(url) != "" {
			return strings.TrimSpace(url)
		}
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).Msg("媒体库不可用，使用默认封面")
		}
	}

	return DefaultFeaturedImage
}

// Slugify 将标题转换为小写连字符形式，非字母数字字符被替换。
func Slugify(title string) string {
	slug := slugInvalidChars.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugBaseLength {
		slug = strings.TrimRight(slug[:maxSlugBaseLength], "-")
	}
	if slug == "" {
		return fallbackSlugBase
	}
	return slug
}

// slugTokenSource 产生严格递增的 base36 毫秒时间戳，同一进程内不会重复。
type slugTokenSource struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func newSlugTokenSource(now func() time.Time) *slugTokenSource {
	if now == nil {
		now = time.Now
	}
	return &slugTokenSource{now: now}
}

func (s *slugTokenSource) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := s.now().UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return strconv.FormatInt(ms, 36)
}
