package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/beatstudio/internal/db"
	"github.com/beatstudio/internal/logging"
)

const (
	// DefaultDraftLimit 是未指定数量时单次生成的草稿数。
	DefaultDraftLimit = 3
	// MaxDraftLimit 限制单次请求调用付费模型的次数。
	MaxDraftLimit = 10

	sourceAll = "all"
)

// ErrUnknownSource 表示请求的信息源未配置。
var ErrUnknownSource = errors.New("unknown draft source")

// templateCategories 为未指定分类的草稿按模板选择默认分类。
var templateCategories = map[TemplateKind][]string{
	TemplateTutorial: {"Production Tips"},
	TemplateReview:   {"Gear Reviews"},
	TemplateReaction: {"Production Tips", "Industry News"},
}

type feedCollector interface {
	Collect(ctx context.Context, sources []FeedSource) []SourceItem
}

type draftGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) DraftContent
}

type draftPublisher interface {
	Publish(ctx context.Context, input PublishInput) (*db.BlogPost, error)
}

// DraftPipelineDeps 将各环节依赖显式注入流水线。
type DraftPipelineDeps struct {
	Collector  feedCollector
	Generator  draftGenerator
	Publisher  draftPublisher
	Sources    []FeedSource
	Vocabulary []string
}

// DraftPipeline 串联采集、过滤、生成、规整与落库。
type DraftPipeline struct {
	collector  feedCollector
	generator  draftGenerator
	publisher  draftPublisher
	sources    []FeedSource
	vocabulary []string
}

// DraftRunInput 是一次触发携带的参数。
type DraftRunInput struct {
	Source        string
	Limit         int
	Categories    []string
	FeaturedImage string
}

// DraftRunResult 汇总成功落库的草稿。
type DraftRunResult struct {
	Drafts int
	Items  []db.BlogPost
}

// NewDraftPipeline constructs the orchestration component.
func NewDraftPipeline(deps DraftPipelineDeps) *DraftPipeline {
	vocabulary := deps.Vocabulary
	if vocabulary == nil {
		vocabulary = DefaultVocabulary
	}
	return &DraftPipeline{
		collector:  deps.Collector,
		generator:  deps.Generator,
		publisher:  deps.Publisher,
		sources:    deps.Sources,
		vocabulary: vocabulary,
	}
}

// Run 执行一次草稿生成。采集并发进行，之后逐条串行处理；
// 单条失败只记录日志并继续下一条，返回实际落库的数量与记录。
func (p *DraftPipeline) Run(ctx context.Context, input DraftRunInput) (DraftRunResult, error) {
	ctx, _ = logging.ContextWithNewRunID(ctx)
	logger := logging.Ctx(ctx)

	sources, err := p.selectSources(input.Source)
	if err != nil {
		return DraftRunResult{}, err
	}
	limit := clampDraftLimit(input.Limit)

	collected := p.collector.Collect(ctx, sources)
	candidates := FilterRelevant(collected, p.vocabulary)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	logger.Info().
		Int("collected", len(collected)).
		Int("candidates", len(candidates)).
		Int("limit", limit).
		Msg("开始生成草稿")

	result := DraftRunResult{Items: make([]db.BlogPost, 0, len(candidates))}
	for _, item := range candidates {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("请求已取消，停止处理剩余条目")
			break
		}

		post, err := p.processItem(ctx, item, input)
		if err != nil {
			logger.Error().Err(err).Str("source_url", item.URL).Msg("草稿落库失败，跳过该条目")
			continue
		}
		result.Items = append(result.Items, *post)
	}
	result.Drafts = len(result.Items)

	logger.Info().Int("drafts", result.Drafts).Msg("草稿生成完成")
	return result, nil
}

func (p *DraftPipeline) processItem(ctx context.Context, item SourceItem, input DraftRunInput) (*db.BlogPost, error) {
	req := BuildPrompt(item, p.vocabulary)

	draft := p.generator.Generate(ctx, req)
	draft.Body = NormalizeMarkup(draft.Body)

	categories := input.Categories
	if len(categories) == 0 {
		categories = templateCategories[req.Kind]
	}

	return p.publisher.Publish(ctx, PublishInput{
		Draft:         draft,
		Item:          item,
		Categories:    categories,
		FeaturedImage: input.FeaturedImage,
	})
}

// selectSources 空值或 all/reddit 表示全部信息源，否则按社区名或渠道匹配。
func (p *DraftPipeline) selectSources(source string) ([]FeedSource, error) {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" || source == sourceAll {
		return p.sources, nil
	}

	var selected []FeedSource
	for _, src := range p.sources {
		channel := strings.ToLower(strings.TrimSpace(src.Channel))
		if channel == "" {
			channel = defaultFeedChannel
		}
		if strings.ToLower(src.Community) == source || channel == source {
			selected = append(selected, src)
		}
	}
	if len(selected) == 0 {
		return nil, ErrUnknownSource
	}
	return selected, nil
}

func clampDraftLimit(limit int) int {
	if limit <= 0 {
		return DefaultDraftLimit
	}
	if limit > MaxDraftLimit {
		return MaxDraftLimit
	}
	return limit
}
