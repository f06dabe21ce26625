package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beatstudio/internal/logging"
	"github.com/goccy/go-json"
)

const (
	defaultFeedBaseURL    = "https://www.reddit.com"
	defaultFeedTimeout    = 10 * time.Second
	defaultFeedLimit      = 10
	maxFeedLimit          = 100
	defaultFeedChannel    = "reddit"
	feedPermalinkBaseURL  = "https://www.reddit.com"
	maxFeedResponseBytes  = 4 << 20
	feedCollectorAgentTag = "beatstudio-feeds/1.0"
)

// SourceItem 是从社区信息源采集并规整后的一条候选内容。
type SourceItem struct {
	Title     string
	Body      string
	URL       string
	Source    string
	Channel   string
	Score     int
	CreatedAt time.Time
}

// FeedSource 描述一个待抓取的社区。
type FeedSource struct {
	Community string
	Limit     int
	Channel   string
}

// FeedCollector 并发抓取多个社区的热门帖子。
type FeedCollector struct {
	http    httpDoer
	baseURL string
	timeout time.Duration
}

// NewFeedCollector 构造 FeedCollector，baseURL 为空时使用 reddit.com。
func NewFeedCollector(baseURL string, timeout time.Duration) *FeedCollector {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = defaultFeedBaseURL
	}
	if timeout <= 0 {
		timeout = defaultFeedTimeout
	}
	return &FeedCollector{
		http:    &http.Client{},
		baseURL: base,
		timeout: timeout,
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (c *FeedCollector) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{}
		return
	}
	c.http = client
}

// Collect 为每个社区各发起一次抓取，彼此独立超时；
// 单个社区失败只记录日志，不影响其他社区，结果按配置顺序合并。
func (c *FeedCollector) Collect(ctx context.Context, sources []FeedSource) []SourceItem {
	batches := make([][]SourceItem, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src FeedSource) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			items, err := c.fetch(fetchCtx, src)
			if err != nil {
				logging.Ctx(ctx).Warn().
					Err(err).
					Str("community", src.Community).
					Msg("信息源抓取失败，本次跳过")
				return
			}
			batches[i] = items
		}(i, src)
	}
	wg.Wait()

	var collected []SourceItem
	for _, batch := range batches {
		collected = append(collected, batch...)
	}
	logging.Ctx(ctx).Info().
		Int("sources", len(sources)).
		Int("items", len(collected)).
		Msg("信息源抓取完成")
	return collected
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Permalink  string  `json:"permalink"`
	URL        string  `json:"url"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	Subreddit  string  `json:"subreddit"`
}

func (c *FeedCollector) fetch(ctx context.Context, src FeedSource) ([]SourceItem, error) {
	community := strings.TrimSpace(src.Community)
	if community == "" {
		return nil, errors.New("community is required")
	}

	endpoint, err := buildFeedURL(c.baseURL, community, src.Limit)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", feedCollectorAgentTag)
	req.Header.Set("Accept", "application/json")

	client := c.http
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	var listing redditListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	channel := strings.TrimSpace(src.Channel)
	if channel == "" {
		channel = defaultFeedChannel
	}

	items := make([]SourceItem, 0, len(listing.Data.Children))
	for i, child := range listing.Data.Children {
		var post redditPost
		if err := json.Unmarshal(child.Data, &post); err != nil {
			logging.Ctx(ctx).Debug().
				Err(err).
				Str("community", community).
				Int("index", i).
				Msg("帖子结构不符合预期，已跳过")
			continue
		}
		item, ok := normalizeRedditPost(post, community, channel)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// normalizeRedditPost 在入口处校验原始帖子，不符合要求的条目直接丢弃。
func normalizeRedditPost(post redditPost, community, channel string) (SourceItem, bool) {
	title := strings.TrimSpace(post.Title)
	if title == "" || post.CreatedUTC <= 0 {
		return SourceItem{}, false
	}

	link := strings.TrimSpace(post.Permalink)
	if link != "" && !strings.HasPrefix(link, "http") {
		link = feedPermalinkBaseURL + "/" + strings.TrimLeft(link, "/")
	}
	if link == "" {
		link = strings.TrimSpace(post.URL)
	}

	sec := int64(post.CreatedUTC)
	return SourceItem{
		Title:     title,
		Body:      strings.TrimSpace(post.Selftext),
		URL:       link,
		Source:    community,
		Channel:   channel,
		Score:     post.Score,
		CreatedAt: time.Unix(sec, 0).UTC(),
	}, true
}

func buildFeedURL(base, community string, limit int) (string, error) {
	parsed, err := url.Parse(strings.TrimRight(base, "/") + "/r/" + url.PathEscape(community) + "/hot.json")
	if err != nil {
		return "", fmt.Errorf("invalid feed url for %s: %w", community, err)
	}

	query := parsed.Query()
	query.Set("limit", strconv.Itoa(clampFeedLimit(limit)))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func clampFeedLimit(limit int) int {
	if limit <= 0 {
		return defaultFeedLimit
	}
	if limit > maxFeedLimit {
		return maxFeedLimit
	}
	return limit
}
