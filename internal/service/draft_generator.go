package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/beatstudio/internal/logging"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultOpenAIDraftModel   = "gpt-4o-mini"
	defaultDeepSeekDraftModel = "deepseek-chat"
	defaultDraftMaxTokens     = 1500
	defaultDraftTemperature   = 0.7
	maxExcerptRunes           = 160

	// DefaultDraftTitle 在模型输出中找不到标题时使用。
	DefaultDraftTitle = "Fresh Studio Notes"

	// FallbackDraftTitle 等为模型不可用时的固定草稿内容。
	FallbackDraftTitle   = "Studio Session Notes: What Producers Are Talking About"
	FallbackDraftExcerpt = "A quick roundup of what producers are discussing this week, with practical studio tips you can use on your next beat or mix."
	FallbackDraftBody    = `<p>The production community has been busy this week, trading ideas on arrangement, sound design and getting mixes to translate on every system.</p>
<h3>What we are hearing</h3>
<ul>
<li><strong>Gain staging first.</strong> Leave headroom on every bus before you reach for a limiter.</li>
<li><strong>Low end clarity.</strong> Decide whether the kick or the 808 owns the lowest octave and carve space for the other.</li>
<li><strong>Reference often.</strong> Compare your bounce against a track you love at matched loudness.</li>
</ul>
<p>Want a second pair of ears on your record? Our mixing and mastering services are built for independent artists.</p>`
)

var markdownHeadingPattern = regexp.MustCompile(`(?m)^#{1,3}[ \t]+(.+?)[ \t#]*$`)

// DraftContent 是一次生成（或兜底）得到的草稿内容。
type DraftContent struct {
	Title    string
	Body     string
	Excerpt  string
	Fallback bool
}

// FallbackDraft 返回固定的兜底草稿，不依赖任何外部服务。
func FallbackDraft() DraftContent {
	return DraftContent{
		Title:    FallbackDraftTitle,
		Body:     FallbackDraftBody,
		Excerpt:  FallbackDraftExcerpt,
		Fallback: true,
	}
}

// DraftGenerator 调用大模型生成博客草稿，任何失败都退化为兜底内容。
type DraftGenerator struct {
	client *aiChatClient
}

// NewDraftGenerator 构造默认的 DraftGenerator。
func NewDraftGenerator(settings settingsProvider) *DraftGenerator {
	return &DraftGenerator{
		client: newAIChatClient(settings, defaultOpenAIDraftModel, defaultDeepSeekDraftModel),
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (g *DraftGenerator) SetHTTPClient(client httpDoer) {
	g.client.SetHTTPClient(client)
}

// SetOpenAIBaseURL 覆盖默认的 OpenAI API 地址。
func (g *DraftGenerator) SetOpenAIBaseURL(base string) {
	g.client.SetOpenAIBaseURL(base)
}

// SetDeepSeekBaseURL 覆盖默认的 DeepSeek API 地址。
func (g *DraftGenerator) SetDeepSeekBaseURL(base string) {
	g.client.SetDeepSeekBaseURL(base)
}

// Generate 根据提示词生成草稿。该方法从不返回错误：
// 缺少 API Key、请求失败、响应异常或熔断打开时均返回 FallbackDraft。
func (g *DraftGenerator) Generate(ctx context.Context, req GenerationRequest) DraftContent {
	logger := logging.Ctx(ctx)
	logAIExchange(ctx, "DRAFT", "prompt", req.Prompt)

	result, err := g.client.call(ctx, aiChatRequest{
		SystemPrompt: req.Voice.systemPrompt(),
		UserPrompt:   req.Prompt,
		MaxTokens:    defaultDraftMaxTokens,
		Temperature:  defaultDraftTemperature,
	})
	if err != nil {
		event := logger.Warn().Err(err).Str("template", string(req.Kind))
		switch {
		case errors.Is(err, ErrAIAPIKeyMissing):
			event.Msg("未配置 AI API Key，使用兜底草稿")
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			event.Msg("AI 熔断中，使用兜底草稿")
		default:
			event.Msg("AI 生成失败，使用兜底草稿")
		}
		return FallbackDraft()
	}
	logAIExchange(ctx, "DRAFT", "response", result.Content)
	logger.Info().
		Str("template", string(req.Kind)).
		Int("prompt_tokens", result.PromptTokens).
		Int("completion_tokens", result.CompletionTokens).
		Msg("AI 草稿生成完成")

	title, body := extractDraftTitle(result.Content)
	if strings.TrimSpace(body) == "" {
		logger.Warn().Str("template", string(req.Kind)).Msg("AI 返回正文为空，使用兜底草稿")
		return FallbackDraft()
	}

	return DraftContent{
		Title:   title,
		Body:    body,
		Excerpt: buildExcerpt(NormalizeMarkup(body)),
	}
}

// extractDraftTitle 取第一个标题元素作为文章标题，并从正文中移除该元素。
func extractDraftTitle(content string) (string, string) {
	content = strings.TrimSpace(content)

	if looksLikeHTML(content) || strings.Contains(strings.ToLower(content), "<h") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		if err == nil {
			heading := doc.Find("h1, h2, h3").First()
			if heading.Length() > 0 {
				title := strings.TrimSpace(heading.Text())
				heading.Remove()
				body, htmlErr := doc.Find("body").Html()
				if title != "" && htmlErr == nil {
					return title, strings.TrimSpace(body)
				}
			}
		}
	}

	if loc := markdownHeadingPattern.FindStringSubmatchIndex(content); loc != nil {
		title := stripMarkup(NormalizeMarkup(content[loc[2]:loc[3]]))
		if title != "" {
			body := content[:loc[0]] + content[loc[1]:]
			return title, strings.TrimSpace(body)
		}
	}

	return DefaultDraftTitle, content
}

// buildExcerpt 去掉标记后截断为固定长度，被截断时追加省略号。
func buildExcerpt(markup string) string {
	plain := stripMarkup(markup)
	if len([]rune(plain)) <= maxExcerptRunes {
		return plain
	}
	return strings.TrimSpace(truncateRunes(plain, maxExcerptRunes)) + "..."
}
