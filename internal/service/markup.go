package service

import (
	"bytes"
	stdhtml "html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)
	contentSanitizer = bluemonday.UGCPolicy()
	textStripper     = bluemonday.StrictPolicy()

	blockHTMLPattern = regexp.MustCompile(`(?i)<(p|h[1-6]|ul|ol|li|blockquote|div)[\s>]`)
	codeFencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```$")
	blockBoundary    = regexp.MustCompile(`(?i)(</(p|h[1-6]|li|ul|ol|blockquote|div)>|<br\s*/?>)`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// NormalizeMarkup 将可能仍是 Markdown 的文本转换为富文本 HTML。
// 已包含块级 HTML 的内容只做清洗；混合了 HTML 与 Markdown 的输入按 HTML 处理。
func NormalizeMarkup(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	if looksLikeHTML(text) {
		return strings.TrimSpace(contentSanitizer.Sanitize(text))
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(text), &buf); err != nil {
		// goldmark 只会在写入失败时返回错误，这里退化为整体包裹段落
		return "<p>" + textStripper.Sanitize(text) + "</p>"
	}
	return strings.TrimSpace(contentSanitizer.Sanitize(buf.String()))
}

func looksLikeHTML(text string) bool {
	return blockHTMLPattern.MatchString(text)
}

// stripMarkup 去掉全部标签并合并空白，得到纯文本。
func stripMarkup(markup string) string {
	spaced := blockBoundary.ReplaceAllString(markup, "$1 ")
	plain := stdhtml.UnescapeString(textStripper.Sanitize(spaced))
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(plain, " "))
}
