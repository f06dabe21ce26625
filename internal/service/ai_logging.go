package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/beatstudio/internal/logging"
)

const maxAILogSnippetRunes = 1024

// logAIExchange 用于输出 AI 请求与响应的关键信息，方便排查模型行为。
func logAIExchange(ctx context.Context, kind, phase, content string) {
	logger := logging.Ctx(ctx)
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		logger.Debug().Str("kind", kind).Str("phase", phase).Msg("AI exchange: <empty>")
		return
	}

	runeCount := utf8.RuneCountInString(trimmed)
	snippet := trimmed
	if runeCount > maxAILogSnippetRunes {
		snippet = string([]rune(trimmed)[:maxAILogSnippetRunes]) + "…(truncated)"
	}
	logger.Debug().
		Str("kind", kind).
		Str("phase", phase).
		Int("runes", runeCount).
		Str("snippet", snippet).
		Msg("AI exchange")
}
