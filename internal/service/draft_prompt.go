package service

import (
	"strings"
)

// TemplateKind 决定一条候选内容使用哪种生成策略。
type TemplateKind string

const (
	TemplateReaction TemplateKind = "reaction"
	TemplateTutorial TemplateKind = "tutorial"
	TemplateReview   TemplateKind = "review"
)

const (
	maxReactionBodyRunes = 300
	maxPromptRunes       = 2000
)

// VoiceConfig 是所有生成内容共享的人设与用词约束。
type VoiceConfig struct {
	Persona        string
	Tone           string
	PreferredTerms []string
	ForbiddenTerms []string
}

// DefaultVoice 为进程级常量配置，不随请求变化。
var DefaultVoice = VoiceConfig{
	Persona: "a working music producer and mix engineer who runs an independent beat store and mixing/mastering studio",
	Tone:    "friendly, practical and confident; speaks to bedroom producers like a studio mentor",
	PreferredTerms: []string{
		"low end", "headroom", "gain staging", "bounce", "stems", "arrangement", "vibe",
	},
	ForbiddenTerms: []string{
		"game-changer", "revolutionary", "delve", "unleash", "in today's fast-paced world",
	},
}

// GenerationRequest 是交给草稿生成器的一次请求。
type GenerationRequest struct {
	Kind   TemplateKind
	Prompt string
	Voice  VoiceConfig
}

var promptTemplates = map[TemplateKind]string{
	TemplateReaction: `Producers in the {{source}} community are discussing the following post:

{{topic}}

Write a blog post reacting to this discussion for our studio blog. Summarize what people are saying, add our own take from the studio, and end with one actionable tip. Naturally work in some of these topics where relevant: {{keywords}}.`,
	TemplateTutorial: `Write a step-by-step tutorial blog post inspired by this question from the {{source}} community:

{{topic}}

Cover the goal, the tools needed, numbered steps, and common mistakes to avoid. Naturally work in some of these topics where relevant: {{keywords}}.`,
	TemplateReview: `Write an honest gear or plugin review blog post based on this discussion from the {{source}} community:

{{topic}}

Cover what it is, how it sounds in a real session, pros and cons, and who it is for. Naturally work in some of these topics where relevant: {{keywords}}.`,
}

// SelectTemplate 根据标题关键词选择模板，并返回对应的主题文本。
func SelectTemplate(item SourceItem) (TemplateKind, string) {
	title := strings.ToLower(item.Title)
	switch {
	case strings.Contains(title, "tutorial") || strings.Contains(title, "guide"):
		return TemplateTutorial, item.Title
	case strings.Contains(title, "review") || strings.Contains(title, "gear"):
		return TemplateReview, item.Title
	default:
		topic := item.Title
		if body := strings.TrimSpace(item.Body); body != "" {
			topic += "\n\n" + truncateRunes(body, maxReactionBodyRunes)
		}
		return TemplateReaction, topic
	}
}

// BuildPrompt 将条目内容填入所选模板，结果长度有上限。
func BuildPrompt(item SourceItem, vocabulary []string) GenerationRequest {
	kind, topic := SelectTemplate(item)

	source := strings.TrimSpace(item.Source)
	if source == "" {
		source = "music production"
	}

	replacer := strings.NewReplacer(
		"{{topic}}", topic,
		"{{source}}", source,
		"{{keywords}}", strings.Join(vocabulary, ", "),
	)
	prompt := replacer.Replace(promptTemplates[kind])

	return GenerationRequest{
		Kind:   kind,
		Prompt: truncateRunes(prompt, maxPromptRunes),
		Voice:  DefaultVoice,
	}
}

// systemPrompt 将人设约束与输出格式要求拼成系统消息。
func (v VoiceConfig) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are ")
	b.WriteString(v.Persona)
	b.WriteString(".\nTone: ")
	b.WriteString(v.Tone)
	b.WriteString(".\n")
	if len(v.PreferredTerms) > 0 {
		b.WriteString("Prefer studio vocabulary such as: ")
		b.WriteString(strings.Join(v.PreferredTerms, ", "))
		b.WriteString(".\n")
	}
	if len(v.ForbiddenTerms) > 0 {
		b.WriteString("Never use these words or phrases: ")
		b.WriteString(strings.Join(v.ForbiddenTerms, ", "))
		b.WriteString(".\n")
	}
	b.WriteString("Output format: respond ONLY with HTML using <h2>, <h3>, <p>, <ul>, <ol>, <li>, <strong> and <em>. ")
	b.WriteString("Start with a single <h2> title. Do NOT use Markdown syntax such as #, ** or - list markers, and do not wrap the answer in code fences.")
	return b.String()
}

func truncateRunes(input string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(input)
	if len(runes) <= limit {
		return input
	}
	return string(runes[:limit])
}
