package service

import "strings"

// DefaultVocabulary 是判断社区帖子是否与音乐制作相关的关键词表。
var DefaultVocabulary = []string{
	"mixing",
	"mastering",
	"ableton",
	"fl studio",
	"logic pro",
	"pro tools",
	"beat",
	"producer",
	"production",
	"vst",
	"plugin",
	"compressor",
	"equalizer",
	"808",
	"sample",
	"daw",
	"vocal",
	"synth",
	"hip hop",
	"trap",
	"melody",
	"drum",
}

// FilterRelevant 返回标题或正文（不区分大小写）至少包含一个关键词的条目。
// 关键词表为空时不保留任何条目。
func FilterRelevant(items []SourceItem, vocabulary []string) []SourceItem {
	keywords := make([]string, 0, len(vocabulary))
	for _, word := range vocabulary {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			keywords = append(keywords, word)
		}
	}

	matched := make([]SourceItem, 0, len(items))
	if len(keywords) == 0 {
		return matched
	}

	for _, item := range items {
		if matchesVocabulary(item, keywords) {
			matched = append(matched, item)
		}
	}
	return matched
}

func matchesVocabulary(item SourceItem, keywords []string) bool {
	title := strings.ToLower(item.Title)
	body := strings.ToLower(item.Body)
	for _, word := range keywords {
		if strings.Contains(title, word) || strings.Contains(body, word) {
			return true
		}
	}
	return false
}
