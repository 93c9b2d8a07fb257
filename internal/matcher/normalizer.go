package matcher

import (
	"regexp"
	"strings"

	"resume-matcher-go/internal/constants"
)

var (
	// 清洗正则：字母数字和空白以外的字符全部替换为空格
	nonAlphaNumPattern = regexp.MustCompile(`[^A-Za-z0-9\s]`)
	// 连续空白折叠为单个空格
	whitespacePattern = regexp.MustCompile(`\s+`)

	// 技能词表的整词匹配正则（大小写不敏感），初始化时从词表构建
	keywordPattern *regexp.Regexp
	// 小写关键词到词表规范写法的映射
	canonicalKeywords map[string]string
)

func init() {
	quoted := make([]string, 0, len(constants.SkillVocabulary))
	canonicalKeywords = make(map[string]string, len(constants.SkillVocabulary))
	for _, kw := range constants.SkillVocabulary {
		quoted = append(quoted, regexp.QuoteMeta(kw))
		canonicalKeywords[strings.ToLower(kw)] = kw
	}
	keywordPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, `|`) + `)\b`)
}

// CleanText 清洗原始文本：去掉标点符号类字符，折叠空白并去掉首尾空格
func CleanText(text string) string {
	cleaned := nonAlphaNumPattern.ReplaceAllString(text, " ")
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// Normalize 把原始文本归一化为技能关键词签名。
// 按文本出现顺序收集词表中的整词匹配（保留重复），以单个空格连接；
// 一个关键词都没命中时返回清洗后的原文，保证非空输入产生非空签名。
func Normalize(text string) string {
	cleaned := CleanText(text)
	if cleaned == "" {
		return ""
	}

	matches := keywordPattern.FindAllString(cleaned, -1)
	if len(matches) == 0 {
		return cleaned
	}

	// 统一成词表中的规范写法，签名对大小写不敏感
	for i, m := range matches {
		if canonical, ok := canonicalKeywords[strings.ToLower(m)]; ok {
			matches[i] = canonical
		}
	}
	return strings.Join(matches, " ")
}
