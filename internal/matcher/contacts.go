package matcher

import (
	"regexp"

	"resume-matcher-go/internal/constants"
)

var (
	// 手机号：可选1-3位国家码前缀 + 连续10位数字，或3-3-4分组（连字符/点/空格分隔）
	mobilePattern = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?(\d{10}|\d{3}[-.\s]\d{3}[-.\s]\d{4})`)
	// 邮箱：标准 local-part@domain.tld，顶级域至少2个字母
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// ExtractMobile 从原始文本中提取首个手机号，未命中返回哨兵值
func ExtractMobile(text string) string {
	if match := mobilePattern.FindString(text); match != "" {
		return match
	}
	return constants.SentinelNotFound
}

// ExtractEmail 从原始文本中提取首个邮箱地址，未命中返回哨兵值
func ExtractEmail(text string) string {
	if match := emailPattern.FindString(text); match != "" {
		return match
	}
	return constants.SentinelNotFound
}
