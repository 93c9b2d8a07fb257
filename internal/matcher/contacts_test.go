package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-matcher-go/internal/constants"
)

// TestExtractMobileContiguous 验证连续10位手机号的提取
func TestExtractMobileContiguous(t *testing.T) {
	assert.Equal(t, "9876543210", ExtractMobile("Contact: 9876543210 anytime"))
}

// TestExtractMobileWithCountryCode 验证带国家码前缀的手机号
func TestExtractMobileWithCountryCode(t *testing.T) {
	assert.Equal(t, "+91 9876543210", ExtractMobile("Phone +91 9876543210"))
}

// TestExtractMobileGrouped 验证3-3-4分组格式
func TestExtractMobileGrouped(t *testing.T) {
	assert.Equal(t, "555-123-4567", ExtractMobile("call 555-123-4567 now"))
	assert.Equal(t, "555.123.4567", ExtractMobile("call 555.123.4567 now"))
	assert.Equal(t, "555 123 4567", ExtractMobile("call 555 123 4567 now"))
}

// TestExtractMobileFirstMatchOnly 验证只取首个匹配
func TestExtractMobileFirstMatchOnly(t *testing.T) {
	assert.Equal(t, "1112223333", ExtractMobile("primary 1112223333 secondary 4445556666"))
}

// TestExtractMobileNotFound 验证无手机号时返回哨兵值
func TestExtractMobileNotFound(t *testing.T) {
	assert.Equal(t, constants.SentinelNotFound, ExtractMobile("no phone here, only 12345"))
}

// TestExtractEmail 验证邮箱提取
func TestExtractEmail(t *testing.T) {
	assert.Equal(t, "jane.doe+cv@example.co.uk", ExtractEmail("mail me at jane.doe+cv@example.co.uk please"))
}

// TestExtractEmailFirstMatchOnly 验证只取首个邮箱
func TestExtractEmailFirstMatchOnly(t *testing.T) {
	assert.Equal(t, "a@b.com", ExtractEmail("a@b.com and c@d.org"))
}

// TestExtractEmailNotFound 验证无邮箱时返回哨兵值
func TestExtractEmailNotFound(t *testing.T) {
	assert.Equal(t, constants.SentinelNotFound, ExtractEmail("not an email: foo@bar"))
}

// TestContactExtractionDeterministic 验证提取是纯函数
func TestContactExtractionDeterministic(t *testing.T) {
	text := "John, 9876543210, john@example.com"
	for i := 0; i < 3; i++ {
		assert.Equal(t, "9876543210", ExtractMobile(text))
		assert.Equal(t, "john@example.com", ExtractEmail(text))
	}
}
