package parser

import (
	"context"
	"io"
)

// TextExtractor 文本提取器接口，从简历文件中提取纯文本
type TextExtractor interface {
	// ExtractFromFile 从文件路径提取文本和元数据
	ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error)

	// ExtractTextFromReader 从io.Reader提取文本和元数据
	ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string, options interface{}) (string, map[string]interface{}, error)

	// ExtractTextFromBytes 从字节数组提取文本和元数据
	ExtractTextFromBytes(ctx context.Context, data []byte, uri string, options interface{}) (string, map[string]interface{}, error)
}

// DocumentConverter 文档转换器接口，把DOCX等富文本格式转换为PDF
type DocumentConverter interface {
	// ConvertToPDF 将源文档转换为PDF字节流
	// filename 用于推断源格式，data 是源文档内容
	ConvertToPDF(ctx context.Context, filename string, data []byte) ([]byte, error)
}
