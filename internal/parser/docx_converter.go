package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// GotenbergConverter 基于Gotenberg兼容渲染服务的文档转换器
// 通过LibreOffice转换路由把DOCX等富文本格式渲染为PDF
type GotenbergConverter struct {
	// 转换服务地址，例如 http://localhost:3000
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client
	// 日志记录
	logger *log.Logger
}

// GotenbergOption 定义配置选项函数
type GotenbergOption func(*GotenbergConverter)

// WithGotenbergTimeout 配置HTTP客户端超时时间
func WithGotenbergTimeout(timeout time.Duration) GotenbergOption {
	return func(c *GotenbergConverter) {
		c.Client.Timeout = timeout
	}
}

// WithGotenbergLogger 配置自定义日志记录器
func WithGotenbergLogger(logger *log.Logger) GotenbergOption {
	return func(c *GotenbergConverter) {
		c.logger = logger
	}
}

// 确保GotenbergConverter实现了DocumentConverter接口
var _ DocumentConverter = (*GotenbergConverter)(nil)

// NewGotenbergConverter 创建一个新的Gotenberg文档转换器
func NewGotenbergConverter(serverURL string, options ...GotenbergOption) *GotenbergConverter {
	converter := &GotenbergConverter{
		ServerURL: serverURL,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: log.New(os.Stderr, "[文档转换] ", log.LstdFlags),
	}

	for _, option := range options {
		option(converter)
	}

	return converter
}

// ConvertToPDF 将源文档上传到渲染服务并取回PDF字节流
func (c *GotenbergConverter) ConvertToPDF(ctx context.Context, filename string, data []byte) ([]byte, error) {
	startTime := time.Now()
	c.logger.Printf("开始转换文档: %s (%d 字节)", filename, len(data))

	// 构建multipart请求体
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", filename)
	if err != nil {
		return nil, fmt.Errorf("构建multipart请求失败: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("写入文档内容失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("关闭multipart写入器失败: %w", err)
	}

	url := fmt.Sprintf("%s/forms/libreoffice/convert", c.ServerURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求到转换服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("转换服务返回错误状态码: %d, 响应: %s", resp.StatusCode, string(respBody))
	}

	pdfBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取转换服务响应失败: %w", err)
	}
	if len(pdfBytes) == 0 {
		return nil, fmt.Errorf("转换服务返回空PDF: %s", filename)
	}

	c.logger.Printf("文档转换完成: %s -> %d 字节PDF (用时 %.2f秒)", filename, len(pdfBytes), time.Since(startTime).Seconds())
	return pdfBytes, nil
}

// PandocConverter 基于本机pandoc可执行文件的文档转换器，作为HTTP渲染服务不可用时的回退
type PandocConverter struct {
	// pandoc可执行文件路径，空则走PATH查找
	BinaryPath string
	logger     *log.Logger
}

// PandocOption 定义配置选项函数
type PandocOption func(*PandocConverter)

// WithPandocLogger 配置自定义日志记录器
func WithPandocLogger(logger *log.Logger) PandocOption {
	return func(c *PandocConverter) {
		c.logger = logger
	}
}

var _ DocumentConverter = (*PandocConverter)(nil)

// NewPandocConverter 创建一个新的pandoc文档转换器
func NewPandocConverter(binaryPath string, options ...PandocOption) *PandocConverter {
	if binaryPath == "" {
		binaryPath = "pandoc"
	}

	converter := &PandocConverter{
		BinaryPath: binaryPath,
		logger:     log.New(os.Stderr, "[Pandoc转换] ", log.LstdFlags),
	}

	for _, option := range options {
		option(converter)
	}

	return converter
}

// ConvertToPDF 在独立临时目录中调用pandoc完成转换，结束后清理
func (c *PandocConverter) ConvertToPDF(ctx context.Context, filename string, data []byte) ([]byte, error) {
	startTime := time.Now()

	// 每次转换使用全新的临时目录，避免并发转换互相覆盖
	tmpDir, err := os.MkdirTemp("", "pandoc-convert-*")
	if err != nil {
		return nil, fmt.Errorf("创建临时目录失败: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, filepath.Base(filename))
	outputPath := filepath.Join(tmpDir, "output.pdf")

	if err := os.WriteFile(inputPath, data, 0600); err != nil {
		return nil, fmt.Errorf("写入临时输入文件失败: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.BinaryPath, inputPath, "-o", outputPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pandoc执行失败: %w, stderr: %s", err, stderr.String())
	}

	pdfBytes, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("读取pandoc输出失败: %w", err)
	}

	c.logger.Printf("pandoc转换完成: %s -> %d 字节PDF (用时 %.2f秒)", filename, len(pdfBytes), time.Since(startTime).Seconds())
	return pdfBytes, nil
}

// FallbackConverter 按顺序尝试多个转换器，首个成功者即返回
type FallbackConverter struct {
	converters []DocumentConverter
	logger     *log.Logger
}

var _ DocumentConverter = (*FallbackConverter)(nil)

// NewFallbackConverter 创建一个转换器链
func NewFallbackConverter(logger *log.Logger, converters ...DocumentConverter) *FallbackConverter {
	if logger == nil {
		logger = log.New(os.Stderr, "[转换链] ", log.LstdFlags)
	}
	return &FallbackConverter{
		converters: converters,
		logger:     logger,
	}
}

// ConvertToPDF 逐个尝试链中的转换器，全部失败时返回合并错误
func (c *FallbackConverter) ConvertToPDF(ctx context.Context, filename string, data []byte) ([]byte, error) {
	if len(c.converters) == 0 {
		return nil, fmt.Errorf("转换器链为空")
	}

	var errs []error
	for i, converter := range c.converters {
		pdfBytes, err := converter.ConvertToPDF(ctx, filename, data)
		if err == nil {
			return pdfBytes, nil
		}
		c.logger.Printf("转换器 %d/%d 处理 %s 失败: %v", i+1, len(c.converters), filename, err)
		errs = append(errs, err)

		// 上下文取消时不再继续尝试后续转换器
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
	}

	return nil, fmt.Errorf("所有转换器均失败 (%s): %w", filename, errors.Join(errs...))
}
