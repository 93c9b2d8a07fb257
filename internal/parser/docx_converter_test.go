package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGotenbergConverterSuccess 验证转换服务正常时拿到PDF字节流
func TestGotenbergConverterSuccess(t *testing.T) {
	fakePDF := []byte("%PDF-1.7 fake content")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/forms/libreoffice/convert", r.URL.Path, "应走LibreOffice转换路由")

		err := r.ParseMultipartForm(10 << 20)
		require.NoError(t, err, "请求应是multipart表单")
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 1, "应上传一个文件")
		assert.Equal(t, "resume.docx", files[0].Filename)

		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(fakePDF)
	}))
	defer server.Close()

	converter := NewGotenbergConverter(server.URL)
	pdfBytes, err := converter.ConvertToPDF(context.Background(), "resume.docx", []byte("docx content"))
	require.NoError(t, err)
	assert.Equal(t, fakePDF, pdfBytes)
}

// TestGotenbergConverterServerError 验证服务端错误被包装为error返回
func TestGotenbergConverterServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "libreoffice crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	converter := NewGotenbergConverter(server.URL)
	_, err := converter.ConvertToPDF(context.Background(), "resume.docx", []byte("docx content"))
	require.Error(t, err, "服务端500应返回错误")
	assert.Contains(t, err.Error(), "500")
}

// stubConverter 测试用转换器，返回固定结果
type stubConverter struct {
	result []byte
	err    error
	calls  int
}

func (s *stubConverter) ConvertToPDF(ctx context.Context, filename string, data []byte) ([]byte, error) {
	s.calls++
	return s.result, s.err
}

// TestFallbackConverterUsesFirstSuccess 验证链中首个成功的转换器生效
func TestFallbackConverterUsesFirstSuccess(t *testing.T) {
	primary := &stubConverter{result: []byte("pdf-from-primary")}
	secondary := &stubConverter{result: []byte("pdf-from-secondary")}

	chain := NewFallbackConverter(nil, primary, secondary)
	pdfBytes, err := chain.ConvertToPDF(context.Background(), "a.docx", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf-from-primary"), pdfBytes)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, secondary.calls, "首选成功后不应再调用回退转换器")
}

// TestFallbackConverterFallsThrough 验证首选失败后回退到下一个转换器
func TestFallbackConverterFallsThrough(t *testing.T) {
	primary := &stubConverter{err: assert.AnError}
	secondary := &stubConverter{result: []byte("pdf-from-secondary")}

	chain := NewFallbackConverter(nil, primary, secondary)
	pdfBytes, err := chain.ConvertToPDF(context.Background(), "a.docx", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf-from-secondary"), pdfBytes)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

// TestFallbackConverterAllFail 验证全部失败时返回合并错误
func TestFallbackConverterAllFail(t *testing.T) {
	primary := &stubConverter{err: assert.AnError}
	secondary := &stubConverter{err: assert.AnError}

	chain := NewFallbackConverter(nil, primary, secondary)
	_, err := chain.ConvertToPDF(context.Background(), "a.docx", []byte("x"))
	require.Error(t, err, "全部转换器失败应返回错误")
	assert.Contains(t, err.Error(), "所有转换器均失败")
}

// TestFallbackConverterEmptyChain 验证空链直接报错
func TestFallbackConverterEmptyChain(t *testing.T) {
	chain := NewFallbackConverter(nil)
	_, err := chain.ConvertToPDF(context.Background(), "a.docx", []byte("x"))
	require.Error(t, err)
}
