package matcher

import (
	"context"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-matcher-go/internal/constants"
	"resume-matcher-go/internal/types"
)

// fakeExtractor 按文件名返回预置文本的提取器
type fakeExtractor struct {
	texts map[string]string // 文件名 -> 文本
	fail  map[string]bool   // 文件名 -> 是否提取失败
}

func (f *fakeExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error) {
	return f.ExtractTextFromBytes(ctx, nil, filePath, nil)
}

func (f *fakeExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string, options interface{}) (string, map[string]interface{}, error) {
	return f.ExtractTextFromBytes(ctx, nil, uri, options)
}

func (f *fakeExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string, options interface{}) (string, map[string]interface{}, error) {
	if f.fail[uri] {
		return "", nil, assert.AnError
	}
	return f.texts[uri], map[string]interface{}{}, nil
}

// fakeConverter 透传数据的转换器，可配置为失败
type fakeConverter struct {
	fail bool
}

func (f *fakeConverter) ConvertToPDF(ctx context.Context, filename string, data []byte) ([]byte, error) {
	if f.fail {
		return nil, assert.AnError
	}
	return data, nil
}

// keywordCountEmbedder 词表计数向量化器：向量的每一维是对应关键词的出现次数，
// 再做L2归一化。相同签名得到相同单位向量，自相似得分恒为100。
type keywordCountEmbedder struct {
	failFor map[string]bool // 包含该子串的文本向量化失败
}

func (k *keywordCountEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		for substr := range k.failFor {
			if strings.Contains(text, substr) {
				return nil, assert.AnError
			}
		}
		vector := make([]float64, len(constants.SkillVocabulary))
		words := strings.Fields(strings.ToLower(text))
		for d, kw := range constants.SkillVocabulary {
			for _, w := range words {
				if w == strings.ToLower(kw) {
					vector[d]++
				}
			}
		}
		vectors[i] = normalizeForTest(vector)
	}
	return vectors, nil
}

func normalizeForTest(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func newTestEngine(extractor *fakeExtractor, converter *fakeConverter, embedder embedding.Embedder, opts ...EngineOption) *Engine {
	return NewEngine(extractor, converter, embedder, opts...)
}

// TestRankEmptyJobDescription 验证空JD中止整个批次
func TestRankEmptyJobDescription(t *testing.T) {
	engine := newTestEngine(&fakeExtractor{}, &fakeConverter{}, &keywordCountEmbedder{})

	_, err := engine.Rank(context.Background(), "   ", []types.ResumeDocument{
		{FileName: "a.pdf", Format: types.FormatPDF},
	})
	require.ErrorIs(t, err, ErrEmptyJobDescription, "空JD应返回输入错误")
}

// TestRankEmptyBatch 验证空简历批次中止运行
func TestRankEmptyBatch(t *testing.T) {
	engine := newTestEngine(&fakeExtractor{}, &fakeConverter{}, &keywordCountEmbedder{})

	_, err := engine.Rank(context.Background(), "Python developer", nil)
	require.ErrorIs(t, err, ErrEmptyBatch, "空批次应返回输入错误")
}

// TestRankEndToEndScenario 端到端场景：Python/AWS/SQL简历应排第一且被判为匹配
func TestRankEndToEndScenario(t *testing.T) {
	extractor := &fakeExtractor{texts: map[string]string{
		"strong.pdf": "Python, AWS, SQL, 5 years experience, reach me at 9876543210 or strong@example.com",
		"weak.pdf":   "Graphic design, Photoshop, Illustrator",
	}}
	engine := newTestEngine(extractor, &fakeConverter{}, &keywordCountEmbedder{})

	table, err := engine.Rank(context.Background(),
		"Looking for a Python developer with AWS and SQL experience",
		[]types.ResumeDocument{
			{FileName: "weak.pdf", Format: types.FormatPDF},
			{FileName: "strong.pdf", Format: types.FormatPDF},
		})
	require.NoError(t, err)
	require.Len(t, table.Results, 2)

	// 强匹配简历与JD的签名一致，自相似得分应为100
	first := table.Results[0]
	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, "strong.pdf", first.ResumeName)
	assert.InDelta(t, 100.0, first.MatchPercent, 0.01, "签名一致的简历得分应为100")
	assert.Equal(t, constants.StatusMatched, first.Status)
	assert.Equal(t, "9876543210", first.Mobile)
	assert.Equal(t, "strong@example.com", first.Email)

	second := table.Results[1]
	assert.Equal(t, 2, second.Seq)
	assert.Equal(t, "weak.pdf", second.ResumeName)
	assert.Less(t, second.MatchPercent, first.MatchPercent, "无关简历得分应明显更低")
	assert.Equal(t, constants.StatusNotMatched, second.Status)
}

// TestRankEmptyTextDegradesToZero 验证空文本简历降级为零分且联系方式为"-"
func TestRankEmptyTextDegradesToZero(t *testing.T) {
	extractor := &fakeExtractor{texts: map[string]string{
		"good.pdf":  "Python AWS SQL, mail: a@b.com, 1234567890",
		"empty.pdf": "",
	}}
	engine := newTestEngine(extractor, &fakeConverter{}, &keywordCountEmbedder{})

	table, err := engine.Rank(context.Background(), "Python AWS SQL",
		[]types.ResumeDocument{
			{FileName: "good.pdf", Format: types.FormatPDF},
			{FileName: "empty.pdf", Format: types.FormatPDF},
		})
	require.NoError(t, err)
	require.Len(t, table.Results, 2, "空文本简历仍应产出结果行")

	var emptyResult types.MatchResult
	for _, r := range table.Results {
		if r.ResumeName == "empty.pdf" {
			emptyResult = r
		}
	}
	assert.Equal(t, 0.0, emptyResult.MatchPercent)
	assert.Equal(t, constants.SentinelNoText, emptyResult.Mobile, "未运行提取时联系方式应为占位符")
	assert.Equal(t, constants.SentinelNoText, emptyResult.Email)
}

// TestRankExtractionFailureDoesNotAbort 验证单份简历提取失败不中断批次
func TestRankExtractionFailureDoesNotAbort(t *testing.T) {
	extractor := &fakeExtractor{
		texts: map[string]string{"ok.pdf": "Python AWS"},
		fail:  map[string]bool{"bad.pdf": true},
	}
	engine := newTestEngine(extractor, &fakeConverter{}, &keywordCountEmbedder{})

	table, err := engine.Rank(context.Background(), "Python AWS",
		[]types.ResumeDocument{
			{FileName: "bad.pdf", Format: types.FormatPDF},
			{FileName: "ok.pdf", Format: types.FormatPDF},
		})
	require.NoError(t, err, "单份简历失败不应让整个批次报错")
	require.Len(t, table.Results, 2)
	assert.NotEmpty(t, table.Warnings, "提取失败应产生警告")

	assert.Equal(t, "ok.pdf", table.Results[0].ResumeName, "正常简历应排在失败简历前面")
	assert.Equal(t, 0.0, table.Results[1].MatchPercent)
}

// TestRankUnsupportedFormatSkipped 验证不支持的格式被跳过且不产出结果行
func TestRankUnsupportedFormatSkipped(t *testing.T) {
	extractor := &fakeExtractor{texts: map[string]string{"ok.pdf": "Python"}}
	engine := newTestEngine(extractor, &fakeConverter{}, &keywordCountEmbedder{})

	table, err := engine.Rank(context.Background(), "Python",
		[]types.ResumeDocument{
			{FileName: "notes.txt", Format: types.FormatUnsupported},
			{FileName: "ok.pdf", Format: types.FormatPDF},
		})
	require.NoError(t, err)
	assert.Len(t, table.Results, 1, "不支持的格式不应产出结果行")
	assert.Equal(t, "ok.pdf", table.Results[0].ResumeName)
	assert.NotEmpty(t, table.Warnings, "跳过的文件应记录警告")
}

// TestRankDocxConversionFailureDegrades 验证DOCX两级转换都失败时降级为零分
func TestRankDocxConversionFailureDegrades(t *testing.T) {
	extractor := &fakeExtractor{texts: map[string]string{"cv.docx": "Python"}}
	engine := newTestEngine(extractor, &fakeConverter{fail: true}, &keywordCountEmbedder{})

	table, err := engine.Rank(context.Background(), "Python",
		[]types.ResumeDocument{
			{FileName: "cv.docx", Format: types.FormatDOCX},
		})
	require.NoError(t, err)
	require.Len(t, table.Results, 1)
	assert.Equal(t, 0.0, table.Results[0].MatchPercent)
	assert.Equal(t, constants.SentinelNoText, table.Results[0].Mobile)
	assert.NotEmpty(t, table.Warnings)
}

// TestRankStableTieOrder 验证同分简历保持提交顺序且序号连续
func TestRankStableTieOrder(t *testing.T) {
	extractor := &fakeExtractor{texts: map[string]string{
		"first.pdf":  "Java SQL",
		"second.pdf": "Java SQL",
		"third.pdf":  "Photoshop only",
	}}
	engine := newTestEngine(extractor, &fakeConverter{}, &keywordCountEmbedder{})

	table, err := engine.Rank(context.Background(), "Java SQL",
		[]types.ResumeDocument{
			{FileName: "first.pdf", Format: types.FormatPDF},
			{FileName: "second.pdf", Format: types.FormatPDF},
			{FileName: "third.pdf", Format: types.FormatPDF},
		})
	require.NoError(t, err)
	require.Len(t, table.Results, 3)

	assert.Equal(t, "first.pdf", table.Results[0].ResumeName, "同分时应保持提交顺序")
	assert.Equal(t, "second.pdf", table.Results[1].ResumeName)
	assert.Equal(t, "third.pdf", table.Results[2].ResumeName)

	for i, r := range table.Results {
		assert.Equal(t, i+1, r.Seq, "序号应从1开始连续递增")
	}
}

// TestRankEmbeddingFailureKeepsContacts 验证单份简历向量化失败时保留联系方式但计零分
func TestRankEmbeddingFailureKeepsContacts(t *testing.T) {
	extractor := &fakeExtractor{texts: map[string]string{
		"poison.pdf": "POISON text with phone 9998887776 and poison@example.com",
		"ok.pdf":     "Python AWS",
	}}
	embedder := &keywordCountEmbedder{failFor: map[string]bool{"POISON": true}}
	engine := newTestEngine(extractor, &fakeConverter{}, embedder)

	table, err := engine.Rank(context.Background(), "Python AWS",
		[]types.ResumeDocument{
			{FileName: "poison.pdf", Format: types.FormatPDF},
			{FileName: "ok.pdf", Format: types.FormatPDF},
		})
	require.NoError(t, err)
	require.Len(t, table.Results, 2)

	var poisoned types.MatchResult
	for _, r := range table.Results {
		if r.ResumeName == "poison.pdf" {
			poisoned = r
		}
	}
	assert.Equal(t, 0.0, poisoned.MatchPercent)
	assert.Equal(t, "9998887776", poisoned.Mobile, "向量化失败不影响已提取的联系方式")
	assert.Equal(t, "poison@example.com", poisoned.Email)
	assert.NotEmpty(t, table.Warnings)
}

// TestComputeThreshold 验证自适应阈值公式 max(25, 均值×0.8)
func TestComputeThreshold(t *testing.T) {
	results := []types.MatchResult{
		{MatchPercent: 10}, {MatchPercent: 20}, {MatchPercent: 30},
	}
	assert.Equal(t, 25.0, computeThreshold(results), "均值20×0.8=16低于下限，阈值应为25")

	high := []types.MatchResult{
		{MatchPercent: 80}, {MatchPercent: 90}, {MatchPercent: 100},
	}
	assert.InDelta(t, 72.0, computeThreshold(high), 1e-9, "均值90×0.8=72高于下限")
}

// fakeVectorCache 内存版JD向量缓存
type fakeVectorCache struct {
	data map[string][]float64
	hits int
	sets int
}

func (f *fakeVectorCache) GetJobVector(ctx context.Context, hash string) ([]float64, bool, error) {
	if v, ok := f.data[hash]; ok {
		f.hits++
		return v, true, nil
	}
	return nil, false, nil
}

func (f *fakeVectorCache) SetJobVector(ctx context.Context, hash string, vector []float64) error {
	f.data[hash] = vector
	f.sets++
	return nil
}

// TestRankJobVectorCacheReused 验证同一JD的第二次运行命中向量缓存
func TestRankJobVectorCacheReused(t *testing.T) {
	extractor := &fakeExtractor{texts: map[string]string{"a.pdf": "Python"}}
	cache := &fakeVectorCache{data: make(map[string][]float64)}
	engine := newTestEngine(extractor, &fakeConverter{}, &keywordCountEmbedder{},
		WithVectorCache(cache), WithModelVersion("text-embedding-v3"))

	docs := []types.ResumeDocument{{FileName: "a.pdf", Format: types.FormatPDF}}

	_, err := engine.Rank(context.Background(), "Python developer", docs)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets, "首次运行应写入缓存")

	_, err = engine.Rank(context.Background(), "Python developer", docs)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits, "第二次运行应命中缓存")
}
