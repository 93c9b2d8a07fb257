package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"resume-matcher-go/internal/constants"
	"resume-matcher-go/internal/types"
)

func sampleTable() *types.ResultTable {
	return &types.ResultTable{
		Threshold: 40.0,
		Results: []types.MatchResult{
			{Seq: 1, ResumeName: "alice.pdf", MatchPercent: 87.65, Mobile: "9876543210", Email: "alice@example.com", Status: constants.StatusMatched},
			{Seq: 2, ResumeName: "bob.docx", MatchPercent: 12.5, Mobile: constants.SentinelNotFound, Email: "bob@example.com", Status: constants.StatusNotMatched},
			{Seq: 3, ResumeName: "broken.pdf", MatchPercent: 0, Mobile: constants.SentinelNoText, Email: constants.SentinelNoText, Status: constants.StatusNotMatched},
		},
	}
}

// TestBuildCSVRoundTrip 验证CSV导出再按列解析能还原结果表
func TestBuildCSVRoundTrip(t *testing.T) {
	exporter := NewExporter()
	table := sampleTable()

	data, err := exporter.BuildCSV(table)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err, "导出的CSV应能被标准解析器读取")
	require.Len(t, records, 4, "一行表头加三行数据")

	assert.Equal(t, constants.ReportColumns, records[0], "首行应是列名")

	assert.Equal(t, []string{"1", "alice.pdf", "87.65", "9876543210", "alice@example.com", constants.StatusMatched}, records[1])
	assert.Equal(t, []string{"2", "bob.docx", "12.50", constants.SentinelNotFound, "bob@example.com", constants.StatusNotMatched}, records[2])
	assert.Equal(t, []string{"3", "broken.pdf", "0.00", constants.SentinelNoText, constants.SentinelNoText, constants.StatusNotMatched}, records[3])
}

// TestBuildXLSXContent 验证xlsx报表的表头和数据行
func TestBuildXLSXContent(t *testing.T) {
	exporter := NewExporter(WithSheetName("Results"))
	table := sampleTable()

	data, err := exporter.BuildXLSX(table)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err, "导出的xlsx应能被重新打开")
	defer f.Close()

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, constants.ReportColumns, rows[0])
	assert.Equal(t, "alice.pdf", rows[1][1])
	assert.Equal(t, "87.65", rows[1][2])
	assert.Equal(t, constants.StatusMatched, rows[1][5])
}

// failConverter 总是失败的转换器
type failConverter struct{}

func (f *failConverter) ConvertToPDF(ctx context.Context, filename string, data []byte) ([]byte, error) {
	return nil, assert.AnError
}

// okConverter 返回固定PDF的转换器
type okConverter struct{}

func (o *okConverter) ConvertToPDF(ctx context.Context, filename string, data []byte) ([]byte, error) {
	return []byte("%PDF-1.7"), nil
}

// TestExportPDFFailureDoesNotBlockCSV 验证PDF转换失败时CSV和xlsx仍然产出
func TestExportPDFFailureDoesNotBlockCSV(t *testing.T) {
	exporter := NewExporter(WithConverter(&failConverter{}))

	artifacts, err := exporter.Export(context.Background(), sampleTable())
	require.NoError(t, err, "PDF转换失败不应让导出整体失败")
	assert.NotEmpty(t, artifacts.XLSX)
	assert.NotEmpty(t, artifacts.CSV, "CSV应始终产出")
	assert.Nil(t, artifacts.PDF)
	assert.NotEmpty(t, artifacts.Warnings, "PDF失败应记录警告")
}

// TestExportFullArtifacts 验证转换链可用时三件套齐全
func TestExportFullArtifacts(t *testing.T) {
	exporter := NewExporter(WithConverter(&okConverter{}))

	artifacts, err := exporter.Export(context.Background(), sampleTable())
	require.NoError(t, err)
	assert.NotEmpty(t, artifacts.XLSX)
	assert.NotEmpty(t, artifacts.CSV)
	assert.Equal(t, []byte("%PDF-1.7"), artifacts.PDF)
	assert.Empty(t, artifacts.Warnings)
}

// TestExportWithoutConverter 验证未配置转换链时PDF被省略且无警告
func TestExportWithoutConverter(t *testing.T) {
	exporter := NewExporter()

	artifacts, err := exporter.Export(context.Background(), sampleTable())
	require.NoError(t, err)
	assert.Nil(t, artifacts.PDF)
	assert.Empty(t, artifacts.Warnings)
}
