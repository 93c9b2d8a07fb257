package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"resume-matcher-go/internal/constants"
	"resume-matcher-go/internal/parser"
	"resume-matcher-go/internal/types"
)

// Artifacts 一次导出产生的三种报表
type Artifacts struct {
	XLSX []byte // 表格文档
	CSV  []byte // 扁平文件，始终产出
	PDF  []byte // 可打印版本，转换失败时为nil

	// 导出过程中的非致命问题
	Warnings []string
}

// Exporter 报表导出器，把结果表渲染为xlsx、CSV和可打印PDF
type Exporter struct {
	// 可打印PDF依赖的转换链，nil时跳过PDF产出
	converter parser.DocumentConverter
	sheetName string
	logger    zerolog.Logger
}

// ExporterOption 导出器的配置选项
type ExporterOption func(*Exporter)

// WithConverter 配置可打印PDF使用的文档转换链
func WithConverter(converter parser.DocumentConverter) ExporterOption {
	return func(e *Exporter) {
		e.converter = converter
	}
}

// WithSheetName 配置xlsx工作表名称
func WithSheetName(name string) ExporterOption {
	return func(e *Exporter) {
		e.sheetName = name
	}
}

// WithExporterLogger 配置导出器日志记录器
func WithExporterLogger(logger zerolog.Logger) ExporterOption {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// NewExporter 创建报表导出器
func NewExporter(options ...ExporterOption) *Exporter {
	exporter := &Exporter{
		sheetName: "Sheet1",
		logger:    zerolog.Nop(),
	}
	for _, option := range options {
		option(exporter)
	}
	return exporter
}

// Export 导出完整的三件套。CSV直接从结果表产出，不受PDF转换结果影响；
// PDF转换失败记为警告，不阻塞其余产物。
func (e *Exporter) Export(ctx context.Context, table *types.ResultTable) (*Artifacts, error) {
	artifacts := &Artifacts{}

	xlsxBytes, err := e.BuildXLSX(table)
	if err != nil {
		return nil, fmt.Errorf("构建xlsx报表失败: %w", err)
	}
	artifacts.XLSX = xlsxBytes

	artifacts.CSV, err = e.BuildCSV(table)
	if err != nil {
		return nil, fmt.Errorf("构建CSV报表失败: %w", err)
	}

	if e.converter != nil {
		pdfBytes, err := e.converter.ConvertToPDF(ctx, "match_report.xlsx", xlsxBytes)
		if err != nil {
			warning := fmt.Sprintf("可打印PDF转换失败，已省略: %v", err)
			e.logger.Warn().Err(err).Msg("报表PDF转换失败")
			artifacts.Warnings = append(artifacts.Warnings, warning)
		} else {
			artifacts.PDF = pdfBytes
		}
	}

	e.logger.Info().
		Int("rows", len(table.Results)).
		Bool("pdf", artifacts.PDF != nil).
		Msg("报表导出完成")
	return artifacts, nil
}

// BuildXLSX 把结果表渲染为xlsx表格文档：一行表头加每条结果一行
func (e *Exporter) BuildXLSX(table *types.ResultTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if e.sheetName != "" && e.sheetName != sheet {
		if err := f.SetSheetName(sheet, e.sheetName); err != nil {
			return nil, fmt.Errorf("设置工作表名称失败: %w", err)
		}
		sheet = e.sheetName
	}

	header := make([]interface{}, len(constants.ReportColumns))
	for i, col := range constants.ReportColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("写入表头失败: %w", err)
	}

	for i, result := range table.Results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("计算单元格坐标失败: %w", err)
		}
		row := []interface{}{
			result.Seq,
			result.ResumeName,
			result.MatchPercent,
			result.Mobile,
			result.Email,
			result.Status,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("写入第%d行失败: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("序列化xlsx失败: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildCSV 把结果表渲染为UTF-8 CSV，表头在首行，列序与xlsx一致
func (e *Exporter) BuildCSV(table *types.ResultTable) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(constants.ReportColumns); err != nil {
		return nil, fmt.Errorf("写入CSV表头失败: %w", err)
	}

	for _, result := range table.Results {
		record := []string{
			strconv.Itoa(result.Seq),
			result.ResumeName,
			strconv.FormatFloat(result.MatchPercent, 'f', 2, 64),
			result.Mobile,
			result.Email,
			result.Status,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("写入CSV数据行失败: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("刷新CSV缓冲失败: %w", err)
	}
	return buf.Bytes(), nil
}
