package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
)

// CertificateExportHeader 导出表头
var CertificateExportHeader = []string{
	"Record Number",
	"Certificate Type",
	"Parties",
	"Priority",
	"Status",
	"Tags",
	"Cost",
	"Additional Cost",
	"Order Number",
	"Payment Type",
	"Payment Date",
	"Created At",
}

// 导出上限；超过的部分需要加条件再导
const exportMaxRows = 10000

// ExportCertificatesXLSX 按当前过滤条件导出证书清单Excel
// 忽略请求里的分页参数，最多导出exportMaxRows行
func (s *CertificateService) ExportCertificatesXLSX(ctx context.Context, req ListCertificatesRequest) ([]byte, error) {
	req.Limit = exportMaxRows
	req.Offset = 0
	resp, err := s.ListCertificates(ctx, req)
	if err != nil {
		return nil, err
	}
	return generateCertificatesExcel(resp.Items)
}

func generateCertificatesExcel(certs []*domain.Certificate) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Certificates"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 设置表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 写入表头
	for col, header := range CertificateExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	// 设置列宽
	columnWidths := []float64{
		20, // Record Number
		25, // Certificate Type
		35, // Parties
		10, // Priority
		15, // Status
		25, // Tags
		12, // Cost
		14, // Additional Cost
		20, // Order Number
		18, // Payment Type
		14, // Payment Date
		20, // Created At
	}
	for i := range CertificateExportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if i < len(columnWidths) && columnWidths[i] > 0 {
			if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	// 写入数据
	for rowIdx, cert := range certs {
		row := rowIdx + 2 // 从第2行开始（第1行是表头）

		statusName := ""
		if cert.Status != nil {
			statusName = cert.Status.DisplayName
		}
		tagNames := make([]string, 0, len(cert.Tags))
		for _, tag := range cert.Tags {
			tagNames = append(tagNames, tag.TagName)
		}
		paymentDate := ""
		if cert.PaymentDate != nil {
			paymentDate = cert.PaymentDate.Format("2006-01-02")
		}

		values := []any{
			cert.RecordNumber,
			cert.CertificateTypeName,
			cert.PartiesName,
			string(cert.Priority),
			statusName,
			strings.Join(tagNames, ", "),
			floatCell(cert.Cost),
			floatCell(cert.AdditionalCost),
			cert.OrderNumber,
			cert.PaymentTypeName,
			paymentDate,
			cert.CreatedAt.Format("2006-01-02 15:04:05"),
		}

		for col, value := range values {
			if value == nil || value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, col+1, err)
			}
		}
	}

	// 冻结表头
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	// Write to bytes buffer
	// Note: File must remain open during Write operation
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func floatCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
