package services

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"claims-intake-platform/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportService renders claims and batch results as downloadable spreadsheets.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// ClaimsWorkbook builds an xlsx listing claims with their best-match summaries
func (es *ExportService) ClaimsWorkbook(claims []models.Claim) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Claims"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Claim Number", "Claimant Name", "Date of Injury", "Adjuster",
		"Employer", "Physician", "Documents", "Match History Entries", "Created At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, claim := range claims {
		row := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), claim.ClaimNumber)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), claim.Name)
		dateStr := ""
		if claim.Date != nil {
			dateStr = claim.Date.Format("2006-01-02")
		}
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), dateStr)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), claim.Adjuster)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), claim.EmployerName)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), claim.PhysicianName)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), len(claim.Documents))
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), len(claim.MatchHistory))
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), claim.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	for i := range headers {
		col := fmt.Sprintf("%c:%c", 'A'+i, 'A'+i)
		f.SetColWidth(sheetName, col, col, 18)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return &buf, nil
}

// BatchReportWorkbook builds an xlsx report for one batch job: a results
// sheet listing every match, a failures sheet, and a summary sheet.
func (es *ExportService) BatchReportWorkbook(job models.BatchJob) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Matches"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Document ID", "Rank", "Claim Number", "Claimant Name", "Score",
		"Recommended", "Matched Fields",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	row := 2
	for _, success := range job.Success {
		if len(success.Matches) == 0 {
			f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), success.DocumentID)
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), "-")
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), 0)
			row++
			continue
		}
		for rank, match := range success.Matches {
			f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), success.DocumentID)
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), rank+1)
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), match.ClaimNumber)
			f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), match.ClaimantName)
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), match.Score)
			f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), match.IsRecommended)
			f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), strings.Join(match.MatchedFields, ", "))
			row++
		}
	}

	if len(job.Failed) > 0 {
		failSheet := "Failures"
		if _, err := f.NewSheet(failSheet); err != nil {
			return nil, fmt.Errorf("failed to create failures sheet: %w", err)
		}
		f.SetCellValue(failSheet, "A1", "Document ID")
		f.SetCellValue(failSheet, "B1", "Reason")
		for i, failure := range job.Failed {
			f.SetCellValue(failSheet, fmt.Sprintf("A%d", i+2), failure.DocumentID)
			f.SetCellValue(failSheet, fmt.Sprintf("B%d", i+2), failure.Reason)
		}
	}

	summarySheet := "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}

	duration := ""
	if job.EndTime != nil {
		duration = job.EndTime.Sub(job.StartTime).Round(time.Millisecond).String()
	}
	summaryData := [][]interface{}{
		{"Batch ID", job.ID},
		{"Status", job.Status},
		{"Total Documents", job.Total},
		{"Succeeded", len(job.Success)},
		{"Failed", len(job.Failed)},
		{"Minimum Score", job.MinScore},
		{"Started", job.StartTime.Format("2006-01-02 15:04:05")},
		{"Duration", duration},
	}
	for i, rowData := range summaryData {
		for j, cell := range rowData {
			cellRef := fmt.Sprintf("%c%d", 'A'+j, i+1)
			f.SetCellValue(summarySheet, cellRef, cell)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return &buf, nil
}

// StreamWorkbook writes an xlsx buffer to the HTTP response as an attachment
func (es *ExportService) StreamWorkbook(ctx *gin.Context, buf *bytes.Buffer, filename string) {
	ctx.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Header("Content-Disposition", "attachment; filename="+filename)
	ctx.Header("Content-Length", strconv.Itoa(buf.Len()))
	ctx.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
