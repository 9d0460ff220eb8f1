package controller

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"time"

	"swachhconnect/models"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	dateLayout     = "2006-01-02"
	reportTimeout  = 30 * time.Second
	utf8BOM        = "\ufeff"
	reportFileName = "SwachhConnect_Report_%s_to_%s_%s.csv"
)

var reportHeader = []string{"ID", "Reported Date", "Reported By", "Status", "Category", "Caption", "Address", "Deadline", "Municipal Reply"}

// reportRange parses the inclusive from/to dates; to covers its whole day.
func reportRange(c *gin.Context) (from, to time.Time, err error) {
	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr == "" || toStr == "" {
		return from, to, errInvalid("Please select both start and end dates")
	}
	if from, err = time.Parse(dateLayout, fromStr); err != nil {
		return from, to, errInvalid("invalid start date, expected YYYY-MM-DD")
	}
	if to, err = time.Parse(dateLayout, toStr); err != nil {
		return from, to, errInvalid("invalid end date, expected YYYY-MM-DD")
	}
	if from.After(to) {
		return from, to, errInvalid("Start date cannot be after end date")
	}
	return from, to.Add(24*time.Hour - time.Nanosecond), nil
}

func (h *Handler) reportIssues(c *gin.Context) (issues []models.Issue, from, to time.Time, ok bool) {
	from, to, err := reportRange(c)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return nil, from, to, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), reportTimeout)
	defer cancel()

	issues, _, err = h.Issues.List(ctx, models.IssueFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		From:     from,
		To:       to,
	})
	if err != nil {
		log.WithError(err).Error("Error generating report")
		errorJSON(c, http.StatusInternalServerError, "Failed to generate report")
		return nil, from, to, false
	}
	return issues, from, to, true
}

// Report lists every issue reported within the date range, newest first.
func (h *Handler) Report(c *gin.Context) {
	issues, from, to, ok := h.reportIssues(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"from":   from.Format(dateLayout),
		"to":     to.Format(dateLayout),
		"total":  len(issues),
		"issues": issues,
	})
}

// ReportCSV is Report as a downloadable spreadsheet.
func (h *Handler) ReportCSV(c *gin.Context) {
	issues, from, to, ok := h.reportIssues(c)
	if !ok {
		return
	}

	fileName := fmt.Sprintf(reportFileName, from.Format("20060102"), to.Format("20060102"), h.now().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Status(http.StatusOK)

	if _, err := c.Writer.WriteString(utf8BOM); err != nil {
		log.WithError(err).Error("Error writing report")
		return
	}
	if err := WriteReportCSV(c.Writer, issues); err != nil {
		log.WithError(err).Error("Error writing report")
	}
}

func WriteReportCSV(w io.Writer, issues []models.Issue) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, issue := range issues {
		if err := cw.Write(reportRow(issue)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func reportRow(issue models.Issue) []string {
	reportedBy := issue.UserName
	if reportedBy == "" {
		reportedBy = "N/A"
	}
	address := issue.Address
	if address == "" {
		address = "N/A"
	}
	deadline := "N/A"
	if issue.Deadline != nil {
		deadline = issue.Deadline.Format(dateLayout)
	}
	return []string{
		issue.ID.Hex(),
		issue.CreatedAt.Format("2006-01-02 15:04"),
		reportedBy,
		issue.Status,
		issue.Category,
		issue.Caption,
		address,
		deadline,
		issue.MunicipalReply,
	}
}
