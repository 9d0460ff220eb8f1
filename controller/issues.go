package controller

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"swachhconnect/categorizer"
	"swachhconnect/models"
	"swachhconnect/storage"
	"swachhconnect/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	MaxImageSize  = 5 << 20
	MaxCaptionLen = 500
	MaxReplyLen   = 1000
)

type IssueResponse struct {
	models.Issue
	SignedURL string `json:"signed_url"`
	Overdue   bool   `json:"overdue"`
}

func (h *Handler) issueResponse(ctx context.Context, issue models.Issue) IssueResponse {
	signedURL := issue.ImageURL
	if issue.ImageKey != "" {
		url, err := h.Blobs.PresignGet(ctx, issue.ImageKey, h.Settings.PresignTTL)
		if err == nil {
			signedURL = url
		} else {
			log.WithError(err).Warn("Error generating pre-signed URL")
		}
	}
	return IssueResponse{Issue: issue, SignedURL: signedURL, Overdue: issue.Overdue(h.now())}
}

func (h *Handler) issueResponses(ctx context.Context, issues []models.Issue) []IssueResponse {
	out := make([]IssueResponse, 0, len(issues))
	for _, issue := range issues {
		out = append(out, h.issueResponse(ctx, issue))
	}
	return out
}

// CreateIssue accepts a citizen report as multipart form data: image, caption
// and optionally latitude, longitude, address and deadline.
func (h *Handler) CreateIssue(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), submitTimeout)
	defer cancel()

	userID, _ := currentUser(c)
	claims := currentClaims(c)

	caption := strings.TrimSpace(c.PostForm("caption"))
	if caption == "" {
		errorJSON(c, http.StatusBadRequest, "Please enter a caption describing the issue")
		return
	}
	if len([]rune(caption)) > MaxCaptionLen {
		errorJSON(c, http.StatusBadRequest, "Caption must be at most 500 characters")
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "No image file provided")
		return
	}
	if file.Size > MaxImageSize {
		errorJSON(c, http.StatusBadRequest, "Image size should not exceed 5MB")
		return
	}
	fileContent, err := file.Open()
	if err != nil {
		log.WithError(err).Error("Error opening uploaded image")
		errorJSON(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	defer fileContent.Close()

	data, err := io.ReadAll(io.LimitReader(fileContent, MaxImageSize+1))
	if err != nil {
		log.WithError(err).Error("Error reading uploaded image")
		errorJSON(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if len(data) > MaxImageSize {
		errorJSON(c, http.StatusBadRequest, "Image size should not exceed 5MB")
		return
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		errorJSON(c, http.StatusBadRequest, "Please select a valid image file")
		return
	}

	location, err := parseLocation(c.PostForm("latitude"), c.PostForm("longitude"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	deadline, err := parseDeadline(c.PostForm("deadline"), h.now())
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	address := strings.TrimSpace(c.PostForm("address"))
	if address == "" && location != nil && h.Geo != nil {
		address = h.Geo.Address(ctx, location.Latitude(), location.Longitude())
	}

	now := h.now()
	key := storage.ImageKey(userID, file.Filename, now)
	imageURL, err := h.Blobs.Upload(ctx, key, bytes.NewReader(data), mime.String())
	if err != nil {
		log.WithError(err).Error("Error uploading image")
		errorJSON(c, http.StatusInternalServerError, "Error uploading image")
		return
	}

	category := h.Categorizer.Categorize(ctx, caption, &categorizer.Image{MIMEType: mime.String(), Data: data})

	issue := &models.Issue{
		UserID:    userID,
		UserName:  reporterName(claims),
		Caption:   caption,
		Category:  category.String(),
		ImageKey:  key,
		ImageURL:  imageURL,
		Location:  location,
		Address:   address,
		Status:    models.StatusPending,
		Deadline:  deadline,
		CreatedAt: now,
	}
	if err := h.Issues.Create(ctx, issue); err != nil {
		log.WithError(err).Error("Mongo insert")
		if err := h.Blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
			log.WithError(err).Warn("Error removing orphaned image")
		}
		errorJSON(c, http.StatusInternalServerError, "Error saving issue")
		return
	}

	log.WithFields(log.Fields{"issue": issue.ID.Hex(), "category": issue.Category}).Info("Issue reported")
	c.JSON(http.StatusCreated, h.issueResponse(ctx, *issue))
}

func reporterName(claims *utils.SignedDetails) string {
	u := models.User{FirstName: claims.FirstName, LastName: claims.LastName, Phone: claims.Phone}
	return u.DisplayName()
}

func parseLocation(latStr, lonStr string) (*models.GeoPoint, error) {
	latStr, lonStr = strings.TrimSpace(latStr), strings.TrimSpace(lonStr)
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, errInvalid("both latitude and longitude are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, errInvalid("invalid latitude")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, errInvalid("invalid longitude")
	}
	return models.NewGeoPoint(lat, lon), nil
}

// parseDeadline accepts YYYY-MM-DD or RFC 3339; dates before today are rejected.
func parseDeadline(s string, now time.Time) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return nil, errInvalid("invalid deadline, expected YYYY-MM-DD")
		}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if t.Before(today) {
		return nil, errInvalid("deadline cannot be in the past")
	}
	return &t, nil
}

type errInvalid string

func (e errInvalid) Error() string { return string(e) }

func validCategory(c string) bool {
	return categorizer.Category(c).Valid()
}

func (h *Handler) listIssues(c *gin.Context, f models.IssueFilter) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if f.Status != "" && f.Status != "all" && f.Status != models.StatusPending && f.Status != models.StatusSolved {
		errorJSON(c, http.StatusBadRequest, "status must be pending, solved or all")
		return
	}
	if f.Category != "" && !validCategory(f.Category) {
		errorJSON(c, http.StatusBadRequest, "unknown category")
		return
	}
	f.Page, f.Limit = pageParams(c)

	issues, total, err := h.Issues.List(ctx, f)
	if err != nil {
		log.WithError(err).Error("Error getting issues")
		errorJSON(c, http.StatusInternalServerError, "Error getting issues")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"issues":     h.issueResponses(ctx, issues),
		"total":      total,
		"page":       f.Page,
		"limit":      f.Limit,
		"totalPages": totalPages(total, f.Limit),
	})
}

// ListIssues is the municipal triage list, filterable by status and category.
func (h *Handler) ListIssues(c *gin.Context) {
	h.listIssues(c, models.IssueFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
	})
}

func (h *Handler) GetIssuesByCategory(c *gin.Context) {
	h.listIssues(c, models.IssueFilter{
		Status:   c.Query("status"),
		Category: c.Param("category"),
	})
}

// MyIssues lists the calling citizen's own reports.
func (h *Handler) MyIssues(c *gin.Context) {
	userID, _ := currentUser(c)
	h.listIssues(c, models.IssueFilter{
		Status: c.Query("status"),
		UserID: userID,
	})
}

func (h *Handler) GetIssue(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	issue, err := h.Issues.Get(ctx, c.Param("id"))
	if err != nil {
		storeError(c, err, "issue")
		return
	}
	userID, role := currentUser(c)
	if role != models.RoleMunicipal && issue.UserID != userID {
		errorJSON(c, http.StatusNotFound, "issue not found")
		return
	}
	c.JSON(http.StatusOK, h.issueResponse(ctx, *issue))
}

// GetCategories returns every category with its issue count.
func (h *Handler) GetCategories(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	stats, err := h.Issues.Stats(ctx, h.now())
	if err != nil {
		log.WithError(err).Error("Error counting categories")
		errorJSON(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	type categoryCount struct {
		Category string `json:"category"`
		Count    int64  `json:"count"`
	}
	categories := make([]categoryCount, 0, len(categorizer.Categories))
	for _, cat := range categorizer.Categories {
		categories = append(categories, categoryCount{Category: cat.String(), Count: stats.ByCategory[cat.String()]})
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories, "total": len(categories)})
}

type replyRequest struct {
	Reply string `json:"reply" validate:"required,max=1000"`
}

// ReplyToIssue stores the municipal reply and marks the issue solved.
func (h *Handler) ReplyToIssue(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid Request Body")
		return
	}
	req.Reply = strings.TrimSpace(req.Reply)
	if err := validate.Struct(req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Reply is required and must be at most 1000 characters")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	issue, err := h.Issues.Reply(ctx, c.Param("id"), req.Reply, h.now())
	if err != nil {
		storeError(c, err, "issue")
		return
	}
	c.JSON(http.StatusOK, h.issueResponse(ctx, *issue))
}

func (h *Handler) MarkSolved(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	issue, err := h.Issues.MarkSolved(ctx, c.Param("id"), h.now())
	if err != nil {
		storeError(c, err, "issue")
		return
	}
	c.JSON(http.StatusOK, h.issueResponse(ctx, *issue))
}

func (h *Handler) DeleteIssue(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	issue, err := h.Issues.Delete(ctx, c.Param("id"))
	if err != nil {
		storeError(c, err, "issue")
		return
	}
	if issue.ImageKey != "" {
		if err := h.Blobs.Delete(ctx, issue.ImageKey); err != nil {
			log.WithError(err).WithField("key", issue.ImageKey).Warn("Error deleting issue image")
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": true, "id": c.Param("id")})
}

// StreamIssues pushes issue changes to the dashboard as server-sent events.
func (h *Handler) StreamIssues(c *gin.Context) {
	ctx := c.Request.Context()
	events, err := h.Issues.Watch(ctx)
	if err != nil {
		log.WithError(err).Error("Error opening issue stream")
		errorJSON(c, http.StatusServiceUnavailable, "Live updates are unavailable")
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			if ev.Issue != nil {
				resp := h.issueResponse(ctx, *ev.Issue)
				c.SSEvent("issue", gin.H{"operation": ev.Operation, "issue_id": ev.IssueID, "issue": resp})
			} else {
				c.SSEvent("issue", gin.H{"operation": ev.Operation, "issue_id": ev.IssueID})
			}
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func (h *Handler) DashboardStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	stats, err := h.Issues.Stats(ctx, h.now())
	if err != nil {
		log.WithError(err).Error("Error loading dashboard statistics")
		errorJSON(c, http.StatusInternalServerError, "Failed to load dashboard statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}
