package controller

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"swachhconnect/categorizer"
	"swachhconnect/database"
	"swachhconnect/middlewares"
	"swachhconnect/models"
	"swachhconnect/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

const (
	requestTimeout = 10 * time.Second
	// covers the image upload plus one model call
	submitTimeout = 90 * time.Second
)

type IssueStore interface {
	Create(ctx context.Context, issue *models.Issue) error
	Get(ctx context.Context, id string) (*models.Issue, error)
	List(ctx context.Context, f models.IssueFilter) ([]models.Issue, int64, error)
	Reply(ctx context.Context, id, reply string, at time.Time) (*models.Issue, error)
	MarkSolved(ctx context.Context, id string, at time.Time) (*models.Issue, error)
	Delete(ctx context.Context, id string) (*models.Issue, error)
	Stats(ctx context.Context, now time.Time) (*models.IssueStats, error)
	Watch(ctx context.Context) (<-chan models.IssueEvent, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByID(ctx context.Context, userID string) (*models.User, error)
	FindByResetToken(ctx context.Context, hashedToken string, now time.Time) (*models.User, error)
	SetOTP(ctx context.Context, phone, otpHash string, expires, now time.Time) error
	CompleteOTP(ctx context.Context, userID, firstName, lastName string, now time.Time) error
	SetPasswordResetToken(ctx context.Context, email, hashedToken string, expiry time.Time) error
	UpdatePassword(ctx context.Context, userID, hashedPassword string, now time.Time) error
	ListCitizens(ctx context.Context, search string) ([]models.User, error)
	Delete(ctx context.Context, userID string) error
}

type BlobStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Categorizer interface {
	Categorize(ctx context.Context, caption string, image *categorizer.Image) categorizer.Category
}

type AddressResolver interface {
	Address(ctx context.Context, lat, lon float64) string
}

type Mailer interface {
	Send(to, subject, body string) error
}

type CodeSender interface {
	SendCode(phone, code string) error
}

type Settings struct {
	JWTSecret       string
	StaffSignupCode string
	OTPExpiry       time.Duration
	ResetExpiry     time.Duration
	PresignTTL      time.Duration
	PublicURL       string
	SecureCookies   bool
}

// Handler holds every collaborator the HTTP handlers use.
type Handler struct {
	Issues      IssueStore
	Users       UserStore
	Blobs       BlobStore
	Categorizer Categorizer
	Geo         AddressResolver
	Mail        Mailer
	SMS         CodeSender
	Settings    Settings

	now func() time.Time
}

func New(issues IssueStore, users UserStore, blobs BlobStore, cat Categorizer, geo AddressResolver, mail Mailer, sms CodeSender, settings Settings) *Handler {
	if settings.PresignTTL == 0 {
		settings.PresignTTL = 10 * time.Minute
	}
	return &Handler{
		Issues:      issues,
		Users:       users,
		Blobs:       blobs,
		Categorizer: cat,
		Geo:         geo,
		Mail:        mail,
		SMS:         sms,
		Settings:    settings,
		now:         time.Now,
	}
}

var validate = validator.New()

func errorJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// storeError maps a store failure onto a response.
func storeError(c *gin.Context, err error, what string) {
	if errors.Is(err, database.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, what+" not found")
		return
	}
	log.WithError(err).Errorf("Error accessing %s", what)
	errorJSON(c, http.StatusInternalServerError, "Internal server error")
}

func currentUser(c *gin.Context) (userID, role string) {
	return c.GetString(middlewares.ContextUser), c.GetString(middlewares.ContextRole)
}

func currentClaims(c *gin.Context) *utils.SignedDetails {
	if v, ok := c.Get(middlewares.ContextClaim); ok {
		if claims, ok := v.(*utils.SignedDetails); ok {
			return claims
		}
	}
	return &utils.SignedDetails{}
}

func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(database.DefaultPageSize)))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = database.DefaultPageSize
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	return int(math.Ceil(float64(total) / float64(limit)))
}
