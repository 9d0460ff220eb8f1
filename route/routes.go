package route

import (
	"net/http"
	"time"

	"swachhconnect/controller"
	mw "swachhconnect/middlewares"
	"swachhconnect/models"

	"github.com/gin-gonic/gin"
)

// Options are the router's cross-cutting settings.
type Options struct {
	JWTSecret     string
	AuthRateLimit int
}

func Register(router *gin.Engine, h *controller.Handler, opts Options) *mw.RateLimiter {
	limiter := mw.NewRateLimiter(opts.AuthRateLimit, time.Minute)
	Unprotected(router, h, limiter)
	Protected(router, h, opts.JWTSecret)
	return limiter
}

func Unprotected(router *gin.Engine, h *controller.Handler, limiter *mw.RateLimiter) {
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	auth := router.Group("/")
	auth.Use(limiter.Middleware())
	auth.POST("/auth/otp/send", h.SendOTP)
	auth.POST("/auth/otp/verify", h.VerifyOTP)
	auth.POST("/registration", h.RegisterStaff)
	auth.POST("/login", h.Login)
	auth.POST("/forgetpassword", h.ForgetPassword)
	auth.POST("/users/resetpassword/reset/:resetcode", h.ResetPassword)

	router.POST("/logout", h.Logout)
}

func Protected(router *gin.Engine, h *controller.Handler, secret string) {

	protected := router.Group("/")
	protected.Use(mw.JWT(secret))
	protected.GET("/issues/:id", h.GetIssue)
	protected.POST("/users/password", mw.RequireRole(models.RoleMunicipal), h.UpdatePassword)

	citizen := protected.Group("/")
	citizen.Use(mw.RequireRole(models.RoleCitizen))
	citizen.POST("/issues", h.CreateIssue)
	citizen.GET("/issues/mine", h.MyIssues)

	municipal := protected.Group("/")
	municipal.Use(mw.RequireRole(models.RoleMunicipal))
	municipal.GET("/issues", h.ListIssues)
	municipal.GET("/issues/stream", h.StreamIssues)
	municipal.GET("/issues/category/:category", h.GetIssuesByCategory)
	municipal.POST("/issues/:id/reply", h.ReplyToIssue)
	municipal.POST("/issues/:id/solve", h.MarkSolved)
	municipal.DELETE("/issues/:id", h.DeleteIssue)
	municipal.GET("/categories", h.GetCategories)
	municipal.GET("/dashboard/stats", h.DashboardStats)
	municipal.GET("/reports", h.Report)
	municipal.GET("/reports/csv", h.ReportCSV)
	municipal.GET("/citizens", h.ListCitizens)
	municipal.DELETE("/citizens/:user_id", h.DeleteCitizen)
}
