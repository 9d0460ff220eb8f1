package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"swachhconnect/controller"
	"swachhconnect/database"
	"swachhconnect/geo"
	"swachhconnect/notify"
	"swachhconnect/route"
	"swachhconnect/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.WithError(err).Warn("Error creating indexes")
	}

	blobs, err := storage.NewS3Store(ctx, cfg.BucketName, cfg.AWSRegion)
	if err != nil {
		return err
	}

	categorize, closeCategorizer, err := newCategorizer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCategorizer()

	h := controller.New(
		database.NewIssueStore(db),
		database.NewUserStore(db),
		blobs,
		categorize,
		geo.NewResolver(cfg.NominatimURL, "swachhconnect/1.0"),
		notify.NewMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}),
		notify.LogSMS{},
		controller.Settings{
			JWTSecret:       cfg.JWTSecret,
			StaffSignupCode: cfg.StaffSignupCode,
			OTPExpiry:       cfg.OTPExpiry,
			ResetExpiry:     cfg.ResetExpiry,
			PresignTTL:      cfg.PresignTTL,
			PublicURL:       cfg.PublicURL,
			SecureCookies:   strings.HasPrefix(cfg.PublicURL, "https://"),
		},
	)

	router := gin.Default()
	router.MaxMultipartMemory = controller.MaxImageSize + 1<<20
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	limiter := route.Register(router, h, route.Options{
		JWTSecret:     cfg.JWTSecret,
		AuthRateLimit: cfg.AuthRateLimit,
	})
	defer limiter.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// corsConfig allows the listed origins, or any local development origin when
// none are configured.
func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if len(origins) > 0 {
				return slices.Contains(origins, origin)
			}
			return strings.HasPrefix(origin, "http://localhost:") ||
				strings.HasPrefix(origin, "http://127.0.0.1:")
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
