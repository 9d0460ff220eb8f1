package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Port string

	MongoURI string
	MongoDB  string

	BucketName string
	AWSRegion  string
	PresignTTL time.Duration

	JWTSecret       string
	StaffSignupCode string
	OTPExpiry       time.Duration
	ResetExpiry     time.Duration
	PublicURL       string

	CategorizerProvider string
	GeminiAPIKey        string
	GeminiModel         string
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string
	CategorizeTimeout   time.Duration

	NominatimURL string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string

	AuthRateLimit int
	CORSOrigins   []string

	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8007")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/")
	v.SetDefault("MONGO_DB", "swachhconnect")
	v.SetDefault("AWS_REGION", "ap-south-1")
	v.SetDefault("PRESIGN_TTL", "10m")
	v.SetDefault("OTP_EXPIRY", "5m")
	// minutes, as a bare number
	v.SetDefault("RESET_TOKEN_EXPIRY", 15)
	v.SetDefault("PUBLIC_URL", "http://localhost:8007")
	v.SetDefault("CATEGORIZER_PROVIDER", "gemini")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("CATEGORIZE_TIMEOUT", "30s")
	v.SetDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org/reverse")
	v.SetDefault("AUTH_RATE_LIMIT", 20)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugln("No .env file loaded:", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:                v.GetString("PORT"),
		MongoURI:            v.GetString("MONGO_URI"),
		MongoDB:             v.GetString("MONGO_DB"),
		BucketName:          v.GetString("BUCKET_NAME"),
		AWSRegion:           v.GetString("AWS_REGION"),
		PresignTTL:          v.GetDuration("PRESIGN_TTL"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		StaffSignupCode:     v.GetString("STAFF_SIGNUP_CODE"),
		OTPExpiry:           v.GetDuration("OTP_EXPIRY"),
		ResetExpiry:         time.Duration(v.GetInt("RESET_TOKEN_EXPIRY")) * time.Minute,
		PublicURL:           strings.TrimRight(v.GetString("PUBLIC_URL"), "/"),
		CategorizerProvider: strings.ToLower(v.GetString("CATEGORIZER_PROVIDER")),
		GeminiAPIKey:        firstNonEmpty(v.GetString("GEMINI_API_KEY"), v.GetString("GOOGLE_API_KEY")),
		GeminiModel:         v.GetString("GEMINI_MODEL"),
		OpenAIAPIKey:        v.GetString("OPENAI_API_KEY"),
		OpenAIModel:         v.GetString("OPENAI_MODEL"),
		OpenAIBaseURL:       v.GetString("OPENAI_BASE_URL"),
		CategorizeTimeout:   v.GetDuration("CATEGORIZE_TIMEOUT"),
		NominatimURL:        v.GetString("NOMINATIM_URL"),
		SMTPHost:            v.GetString("SMTP_HOST"),
		SMTPPort:            v.GetString("SMTP_PORT"),
		SMTPUser:            v.GetString("SMTP_USER"),
		SMTPPassword:        v.GetString("SMTP_PASSWORD"),
		AuthRateLimit:       v.GetInt("AUTH_RATE_LIMIT"),
		CORSOrigins:         splitList(v.GetString("CORS_ORIGINS")),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
	}
	return cfg, nil
}

// Validate checks what the HTTP server cannot run without.
func (c *Config) Validate() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.BucketName == "" {
		missing = append(missing, "BUCKET_NAME")
	}
	if c.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	switch c.CategorizerProvider {
	case "gemini", "openai", "none":
	default:
		return fmt.Errorf("unknown CATEGORIZER_PROVIDER %q (want gemini, openai or none)", c.CategorizerProvider)
	}
	return nil
}

// SetupLogging applies LOG_LEVEL and LOG_FORMAT to the standard logrus logger.
func (c *Config) SetupLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("Invalid LOG_LEVEL %q, using info", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
