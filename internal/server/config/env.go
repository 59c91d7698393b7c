package config

import (
	"os"
	"strconv"
	"time"
)

func getenv(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func getenvInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func getenvInt64(key string, dst *int64) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = i
		}
	}
}

func getenvBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}

func getenvDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// parseEnv overlays configuration from environment variables. The variable
// names match the ones the deployment already exports, so nothing has to be
// renamed in existing environments.
func parseEnv(config *Config) {
	getenv("HTTP_ADDR", &config.HTTPAddr)
	getenv("DATABASE_DSN", &config.DatabaseDSN)
	getenv("JWT_SECRET", &config.AccessTokenSecret)
	getenv("JWT_REFRESH_SECRET", &config.RefreshTokenSecret)
	getenvDuration("JWT_EXPIRES_IN", &config.AccessTokenValidity)
	getenvDuration("JWT_REFRESH_EXPIRES_IN", &config.RefreshTokenValidity)
	getenvDuration("RESET_TOKEN_EXPIRES_IN", &config.ResetTokenValidity)
	getenvDuration("VERIFICATION_TOKEN_EXPIRES_IN", &config.VerificationTokenValidity)
	getenv("FRONTEND_URL", &config.FrontendURL)
	getenv("EMAIL_HOST", &config.SMTPHost)
	getenvInt("EMAIL_PORT", &config.SMTPPort)
	getenv("EMAIL_USER", &config.SMTPUser)
	getenv("EMAIL_PASS", &config.SMTPPassword)
	getenv("EMAIL_FROM", &config.EmailFrom)
	getenvBool("DISABLE_EMAIL", &config.EmailDisabled)
	getenvInt("MAIL_QUEUE_SIZE", &config.MailQueueSize)
	getenv("S3_ACCESS_KEY", &config.S3AccessKey)
	getenv("S3_SECRET_KEY", &config.S3SecretKey)
	getenv("S3_BUCKET", &config.S3Bucket)
	getenv("S3_REGION", &config.S3Region)
	getenv("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	getenvInt64("MAX_FILE_SIZE", &config.MaxUploadBytes)
}
