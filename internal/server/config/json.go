package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/hararihq/prosperity/internal/flagx"
	"github.com/hararihq/prosperity/internal/timex"
)

// jsonConfig is the intermediate DTO used only for reading JSON configuration
// files. Duration fields accept both "10m"-style strings and nanoseconds.
// Zero values are treated as "not set" and leave the target Config untouched.
type jsonConfig struct {
	HTTPAddr    string `json:"http_addr"`
	DatabaseDSN string `json:"database_dsn"`

	AccessTokenSecret    string         `json:"access_token_secret"`
	RefreshTokenSecret   string         `json:"refresh_token_secret"`
	AccessTokenValidity  timex.Duration `json:"access_token_validity"`
	RefreshTokenValidity timex.Duration `json:"refresh_token_validity"`

	ResetTokenValidity        timex.Duration `json:"reset_token_validity"`
	VerificationTokenValidity timex.Duration `json:"verification_token_validity"`

	FrontendURL string `json:"frontend_url"`

	SMTPHost      string `json:"smtp_host"`
	SMTPPort      int    `json:"smtp_port"`
	SMTPUser      string `json:"smtp_user"`
	SMTPPassword  string `json:"smtp_password"`
	EmailFrom     string `json:"email_from"`
	EmailDisabled *bool  `json:"email_disabled"`
	MailQueueSize int    `json:"mail_queue_size"`

	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`

	MaxUploadBytes int64 `json:"max_upload_bytes"`
}

// parseJSON overlays values from the JSON file named by -c/-config, if any.
// Unreadable or malformed files are fatal: starting with half a config is
// worse than not starting.
func parseJSON(config *Config) {
	jsonConfigFile := flagx.JSONConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &jsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AccessTokenSecret, c.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	setDuration(&config.AccessTokenValidity, c.AccessTokenValidity)
	setDuration(&config.RefreshTokenValidity, c.RefreshTokenValidity)
	setDuration(&config.ResetTokenValidity, c.ResetTokenValidity)
	setDuration(&config.VerificationTokenValidity, c.VerificationTokenValidity)
	setString(&config.FrontendURL, c.FrontendURL)
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.EmailFrom, c.EmailFrom)
	if c.EmailDisabled != nil {
		config.EmailDisabled = *c.EmailDisabled
	}
	if c.MailQueueSize != 0 {
		config.MailQueueSize = c.MailQueueSize
	}
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.MaxUploadBytes != 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
