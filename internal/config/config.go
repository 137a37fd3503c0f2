package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	SiteName string
	SiteURL  string // base for one-click verification links

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	RedisURL string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SMSProvider string // "twilio" | "sns" | "mock"
	TwilioSID   string
	TwilioToken string
	TwilioFrom  string
	SNSRegion   string

	CodeLength        int
	CodeExpiry        time.Duration
	ResendCooldown    time.Duration
	RequireEmailVerif bool
	PhoneVerifEnabled bool

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users             string
	VerificationCodes string
	FieldDefinitions  string
	Uploads           string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		SiteName: getEnv("SITE_NAME", "Example Site"),
		SiteURL:  getEnv("SITE_URL", "http://localhost:3000"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:             getEnv("DYNAMO_TABLE_USERS", "users"),
			VerificationCodes: getEnv("DYNAMO_TABLE_VERIFICATION_CODES", "verification_codes"),
			FieldDefinitions:  getEnv("DYNAMO_TABLE_FIELD_DEFINITIONS", "field_definitions"),
			Uploads:           getEnv("DYNAMO_TABLE_UPLOADS", "uploads"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "registration-uploads"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SMSProvider: getEnv("SMS_PROVIDER", "mock"),
		TwilioSID:   getEnv("TWILIO_SID", ""),
		TwilioToken: getEnv("TWILIO_TOKEN", ""),
		TwilioFrom:  getEnv("TWILIO_FROM", ""),
		SNSRegion:   getEnv("SNS_REGION", "us-east-1"),

		CodeLength:        getEnvInt("VERIFICATION_CODE_LENGTH", 6),
		CodeExpiry:        time.Duration(getEnvInt("VERIFICATION_CODE_EXPIRY_MINUTES", 30)) * time.Minute,
		ResendCooldown:    time.Duration(getEnvInt("VERIFICATION_RESEND_COOLDOWN_SECONDS", 120)) * time.Second,
		RequireEmailVerif: getEnvBool("REQUIRE_EMAIL_VERIFICATION", true),
		PhoneVerifEnabled: getEnvBool("ENABLE_PHONE_VERIFICATION", true),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
