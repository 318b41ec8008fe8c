package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration for the API and worker processes.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3UseSSL        bool

	OCRQueueURL    string
	ResultQueueURL string
	OCRLanguages   []string

	MaxUploadBytes    int64
	AllowedExtensions []string

	OutboxIntervalSeconds  int
	ShutdownTimeoutSeconds int
}

const defaultMaxUploadMB = 10

var defaultExtensions = []string{".pdf", ".doc", ".docx", ".txt", ".jpg", ".jpeg", ".png"}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
		S3UseSSL:        getEnvBool("S3_USE_SSL", true),

		OCRQueueURL:    strings.TrimSpace(os.Getenv("PL_OCR_QUEUE_URL")),
		ResultQueueURL: strings.TrimSpace(os.Getenv("PL_RESULT_QUEUE_URL")),
		OCRLanguages:   splitAndTrim(getEnv("PL_OCR_LANGUAGES", "eng")),

		MaxUploadBytes:    int64(getEnvInt("PL_MAX_UPLOAD_MB", defaultMaxUploadMB)) << 20,
		AllowedExtensions: normalizeExtensions(getEnv("PL_ALLOWED_EXTENSIONS", "")),

		OutboxIntervalSeconds:  getEnvInt("PL_OUTBOX_INTERVAL_SECONDS", 2),
		ShutdownTimeoutSeconds: getEnvInt("PL_SHUTDOWN_TIMEOUT_SECONDS", 30),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeExtensions(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return append([]string(nil), defaultExtensions...)
	}
	var out []string
	for _, p := range splitAndTrim(raw) {
		ext := strings.ToLower(p)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
