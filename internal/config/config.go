package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	BlobBasePath string // local dir for uploaded report PDFs

	AuthHMACSecret string
	TokenTTL       time.Duration

	// Bootstrap admin account, created on first start if missing.
	AdminUser     string
	AdminPassHash string // bcrypt

	GeminiAPIKey string
	GeminiModel  string

	// AI grading quota per acting user (soft cost control).
	AIRateLimit  int
	AIRateWindow time.Duration

	MaxUploadBytes int64

	CORSOrigins []string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:  addr,
		PublicURL: os.Getenv("PUBLIC_URL"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		TokenTTL:       envDuration("TOKEN_TTL", 8*time.Hour),

		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", "gemini-2.0-flash"),

		AIRateLimit:  envInt("AI_RATE_LIMIT", 5),
		AIRateWindow: envDuration("AI_RATE_WINDOW", time.Minute),

		MaxUploadBytes: int64(envInt("MAX_UPLOAD_MB", 20)) << 20,

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
