package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Storage backend selectors for templates and certificates.
const (
	BackendMemory   = "memory"
	BackendSupabase = "supabase"
)

// Config holds the service configuration, read from the environment.
type Config struct {
	Port           string
	RendererURL    string
	VerifyBaseURL  string
	StorageBackend string
	MaxImageBytes  int64
	SupabaseURL    string
	SupabaseKey    string
	TemplateBucket string
}

// Load reads the configuration from the environment, picking up a local
// .env file when one exists.
func Load() Config {
	// Missing .env is fine; the environment may be set by the deployment.
	_ = godotenv.Load()

	return Config{
		Port:           getenv("PORT", "8080"),
		RendererURL:    getenv("RENDERER_URL", "http://localhost:9090"),
		VerifyBaseURL:  getenv("VERIFY_BASE_URL", "http://localhost:8080/api/v1/certificates/verify"),
		StorageBackend: getenv("STORAGE_BACKEND", BackendMemory),
		MaxImageBytes:  getenvInt64("MAX_TEMPLATE_IMAGE_BYTES", 5<<20),
		SupabaseURL:    os.Getenv("SUPABASE_URL"),
		SupabaseKey:    os.Getenv("SUPABASE_SERVICE_KEY"),
		TemplateBucket: getenv("TEMPLATE_BUCKET", "certificate-templates"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
