package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	defaultAPIBaseURL     = "http://localhost:5000"
	defaultAPITimeout     = "15s"
	defaultPayPalPath     = "/api/config/paypal"
	defaultPayPalCacheTTL = "10m"
	defaultRedisAddr      = "localhost:6379"
	defaultJWTSecret      = "change-me-in-production"
	defaultAppPort        = "8080"
	defaultAppEnv         = "local"
	defaultSignInRoute    = "/login"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"API_BASE_URL":         defaultAPIBaseURL,
		"API_TIMEOUT":          defaultAPITimeout,
		"PAYPAL_CONFIG_PATH":   defaultPayPalPath,
		"PAYPAL_CACHE_TTL":     defaultPayPalCacheTTL,
		"REDIS_ADDR":           defaultRedisAddr,
		"REDIS_PASSWORD":       "",
		"JWT_SECRET":           defaultJWTSecret,
		"APP_PORT":             defaultAppPort,
		"APP_ENV":              defaultAppEnv,
		"SIGNIN_ROUTE":         defaultSignInRoute,
		"MONGO_LOG_URI":        "",
		"MONGO_LOG_DB":         "storefront",
		"MONGO_LOG_COLLECTION": "logs",
	}
}

// APIBaseURL is the address of the upstream shop API that owns orders,
// products, users, and uploads.
func APIBaseURL() string {
	_ = Load()
	return strings.TrimRight(get("API_BASE_URL", defaultAPIBaseURL), "/")
}

// APITimeout is the per-attempt timeout for upstream calls.
func APITimeout() time.Duration {
	_ = Load()
	d, err := time.ParseDuration(get("API_TIMEOUT", defaultAPITimeout))
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// PayPalConfigPath is the upstream path serving the PayPal client id.
func PayPalConfigPath() string {
	_ = Load()
	return get("PAYPAL_CONFIG_PATH", defaultPayPalPath)
}

// PayPalCacheTTL bounds how long a fetched PayPal client id may be reused.
func PayPalCacheTTL() time.Duration {
	_ = Load()
	d, err := time.ParseDuration(get("PAYPAL_CACHE_TTL", defaultPayPalCacheTTL))
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

func JWTSecret() string {
	_ = Load()
	return get("JWT_SECRET", defaultJWTSecret)
}

func AppPort() string {
	_ = Load()
	return get("APP_PORT", defaultAppPort)
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// SignInRoute is where unauthenticated sessions are redirected.
func SignInRoute() string {
	_ = Load()
	return get("SIGNIN_ROUTE", defaultSignInRoute)
}

// ── Logging sink ─────────────────────────────────────────────────────────────

func MongoLogURI() string        { _ = Load(); return get("MONGO_LOG_URI", "") }
func MongoLogDB() string         { _ = Load(); return get("MONGO_LOG_DB", "storefront") }
func MongoLogCollection() string { _ = Load(); return get("MONGO_LOG_COLLECTION", "logs") }

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string {
	_ = Load()
	return get("STORAGE_DISK", "local")
}

func StorageLocalRoot() string {
	_ = Load()
	return get("STORAGE_LOCAL_ROOT", "storage")
}

func StorageURL() string {
	_ = Load()
	return get("STORAGE_URL", "http://localhost:8080/storage")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }
func StorageS3URL() string      { _ = Load(); return get("S3_URL", "") }

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		s, ok := val.(string)
		if !ok {
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

// Get reads any config key by name with an optional fallback.
// Keys from .env and app.json are available after config.Load().
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}
