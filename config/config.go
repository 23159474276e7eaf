package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds configuration for the recipe catalog service.
// Everything has a workable default so a fresh checkout runs with no config file at all.
type AppConfig struct {
	AppPort    string
	AppTitle   string
	AppTagline string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database: sqlite keeps the catalog in a local file (the default for a
	// personal install); mysql is available for shared deployments.
	DBDriver    string
	SQLitePath  string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Image storage
	ImageDir         string
	PlaceholderImage string
	// HTTP behavior
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Redis response cache; off unless explicitly enabled
	CacheEnabled  bool
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Orphaned image sweeper
	SweepIntervalMinutes int
	SweepMinAgeMinutes   int
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: config/config.json -> defaults -> environment variable overrides
	// 1) Try to load JSON config (supports both flat and nested grouped keys)
	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)

	// 2) Fill defaults for any zero values
	applyDefaults(&cfg)

	// 3) Override from environment variables when set
	applyEnvOverrides(&cfg)

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	dec := json.NewDecoder(f)
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	// Helper to read string/int/bool safely
	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			case json.Number:
				i, _ := t.Int64()
				return int(i)
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	// Try grouped sections first
	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.AppTitle = getString(app, "AppTitle")
		out.AppTagline = getString(app, "AppTagline")
		if v := getInt(app, "RateLimitPerMinute"); v != 0 {
			out.RateLimitPerMinute = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
	}

	// gin section (backward compatibility)
	if g, ok := raw["gin"].(map[string]any); ok {
		if v := getString(g, "Mode"); v != "" {
			out.GinMode = v
		}
		if v := getString(g, "LogPath"); v != "" {
			out.GinPath = v
		}
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DBDriver = strings.ToLower(getString(dbs, "Driver"))
		out.SQLitePath = getString(dbs, "SQLitePath")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if im, ok := raw["images"].(map[string]any); ok {
		out.ImageDir = getString(im, "Dir")
		out.PlaceholderImage = getString(im, "Placeholder")
		if v := getInt(im, "SweepIntervalMinutes"); v != 0 {
			out.SweepIntervalMinutes = v
		}
		if v := getInt(im, "SweepMinAgeMinutes"); v != 0 {
			out.SweepMinAgeMinutes = v
		}
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.CacheEnabled = getBool(rds, "CacheEnabled")
		out.RedisHost = getString(rds, "RedisHost")
		if v := getInt(rds, "RedisPort"); v != 0 {
			out.RedisPort = v
		}
		if v := getInt(rds, "RedisDB"); v != 0 {
			out.RedisDB = v
		}
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	// logging (grouped)
	if lg, ok := raw["log"].(map[string]any); ok {
		if v := getString(lg, "Level"); v != "" {
			out.LogLevel = v
		}
		if v := getString(lg, "Path"); v != "" {
			out.LogPath = v
		}
		// Gin settings under log
		if v := getString(lg, "GinMode"); v != "" {
			out.GinMode = v
		}
		if v := getString(lg, "GinPath"); v != "" {
			out.GinPath = v
		}
		if v := getInt(lg, "MaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "MaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "MaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		out.LogCompress = getBool(lg, "Compress")
	}

	// Also support reading flat keys directly for backward compatibility
	if v, ok := raw["AppPort"]; ok && out.AppPort == "" {
		out.AppPort, _ = v.(string)
	}
	if v, ok := raw["AppTitle"]; ok && out.AppTitle == "" {
		out.AppTitle, _ = v.(string)
	}
	if v, ok := raw["AppTagline"]; ok && out.AppTagline == "" {
		out.AppTagline, _ = v.(string)
	}
	if v, ok := raw["GinMode"]; ok && out.GinMode == "" {
		if s, ok := v.(string); ok {
			out.GinMode = s
		}
	}
	if v, ok := raw["GinPath"]; ok && out.GinPath == "" {
		if s, ok := v.(string); ok {
			out.GinPath = s
		}
	}
	if v, ok := raw["RateLimitPerMinute"]; ok && out.RateLimitPerMinute == 0 {
		if f, ok := v.(float64); ok {
			out.RateLimitPerMinute = int(f)
		}
	}
	if v, ok := raw["AllowedOrigins"]; ok && len(out.AllowedOrigins) == 0 {
		if arr, ok := v.([]any); ok {
			for _, it := range arr {
				if s, ok := it.(string); ok {
					out.AllowedOrigins = append(out.AllowedOrigins, s)
				}
			}
		}
	}
	if v, ok := raw["DBDriver"]; ok && out.DBDriver == "" {
		if s, ok := v.(string); ok {
			out.DBDriver = strings.ToLower(s)
		}
	}
	if v, ok := raw["SQLitePath"]; ok && out.SQLitePath == "" {
		out.SQLitePath, _ = v.(string)
	}
	if v, ok := raw["DatabaseURI"]; ok && out.DatabaseURI == "" {
		out.DatabaseURI, _ = v.(string)
	}
	if v, ok := raw["DBHost"]; ok && out.DBHost == "" {
		out.DBHost, _ = v.(string)
	}
	if v, ok := raw["DBPort"]; ok && out.DBPort == "" {
		out.DBPort, _ = v.(string)
	}
	if v, ok := raw["DBUser"]; ok && out.DBUser == "" {
		out.DBUser, _ = v.(string)
	}
	if v, ok := raw["DBPassword"]; ok && out.DBPassword == "" {
		out.DBPassword, _ = v.(string)
	}
	if v, ok := raw["DBName"]; ok && out.DBName == "" {
		out.DBName, _ = v.(string)
	}
	if v, ok := raw["ImageDir"]; ok && out.ImageDir == "" {
		out.ImageDir, _ = v.(string)
	}
	if v, ok := raw["PlaceholderImage"]; ok && out.PlaceholderImage == "" {
		out.PlaceholderImage, _ = v.(string)
	}
	if v, ok := raw["CacheEnabled"]; ok {
		if b, ok := v.(bool); ok {
			out.CacheEnabled = b
		}
	}
	if v, ok := raw["RedisHost"]; ok && out.RedisHost == "" {
		out.RedisHost, _ = v.(string)
	}
	if v, ok := raw["RedisPort"]; ok && out.RedisPort == 0 {
		if f, ok := v.(float64); ok {
			out.RedisPort = int(f)
		}
	}
	if v, ok := raw["RedisDB"]; ok && out.RedisDB == 0 {
		if f, ok := v.(float64); ok {
			out.RedisDB = int(f)
		}
	}
	if v, ok := raw["RedisPassword"]; ok && out.RedisPassword == "" {
		out.RedisPassword, _ = v.(string)
	}

	// logging (flat keys fallback)
	if v, ok := raw["LogLevel"]; ok && out.LogLevel == "" {
		if s, ok := v.(string); ok {
			out.LogLevel = s
		}
	}
	if v, ok := raw["LogPath"]; ok && out.LogPath == "" {
		if s, ok := v.(string); ok {
			out.LogPath = s
		}
	}
	if v, ok := raw["LogMaxSizeMB"]; ok && out.LogMaxSizeMB == 0 {
		if f, ok := v.(float64); ok {
			out.LogMaxSizeMB = int(f)
		}
	}
	if v, ok := raw["LogMaxBackups"]; ok && out.LogMaxBackups == 0 {
		if f, ok := v.(float64); ok {
			out.LogMaxBackups = int(f)
		}
	}
	if v, ok := raw["LogMaxAgeDays"]; ok && out.LogMaxAgeDays == 0 {
		if f, ok := v.(float64); ok {
			out.LogMaxAgeDays = int(f)
		}
	}
	if v, ok := raw["LogCompress"]; ok {
		if b, ok := v.(bool); ok {
			out.LogCompress = b
		}
	}
	if v, ok := raw["SweepIntervalMinutes"]; ok && out.SweepIntervalMinutes == 0 {
		if f, ok := v.(float64); ok {
			out.SweepIntervalMinutes = int(f)
		}
	}
	if v, ok := raw["SweepMinAgeMinutes"]; ok && out.SweepMinAgeMinutes == 0 {
		if f, ok := v.(float64); ok {
			out.SweepMinAgeMinutes = int(f)
		}
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.AppTitle == "" {
		c.AppTitle = "Spadellando con Ale"
	}
	if c.AppTagline == "" {
		c.AppTagline = "Cerca, aggiungi, modifica e condividi ricette."
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/gin_access.log"
	}
	if c.DBDriver == "" {
		c.DBDriver = "sqlite"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "data/ricettario.db"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "ricettario"
	}
	if c.ImageDir == "" {
		c.ImageDir = "data/images"
	}
	if c.PlaceholderImage == "" {
		c.PlaceholderImage = "/static/placeholder.png"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.SweepIntervalMinutes == 0 {
		c.SweepIntervalMinutes = 30
	}
	if c.SweepMinAgeMinutes == 0 {
		c.SweepMinAgeMinutes = 60
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("APP_TITLE", ""); v != "" {
		c.AppTitle = v
	}
	if v := getEnv("APP_TAGLINE", ""); v != "" {
		c.AppTagline = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("DB_DRIVER", ""); v != "" {
		c.DBDriver = strings.ToLower(v)
	}
	if v := getEnv("SQLITE_PATH", ""); v != "" {
		c.SQLitePath = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("IMAGE_DIR", ""); v != "" {
		c.ImageDir = v
	}
	if v := getEnv("PLACEHOLDER_IMAGE", ""); v != "" {
		c.PlaceholderImage = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	}
	if v := getEnv("CACHE_ENABLED", ""); v != "" {
		c.CacheEnabled = v == "true"
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	// Logging env overrides
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
	// Sweeper env overrides
	if v := getEnv("SWEEP_INTERVAL_MINUTES", ""); v != "" {
		c.SweepIntervalMinutes = mustParseInt(v)
	}
	if v := getEnv("SWEEP_MIN_AGE_MINUTES", ""); v != "" {
		c.SweepMinAgeMinutes = mustParseInt(v)
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
