package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For splitting list values
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort        string        // Application port
	DBDriver       string        // Database driver: mysql, postgres or sqlite
	DBUser         string        // Database user
	DBPassword     string        // Database password
	DBHost         string        // Database host
	DBPort         string        // Database port
	DBName         string        // Database name
	DBPath         string        // SQLite file path
	JWTSecret      string        // JWT secret key
	RedisAddr      string        // Redis server address
	RedisPass      string        // Redis password
	RedisDB        int           // Redis database number
	IsProd         bool          // Is production environment
	LogLevel       string        // Logrus level name
	SweepInterval  time.Duration // How often the session sweeper runs
	SweepBatch     int           // Max sessions settled per sweep
	AllowedOrigins []string      // CORS origins
	AdminUsername  string        // Seeded admin username
	AdminPassword  string        // Seeded admin password
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:        getEnv("APP_PORT", "5000"),     // Application port
		DBDriver:       getEnv("DB_DRIVER", "mysql"),   // Database driver
		DBUser:         os.Getenv("DB_USER"),           // Database user
		DBPassword:     os.Getenv("DB_PASSWORD"),       // Database password
		DBHost:         os.Getenv("DB_HOST"),           // Database host
		DBPort:         os.Getenv("DB_PORT"),           // Database port
		DBName:         os.Getenv("DB_NAME"),           // Database name
		DBPath:         getEnv("DB_PATH", "mining.db"), // SQLite file path
		JWTSecret:      os.Getenv("JWT_SECRET"),        // JWT secret key
		RedisAddr:      os.Getenv("REDIS_ADDR"),        // Redis server address
		RedisPass:      os.Getenv("REDIS_PASS"),        // Redis password
		RedisDB:        redisDB,                        // Redis database number
		IsProd:         os.Getenv("IS_PROD") == "true", // Is production environment
		LogLevel:       getEnv("LOG_LEVEL", "info"),    // Log level
		SweepInterval:  getDuration("SWEEP_INTERVAL", time.Minute),
		SweepBatch:     getInt("SWEEP_BATCH", 500),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")), // CORS origins
		AdminUsername:  os.Getenv("ADMIN_USERNAME"),             // Seeded admin username
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),             // Seeded admin password
	}
}

// getEnv returns the variable or a fallback when unset
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration parses a Go duration string such as "30s" or "1m"
func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// getInt parses a positive integer
func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// splitList splits a comma separated list and drops blanks
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
