// Package config provides centralized default values for InsightStack
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

// getEnvSecret reads a value without echoing it to the log.
func getEnvSecret(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database
	DBDriver                 string
	DBPath                   string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	SlowQueryThreshold       time.Duration

	// Insight cache
	InsightTTL time.Duration

	// CRM (GoHighLevel)
	CRMBaseURL       string
	CRMAPIKey        string
	CRMTimeout       time.Duration
	CRMContactLimit  int
	CRMConvoLimit    int
	MaxPipelineFetch int

	// LLM (Anthropic)
	AnthropicAPIKey    string
	AnthropicModel     string
	AnthropicMaxTokens int
	AnthropicTimeout   time.Duration

	// Auth
	JWTSecret      string
	AdminPassword  string
	ClientPassword string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	// Write timeout must outlast a full generation run including the model call.
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Database
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBPath = getEnvString("DB_PATH", "insightstack.db")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 100*time.Millisecond)

	// Insight cache
	InsightTTL = time.Duration(getEnvInt("INSIGHT_TTL_HOURS", 24)) * time.Hour

	// CRM
	CRMBaseURL = getEnvString("GHL_BASE_URL", "https://rest.gohighlevel.com/v1")
	CRMAPIKey = getEnvSecret("GHL_API_KEY", "")
	CRMTimeout = getEnvDuration("GHL_TIMEOUT", 10*time.Second)
	CRMContactLimit = getEnvInt("GHL_CONTACT_LIMIT", 100)
	CRMConvoLimit = getEnvInt("GHL_CONVERSATION_LIMIT", 100)
	MaxPipelineFetch = getEnvInt("GHL_MAX_PIPELINE_FETCH", 10)

	// LLM
	AnthropicAPIKey = getEnvSecret("ANTHROPIC_API_KEY", "")
	AnthropicModel = getEnvString("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest")
	AnthropicMaxTokens = getEnvInt("ANTHROPIC_MAX_TOKENS", 1500)
	AnthropicTimeout = getEnvDuration("ANTHROPIC_TIMEOUT", 45*time.Second)

	// Auth
	JWTSecret = getEnvSecret("JWT_SECRET", "")
	AdminPassword = getEnvSecret("ADMIN_PASSWORD", "")
	ClientPassword = getEnvSecret("CLIENT_PASSWORD", "")
}
