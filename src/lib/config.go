package lib

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/theleywin/Backend-Kindred/src/models"
)

// Config holds every setting read from the environment
type Config struct {
	Port                   string
	LogMode                string
	DBDriver               string
	DBPath                 string
	DatabaseURL            string
	MongoURI               string
	MongoDB                string
	JWTSecret              string
	AdminKeyHash           string
	AdvancePolicy          models.AdvancePolicy
	RedisAddr              string
	CacheSize              int
	MilestoneTemplatesPath string
	CORSOrigins            string
}

// LoadConfig loads .env (if present) and reads the configuration with defaults
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	policy, err := models.ParseAdvancePolicy(os.Getenv("ADVANCE_POLICY"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:                   GetEnv("PORT", "3000"),
		LogMode:                GetEnv("LOG_MODE", "development"),
		DBDriver:               strings.ToLower(GetEnv("DB_DRIVER", "sqlite")),
		DBPath:                 GetEnv("DB_PATH", "./kindred.db"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		MongoURI:               GetEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:                GetEnv("MONGO_DB", "kindred"),
		JWTSecret:              GetEnv("JWT_SECRET", "fallback-secret-key"),
		AdminKeyHash:           os.Getenv("ADMIN_KEY_HASH"),
		AdvancePolicy:          policy,
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		CacheSize:              GetEnvInt("CACHE_SIZE", 1024),
		MilestoneTemplatesPath: os.Getenv("MILESTONE_TEMPLATES_PATH"),
		CORSOrigins:            GetEnv("CORS_ORIGINS", "http://localhost:3000, http://localhost:5173"),
	}, nil
}

// GetEnv returns the trimmed value of name or def when unset
func GetEnv(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func GetEnvInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// Templates returns the milestone templates configured for new connections
func (c *Config) Templates() (models.TemplateSet, error) {
	if c.MilestoneTemplatesPath == "" {
		return models.DefaultTemplates(), nil
	}
	return models.LoadTemplates(c.MilestoneTemplatesPath)
}
