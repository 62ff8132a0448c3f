package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"claims-intake-platform/internal/matching"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string

	JWTSecret    string
	JWTExpiresIn time.Duration

	GeminiAPIKey string
	GeminiTier   string

	// Redis (asynq queue + rate limiting)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// File storage
	FileStorageDir string
	MaxFileSize    int64
	AllowedTypes   []string

	// Signed download URLs
	SignedURLSecret string
	SignedURLTTL    time.Duration

	// OCR sidecar
	OCRServiceURL     string
	OCRServiceEnabled bool
	OCRTimeout        time.Duration

	// Matching engine
	MatchWeightClaimNumber       float64
	MatchWeightClaimantName      float64
	MatchWeightDateOfInjury      float64
	MatchWeightEmployerName      float64
	MatchWeightInjuryDescription float64
	MatchWeightPhysicianName     float64

	MatchThresholdClaimantName      float64
	MatchThresholdEmployerName      float64
	MatchThresholdPhysicianName     float64
	MatchThresholdInjuryDescription float64

	MatchRecommendThreshold float64
	MatchMinScore           float64

	// Batch orchestration
	BatchChunkSize       int
	BatchDocumentTimeout time.Duration
	BatchRetention       time.Duration
	BatchSweepInterval   time.Duration

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Tracing
	OTLPEndpoint   string
	TracingEnabled bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/claims_intake"),
		DBName:      getEnv("DB_NAME", "claims_intake"),
		Port:        getEnv("PORT", "4000"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiTier:   getEnv("GEMINI_TIER", "free"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		FileStorageDir: getEnv("FILE_STORAGE_DIR", "./storage"),
		MaxFileSize:    getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB
		AllowedTypes:   strings.Split(getEnv("ALLOWED_FILE_TYPES", "application/pdf,image/jpeg,image/png,image/tiff"), ","),

		SignedURLSecret: getEnv("SIGNED_URL_SECRET", ""),
		SignedURLTTL:    getEnvDuration("SIGNED_URL_TTL", 15*time.Minute),

		OCRServiceURL:     getEnv("OCR_SERVICE_URL", "http://localhost:8001"),
		OCRServiceEnabled: getEnvBool("OCR_SERVICE_ENABLED", true),
		OCRTimeout:        getEnvDuration("OCR_TIMEOUT", 5*time.Minute),

		// The source system grew several inconsistent weight tables and
		// recommendation thresholds. One canonical set lives here; override
		// per deployment, never per call site.
		MatchWeightClaimNumber:       getEnvFloat64("MATCH_WEIGHT_CLAIM_NUMBER", 30),
		MatchWeightClaimantName:      getEnvFloat64("MATCH_WEIGHT_CLAIMANT_NAME", 30),
		MatchWeightDateOfInjury:      getEnvFloat64("MATCH_WEIGHT_DATE_OF_INJURY", 20),
		MatchWeightEmployerName:      getEnvFloat64("MATCH_WEIGHT_EMPLOYER_NAME", 15),
		MatchWeightInjuryDescription: getEnvFloat64("MATCH_WEIGHT_INJURY_DESCRIPTION", 15),
		MatchWeightPhysicianName:     getEnvFloat64("MATCH_WEIGHT_PHYSICIAN_NAME", 10),

		MatchThresholdClaimantName:      getEnvFloat64("MATCH_THRESHOLD_CLAIMANT_NAME", 0.90),
		MatchThresholdEmployerName:      getEnvFloat64("MATCH_THRESHOLD_EMPLOYER_NAME", 0.85),
		MatchThresholdPhysicianName:     getEnvFloat64("MATCH_THRESHOLD_PHYSICIAN_NAME", 0.85),
		MatchThresholdInjuryDescription: getEnvFloat64("MATCH_THRESHOLD_INJURY_DESCRIPTION", 0.80),

		MatchRecommendThreshold: getEnvFloat64("MATCH_RECOMMEND_THRESHOLD", 60),
		MatchMinScore:           getEnvFloat64("MATCH_MIN_SCORE", 40),

		BatchChunkSize:       getEnvInt("BATCH_CHUNK_SIZE", 5),
		BatchDocumentTimeout: getEnvDuration("BATCH_DOCUMENT_TIMEOUT", 30*time.Second),
		BatchRetention:       getEnvDuration("BATCH_RETENTION", 24*time.Hour),
		BatchSweepInterval:   getEnvDuration("BATCH_SWEEP_INTERVAL", time.Hour),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required - set it in .env file")
	}

	if cfg.SignedURLSecret == "" {
		return nil, fmt.Errorf("SIGNED_URL_SECRET is required - set it in .env file")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.BatchChunkSize <= 0 {
		return nil, fmt.Errorf("BATCH_CHUNK_SIZE must be positive")
	}

	return cfg, nil
}

// MatchingConfig assembles the engine configuration from env-supplied values
func (c *Config) MatchingConfig() matching.Config {
	return matching.Config{
		Weights: matching.Weights{
			ClaimNumber:       c.MatchWeightClaimNumber,
			ClaimantName:      c.MatchWeightClaimantName,
			DateOfInjury:      c.MatchWeightDateOfInjury,
			EmployerName:      c.MatchWeightEmployerName,
			InjuryDescription: c.MatchWeightInjuryDescription,
			PhysicianName:     c.MatchWeightPhysicianName,
		},
		Thresholds: matching.Thresholds{
			ClaimantName:      c.MatchThresholdClaimantName,
			EmployerName:      c.MatchThresholdEmployerName,
			PhysicianName:     c.MatchThresholdPhysicianName,
			InjuryDescription: c.MatchThresholdInjuryDescription,
			Recommend:         c.MatchRecommendThreshold,
			MinScore:          c.MatchMinScore,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
