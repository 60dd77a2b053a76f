package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	FirebaseProjectID       string
	FirebaseCredentialsPath string
	FirebaseCredentialsJSON string // Raw JSON string, preferred in hosted environments
	FirestoreCollection     string
	R2Endpoint              string // https://<account_id>.r2.cloudflarestorage.com
	R2AccessKeyID           string
	R2SecretAccessKey       string
	R2Bucket                string
	R2PublicDomain          string // Origin used to build public artifact URLs
	GeocodeAPIKey           string
	GeocodeEndpoint         string
	ExtractorURL            string // Empty means decode EXIF locally
	AllowedOrigins          []string
	MaxUploadBytes          int64
}

// Load reads configuration from environment variables and .env file.
// It loads the .env file if present, then populates the Config struct.
// Returns an error if required configuration is missing.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "firebase-service-account.json"),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		FirestoreCollection:     getEnv("FIRESTORE_COLLECTION", "images"),
		R2Endpoint:              getEnv("R2_ENDPOINT", ""),
		R2AccessKeyID:           getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey:       getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:                getEnv("R2_BUCKET_NAME", ""),
		R2PublicDomain:          getEnv("R2_PUBLIC_DOMAIN", ""),
		GeocodeAPIKey:           getEnv("GEOCODE_API_KEY", ""),
		GeocodeEndpoint:         getEnv("GEOCODE_ENDPOINT", "https://api.opencagedata.com/geocode/v1/json"),
		ExtractorURL:            getEnv("EXTRACTOR_URL", ""),
		AllowedOrigins:          getList("ALLOWED_ORIGINS", []string{"*"}),
		MaxUploadBytes:          getInt64Env("MAX_UPLOAD_BYTES", 32<<20),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.FirebaseProjectID == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}
	if c.FirebaseCredentialsJSON == "" && c.FirebaseCredentialsPath == "" {
		return fmt.Errorf("either FIREBASE_CREDENTIALS_JSON or FIREBASE_CREDENTIALS_PATH must be set")
	}
	if c.FirestoreCollection == "" {
		return fmt.Errorf("FIRESTORE_COLLECTION is required")
	}
	if c.R2Endpoint == "" {
		return fmt.Errorf("R2_ENDPOINT is required")
	}
	if c.R2AccessKeyID == "" || c.R2SecretAccessKey == "" {
		return fmt.Errorf("R2_ACCESS_KEY_ID and R2_SECRET_ACCESS_KEY are required")
	}
	if c.R2Bucket == "" {
		return fmt.Errorf("R2_BUCKET_NAME is required")
	}
	if c.R2PublicDomain == "" {
		return fmt.Errorf("R2_PUBLIC_DOMAIN is required")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// Retrieves an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// Retrieves a comma-separated list from environment variable or returns a default value.
func getList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// Retrieves an int64 from environment variable or returns a default value.
func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
