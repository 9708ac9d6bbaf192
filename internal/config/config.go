package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds server-level settings loaded from the environment.
type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	HTTPPort  string
	JWTSecret string
}

// Load reads configuration from a .env file if present, then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	return &Config{
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "doubtdesk"),
		RedisAddr: getEnv("REDIS_URI", "localhost:6379"),
		HTTPPort:  getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
