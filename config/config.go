package config

import (
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Pix      PixConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// PixConfig holds the PIX payment gateway credentials and pricing.
type PixConfig struct {
	BaseURL           string
	APIKey            string
	WebhookSecret     string
	SubscriptionPrice float64
}

// StorageConfig holds the Cloudinary credentials for profile photo uploads.
type StorageConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

var AppConfig *Config

func Load() {
	AppConfig = &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DB_URL", ""),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "troque-este-segredo-em-producao"),
			ExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		},
		Pix: PixConfig{
			BaseURL:           getEnv("PIX_GATEWAY_URL", "https://api.gateway-pix.example.com"),
			APIKey:            getEnv("PIX_API_KEY", ""),
			WebhookSecret:     getEnv("PIX_WEBHOOK_SECRET", ""),
			SubscriptionPrice: getEnvAsFloat("PIX_SUBSCRIPTION_PRICE", 29.90),
		},
		Storage: StorageConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
