package config

import (
	"os"
	"strings"
	"time"
)

// UpstreamConfig holds configuration for the storefront backend
type UpstreamConfig struct {
	Name        string
	Instances   []string
	Timeout     time.Duration
	HealthCheck string
}

// GatewayConfig holds the main gateway configuration
type GatewayConfig struct {
	Port     string
	Upstream UpstreamConfig
}

// LoadConfig loads the gateway configuration. STOREFRONT_URLS is a
// comma-separated list of storefront replica base URLs.
func LoadConfig() *GatewayConfig {
	instances := strings.Split(getEnv("STOREFRONT_URLS", "http://localhost:8080"), ",")
	for i := range instances {
		instances[i] = strings.TrimSpace(instances[i])
	}

	return &GatewayConfig{
		Port: getEnv("GATEWAY_PORT", "8000"),
		Upstream: UpstreamConfig{
			Name:        "storefront-service",
			Instances:   instances,
			Timeout:     30 * time.Second,
			HealthCheck: "/health",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
