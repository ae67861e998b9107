package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mercatus/storefront/api-gateway/config"
	"github.com/mercatus/storefront/pkg/logger"
)

// InstanceHealth represents the health status of one storefront replica
type InstanceHealth struct {
	URL       string        `json:"url"`
	Status    string        `json:"status"` // healthy, unhealthy
	Latency   time.Duration `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// GatewayHealth represents the overall gateway health
type GatewayHealth struct {
	Gateway   string           `json:"gateway"`
	Status    string           `json:"status"` // healthy, degraded, unhealthy
	Instances []InstanceHealth `json:"instances"`
	Uptime    time.Duration    `json:"uptime_seconds"`
}

// HealthChecker probes the storefront replicas
type HealthChecker struct {
	config    *config.GatewayConfig
	client    *http.Client
	startTime time.Time
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(cfg *config.GatewayConfig) *HealthChecker {
	return &HealthChecker{
		config: cfg,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		startTime: time.Now(),
	}
}

// CheckInstance checks health of a single replica
func (h *HealthChecker) CheckInstance(ctx context.Context, baseURL string) InstanceHealth {
	start := time.Now()
	healthURL := baseURL + h.config.Upstream.HealthCheck

	result := InstanceHealth{
		URL:       baseURL,
		Timestamp: time.Now(),
	}

	req, err := http.NewRequestWithContext(ctx, "GET", healthURL, nil)
	if err != nil {
		result.Status = "unhealthy"
		result.Error = fmt.Sprintf("Failed to create request: %v", err)
		result.Latency = time.Since(start)
		return result
	}

	resp, err := h.client.Do(req)
	if err != nil {
		result.Status = "unhealthy"
		result.Error = fmt.Sprintf("Failed to reach instance: %v", err)
		result.Latency = time.Since(start)
		return result
	}
	defer resp.Body.Close()

	result.Latency = time.Since(start)

	if resp.StatusCode == http.StatusOK {
		result.Status = "healthy"
	} else {
		result.Status = "unhealthy"
		result.Error = fmt.Sprintf("Unexpected status code: %d", resp.StatusCode)
	}

	return result
}

// CheckAll checks all storefront replicas concurrently
func (h *HealthChecker) CheckAll(ctx context.Context) GatewayHealth {
	instances := make([]InstanceHealth, len(h.config.Upstream.Instances))
	var wg sync.WaitGroup

	for i, baseURL := range h.config.Upstream.Instances {
		wg.Add(1)
		go func(idx int, url string) {
			defer wg.Done()
			result := h.CheckInstance(ctx, url)
			instances[idx] = result

			if result.Status != "healthy" {
				logger.Logger.Warn().
					Str("instance", url).
					Str("status", result.Status).
					Str("error", result.Error).
					Msg("Storefront health check failed")
			}
		}(i, baseURL)
	}

	wg.Wait()

	return GatewayHealth{
		Gateway:   "api-gateway",
		Status:    overallStatus(instances),
		Instances: instances,
		Uptime:    time.Since(h.startTime),
	}
}

func overallStatus(instances []InstanceHealth) string {
	healthy := 0
	for _, inst := range instances {
		if inst.Status == "healthy" {
			healthy++
		}
	}

	if healthy == len(instances) {
		return "healthy"
	} else if healthy > 0 {
		return "degraded"
	}
	return "unhealthy"
}

// QuickCheck reports the gateway's own liveness
func (h *HealthChecker) QuickCheck() map[string]interface{} {
	return map[string]interface{}{
		"status":    "healthy",
		"gateway":   "api-gateway",
		"uptime":    time.Since(h.startTime).Seconds(),
		"timestamp": time.Now(),
	}
}
