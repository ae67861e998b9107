package proxy

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mercatus/storefront/api-gateway/config"
	"github.com/mercatus/storefront/api-gateway/loadbalancer"
	"github.com/mercatus/storefront/pkg/logger"
)

const maxAttempts = 3

// ReverseProxy forwards requests to the storefront replicas. Connection
// failures retry against the next replica with a short backoff; requests
// that reached a replica are never retried.
type ReverseProxy struct {
	lb     *loadbalancer.RoundRobin
	client *http.Client
}

// NewReverseProxy creates a new reverse proxy
func NewReverseProxy(cfg *config.GatewayConfig) *ReverseProxy {
	return &ReverseProxy{
		lb: loadbalancer.NewRoundRobin(cfg.Upstream.Instances),
		client: &http.Client{
			Timeout: cfg.Upstream.Timeout,
		},
	}
}

// Forward proxies the request to a storefront replica
func (p *ReverseProxy) Forward(c *fiber.Ctx) error {
	body := c.Body()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		serverURL := p.lb.Next()
		if serverURL == "" {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "No storefront instances available",
			})
		}

		req, err := http.NewRequestWithContext(
			c.UserContext(),
			c.Method(),
			p.targetURL(c, serverURL),
			bytes.NewReader(body),
		)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create request",
			})
		}

		p.copyHeaders(c, req)

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = err
			logger.Logger.Warn().
				Err(err).
				Str("target", serverURL).
				Int("attempt", attempt+1).
				Msg("Storefront instance unreachable")

			// Writes like checkout must not be replayed; the failure may
			// have happened after the replica accepted the request.
			if c.Method() != fiber.MethodGet && c.Method() != fiber.MethodHead {
				break
			}
			time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
			continue
		}
		defer resp.Body.Close()

		p.copyResponseHeaders(c, resp)
		c.Status(resp.StatusCode)

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to read response",
			})
		}

		return c.Send(respBody)
	}

	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
		"error":   "Failed to reach storefront service",
		"details": lastErr.Error(),
	})
}

// LoadBalancer exposes the balancer for stats endpoints
func (p *ReverseProxy) LoadBalancer() *loadbalancer.RoundRobin {
	return p.lb
}

func (p *ReverseProxy) targetURL(c *fiber.Ctx, serverURL string) string {
	path := string(c.Request().URI().Path())

	queryString := string(c.Request().URI().QueryString())
	if queryString != "" {
		queryString = "?" + queryString
	}

	return serverURL + path + queryString
}

func (p *ReverseProxy) copyHeaders(c *fiber.Ctx, req *http.Request) {
	c.Request().Header.VisitAll(func(key, value []byte) {
		keyStr := string(key)
		if strings.ToLower(keyStr) == "host" {
			return
		}
		req.Header.Set(keyStr, string(value))
	})

	req.Header.Set("X-Forwarded-For", c.IP())
	req.Header.Set("X-Forwarded-Proto", c.Protocol())
	req.Header.Set("X-Forwarded-Host", c.Hostname())
}

func (p *ReverseProxy) copyResponseHeaders(c *fiber.Ctx, resp *http.Response) {
	for key, values := range resp.Header {
		if strings.ToLower(key) == "content-length" {
			continue
		}
		for _, value := range values {
			c.Set(key, value)
		}
	}
}
