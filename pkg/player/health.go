package player

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// HealthChecker reports whether the player store's Redis is reachable.
type HealthChecker struct {
	client *redis.Client
}

// NewHealthChecker creates a health checker over the store's client.
func NewHealthChecker(client *redis.Client) *HealthChecker {
	return &HealthChecker{client: client}
}

// Check pings Redis with a short timeout.
func (h *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if _, err := h.client.Ping(ctx).Result(); err != nil {
		logrus.Errorf("Redis health check failed: %v", err)
		return err
	}
	return nil
}

// IsHealthy reports whether the last check passed.
func (h *HealthChecker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx) == nil
}
