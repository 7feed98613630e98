package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/freewebtopdf/propmerge/internal/domain"
)

// SystemHealthChecker aggregates the health of named components
type SystemHealthChecker struct {
	components map[string]domain.HealthReporter
	names      []string

	timeout   time.Duration
	startTime time.Time

	// Cached health status to avoid expensive checks on every request
	lastCheck   time.Time
	lastHealth  domain.SystemHealth
	cacheTTL    time.Duration
	healthMutex sync.Mutex
}

// NewSystemHealthChecker creates a checker over components keyed by name
func NewSystemHealthChecker(components map[string]domain.HealthReporter) *SystemHealthChecker {
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	return &SystemHealthChecker{
		components: components,
		names:      names,
		timeout:    5 * time.Second,
		cacheTTL:   5 * time.Second,
		startTime:  time.Now(),
	}
}

// CheckHealth checks every component; the worst status wins
func (h *SystemHealthChecker) CheckHealth(ctx context.Context) domain.SystemHealth {
	h.healthMutex.Lock()
	defer h.healthMutex.Unlock()

	if !h.lastCheck.IsZero() && time.Since(h.lastCheck) < h.cacheTTL {
		return h.lastHealth
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	now := time.Now()
	components := make(map[string]domain.HealthStatus, len(h.names))
	overall := domain.HealthStatusHealthy

	for _, name := range h.names {
		status := h.components[name].HealthCheck(checkCtx)
		components[name] = status
		overall = aggregateStatus(overall, status.Status)
	}

	systemHealth := domain.SystemHealth{
		Status:     overall,
		Timestamp:  now,
		Components: components,
		Uptime:     time.Since(h.startTime),
	}

	h.lastCheck = now
	h.lastHealth = systemHealth
	return systemHealth
}

// CheckComponent checks a single component by name
func (h *SystemHealthChecker) CheckComponent(ctx context.Context, component string) domain.HealthStatus {
	reporter, ok := h.components[component]
	if !ok {
		return domain.HealthStatus{
			Status:    domain.HealthStatusUnhealthy,
			Message:   "Unknown component",
			Timestamp: time.Now(),
			Details: map[string]any{
				"component": component,
				"error":     "Component not found",
			},
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return reporter.HealthCheck(checkCtx)
}

// IsHealthy returns true if every component is healthy
func (h *SystemHealthChecker) IsHealthy(ctx context.Context) bool {
	return h.CheckHealth(ctx).Status == domain.HealthStatusHealthy
}

// aggregateStatus returns the worse of two statuses: unhealthy > degraded > healthy
func aggregateStatus(current, component string) string {
	priority := map[string]int{
		domain.HealthStatusHealthy:   0,
		domain.HealthStatusDegraded:  1,
		domain.HealthStatusUnhealthy: 2,
	}
	if priority[component] > priority[current] {
		return component
	}
	return current
}
