package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName  string
	version      string
	dependencies map[string]Pinger
}

// NewHealthHandler returns a new handler instance. dependencies is keyed by
// the name reported in the readiness payload.
func NewHealthHandler(serviceName, version string, dependencies map[string]Pinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, dependencies: dependencies}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready pings every dependency concurrently and answers 503 when any of
// them fails within the probe budget.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		depStatus = make(map[string]any, len(h.dependencies))
		ready     = true
	)
	for name, dep := range h.dependencies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := dep.Ping(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				depStatus[name] = err.Error()
				ready = false
				return
			}
			depStatus[name] = "ok"
		}()
	}
	wg.Wait()

	if !ready {
		return apperrors.NewDomainError(apperrors.CodeDependencyUnavailable, "one or more dependencies unavailable", fiber.StatusServiceUnavailable, depStatus)
	}
	return c.JSON(fiber.Map{
		"status":       "ready",
		"service":      h.serviceName,
		"dependencies": depStatus,
	})
}
