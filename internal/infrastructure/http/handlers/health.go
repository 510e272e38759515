package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const readinessTimeout = 3 * time.Second

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a plain function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// MongoPinger checks the primary of the given client.
func MongoPinger(client *mongo.Client) Pinger {
	return PingerFunc(func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	})
}

// RedisPinger issues PING against the given client.
func RedisPinger(client *redis.Client) Pinger {
	return PingerFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

// HealthHandler serves GET /health (liveness) and GET /health/ready
// (readiness against every registered dependency).
type HealthHandler struct {
	deps map[string]Pinger
}

func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	statuses := make(map[string]dependencyStatus, len(names))
	healthy := true
	for _, name := range names {
		if err := h.deps[name].Ping(ctx); err != nil {
			statuses[name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			continue
		}
		statuses[name] = dependencyStatus{Status: "ok"}
	}

	resp := readinessResponse{Status: "ok", Dependencies: statuses}
	code := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}
