package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/99minutos/user-management/internal/api/handler"
	"github.com/99minutos/user-management/internal/api/middleware"
	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/infrastructure/http/handlers"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	AuthService   ports.AuthService
	UserService   ports.UserService
	TokenVerifier ports.TokenVerifier
	Logger        zerolog.Logger

	// Readiness probes keyed by dependency name. Nil means /health/ready
	// reports ok with no dependencies.
	Probes map[string]handlers.Pinger

	// Metrics enables echoprometheus and GET /metrics. It registers
	// collectors globally, so only the process entrypoint turns it on.
	Metrics bool
	// Swagger serves the API docs under /swagger/*.
	Swagger bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORS())
	e.Use(requestLogger(deps.Logger))
	if deps.Metrics {
		e.Use(echoprometheus.NewMiddleware("usermgmt"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}
	if deps.Swagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// --- Health probes (no auth required) ---
	health := handlers.NewHealthHandler(deps.Probes)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)

	// --- Auth routes (public) ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/register", authHandler.Register)

	// --- User routes: Auth guard for the group, role guard per route ---
	users := handler.NewUserHandler(deps.UserService)
	g := e.Group("/users", middleware.Auth(deps.TokenVerifier))
	g.POST("", users.Create, middleware.Authorize(domain.RouteCreateUser))
	g.GET("", users.List, middleware.Authorize(domain.RouteListUsers))
	g.GET("/profile", users.Profile, middleware.Authorize(domain.RouteGetProfile))
	g.PATCH("/profile", users.UpdateProfile, middleware.Authorize(domain.RouteUpdateProfile))
	g.GET("/:id", users.Get, middleware.Authorize(domain.RouteGetUser))
	g.PATCH("/:id", users.Update, middleware.Authorize(domain.RouteUpdateUser))
	g.DELETE("/:id", users.Delete, middleware.Authorize(domain.RouteDeleteUser))

	return e
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
