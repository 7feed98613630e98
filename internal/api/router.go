package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freewebtopdf/propmerge/internal/domain"
	"github.com/freewebtopdf/propmerge/internal/middleware"
)

// RouterConfig contains configuration for the HTTP router
type RouterConfig struct {
	CORSOrigins    []string
	BodyLimit      int
	RateLimitRPS   int
	RateLimitBurst int
	SecureCookies  bool
}

// RouterDependencies contains all dependencies needed by the router
type RouterDependencies struct {
	Sessions      domain.SessionProvider
	Outputs       domain.OutputRepository
	HealthChecker domain.HealthChecker
}

// RouterResult contains the configured app and cleanup function
type RouterResult struct {
	App     *fiber.App
	Cleanup func()
}

// SetupRouter creates and configures the Fiber app with all routes and middleware
func SetupRouter(deps RouterDependencies, config RouterConfig) *RouterResult {
	app := fiber.New(fiber.Config{
		BodyLimit:    config.BodyLimit,
		ErrorHandler: customErrorHandler,
	})

	handlers := NewHandlers(deps.Sessions, deps.Outputs, deps.HealthChecker)
	handlers.secureCookie = config.SecureCookies

	// request id first so every later log line can carry it
	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.New().String()
		},
	}))

	app.Use(structuredLoggingMiddleware())

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			log.Error().
				Str("request_id", requestID(c)).
				Str("route", c.Method()+" "+c.Path()).
				Interface("panic", e).
				Msg("Recovered from panic in handler")
		},
	}))
	app.Use(securityHeadersMiddleware())

	// buckets are keyed by operator session, falling back to client IP
	var stopRateLimiter func()
	if config.RateLimitRPS > 0 {
		rateLimiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
		stopRateLimiter = rateLimiter.StartCleanupRoutine()
		app.Use(rateLimiter.Middleware())
	}

	if len(config.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(config.CORSOrigins, ","),
			AllowMethods:     "GET,POST,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept,X-Request-ID," + middleware.SessionHeader,
			ExposeHeaders:    middleware.SessionHeader,
			AllowCredentials: false,
			MaxAge:           86400,
		}))
	}

	v1 := app.Group("/v1")

	v1.Get("/locales", handlers.ListLocalesHandler)
	v1.Post("/session/locale", handlers.SelectLocaleHandler)
	v1.Get("/conflicts/current", handlers.CurrentConflictHandler)
	v1.Post("/conflicts/resolve", handlers.ResolveConflictHandler)
	v1.Get("/outputs/:locale/:file", handlers.GetOutputHandler)

	app.Get("/health", handlers.HealthHandler)
	app.Get("/swagger/*", swagger.HandlerDefault)

	cleanup := func() {
		if stopRateLimiter != nil {
			stopRateLimiter()
		}
	}

	return &RouterResult{App: app, Cleanup: cleanup}
}

// frameworkErrorCodes maps statuses raised by fiber itself to error codes
var frameworkErrorCodes = map[int]string{
	fiber.StatusBadRequest:            domain.ErrInvalidInput,
	fiber.StatusRequestEntityTooLarge: domain.ErrInvalidInput,
	fiber.StatusNotFound:              domain.ErrNotFound,
	fiber.StatusMethodNotAllowed:      domain.ErrNotFound,
	fiber.StatusTooManyRequests:       domain.ErrRateLimit,
}

// customErrorHandler renders errors that escape the handlers, mostly routing and body-size errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	status, message := fiber.StatusInternalServerError, "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status, message = fe.Code, fe.Message
	}
	if status == fiber.StatusRequestEntityTooLarge {
		message = "Request payload too large"
	}

	code, ok := frameworkErrorCodes[status]
	if !ok {
		code = domain.ErrInternal
	}
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", requestID(c)).Str("path", c.Path()).Msg("Unhandled error")
	}

	return c.Status(status).JSON(ErrorResponse{Status: "error", Code: code, Message: message})
}

// structuredLoggingMiddleware logs one line per request with zerolog
func structuredLoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		rid := requestID(c)
		if rid == "" {
			rid = "unknown"
		}

		status := c.Response().StatusCode()
		logEvent := log.Info()
		if status >= 500 {
			logEvent = log.Error()
		} else if status >= 400 {
			logEvent = log.Warn()
		}

		logEvent.
			Str("request_id", rid).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.IP()).
			Str("user_agent", c.Get("User-Agent")).
			Int("response_size", len(c.Response().Body())).
			Msg("HTTP request processed")

		return err
	}
}

// securityHeadersMiddleware adds security headers
func securityHeadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		return c.Next()
	}
}
