package api

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/freewebtopdf/propmerge/internal/domain"
	"github.com/freewebtopdf/propmerge/internal/middleware"
)

// Handlers contains all HTTP handlers of the resolution API
type Handlers struct {
	sessions      domain.SessionProvider
	outputs       domain.OutputRepository
	healthChecker domain.HealthChecker
	validate      *validator.Validate
	secureCookie  bool
}

// NewHandlers creates a new instance of API handlers
func NewHandlers(sessions domain.SessionProvider, outputs domain.OutputRepository, healthChecker domain.HealthChecker) *Handlers {
	return &Handlers{
		sessions:      sessions,
		outputs:       outputs,
		healthChecker: healthChecker,
		validate:      validator.New(),
	}
}

// SelectLocaleRequest represents the request payload for choosing a locale
// @Description Locale to work on
type SelectLocaleRequest struct {
	Locale string `json:"locale" validate:"required,max=64" example:"en_US"`
}

// ResolveConflictRequest represents the request payload for resolving a conflict
// @Description Operator decision for one conflict
type ResolveConflictRequest struct {
	Index *int `json:"index" validate:"required" example:"0"`
	// Value is stored trimmed; line breaks are rejected
	Value *string `json:"value" validate:"required" example:"Hello"`
}

// ConflictResponse is the conflict currently presented to a session
// @Description Current conflict of a session, null when there is none
type ConflictResponse struct {
	SessionID string               `json:"session_id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Locale    string               `json:"locale" example:"en_US"`
	Total     int                  `json:"total" example:"12"`
	Conflict  *domain.ConflictView `json:"conflict"`
}

// OutputResponse is the content of one merged output
// @Description Merged properties of one locale and file
type OutputResponse struct {
	Locale     string            `json:"locale" example:"en_US"`
	FileName   string            `json:"file_name" example:"checkout_en_US.properties"`
	Keys       []string          `json:"keys"`
	Properties map[string]string `json:"properties"`
}

// ErrorResponse represents the standard error response format
// @Description Standard error response format
type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Code    string `json:"code" example:"INDEX_OUT_OF_RANGE"`
	Message string `json:"message" example:"Conflict index is out of range"`
	Details any    `json:"details,omitempty"`
}

// SuccessResponse represents the standard success response format
// @Description Standard success response format
type SuccessResponse struct {
	Status string `json:"status" example:"success"`
	Data   any    `json:"data"`
}

// ListLocalesHandler handles GET /v1/locales requests
// @Summary      List locales with conflicts
// @Description  Returns every locale of the conflict dataset, sorted, with its conflict count
// @Tags         Resolution
// @Produce      json
// @Success      200 {object} SuccessResponse{data=object{locales=[]domain.LocaleInfo,count=int}}
// @Router       /v1/locales [get]
func (h *Handlers) ListLocalesHandler(c *fiber.Ctx) error {
	locales := h.sessions.Locales()
	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data: map[string]any{
			"locales": locales,
			"count":   len(locales),
		},
	})
}

// SelectLocaleHandler handles POST /v1/session/locale requests
// @Summary      Select the locale to resolve
// @Description  Switches the session to a locale and rewinds its cursor; starts a session when none is given
// @Tags         Resolution
// @Accept       json
// @Produce      json
// @Param        request body SelectLocaleRequest true "Locale to select"
// @Param        X-Session-ID header string false "Session identifier"
// @Success      200 {object} SuccessResponse{data=ConflictResponse}
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Router       /v1/session/locale [post]
func (h *Handlers) SelectLocaleHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	var req SelectLocaleRequest
	if err := c.BodyParser(&req); err != nil {
		return h.sendError(c, domain.NewAppError(
			domain.ErrInvalidInput,
			"Invalid JSON payload",
			400,
			map[string]string{"error": err.Error()},
		).WithContext(ctx, "select_locale_parsing"))
	}

	req.Locale = strings.TrimSpace(req.Locale)
	if err := h.validate.Struct(&req); err != nil {
		return h.sendError(c, validationError(err).WithContext(ctx, "select_locale_validation"))
	}

	session, id := h.session(c)
	session.SelectLocale(req.Locale)

	return h.sendCurrent(c, session, id)
}

// CurrentConflictHandler handles GET /v1/conflicts/current requests
// @Summary      Current conflict
// @Description  Returns the conflict under the session cursor with its majority value, or null
// @Tags         Resolution
// @Produce      json
// @Param        X-Session-ID header string false "Session identifier"
// @Success      200 {object} SuccessResponse{data=ConflictResponse}
// @Router       /v1/conflicts/current [get]
func (h *Handlers) CurrentConflictHandler(c *fiber.Ctx) error {
	session, id := h.session(c)
	return h.sendCurrent(c, session, id)
}

// ResolveConflictHandler handles POST /v1/conflicts/resolve requests
// @Summary      Resolve a conflict
// @Description  Writes the chosen value into the merged output and advances the cursor
// @Tags         Resolution
// @Accept       json
// @Produce      json
// @Param        request body ResolveConflictRequest true "Decision"
// @Param        X-Session-ID header string false "Session identifier"
// @Success      200 {object} SuccessResponse{data=ConflictResponse} "Next conflict"
// @Failure      400 {object} ErrorResponse "Invalid request payload or value with line breaks"
// @Failure      409 {object} ErrorResponse "No locale selected"
// @Failure      422 {object} ErrorResponse "Index out of range"
// @Failure      500 {object} ErrorResponse "Output could not be written"
// @Router       /v1/conflicts/resolve [post]
func (h *Handlers) ResolveConflictHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	var req ResolveConflictRequest
	if err := c.BodyParser(&req); err != nil {
		return h.sendError(c, domain.NewAppError(
			domain.ErrInvalidInput,
			"Invalid JSON payload",
			400,
			map[string]string{"error": err.Error()},
		).WithContext(ctx, "resolve_conflict_parsing"))
	}
	if err := h.validate.Struct(&req); err != nil {
		return h.sendError(c, validationError(err).WithContext(ctx, "resolve_conflict_validation"))
	}

	session, id := h.session(c)
	next, err := session.Resolve(ctx, *req.Index, *req.Value)
	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", requestID(c)).
			Str("session", id).
			Int("index", *req.Index).
			Msg("Failed to resolve conflict")
		return h.sendAppError(c, err, "resolve_conflict")
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data:   h.conflictResponse(session, id, next),
	})
}

// GetOutputHandler handles GET /v1/outputs/:locale/:file requests
// @Summary      Read a merged output
// @Description  Returns the current content of a merged properties file
// @Tags         Outputs
// @Produce      json
// @Param        locale path string true "Locale" example(en_US)
// @Param        file path string true "File name" example(checkout_en_US.properties)
// @Success      200 {object} SuccessResponse{data=OutputResponse}
// @Failure      400 {object} ErrorResponse "Invalid locale or file name"
// @Failure      404 {object} ErrorResponse "Output not found"
// @Router       /v1/outputs/{locale}/{file} [get]
func (h *Handlers) GetOutputHandler(c *fiber.Ctx) error {
	key := domain.OutputKey{
		Locale:   strings.TrimSpace(c.Params("locale")),
		FileName: strings.TrimSpace(c.Params("file")),
	}

	values, keys, err := h.outputs.Get(c.Context(), key)
	if err != nil {
		return h.sendAppError(c, err, "get_output")
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data: OutputResponse{
			Locale:     key.Locale,
			FileName:   key.FileName,
			Keys:       keys,
			Properties: values,
		},
	})
}

// HealthHandler handles GET /health requests
// @Summary      Health check
// @Description  Reports the health of the output store, the conflict dataset and the session cache
// @Tags         System
// @Produce      json
// @Success      200 {object} map[string]any "Service is healthy"
// @Failure      503 {object} map[string]any "Service is degraded or unhealthy"
// @Router       /health [get]
func (h *Handlers) HealthHandler(c *fiber.Ctx) error {
	health := h.healthChecker.CheckHealth(c.Context())

	status := 200
	if health.Status != domain.HealthStatusHealthy {
		status = 503
	}

	return c.Status(status).JSON(map[string]any{
		"status":     health.Status,
		"timestamp":  health.Timestamp.Format(time.RFC3339),
		"components": health.Components,
		"uptime":     health.Uptime.String(),
	})
}

// session resolves the caller's session and echoes its id back
func (h *Handlers) session(c *fiber.Ctx) (domain.ResolutionSession, string) {
	id := c.Get(middleware.SessionHeader)
	if id == "" {
		id = c.Cookies(middleware.SessionCookie)
	}

	session, id := h.sessions.Session(id)

	c.Set(middleware.SessionHeader, id)
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return session, id
}

func (h *Handlers) sendCurrent(c *fiber.Ctx, session domain.ResolutionSession, id string) error {
	view, err := session.Current()
	if err != nil {
		return h.sendAppError(c, err, "current_conflict")
	}
	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data:   h.conflictResponse(session, id, view),
	})
}

func (h *Handlers) conflictResponse(session domain.ResolutionSession, id string, view *domain.ConflictView) ConflictResponse {
	locale := session.Locale()
	resp := ConflictResponse{SessionID: id, Locale: locale, Conflict: view}
	if view != nil {
		resp.Total = view.Total
		return resp
	}
	for _, l := range h.sessions.Locales() {
		if l.Locale == locale {
			resp.Total = l.Conflicts
		}
	}
	return resp
}

// sendAppError sends err as-is when it is an AppError and as a 500 otherwise
func (h *Handlers) sendAppError(c *fiber.Ctx, err error, operation string) error {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.NewAppErrorWithCause(domain.ErrInternal, "Internal server error", 500, err, nil)
	}
	return h.sendError(c, appErr.WithContext(c.Context(), operation))
}

func (h *Handlers) sendError(c *fiber.Ctx, appErr *domain.AppError) error {
	return c.Status(appErr.StatusCode).JSON(ErrorResponse{
		Status:  "error",
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// validationError turns validator errors into a 400 listing the failing fields
func validationError(err error) *domain.AppError {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return domain.NewAppError(
		domain.ErrInvalidInput,
		"Request validation failed",
		400,
		fields,
	)
}

func requestID(c *fiber.Ctx) string {
	if rid, ok := c.Locals("requestid").(string); ok {
		return rid
	}
	return ""
}
